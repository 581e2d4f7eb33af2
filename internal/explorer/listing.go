package explorer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"

	"github.com/dux/filedeck/internal/metrics"
	"github.com/dux/filedeck/internal/model"
	"github.com/dux/filedeck/internal/sizecache"
)

// listLocal reads one local directory into a Listing, with directories and
// files kept apart and each group ordered by mode. Directory sizes come
// from the size cache when present and stay unknown otherwise; listing
// never triggers a recursive computation.
func listLocal(ctx context.Context, path string, showHidden bool, mode SortMode, sizes *sizecache.Cache) (model.Listing, error) {
	start := time.Now()

	entries, err := os.ReadDir(path)
	if err != nil {
		metrics.RecordListing("local", "error", time.Since(start))
		return model.Listing{}, classifyListErr(err, path)
	}

	listing := model.Listing{Path: path}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return model.Listing{}, err
		}

		name := entry.Name()
		hidden := strings.HasPrefix(name, ".")
		if hidden && !showHidden {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Entry vanished between ReadDir and Stat.
			continue
		}

		childPath := filepath.Join(path, name)
		cfi := model.CachedFileInfo{
			ID:       childPath,
			Name:     name,
			IsDir:    entry.IsDir(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			IsHidden: hidden,
		}

		if entry.IsDir() {
			cfi.Size = model.SizeUnknown
			if sizes != nil {
				if cached, ok := sizes.CachedSize(childPath); ok {
					cfi.Size = cached
				}
			}
			listing.Directories = append(listing.Directories, cfi)
		} else {
			listing.Files = append(listing.Files, cfi)
		}
	}

	sortInfos(listing.Directories, mode)
	sortInfos(listing.Files, mode)

	metrics.RecordListing("local", "ok", time.Since(start))
	return listing, nil
}

// sortInfos orders listing entries in place: by case-insensitive name, or
// newest-first by modification date.
func sortInfos(infos []model.CachedFileInfo, mode SortMode) {
	switch mode {
	case SortByModified:
		sort.SliceStable(infos, func(i, j int) bool {
			return infos[i].ModTime.After(infos[j].ModTime)
		})
	default:
		sort.SliceStable(infos, func(i, j int) bool {
			return strings.ToLower(infos[i].Name) < strings.ToLower(infos[j].Name)
		})
	}
}

// sortItems orders device items the same way.
func sortItems(items []model.FileItem, mode SortMode) {
	switch mode {
	case SortByModified:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ModTime.After(items[j].ModTime)
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		})
	}
}

func classifyListErr(err error, path string) error {
	switch {
	case os.IsNotExist(err):
		return errors.Wrapf(err, errors.CodeNotFound, "%s does not exist", path)
	case os.IsPermission(err):
		return errors.Wrapf(err, errors.CodeForbidden, "permission denied for %s", path)
	default:
		return errors.Wrapf(err, errors.CodeExecutionFailed, "cannot list %s", path)
	}
}
