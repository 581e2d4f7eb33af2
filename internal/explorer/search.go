package explorer

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/dux/filedeck/internal/events"
	"github.com/dux/filedeck/internal/metrics"
	"github.com/dux/filedeck/internal/model"
)

// Search runs a debounced recursive search scoped to the current path.
// An empty or whitespace-only query clears the results immediately without
// starting any work. A new query supersedes and cancels any in-flight
// search; only the most recent search's results are ever applied.
func (e *Explorer) Search(query string) {
	e.mu.Lock()

	if e.searchTimer != nil {
		e.searchTimer.Stop()
		e.searchTimer = nil
	}
	if e.searchCancel != nil {
		e.searchCancel()
		e.searchCancel = nil
	}
	e.searchSeq++

	if strings.TrimSpace(query) == "" {
		e.searchResults = nil
		e.searchRunning = false
		e.mu.Unlock()
		return
	}

	seq := e.searchSeq
	root := e.currentPath
	hidden := e.hiddenVisible
	limit := e.cfg.MaxSearchResults
	e.searchRunning = true

	ctx, cancel := context.WithCancel(context.Background())
	e.searchCancel = cancel
	e.searchTimer = time.AfterFunc(e.cfg.SearchDebounce, func() {
		results, err := searchWalk(ctx, root, query, hidden, limit)
		e.applySearchResults(seq, root, results, err)
	})
	e.mu.Unlock()
}

// SearchResults returns the results of the most recent completed search.
func (e *Explorer) SearchResults() []model.FileItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searchResults
}

// IsSearchRunning reports whether a search is pending or in flight.
func (e *Explorer) IsSearchRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searchRunning
}

// applySearchResults posts a completed search back to the explorer. Stale
// completions (superseded by a newer query) are discarded.
func (e *Explorer) applySearchResults(seq uint64, root string, results []model.FileItem, err error) {
	e.mu.Lock()
	if seq != e.searchSeq {
		e.mu.Unlock()
		metrics.RecordSearch("canceled")
		return
	}
	e.searchRunning = false
	if err != nil {
		e.searchResults = nil
	} else {
		e.searchResults = results
	}
	e.mu.Unlock()

	if err != nil {
		metrics.RecordSearch("failed")
		e.publishError(root, "search failed")
		return
	}
	metrics.RecordSearch("completed")
	e.publish(events.Event{Type: events.EventSearchDone, Path: root, Count: len(results)})
}

// searchWalk recursively collects entries under root whose names match
// query, then ranks them by fuzzy match quality. Unreadable subtrees are
// skipped; cancellation aborts the walk.
func searchWalk(ctx context.Context, root, query string, showHidden bool, limit int) ([]model.FileItem, error) {
	type candidate struct {
		path  string
		isDir bool
		size  int64
		mtime time.Time
	}

	var candidates []candidate
	var names []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") && !showHidden {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.Contains(strings.ToLower(name), strings.ToLower(query)) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		candidates = append(candidates, candidate{
			path:  path,
			isDir: d.IsDir(),
			size:  info.Size(),
			mtime: info.ModTime(),
		})
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Rank substring hits by fuzzy match quality so tighter matches come
	// first.
	matches := fuzzy.Find(query, names)
	ordered := make([]model.FileItem, 0, len(matches))
	seen := make(map[int]bool, len(matches))
	for _, match := range matches {
		c := candidates[match.Index]
		ordered = append(ordered, model.NewLocalItem(c.path, c.isDir, c.size, c.mtime))
		seen[match.Index] = true
		if len(ordered) >= limit {
			return ordered, nil
		}
	}
	// Substring matches the fuzzy scorer rejected keep walk order.
	for i, c := range candidates {
		if seen[i] {
			continue
		}
		ordered = append(ordered, model.NewLocalItem(c.path, c.isDir, c.size, c.mtime))
		if len(ordered) >= limit {
			break
		}
	}
	return ordered, nil
}
