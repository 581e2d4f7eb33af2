// filedeck - file manager core CLI
//
// Exercises the core against a real filesystem:
//
//	filedeck ls [flags] [path]       List a directory
//	filedeck search <query> [flags]  Recursive search under a directory
//	filedeck tag <color> <path>...   Tag files with a color
//	filedeck untag <path>...         Remove all color tags from files
//	filedeck tags [color]            Show tagged files
//	filedeck copy -to <dir> <path>...  Copy files with conflict-safe naming
//	filedeck trash <path>...         Move files to the trash directory
//	filedeck size <dir>              Compute a recursive directory size
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/dux/filedeck/internal/config"
	"github.com/dux/filedeck/internal/events"
	"github.com/dux/filedeck/internal/explorer"
	"github.com/dux/filedeck/internal/logging"
	"github.com/dux/filedeck/internal/metrics"
	"github.com/dux/filedeck/internal/model"
	"github.com/dux/filedeck/internal/selection"
	"github.com/dux/filedeck/internal/sizecache"
	"github.com/dux/filedeck/internal/tags"
)

type app struct {
	cfg       *config.Config
	sizes     *sizecache.Cache
	tagStore  *tags.Manager
	selected  *selection.Manager
	explorer  *explorer.Explorer
	broadcast *events.Broadcaster
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: init logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				logging.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ch := a.broadcast.Subscribe()
	defer a.broadcast.Unsubscribe(ch)
	go func() {
		for ev := range ch {
			logging.Debug("event",
				zap.String("type", ev.Type),
				zap.String("path", ev.Path),
				zap.String("message", ev.Message),
				zap.Int("count", ev.Count))
		}
	}()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "ls":
		err = a.cmdLs(args)
	case "search":
		err = a.cmdSearch(args)
	case "tag":
		err = a.cmdTag(args)
	case "untag":
		err = a.cmdUntag(args)
	case "tags":
		err = a.cmdTags(args)
	case "copy":
		err = a.cmdCopy(args)
	case "trash":
		err = a.cmdTrash(args)
	case "size":
		err = a.cmdSize(args)
	default:
		usage()
		os.Exit(2)
	}

	if saveErr := a.sizes.Save(); saveErr != nil {
		logging.Warn("size cache snapshot failed", zap.Error(saveErr))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config) (*app, error) {
	sizes := sizecache.NewPersistent(cfg.SizeCacheFile)
	if err := sizes.Load(); err != nil {
		logging.Warn("size cache load failed", zap.Error(err))
	}

	tagStore, err := tags.NewManager(cfg.TagStoreFile)
	if err != nil {
		return nil, err
	}

	bc := events.NewBroadcaster()
	return &app{
		cfg:      cfg,
		sizes:    sizes,
		tagStore: tagStore,
		selected: selection.NewManager(bc),
		explorer: explorer.New(explorer.Config{
			ChurnFolders:     cfg.ChurnFolders,
			SearchDebounce:   cfg.SearchDebounce,
			MaxSearchResults: cfg.MaxSearchResults,
			ShowHiddenFiles:  cfg.ShowHiddenFiles,
		}, sizes, nil, bc),
		broadcast: bc,
	}, nil
}

func (a *app) cmdLs(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	byModified := fs.Bool("t", false, "Sort by modification time")
	showHidden := fs.Bool("a", false, "Show hidden files")
	fs.Parse(args)

	path := "."
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	if *showHidden {
		a.explorer.SetHiddenFilesVisible(true)
	}
	if err := a.explorer.NavigateTo(context.Background(), path); err != nil {
		return err
	}
	if *byModified {
		a.explorer.SetSortMode(explorer.SortByModified)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	for _, item := range a.explorer.Listing().AllItems() {
		kind := "file"
		if item.IsDir {
			kind = "dir"
		}
		size := "?"
		if item.Size != model.SizeUnknown {
			size = fmt.Sprintf("%d", item.Size)
		}
		colors := a.tagStore.ColorsFor(item.ID)
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", kind, size, item.Name, colors)
	}
	return w.Flush()
}

func (a *app) cmdSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	root := fs.String("path", ".", "Directory to search under")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: filedeck search <query> [-path dir]")
	}

	if err := a.explorer.NavigateTo(context.Background(), *root); err != nil {
		return err
	}
	a.explorer.Search(fs.Arg(0))

	for a.explorer.IsSearchRunning() {
		time.Sleep(10 * time.Millisecond)
	}
	for _, item := range a.explorer.SearchResults() {
		fmt.Println(item.DisplayPath())
	}
	return nil
}

func (a *app) cmdTag(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: filedeck tag <color> <path>...")
	}
	color := tags.Color(args[0])
	if !color.Valid() {
		return fmt.Errorf("unknown color %q (colors: %v)", args[0], tags.Colors)
	}
	for _, path := range args[1:] {
		abs, err := absPath(path)
		if err != nil {
			return err
		}
		a.tagStore.Add(abs, color)
	}
	return nil
}

func (a *app) cmdUntag(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: filedeck untag <path>...")
	}
	for _, path := range args {
		abs, err := absPath(path)
		if err != nil {
			return err
		}
		a.tagStore.RemoveAll(abs)
	}
	return nil
}

func (a *app) cmdTags(args []string) error {
	colors := tags.Colors
	if len(args) > 0 {
		c := tags.Color(args[0])
		if !c.Valid() {
			return fmt.Errorf("unknown color %q", args[0])
		}
		colors = []tags.Color{c}
	}

	for _, color := range colors {
		paths := a.tagStore.List(color)
		if len(paths) == 0 {
			continue
		}
		fmt.Printf("%s (%d):\n", color, len(paths))
		for _, p := range paths {
			tf := model.NewTaggedFile(p)
			marker := ""
			if !tf.Exists {
				marker = " (missing)"
			}
			fmt.Printf("  %s/%s%s\n", tf.ParentPath(), tf.Name(), marker)
		}
	}
	return nil
}

func (a *app) cmdCopy(args []string) error {
	fs := flag.NewFlagSet("copy", flag.ExitOnError)
	dest := fs.String("to", "", "Destination directory (required)")
	fs.Parse(args)

	if *dest == "" || fs.NArg() == 0 {
		return fmt.Errorf("usage: filedeck copy -to <dir> <path>...")
	}

	if err := a.selectPaths(fs.Args()); err != nil {
		return err
	}
	result := a.selected.CopyLocalItems(context.Background(), *dest)
	a.selected.Clear()
	a.sizes.Invalidate(*dest)

	fmt.Printf("copied %d, failed %d\n", result.Succeeded, result.Failed)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", e)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d item(s) failed", result.Failed)
	}
	return nil
}

func (a *app) cmdTrash(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: filedeck trash <path>...")
	}

	if err := a.selectPaths(args); err != nil {
		return err
	}
	result := a.selected.MoveLocalItemsToTrash(context.Background(), a.cfg.TrashDir)
	a.selected.Clear()

	fmt.Printf("trashed %d, failed %d\n", result.Succeeded, result.Failed)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", e)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d item(s) failed", result.Failed)
	}
	return nil
}

func (a *app) cmdSize(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: filedeck size <dir>")
	}
	abs, err := absPath(args[0])
	if err != nil {
		return err
	}

	size, err := a.sizes.ComputeSize(context.Background(), abs)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%d\n", abs, size)
	return nil
}

func (a *app) selectPaths(paths []string) error {
	for _, path := range paths {
		abs, err := absPath(path)
		if err != nil {
			return err
		}
		info, err := os.Stat(abs)
		if err != nil {
			// Let the batch report the per-item failure.
			a.selected.Add(model.NewLocalItem(abs, false, model.SizeUnknown, time.Time{}))
			continue
		}
		a.selected.Add(model.NewLocalItem(abs, info.IsDir(), info.Size(), info.ModTime()))
	}
	return nil
}

func absPath(path string) (string, error) {
	return filepath.Abs(path)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: filedeck <command> [flags]

Commands:
  ls [-t] [-a] [path]        List a directory, directories first
  search <query> [-path dir] Search recursively under a directory
  tag <color> <path>...      Tag files with a color
  untag <path>...            Remove all color tags from files
  tags [color]               Show tagged files per color
  copy -to <dir> <path>...   Copy with conflict-safe naming
  trash <path>...            Move files to the trash directory
  size <dir>                 Compute a recursive directory size`)
}
