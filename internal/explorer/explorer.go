// Package explorer owns the navigation, listing and search state of the
// file manager: what directory the user is looking at, how it is sorted,
// and what the current search shows.
package explorer

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"
	"go.uber.org/zap"

	"github.com/dux/filedeck/internal/device"
	"github.com/dux/filedeck/internal/events"
	"github.com/dux/filedeck/internal/logging"
	"github.com/dux/filedeck/internal/model"
	"github.com/dux/filedeck/internal/sizecache"
)

// SortMode selects the listing order.
type SortMode string

const (
	SortByName     SortMode = "name"
	SortByModified SortMode = "modified"
)

// noSelection is the sentinel for "no row selected".
const noSelection = -1

// Config holds explorer behavior settings.
type Config struct {
	// Folder names that default to modified-date sorting when navigated to.
	ChurnFolders []string

	SearchDebounce   time.Duration
	MaxSearchResults int
	ShowHiddenFiles  bool
}

// Explorer is the navigation/listing/search state machine. State is
// mutated from a single logical foreground context; background listing and
// search post completed values back through the internal lock.
type Explorer struct {
	cfg    Config
	sizes  *sizecache.Cache
	bridge device.Bridge       // may be nil when no device is attached
	bc     *events.Broadcaster // may be nil

	mu sync.Mutex

	currentPath   string
	sortMode      SortMode
	hiddenVisible bool
	listing       model.Listing

	selectedIndex int
	selectedItem  string

	sidebarFocused   bool
	rightPaneFocused bool
	rightPaneCursor  int

	searchResults []model.FileItem
	searchRunning bool
	searchSeq     uint64
	searchTimer   *time.Timer
	searchCancel  context.CancelFunc
}

// New creates an explorer. sizes is consulted for directory sizes during
// listing; bridge and broadcaster may be nil.
func New(cfg Config, sizes *sizecache.Cache, bridge device.Bridge, bc *events.Broadcaster) *Explorer {
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = 200 * time.Millisecond
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 500
	}
	return &Explorer{
		cfg:           cfg,
		sizes:         sizes,
		bridge:        bridge,
		bc:            bc,
		sortMode:      SortByName,
		hiddenVisible: cfg.ShowHiddenFiles,
		selectedIndex: noSelection,
	}
}

// NavigateTo switches the explorer to path. The path is standardized
// (absolute, symlinks and ".." resolved) and listed before any state
// changes; a nonexistent or unreadable target leaves the current state
// untouched and surfaces a transient error.
func (e *Explorer) NavigateTo(ctx context.Context, path string) error {
	standardized, err := standardizePath(path)
	if err != nil {
		e.publishError(path, "cannot open "+path)
		return err
	}

	e.mu.Lock()
	hidden := e.hiddenVisible
	prev := e.currentPath
	mode := e.sortMode
	if standardized != prev {
		mode = e.defaultSortMode(standardized)
	}
	e.mu.Unlock()

	listing, err := listLocal(ctx, standardized, hidden, mode, e.sizes)
	if err != nil {
		e.publishError(path, "cannot open "+path)
		return err
	}

	e.mu.Lock()
	e.currentPath = standardized
	e.sortMode = mode
	e.listing = listing
	e.selectedIndex = noSelection
	e.selectedItem = ""
	e.mu.Unlock()

	logging.Debug("navigated", zap.String("path", standardized), zap.Int("entries", listing.Count()))
	e.publish(events.Event{Type: events.EventNavigated, Path: standardized, Count: listing.Count()})
	return nil
}

// NavigateUp navigates to the parent of the current path. At the
// filesystem root it is a no-op.
func (e *Explorer) NavigateUp(ctx context.Context) error {
	e.mu.Lock()
	current := e.currentPath
	e.mu.Unlock()

	if current == "" {
		return nil
	}
	parent := filepath.Dir(current)
	if parent == current {
		return nil
	}
	return e.NavigateTo(ctx, parent)
}

// Refresh re-lists the current directory without touching the sort mode or
// the user's sort choice.
func (e *Explorer) Refresh(ctx context.Context) error {
	e.mu.Lock()
	path := e.currentPath
	hidden := e.hiddenVisible
	mode := e.sortMode
	e.mu.Unlock()

	if path == "" {
		return nil
	}

	listing, err := listLocal(ctx, path, hidden, mode, e.sizes)
	if err != nil {
		e.publishError(path, "cannot refresh "+path)
		return err
	}

	e.mu.Lock()
	e.listing = listing
	e.mu.Unlock()
	e.publish(events.Event{Type: events.EventListed, Path: path, Count: listing.Count()})
	return nil
}

// ListDevice lists a directory inside a device app sandbox and returns
// origin-tagged items, directories first, ordered by the active sort mode.
func (e *Explorer) ListDevice(ctx context.Context, origin model.Origin, path string) ([]model.FileItem, error) {
	if e.bridge == nil {
		return nil, errors.New(errors.CodeUnavailable, "no device attached")
	}

	entries, err := e.bridge.List(ctx, origin.DeviceID, origin.AppID, path)
	if err != nil {
		e.publishError(path, "device listing failed")
		return nil, err
	}

	e.mu.Lock()
	mode := e.sortMode
	e.mu.Unlock()

	var dirs, files []model.FileItem
	for _, entry := range entries {
		childPath := entry.Name
		if path != "" && path != "." {
			childPath = strings.TrimSuffix(path, "/") + "/" + entry.Name
		}
		item := model.NewDeviceItem(origin, childPath, entry.IsDir, entry.Size, entry.ModTime)
		if entry.IsDir {
			dirs = append(dirs, item)
		} else {
			files = append(files, item)
		}
	}
	sortItems(dirs, mode)
	sortItems(files, mode)

	e.publish(events.Event{Type: events.EventListed, Path: path, Count: len(dirs) + len(files)})
	return append(dirs, files...), nil
}

// SetSortMode changes the sort mode and reorders the current listing.
// This is the user's explicit choice; it survives refreshes of the open
// folder.
func (e *Explorer) SetSortMode(mode SortMode) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sortMode = mode
	sortInfos(e.listing.Directories, mode)
	sortInfos(e.listing.Files, mode)
}

// SetHiddenFilesVisible sets the hidden-file policy for subsequent
// listings and searches.
func (e *Explorer) SetHiddenFilesVisible(visible bool) {
	e.mu.Lock()
	e.hiddenVisible = visible
	e.mu.Unlock()
}

// ClearSelection resets the row cursor to "none" and empties the selected
// item.
func (e *Explorer) ClearSelection() {
	e.mu.Lock()
	e.selectedIndex = noSelection
	e.selectedItem = ""
	e.mu.Unlock()
}

// SelectCurrentFolder targets the open folder itself rather than a child
// row: selectedItem becomes the current path while the row cursor stays at
// the "none" sentinel.
func (e *Explorer) SelectCurrentFolder() {
	e.mu.Lock()
	e.selectedItem = e.currentPath
	e.selectedIndex = noSelection
	e.mu.Unlock()
}

// SelectIndex moves the row cursor to index i of the current listing.
// Out-of-range indexes are ignored.
func (e *Explorer) SelectIndex(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := e.listing.AllItems()
	if i < 0 || i >= len(all) {
		return
	}
	e.selectedIndex = i
	e.selectedItem = all[i].ID
}

// FocusSidebar gives the sidebar focus, taking it from the right pane.
func (e *Explorer) FocusSidebar() {
	e.mu.Lock()
	e.sidebarFocused = true
	e.rightPaneFocused = false
	e.mu.Unlock()
}

// UnfocusSidebar drops sidebar focus.
func (e *Explorer) UnfocusSidebar() {
	e.mu.Lock()
	e.sidebarFocused = false
	e.mu.Unlock()
}

// FocusRightPane gives the right pane focus, taking it from the sidebar
// and resetting the pane's row cursor to the top.
func (e *Explorer) FocusRightPane() {
	e.mu.Lock()
	e.rightPaneFocused = true
	e.sidebarFocused = false
	e.rightPaneCursor = 0
	e.mu.Unlock()
}

// UnfocusRightPane drops right-pane focus.
func (e *Explorer) UnfocusRightPane() {
	e.mu.Lock()
	e.rightPaneFocused = false
	e.mu.Unlock()
}

// FolderSize returns the cached recursive size of dir, or
// model.SizeUnknown if it has not been computed.
func (e *Explorer) FolderSize(dir string) int64 {
	if e.sizes == nil {
		return model.SizeUnknown
	}
	if size, ok := e.sizes.CachedSize(dir); ok {
		return size
	}
	return model.SizeUnknown
}

// Accessors. Each takes the lock so callers see consistent values.

func (e *Explorer) CurrentPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPath
}

func (e *Explorer) SortMode() SortMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortMode
}

func (e *Explorer) HiddenFilesVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hiddenVisible
}

func (e *Explorer) Listing() model.Listing {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listing
}

func (e *Explorer) SelectedIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedIndex
}

func (e *Explorer) SelectedItem() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedItem
}

func (e *Explorer) SidebarFocused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sidebarFocused
}

func (e *Explorer) RightPaneFocused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rightPaneFocused
}

func (e *Explorer) RightPaneCursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rightPaneCursor
}

// defaultSortMode returns the per-path sort default: high-churn folders
// (downloads and friends) open sorted by modified date, everything else by
// name.
func (e *Explorer) defaultSortMode(path string) SortMode {
	base := filepath.Base(path)
	for _, churn := range e.cfg.ChurnFolders {
		if strings.EqualFold(base, churn) {
			return SortByModified
		}
	}
	return SortByName
}

func (e *Explorer) publish(event events.Event) {
	if e.bc != nil {
		e.bc.Publish(event)
	}
}

func (e *Explorer) publishError(path, message string) {
	logging.Warn("explorer error", zap.String("path", path), zap.String("message", message))
	if e.bc != nil {
		e.bc.PublishError(path, message)
	}
}

// standardizePath resolves path to an absolute, symlink-free form.
func standardizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidInput, "bad path %s", path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeNotFound, "cannot resolve %s", path)
	}
	return resolved, nil
}
