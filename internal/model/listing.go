package model

import "time"

// CachedFileInfo is a lightweight metadata record for one local entry,
// used by the directory listing display.
type CachedFileInfo struct {
	ID       string    `json:"id"` // absolute path
	Name     string    `json:"name"`
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mtime"`
	IsHidden bool      `json:"is_hidden"`
}

// Listing holds one directory's contents split into directories and files.
// The two collections keep their own order; AllItems enforces the
// directories-first display invariant.
type Listing struct {
	Path        string
	Directories []CachedFileInfo
	Files       []CachedFileInfo
}

// AllItems returns directories followed by files.
func (l Listing) AllItems() []CachedFileInfo {
	out := make([]CachedFileInfo, 0, len(l.Directories)+len(l.Files))
	out = append(out, l.Directories...)
	out = append(out, l.Files...)
	return out
}

// Count returns the total number of entries.
func (l Listing) Count() int {
	return len(l.Directories) + len(l.Files)
}
