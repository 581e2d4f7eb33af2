package model

import (
	"os"
	"path/filepath"
)

// TaggedFile is a path-derived view used by the color-tag browser. It is
// built from a stored path; the file may no longer exist.
type TaggedFile struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	IsDir  bool   `json:"is_dir"`
}

// NewTaggedFile stats path and records whether it still exists.
func NewTaggedFile(path string) TaggedFile {
	tf := TaggedFile{Path: path}
	if info, err := os.Stat(path); err == nil {
		tf.Exists = true
		tf.IsDir = info.IsDir()
	}
	return tf
}

// ID returns the raw path string.
func (t TaggedFile) ID() string { return t.Path }

// Name returns the last path segment.
func (t TaggedFile) Name() string { return filepath.Base(t.Path) }

// ParentPath returns the containing directory with the home prefix
// collapsed to "~".
func (t TaggedFile) ParentPath() string {
	return CollapseHome(filepath.Dir(t.Path))
}
