// Package model contains the file entity types shared across the core.
package model

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SizeUnknown marks a size that has not been computed yet.
const SizeUnknown int64 = -1

// OriginKind discriminates the two storage backends.
type OriginKind string

const (
	OriginLocal     OriginKind = "local"
	OriginDeviceApp OriginKind = "device"
)

// Origin identifies which backend a file entry belongs to. For device
// entries it carries the device and sandboxed app the entry lives under.
// Origin is a value type and never changes after construction.
type Origin struct {
	Kind     OriginKind `json:"kind"`
	DeviceID string     `json:"device_id,omitempty"`
	AppID    string     `json:"app_id,omitempty"`
	AppName  string     `json:"app_name,omitempty"`
}

// LocalOrigin returns the local filesystem origin.
func LocalOrigin() Origin {
	return Origin{Kind: OriginLocal}
}

// DeviceOrigin returns an origin for one app sandbox on one device.
func DeviceOrigin(deviceID, appID, appName string) Origin {
	return Origin{
		Kind:     OriginDeviceApp,
		DeviceID: deviceID,
		AppID:    appID,
		AppName:  appName,
	}
}

// FileItem is one file-system entry from either backend. Items are built
// fresh on every listing or search; nothing holds them long-term.
type FileItem struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"` // absolute for local, sandbox-relative for device
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"` // SizeUnknown if not computed
	ModTime time.Time `json:"mtime,omitempty"`
	Origin  Origin    `json:"origin"`
}

// NewLocalItem builds a FileItem for a local filesystem entry.
func NewLocalItem(absPath string, isDir bool, size int64, modTime time.Time) FileItem {
	return FileItem{
		Name:    filepath.Base(absPath),
		Path:    absPath,
		IsDir:   isDir,
		Size:    size,
		ModTime: modTime,
		Origin:  LocalOrigin(),
	}
}

// NewDeviceItem builds a FileItem for an entry in a device app sandbox.
func NewDeviceItem(origin Origin, path string, isDir bool, size int64, modTime time.Time) FileItem {
	name := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		name = path[idx+1:]
	}
	return FileItem{
		Name:    name,
		Path:    path,
		IsDir:   isDir,
		Size:    size,
		ModTime: modTime,
		Origin:  origin,
	}
}

// ID returns the stable identifier. Local items are identified by their
// absolute path; device items compose device, app and path so the same
// relative path under different sandboxes never collides.
func (i FileItem) ID() string {
	switch i.Origin.Kind {
	case OriginDeviceApp:
		return "device:" + i.Origin.DeviceID + ":" + i.Origin.AppID + ":" + i.Path
	default:
		return i.Path
	}
}

// Equal reports whether two items refer to the same entry.
func (i FileItem) Equal(other FileItem) bool {
	return i.ID() == other.ID()
}

// IsLocal reports whether the item lives on the local filesystem.
func (i FileItem) IsLocal() bool {
	return i.Origin.Kind == OriginLocal
}

// LocalPath returns a usable filesystem path. The second return value is
// false for device items; their paths are never valid local paths.
func (i FileItem) LocalPath() (string, bool) {
	if i.Origin.Kind != OriginLocal {
		return "", false
	}
	return i.Path, true
}

// DisplayPath returns the path for display: local paths have the home
// directory prefix collapsed to "~", device paths are prefixed with the
// app name.
func (i FileItem) DisplayPath() string {
	if i.Origin.Kind == OriginDeviceApp {
		return i.Origin.AppName + ":" + i.Path
	}
	return CollapseHome(i.Path)
}

// CollapseHome replaces the current user's home directory prefix with "~".
func CollapseHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}
