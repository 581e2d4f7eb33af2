// Package device defines the contract the core uses to reach a USB-attached
// mobile device's per-app sandboxed storage. The transport implementation
// is external; the core only depends on this interface.
package device

import (
	"context"
	"time"

	"github.com/jmgilman/go/errors"
)

// Entry is one listed file or directory inside an app sandbox.
type Entry struct {
	Name    string    `json:"name"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mtime,omitempty"`
}

// Bridge is the interface for device sandbox filesystems. Device and app
// identifiers are opaque strings supplied by device discovery; the core
// never interprets their structure. All calls can be long-running and
// honor ctx cancellation.
type Bridge interface {
	// List returns the ordered entries of path inside the app sandbox.
	// Fails with CodeUnavailable if the device disconnects mid-call.
	List(ctx context.Context, deviceID, appID, path string) ([]Entry, error)

	// Upload copies a local file into the sandbox at remotePath.
	Upload(ctx context.Context, deviceID, appID, localPath, remotePath string) error

	// Download copies a sandbox file at remotePath to localPath.
	Download(ctx context.Context, deviceID, appID, remotePath, localPath string) error

	// Delete removes path from the sandbox. Non-empty directories are
	// removed recursively.
	Delete(ctx context.Context, deviceID, appID, path string) error

	// Mkdir creates a directory at path. Fails with CodeAlreadyExists if
	// the path is occupied.
	Mkdir(ctx context.Context, deviceID, appID, path string) error
}

// Unavailable builds the error a Bridge returns when the device link is lost.
func Unavailable(deviceID string) error {
	return errors.Newf(errors.CodeUnavailable, "device %s is unavailable", deviceID)
}

// IsUnavailable reports whether err means the device link was lost.
func IsUnavailable(err error) bool {
	return errors.GetCode(err) == errors.CodeUnavailable
}
