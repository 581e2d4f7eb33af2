package selection

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmgilman/go/errors"
	cp "github.com/otiai10/copy"
	"go.uber.org/zap"

	"github.com/dux/filedeck/internal/device"
	"github.com/dux/filedeck/internal/events"
	"github.com/dux/filedeck/internal/logging"
	"github.com/dux/filedeck/internal/metrics"
	"github.com/dux/filedeck/internal/model"
	"github.com/dux/filedeck/internal/retry"
)

// BatchResult reports the outcome of a batch operation. Items are
// processed independently; one failure never aborts the siblings.
type BatchResult struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

func (r *BatchResult) fail(path string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, path+": "+err.Error())
}

// CopyLocalItems copies every selected Local-origin item into destDir,
// resolving name conflicts with unique destination naming. Sources and
// pre-existing destination entries are never modified. Returns the number
// of successful copies along with per-item errors.
func (m *Manager) CopyLocalItems(ctx context.Context, destDir string) BatchResult {
	result := BatchResult{}

	for _, item := range m.LocalItems() {
		if err := ctx.Err(); err != nil {
			result.fail(item.Path, err)
			continue
		}

		info, err := os.Stat(item.Path)
		if err != nil {
			result.fail(item.Path, classify(err, item.Path))
			metrics.RecordCopy("error")
			continue
		}

		dst := uniqueDestPath(destDir, item.Name, info.IsDir())
		if info.IsDir() {
			err = cp.Copy(item.Path, dst)
		} else {
			err = copyFile(item.Path, dst)
		}
		if err != nil {
			result.fail(item.Path, classify(err, item.Path))
			metrics.RecordCopy("error")
			continue
		}

		result.Succeeded++
		metrics.RecordCopy("ok")
	}

	logging.Debug("batch copy finished",
		zap.String("dest", destDir),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	m.publish(events.Event{Type: events.EventBatchDone, Path: destDir, Count: result.Succeeded})
	return result
}

// MoveLocalItemsToTrash moves every selected Local-origin item into
// trashDir, keeping conflicting names apart with unique destination naming.
func (m *Manager) MoveLocalItemsToTrash(ctx context.Context, trashDir string) BatchResult {
	result := BatchResult{}

	if err := os.MkdirAll(trashDir, 0755); err != nil {
		result.fail(trashDir, classify(err, trashDir))
		return result
	}

	for _, item := range m.LocalItems() {
		if err := ctx.Err(); err != nil {
			result.fail(item.Path, err)
			continue
		}

		info, err := os.Stat(item.Path)
		if err != nil {
			result.fail(item.Path, classify(err, item.Path))
			continue
		}

		dst := uniqueDestPath(trashDir, item.Name, info.IsDir())
		if err := os.Rename(item.Path, dst); err != nil {
			// Cross-device rename falls back to copy then delete.
			if cpErr := cp.Copy(item.Path, dst); cpErr != nil {
				result.fail(item.Path, classify(err, item.Path))
				continue
			}
			if rmErr := os.RemoveAll(item.Path); rmErr != nil {
				result.fail(item.Path, classify(rmErr, item.Path))
				continue
			}
		}
		result.Succeeded++
	}

	m.publish(events.Event{Type: events.EventBatchDone, Path: trashDir, Count: result.Succeeded})
	return result
}

// DownloadDeviceItems downloads every selected device-origin item into
// destDir through the bridge. Transient transfer failures are retried;
// a lost device is permanent.
func (m *Manager) DownloadDeviceItems(ctx context.Context, bridge device.Bridge, destDir string) BatchResult {
	result := BatchResult{}

	for _, item := range m.DeviceItems() {
		if err := ctx.Err(); err != nil {
			result.fail(item.Path, err)
			continue
		}

		localPath := uniqueDestPath(destDir, item.Name, item.IsDir)
		err := retry.Do(ctx, retry.DefaultConfig(), func() error {
			err := bridge.Download(ctx, item.Origin.DeviceID, item.Origin.AppID, item.Path, localPath)
			return markTransient(err)
		})
		if err != nil {
			result.fail(item.Path, err)
			metrics.RecordDeviceTransfer("download", "error")
			continue
		}

		result.Succeeded++
		metrics.RecordDeviceTransfer("download", "ok")
	}

	m.publish(events.Event{Type: events.EventBatchDone, Path: destDir, Count: result.Succeeded})
	return result
}

// UploadLocalItems uploads every selected Local-origin item into a device
// app sandbox directory through the bridge. Directories are skipped; the
// bridge transfers single files.
func (m *Manager) UploadLocalItems(ctx context.Context, bridge device.Bridge, origin model.Origin, destDir string) BatchResult {
	result := BatchResult{}

	if destDir != "" && destDir != "." {
		err := bridge.Mkdir(ctx, origin.DeviceID, origin.AppID, destDir)
		if err != nil && errors.GetCode(err) != errors.CodeAlreadyExists {
			result.fail(destDir, err)
			return result
		}
	}

	for _, item := range m.LocalItems() {
		if err := ctx.Err(); err != nil {
			result.fail(item.Path, err)
			continue
		}
		if item.IsDir {
			result.fail(item.Path, errors.New(errors.CodeInvalidInput, "directory upload not supported"))
			continue
		}

		remotePath := item.Name
		if destDir != "" && destDir != "." {
			remotePath = strings.TrimSuffix(destDir, "/") + "/" + item.Name
		}
		err := retry.Do(ctx, retry.DefaultConfig(), func() error {
			err := bridge.Upload(ctx, origin.DeviceID, origin.AppID, item.Path, remotePath)
			return markTransient(err)
		})
		if err != nil {
			result.fail(item.Path, err)
			metrics.RecordDeviceTransfer("upload", "error")
			continue
		}

		result.Succeeded++
		metrics.RecordDeviceTransfer("upload", "ok")
	}

	m.publish(events.Event{Type: events.EventBatchDone, Path: destDir, Count: result.Succeeded})
	return result
}

// DeleteDeviceItems deletes every selected device-origin item through the
// bridge. Directories are removed recursively by the bridge contract.
func (m *Manager) DeleteDeviceItems(ctx context.Context, bridge device.Bridge) BatchResult {
	result := BatchResult{}

	for _, item := range m.DeviceItems() {
		if err := ctx.Err(); err != nil {
			result.fail(item.Path, err)
			continue
		}

		if err := bridge.Delete(ctx, item.Origin.DeviceID, item.Origin.AppID, item.Path); err != nil {
			result.fail(item.Path, err)
			metrics.RecordDeviceTransfer("delete", "error")
			continue
		}

		result.Succeeded++
		metrics.RecordDeviceTransfer("delete", "ok")
	}

	m.publish(events.Event{Type: events.EventBatchDone, Count: result.Succeeded})
	return result
}

// copyFile copies src to dst atomically (temp file then rename). The
// source is opened read-only and never mutated.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, ".filedeck-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// classify maps an OS error to the coded taxonomy.
func classify(err error, path string) error {
	switch {
	case os.IsNotExist(err):
		return errors.Wrapf(err, errors.CodeNotFound, "%s does not exist", path)
	case os.IsPermission(err):
		return errors.Wrapf(err, errors.CodeForbidden, "permission denied for %s", path)
	case os.IsExist(err):
		return errors.Wrapf(err, errors.CodeAlreadyExists, "%s already exists", path)
	default:
		return errors.Wrapf(err, errors.CodeExecutionFailed, "operation on %s failed", path)
	}
}

// markTransient wraps uncoded bridge errors as retryable; coded failures
// (device gone, sandbox path missing) are permanent.
func markTransient(err error) error {
	if err == nil {
		return nil
	}
	if errors.GetCode(err) != errors.CodeUnknown {
		return err
	}
	return retry.Retryable(err)
}
