package selection

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"

	"github.com/dux/filedeck/internal/device"
	"github.com/dux/filedeck/internal/model"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func selectLocalFile(t *testing.T, m *Manager, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	m.Add(model.NewLocalItem(path, info.IsDir(), info.Size(), info.ModTime()))
}

func TestUniqueDestPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.pdf"), []byte("v1"))
	writeFile(t, filepath.Join(dir, "doc 2.pdf"), []byte("v2"))

	tests := []struct {
		name  string
		isDir bool
		want  string
	}{
		{"doc.pdf", false, "doc 3.pdf"},
		{"other.pdf", false, "other.pdf"},
		{"doc", true, "doc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uniqueDestPath(dir, tt.name, tt.isDir)
			if got != filepath.Join(dir, tt.want) {
				t.Errorf("uniqueDestPath(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestUniqueDestPathDirectoryConflict(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "photos"), 0755); err != nil {
		t.Fatal(err)
	}

	got := uniqueDestPath(dir, "photos", true)
	if got != filepath.Join(dir, "photos 2") {
		t.Errorf("got %q, want photos 2", got)
	}
}

func TestCopyLocalItemsConflictSafe(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	srcContent := []byte("fresh copy")
	writeFile(t, filepath.Join(src, "doc.pdf"), srcContent)

	existing := []byte("original")
	existing2 := []byte("second")
	writeFile(t, filepath.Join(dst, "doc.pdf"), existing)
	writeFile(t, filepath.Join(dst, "doc 2.pdf"), existing2)

	m := NewManager(nil)
	selectLocalFile(t, m, filepath.Join(src, "doc.pdf"))

	result := m.CopyLocalItems(context.Background(), dst)
	if result.Succeeded != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}

	if !bytes.Equal(readFile(t, filepath.Join(dst, "doc 3.pdf")), srcContent) {
		t.Error("copy must land at doc 3.pdf with source content")
	}
	if !bytes.Equal(readFile(t, filepath.Join(dst, "doc.pdf")), existing) {
		t.Error("pre-existing doc.pdf must be byte-unchanged")
	}
	if !bytes.Equal(readFile(t, filepath.Join(dst, "doc 2.pdf")), existing2) {
		t.Error("pre-existing doc 2.pdf must be byte-unchanged")
	}
	if !bytes.Equal(readFile(t, filepath.Join(src, "doc.pdf")), srcContent) {
		t.Error("source must be untouched")
	}
}

func TestCopyLocalItemsCopiesDirectories(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	tree := filepath.Join(src, "photos")
	if err := os.MkdirAll(filepath.Join(tree, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(tree, "a.jpg"), []byte("a"))
	writeFile(t, filepath.Join(tree, "sub", "b.jpg"), []byte("b"))

	m := NewManager(nil)
	selectLocalFile(t, m, tree)

	result := m.CopyLocalItems(context.Background(), dst)
	if result.Succeeded != 1 {
		t.Fatalf("result = %+v", result)
	}

	if !bytes.Equal(readFile(t, filepath.Join(dst, "photos", "sub", "b.jpg")), []byte("b")) {
		t.Error("nested file missing from directory copy")
	}
}

func TestCopyLocalItemsPartialFailure(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "ok.txt"), []byte("ok"))

	m := NewManager(nil)
	selectLocalFile(t, m, filepath.Join(src, "ok.txt"))
	// A selected item whose file vanished before the batch ran.
	m.Add(model.NewLocalItem(filepath.Join(src, "gone.txt"), false, 1, time.Now()))

	result := m.CopyLocalItems(context.Background(), dst)
	if result.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", result.Succeeded)
	}
	if result.Failed != 1 || len(result.Errors) != 1 {
		t.Errorf("failed = %d errors = %v, want 1 failure", result.Failed, result.Errors)
	}
	if _, err := os.Stat(filepath.Join(dst, "ok.txt")); err != nil {
		t.Error("healthy sibling must still be copied")
	}
}

func TestCopyLocalItemsIgnoresDeviceItems(t *testing.T) {
	dst := t.TempDir()

	m := NewManager(nil)
	m.Add(deviceItem("dev-1", "app-a", "Documents/x.txt"))

	result := m.CopyLocalItems(context.Background(), dst)
	if result.Succeeded != 0 || result.Failed != 0 {
		t.Errorf("device items must not participate in local copy: %+v", result)
	}
}

func TestCopyDeterministicFromCleanState(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "doc.pdf"), []byte("x"))

	m := NewManager(nil)
	selectLocalFile(t, m, filepath.Join(src, "doc.pdf"))

	for run := 0; run < 2; run++ {
		dst := t.TempDir()
		writeFile(t, filepath.Join(dst, "doc.pdf"), []byte("old"))

		m.CopyLocalItems(context.Background(), dst)
		if _, err := os.Stat(filepath.Join(dst, "doc 2.pdf")); err != nil {
			t.Errorf("run %d: expected doc 2.pdf", run)
		}
	}
}

func TestMoveLocalItemsToTrash(t *testing.T) {
	src := t.TempDir()
	trash := filepath.Join(t.TempDir(), "trash")

	writeFile(t, filepath.Join(src, "junk.txt"), []byte("junk"))

	m := NewManager(nil)
	selectLocalFile(t, m, filepath.Join(src, "junk.txt"))

	result := m.MoveLocalItemsToTrash(context.Background(), trash)
	if result.Succeeded != 1 {
		t.Fatalf("result = %+v", result)
	}
	if _, err := os.Stat(filepath.Join(src, "junk.txt")); !os.IsNotExist(err) {
		t.Error("source must be gone after trash move")
	}
	if !bytes.Equal(readFile(t, filepath.Join(trash, "junk.txt")), []byte("junk")) {
		t.Error("trashed file content mismatch")
	}
}

// fakeBridge is an in-memory Bridge for batch tests.
type fakeBridge struct {
	files     map[string][]byte // key: deviceID/appID/path
	deleted   []string
	downloads int
	failPaths map[string]error
	mkdirErr  error
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		files:     make(map[string][]byte),
		failPaths: make(map[string]error),
	}
}

func (f *fakeBridge) key(deviceID, appID, path string) string {
	return deviceID + "/" + appID + "/" + path
}

func (f *fakeBridge) List(_ context.Context, _, _, _ string) ([]device.Entry, error) {
	return nil, nil
}

func (f *fakeBridge) Upload(_ context.Context, deviceID, appID, localPath, remotePath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.files[f.key(deviceID, appID, remotePath)] = data
	return nil
}

func (f *fakeBridge) Download(_ context.Context, deviceID, appID, remotePath, localPath string) error {
	f.downloads++
	if err, ok := f.failPaths[remotePath]; ok {
		return err
	}
	data, ok := f.files[f.key(deviceID, appID, remotePath)]
	if !ok {
		return device.Unavailable(deviceID)
	}
	return os.WriteFile(localPath, data, 0644)
}

func (f *fakeBridge) Delete(_ context.Context, deviceID, appID, path string) error {
	if err, ok := f.failPaths[path]; ok {
		return err
	}
	delete(f.files, f.key(deviceID, appID, path))
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeBridge) Mkdir(_ context.Context, _, _, _ string) error {
	return f.mkdirErr
}

func TestDownloadDeviceItems(t *testing.T) {
	dst := t.TempDir()
	bridge := newFakeBridge()
	bridge.files["dev-1/app-a/Documents/x.txt"] = []byte("from device")

	m := NewManager(nil)
	m.Add(deviceItem("dev-1", "app-a", "Documents/x.txt"))

	result := m.DownloadDeviceItems(context.Background(), bridge, dst)
	if result.Succeeded != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if !bytes.Equal(readFile(t, filepath.Join(dst, "x.txt")), []byte("from device")) {
		t.Error("downloaded content mismatch")
	}
}

func TestDownloadDeviceItemsPartialFailure(t *testing.T) {
	dst := t.TempDir()
	bridge := newFakeBridge()
	bridge.files["dev-1/app-a/ok.txt"] = []byte("ok")
	bridge.failPaths["bad.txt"] = device.Unavailable("dev-1")

	m := NewManager(nil)
	m.Add(deviceItem("dev-1", "app-a", "ok.txt"))
	m.Add(deviceItem("dev-1", "app-a", "bad.txt"))

	result := m.DownloadDeviceItems(context.Background(), bridge, dst)
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected one reported error, got %v", result.Errors)
	}
}

func TestDownloadDeviceUnavailableNotRetried(t *testing.T) {
	dst := t.TempDir()
	bridge := newFakeBridge()
	bridge.failPaths["gone.txt"] = device.Unavailable("dev-1")

	m := NewManager(nil)
	m.Add(deviceItem("dev-1", "app-a", "gone.txt"))

	m.DownloadDeviceItems(context.Background(), bridge, dst)
	if bridge.downloads != 1 {
		t.Errorf("device-unavailable must be permanent, got %d attempts", bridge.downloads)
	}
}

func TestUploadLocalItems(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "report.pdf"), []byte("report"))
	bridge := newFakeBridge()

	m := NewManager(nil)
	selectLocalFile(t, m, filepath.Join(src, "report.pdf"))

	origin := model.DeviceOrigin("dev-1", "app-a", "Notes")
	result := m.UploadLocalItems(context.Background(), bridge, origin, "Documents")
	if result.Succeeded != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if !bytes.Equal(bridge.files["dev-1/app-a/Documents/report.pdf"], []byte("report")) {
		t.Error("uploaded content must land under the sandbox destination")
	}
}

func TestUploadLocalItemsToleratesExistingDestDir(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), []byte("a"))
	bridge := newFakeBridge()
	bridge.mkdirErr = errors.New(errors.CodeAlreadyExists, "exists")

	m := NewManager(nil)
	selectLocalFile(t, m, filepath.Join(src, "a.txt"))

	result := m.UploadLocalItems(context.Background(), bridge, model.DeviceOrigin("dev-1", "app-a", "Notes"), "Documents")
	if result.Succeeded != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
}

func TestUploadLocalItemsSkipsDirectories(t *testing.T) {
	src := t.TempDir()
	bridge := newFakeBridge()

	m := NewManager(nil)
	selectLocalFile(t, m, src)

	result := m.UploadLocalItems(context.Background(), bridge, model.DeviceOrigin("dev-1", "app-a", "Notes"), "")
	if result.Succeeded != 0 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(bridge.files) != 0 {
		t.Error("directory must not be uploaded")
	}
}

func TestDeleteDeviceItems(t *testing.T) {
	bridge := newFakeBridge()
	bridge.files["dev-1/app-a/a.txt"] = []byte("a")
	bridge.files["dev-1/app-a/b.txt"] = []byte("b")
	bridge.failPaths["b.txt"] = device.Unavailable("dev-1")

	m := NewManager(nil)
	m.Add(deviceItem("dev-1", "app-a", "a.txt"))
	m.Add(deviceItem("dev-1", "app-a", "b.txt"))

	result := m.DeleteDeviceItems(context.Background(), bridge)
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(bridge.deleted) != 1 || bridge.deleted[0] != "a.txt" {
		t.Errorf("deleted = %v", bridge.deleted)
	}

	// The selection is not auto-cleared after a batch.
	if m.Count() != 2 {
		t.Error("batch operations must not clear the selection")
	}
}
