package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLocalItemIdentity(t *testing.T) {
	now := time.Now()
	item := NewLocalItem("/home/user/docs/report.txt", false, 1024, now)

	if item.ID() != "/home/user/docs/report.txt" {
		t.Errorf("local ID should be the absolute path, got %q", item.ID())
	}
	if item.Name != "report.txt" {
		t.Errorf("expected name report.txt, got %q", item.Name)
	}
	if !item.IsLocal() {
		t.Error("expected IsLocal true")
	}

	p, ok := item.LocalPath()
	if !ok || p != "/home/user/docs/report.txt" {
		t.Errorf("LocalPath = %q, %v", p, ok)
	}
}

func TestDeviceItemIdentity(t *testing.T) {
	origin := DeviceOrigin("dev-1", "com.example.notes", "Notes")
	item := NewDeviceItem(origin, "Documents/todo.txt", false, 64, time.Time{})

	want := "device:dev-1:com.example.notes:Documents/todo.txt"
	if item.ID() != want {
		t.Errorf("ID = %q, want %q", item.ID(), want)
	}
	if item.Name != "todo.txt" {
		t.Errorf("expected name todo.txt, got %q", item.Name)
	}
	if item.IsLocal() {
		t.Error("device item must not be local")
	}
	if _, ok := item.LocalPath(); ok {
		t.Error("LocalPath must not be usable for device items")
	}
}

func TestDeviceItemsSamePathDifferentSandbox(t *testing.T) {
	a := NewDeviceItem(DeviceOrigin("dev-1", "app-a", "A"), "Documents/file.txt", false, 0, time.Time{})
	b := NewDeviceItem(DeviceOrigin("dev-1", "app-b", "B"), "Documents/file.txt", false, 0, time.Time{})
	c := NewDeviceItem(DeviceOrigin("dev-2", "app-a", "A"), "Documents/file.txt", false, 0, time.Time{})

	if a.Equal(b) || a.Equal(c) || b.Equal(c) {
		t.Error("same path under different device/app must not be equal")
	}

	a2 := NewDeviceItem(DeviceOrigin("dev-1", "app-a", "A"), "Documents/file.txt", false, 99, time.Now())
	if !a.Equal(a2) {
		t.Error("identity is by identifier only, not metadata")
	}
}

func TestDisplayPathCollapsesHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	item := NewLocalItem(filepath.Join(home, "docs", "a.txt"), false, 0, time.Time{})
	want := filepath.Join("~", "docs", "a.txt")
	if item.DisplayPath() != want {
		t.Errorf("DisplayPath = %q, want %q", item.DisplayPath(), want)
	}

	outside := NewLocalItem("/etc/hosts", false, 0, time.Time{})
	if outside.DisplayPath() != "/etc/hosts" {
		t.Errorf("non-home path must be unchanged, got %q", outside.DisplayPath())
	}

	if CollapseHome(home) != "~" {
		t.Errorf("home itself should collapse to ~, got %q", CollapseHome(home))
	}
}

func TestListingDirectoriesFirst(t *testing.T) {
	l := Listing{
		Path: "/tmp",
		Directories: []CachedFileInfo{
			{ID: "/tmp/b", Name: "b", IsDir: true},
			{ID: "/tmp/d", Name: "d", IsDir: true},
		},
		Files: []CachedFileInfo{
			{ID: "/tmp/a.txt", Name: "a.txt"},
			{ID: "/tmp/c.txt", Name: "c.txt"},
		},
	}

	all := l.AllItems()
	if len(all) != 4 || l.Count() != 4 {
		t.Fatalf("expected 4 items, got %d", len(all))
	}
	for i, item := range all {
		wantDir := i < 2
		if item.IsDir != wantDir {
			t.Errorf("item %d: directories must precede files", i)
		}
	}
}

func TestTaggedFileDerivedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tf := NewTaggedFile(path)
	if !tf.Exists {
		t.Error("expected Exists true for a real file")
	}
	if tf.IsDir {
		t.Error("expected IsDir false")
	}
	if tf.Name() != "notes.md" {
		t.Errorf("Name = %q", tf.Name())
	}
	if tf.ID() != path {
		t.Errorf("ID = %q, want %q", tf.ID(), path)
	}

	gone := NewTaggedFile(filepath.Join(dir, "missing.txt"))
	if gone.Exists {
		t.Error("expected Exists false for a missing file")
	}
}
