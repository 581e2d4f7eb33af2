// Package tags provides a durable classification of files by tag color.
// Tags are independent of the files actually existing.
package tags

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/dux/filedeck/internal/logging"
	"github.com/dux/filedeck/internal/metrics"
)

// Color is one of the fixed tag colors.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
)

// Colors lists all valid tag colors in display order.
var Colors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// Valid reports whether c is one of the fixed colors.
func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// storeFile is the on-disk format: the full color→paths mapping, rewritten
// on every save.
type storeFile struct {
	Version uint64             `json:"version"`
	Colors  map[Color][]string `json:"colors"`
}

// Manager is the color tag store. A single instance is shared process-wide;
// all access goes through its methods, which serialize on an internal lock.
type Manager struct {
	mu   sync.Mutex
	path string // store file location, "" disables persistence

	// Per color, paths in insertion order. A path appears at most once
	// per color.
	sets map[Color][]string

	// Increments exactly once per mutation that changes state. Redundant
	// add/remove calls leave it unchanged.
	version uint64
}

// NewManager creates a manager backed by the store file at path. Prior
// state is reloaded fully; a missing file starts empty.
func NewManager(path string) (*Manager, error) {
	m := &Manager{
		path: path,
		sets: make(map[Color][]string),
	}

	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read tag store %s: %w", path, err)
	}

	var stored storeFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse tag store %s: %w", path, err)
	}

	m.version = stored.Version
	for color, paths := range stored.Colors {
		if !color.Valid() {
			continue
		}
		for _, p := range paths {
			if !contains(m.sets[color], p) {
				m.sets[color] = append(m.sets[color], p)
			}
		}
	}

	metrics.SetTaggedFiles(m.totalLocked())
	return m, nil
}

// Add tags path with color. Returns true if the tag was not already
// present. Adding an existing tag is a no-op and does not bump the version.
func (m *Manager) Add(path string, color Color) bool {
	if !color.Valid() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if contains(m.sets[color], path) {
		return false
	}
	m.sets[color] = append(m.sets[color], path)
	m.mutatedLocked("add")
	return true
}

// Remove untags path for color. Returns true if the tag was present.
func (m *Manager) Remove(path string, color Color) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(path, color)
}

// RemoveAll untags path for every color. Returns the number of tags removed.
func (m *Manager) RemoveAll(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, color := range Colors {
		if m.removeLocked(path, color) {
			removed++
		}
	}
	return removed
}

// Toggle flips the tag and returns true if path is now tagged with color.
func (m *Manager) Toggle(path string, color Color) bool {
	if !color.Valid() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removeLocked(path, color) {
		return false
	}
	m.sets[color] = append(m.sets[color], path)
	m.mutatedLocked("add")
	return true
}

// Count returns the number of paths tagged with color.
func (m *Manager) Count(color Color) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sets[color])
}

// List returns the paths tagged with color, in insertion order.
func (m *Manager) List(color Color) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.sets[color]))
	copy(out, m.sets[color])
	return out
}

// ColorsFor returns the colors path is tagged with, in display order.
func (m *Manager) ColorsFor(path string) []Color {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Color
	for _, color := range Colors {
		if contains(m.sets[color], path) {
			out = append(out, color)
		}
	}
	return out
}

// IsTagged reports whether path carries color.
func (m *Manager) IsTagged(path string, color Color) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return contains(m.sets[color], path)
}

// TotalCount returns the number of path/color pairs across all colors.
func (m *Manager) TotalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalLocked()
}

// Version returns the mutation counter. Observers compare it to a
// remembered value to cheaply detect staleness.
func (m *Manager) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Save rewrites the full store file (temp file then rename).
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) removeLocked(path string, color Color) bool {
	set := m.sets[color]
	for i, p := range set {
		if p == path {
			m.sets[color] = append(set[:i], set[i+1:]...)
			m.mutatedLocked("remove")
			return true
		}
	}
	return false
}

// mutatedLocked bumps the version, updates metrics and persists. A save
// failure is reported but the in-memory state stays authoritative for the
// session.
func (m *Manager) mutatedLocked(op string) {
	m.version++
	metrics.RecordTagMutation(op)
	metrics.SetTaggedFiles(m.totalLocked())
	if err := m.saveLocked(); err != nil {
		logging.Warn("tag store save failed", zap.String("file", m.path), zap.Error(err))
	}
}

func (m *Manager) totalLocked() int {
	total := 0
	for _, set := range m.sets {
		total += len(set)
	}
	return total
}

func (m *Manager) saveLocked() error {
	if m.path == "" {
		return nil
	}

	stored := storeFile{
		Version: m.version,
		Colors:  m.sets,
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func contains(set []string, path string) bool {
	for _, p := range set {
		if p == path {
			return true
		}
	}
	return false
}
