// Package selection holds the process-wide selection of file items from
// both origins and runs batch operations over it.
package selection

import (
	"sync"

	"github.com/dux/filedeck/internal/events"
	"github.com/dux/filedeck/internal/metrics"
	"github.com/dux/filedeck/internal/model"
)

// Manager is the shared selection set. Membership is keyed by FileItem
// identifier; insertion order is preserved for display and batch
// processing. One instance is shared for the process lifetime and callers
// clear it explicitly between unrelated operations.
type Manager struct {
	mu    sync.Mutex
	items []model.FileItem

	broadcaster *events.Broadcaster // may be nil
}

// NewManager creates a selection manager. broadcaster may be nil; batch
// operations then run without notifications.
func NewManager(broadcaster *events.Broadcaster) *Manager {
	return &Manager{broadcaster: broadcaster}
}

// Add inserts item. Adding an already-selected item is a no-op.
func (m *Manager) Add(item model.FileItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOfLocked(item.ID()) >= 0 {
		return
	}
	m.items = append(m.items, item)
	metrics.SetSelectionSize(len(m.items))
}

// Remove deletes item from the selection if present.
func (m *Manager) Remove(item model.FileItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeAtLocked(m.indexOfLocked(item.ID()))
}

// Toggle flips membership of item.
func (m *Manager) Toggle(item model.FileItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOfLocked(item.ID()); i >= 0 {
		m.removeAtLocked(i)
		return
	}
	m.items = append(m.items, item)
	metrics.SetSelectionSize(len(m.items))
}

// Contains reports whether item is selected.
func (m *Manager) Contains(item model.FileItem) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOfLocked(item.ID()) >= 0
}

// ContainsLocal reports whether a Local-origin item with the given path is
// selected. Device items sharing the same path string never match.
func (m *Manager) ContainsLocal(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.items {
		if item.IsLocal() && item.Path == path {
			return true
		}
	}
	return false
}

// RemoveByPath removes the first Local-origin item whose path equals path.
func (m *Manager) RemoveByPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.items {
		if item.IsLocal() && item.Path == path {
			m.removeAtLocked(i)
			return
		}
	}
}

// Clear empties the selection unconditionally.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.items = nil
	m.mu.Unlock()
	metrics.SetSelectionSize(0)
}

// Count returns the number of selected items.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Items returns all selected items in insertion order.
func (m *Manager) Items() []model.FileItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLocked(func(model.FileItem) bool { return true })
}

// LocalItems returns the selected Local-origin items.
func (m *Manager) LocalItems() []model.FileItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLocked(func(it model.FileItem) bool { return it.IsLocal() })
}

// DeviceItems returns the selected device-origin items.
func (m *Manager) DeviceItems() []model.FileItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLocked(func(it model.FileItem) bool { return !it.IsLocal() })
}

func (m *Manager) copyLocked(keep func(model.FileItem) bool) []model.FileItem {
	var out []model.FileItem
	for _, item := range m.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (m *Manager) indexOfLocked(id string) int {
	for i, item := range m.items {
		if item.ID() == id {
			return i
		}
	}
	return -1
}

func (m *Manager) removeAtLocked(i int) {
	if i < 0 {
		return
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	metrics.SetSelectionSize(len(m.items))
}

func (m *Manager) publish(event events.Event) {
	if m.broadcaster != nil {
		m.broadcaster.Publish(event)
	}
}
