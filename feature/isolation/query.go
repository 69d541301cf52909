package isolation

import (
	"fmt"

	"hw-isolation/feature/entry"
)

// RecordInfo is the isolation state of one piece of hardware.
type RecordInfo struct {
	Severity     entry.Severity `json:"severity"`
	ErrorLogPath string         `json:"error_log_path"`
}

// Entries returns a snapshot of all entries ordered by record id.
func (m *Manager) Entries() []entry.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]entry.View, 0, len(m.entries))
	for _, id := range m.sortedIDs() {
		out = append(out, m.entries[id].View())
	}
	return out
}

// Entry returns one entry by record id.
func (m *Manager) Entry(recordID uint32) (entry.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[recordID]
	if !ok {
		return entry.View{}, fmt.Errorf("entry %d: %w", recordID, ErrNotFound)
	}
	return e.View(), nil
}

// IsolatedHwRecordInfo returns the severity and error log of the entry
// isolating inventoryPath.
func (m *Manager) IsolatedHwRecordInfo(inventoryPath string) (RecordInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.sortedIDs() {
		e := m.entries[id]
		if e.InventoryPath() == inventoryPath {
			return RecordInfo{Severity: e.Severity(), ErrorLogPath: e.ErrorLogPath()}, nil
		}
	}
	return RecordInfo{}, fmt.Errorf("hardware %s is not isolated: %w", inventoryPath, ErrNotFound)
}

// Len returns the number of entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
