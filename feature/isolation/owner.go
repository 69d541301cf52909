package isolation

import "context"

// tableOwner is the entry.Owner handed to every entry. Its methods run with
// the manager lock already held by whoever called into the entry.
type tableOwner struct {
	m *Manager
}

func ownerOf(m *Manager) tableOwner {
	return tableOwner{m: m}
}

func (o tableOwner) ClearRecord(ctx context.Context, recordID uint32) error {
	return o.m.guard.Clear(ctx, recordID)
}

func (o tableOwner) SetEnabled(ctx context.Context, inventoryPath string, enabled bool) {
	o.m.platform.SetEnabled(ctx, inventoryPath, enabled)
}

func (o tableOwner) EraseEntry(recordID uint32) {
	o.m.eraseEntry(recordID)
}
