package entry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"hw-isolation/core/storage"
	"hw-isolation/feature/guard"
)

// Owner is the table an entry belongs to. Resolve calls back into it to
// release the guard record and the inventory state, then to drop the entry.
type Owner interface {
	ClearRecord(ctx context.Context, recordID uint32) error
	SetEnabled(ctx context.Context, inventoryPath string, enabled bool)
	EraseEntry(recordID uint32)
}

// Entry is the management object mirroring one active guard record.
// It is not safe for concurrent use; its owner serialises access.
type Entry struct {
	recordID     uint32
	objectPath   string
	path         guard.EntityPath
	severity     Severity
	resolved     bool
	associations []Association
	elapsed      time.Time
	ecoCore      bool

	store storage.Client
	owner Owner
}

// Params describes a new entry.
type Params struct {
	RecordID     uint32
	ObjectPath   string
	Path         guard.EntityPath
	Severity     Severity
	Resolved     bool
	Associations []Association
	Elapsed      time.Time
	EcoCore      bool
}

// New creates an entry. It does not persist anything.
func New(p Params, store storage.Client, owner Owner) (*Entry, error) {
	if p.RecordID == guard.InvalidRecordID {
		return nil, fmt.Errorf("cannot create entry for the invalid record id")
	}
	if len(p.Path) == 0 {
		return nil, fmt.Errorf("entry %d: empty entity path", p.RecordID)
	}
	if targetOf(p.Associations, FwdIsolatedHW) == "" {
		return nil, fmt.Errorf("entry %d: missing isolated hardware association", p.RecordID)
	}

	return &Entry{
		recordID:     p.RecordID,
		objectPath:   p.ObjectPath,
		path:         append(guard.EntityPath(nil), p.Path...),
		severity:     p.Severity,
		resolved:     p.Resolved,
		associations: append([]Association(nil), p.Associations...),
		elapsed:      p.Elapsed,
		ecoCore:      p.EcoCore,
		store:        store,
		owner:        owner,
	}, nil
}

// RecordID returns the guard record id the entry mirrors.
func (e *Entry) RecordID() uint32 { return e.recordID }

// ObjectPath returns the entry's object path.
func (e *Entry) ObjectPath() string { return e.objectPath }

// Path returns the entity path of the isolated hardware.
func (e *Entry) Path() guard.EntityPath { return e.path }

// Severity returns the isolation severity.
func (e *Entry) Severity() Severity { return e.severity }

// Resolved reports whether the isolation has been resolved.
func (e *Entry) Resolved() bool { return e.resolved }

// Elapsed returns the creation timestamp.
func (e *Entry) Elapsed() time.Time { return e.elapsed }

// EcoCore reports whether the hardware is an economy core.
func (e *Entry) EcoCore() bool { return e.ecoCore }

// Associations returns a copy of the association list.
func (e *Entry) Associations() []Association {
	return append([]Association(nil), e.associations...)
}

// InventoryPath returns the inventory object of the isolated hardware.
func (e *Entry) InventoryPath() string { return targetOf(e.associations, FwdIsolatedHW) }

// ErrorLogPath returns the associated error log, or "" when there is none.
func (e *Entry) ErrorLogPath() string { return targetOf(e.associations, FwdIsolatedErrorLog) }

// Matches reports whether the entry mirrors record id on path.
func (e *Entry) Matches(id uint32, p guard.EntityPath) bool {
	return e.recordID == id && e.path.Equal(p)
}

// SetSeverity reports whether the value changed.
func (e *Entry) SetSeverity(sev Severity) bool {
	if e.severity == sev {
		return false
	}
	e.severity = sev
	return true
}

// SetAssociations reports whether the list changed.
func (e *Entry) SetAssociations(assocs []Association) bool {
	if equalAssociations(e.associations, assocs) {
		return false
	}
	e.associations = append([]Association(nil), assocs...)
	return true
}

// SetEcoCore records whether the location is an economy core.
func (e *Entry) SetEcoCore(eco bool) {
	e.ecoCore = eco
}

// SetElapsed sets the creation timestamp.
func (e *Entry) SetElapsed(t time.Time) {
	e.elapsed = t
}

// Resolve releases the isolation. With clearRecord the guard record is
// cleared first and a failure there leaves the entry untouched.
func (e *Entry) Resolve(ctx context.Context, clearRecord bool) error {
	if clearRecord {
		if err := e.owner.ClearRecord(ctx, e.recordID); err != nil {
			return fmt.Errorf("entry %d: %w", e.recordID, err)
		}
	}

	e.resolved = true
	e.owner.SetEnabled(ctx, e.InventoryPath(), true)
	e.owner.EraseEntry(e.recordID)

	if err := e.store.Remove(ctx, FileName(e.recordID)); err != nil {
		return fmt.Errorf("entry %d: failed to remove persisted file: %w", e.recordID, err)
	}
	return nil
}

// FileName is the persisted file name for a record id.
func FileName(recordID uint32) string {
	return strconv.FormatUint(uint64(recordID), 10)
}

// ParseFileName returns the record id a persisted file belongs to.
func ParseFileName(name string) (uint32, bool) {
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// View is a read-only snapshot of an entry for callers outside the owner.
type View struct {
	RecordID      uint32        `json:"record_id"`
	ObjectPath    string        `json:"object_path"`
	EntityPath    string        `json:"entity_path"`
	Severity      Severity      `json:"severity"`
	Resolved      bool          `json:"resolved"`
	InventoryPath string        `json:"inventory_path"`
	ErrorLogPath  string        `json:"error_log_path,omitempty"`
	Associations  []Association `json:"associations"`
	Elapsed       int64         `json:"elapsed"`
	EcoCore       bool          `json:"eco_core"`
}

// View returns a snapshot of the entry.
func (e *Entry) View() View {
	return View{
		RecordID:      e.recordID,
		ObjectPath:    e.objectPath,
		EntityPath:    e.path.String(),
		Severity:      e.severity,
		Resolved:      e.resolved,
		InventoryPath: e.InventoryPath(),
		ErrorLogPath:  e.ErrorLogPath(),
		Associations:  e.Associations(),
		Elapsed:       e.elapsed.Unix(),
		EcoCore:       e.ecoCore,
	}
}
