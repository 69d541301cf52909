package isolation

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"hw-isolation/core/logger"
	"hw-isolation/core/storage"
	"hw-isolation/feature/entry"
	"hw-isolation/feature/guard"

	"go.uber.org/zap"
)

// Manager owns the table of isolation entries and keeps it consistent with
// the guard partition. All table and eco-core state is touched with mu held,
// so concurrent callers are served one at a time.
type Manager struct {
	mu       sync.Mutex
	cfg      Config
	entries  map[uint32]*entry.Entry
	ecoCores ecoCoreSet

	guard    guard.Store
	locator  Locator
	platform Platform
	files    storage.Client
	state    storage.Client
	logger   *zap.Logger
	now      func() time.Time

	debounce *Debouncer
}

// NewManager builds a manager and loads the persisted eco-core set.
func NewManager(ctx context.Context, cfg Config, deps Deps) (*Manager, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if cfg.EntryObjectRoot == "" {
		return nil, fmt.Errorf("entry object root is not configured")
	}

	m := &Manager{
		cfg:      cfg,
		entries:  make(map[uint32]*entry.Entry),
		guard:    deps.Guard,
		locator:  deps.Locator,
		platform: deps.Platform,
		files:    deps.Entries,
		state:    deps.State,
		logger:   logger.Component(deps.Logger, "isolation"),
		now:      deps.Clock,
	}
	m.debounce = NewDebouncer(cfg.Debounce, m.handleRecordFileChange)
	m.ecoCores = m.loadEcoCores(ctx)
	return m, nil
}

// Close cancels a pending reconciliation.
func (m *Manager) Close() {
	m.debounce.Stop()
}

// ObjectPath returns the entry object path for a record id.
func (m *Manager) ObjectPath(recordID uint32) string {
	return m.cfg.EntryObjectRoot + "/" + strconv.FormatUint(uint64(recordID), 10)
}

// Create isolates the hardware at inventoryPath.
func (m *Manager) Create(ctx context.Context, inventoryPath string, sev entry.Severity) (string, error) {
	return m.create(ctx, createRequest{inventoryPath: inventoryPath, severity: sev})
}

// CreateWithErrorLog isolates the hardware at inventoryPath on behalf of an
// error log.
func (m *Manager) CreateWithErrorLog(ctx context.Context, inventoryPath string, sev entry.Severity, errorLog string) (string, error) {
	if errorLog == "" {
		return "", fmt.Errorf("error log is required: %w", ErrInvalidArgument)
	}
	return m.create(ctx, createRequest{inventoryPath: inventoryPath, severity: sev, errorLog: errorLog})
}

// CreateWithEntityPath isolates the hardware identified by a raw entity path.
// errorLog is optional.
func (m *Manager) CreateWithEntityPath(ctx context.Context, path guard.EntityPath, sev entry.Severity, errorLog string) (string, error) {
	if len(path) == 0 {
		return "", fmt.Errorf("empty entity path: %w", ErrInvalidArgument)
	}
	return m.create(ctx, createRequest{path: path, severity: sev, errorLog: errorLog})
}

type createRequest struct {
	inventoryPath string
	path          guard.EntityPath
	severity      entry.Severity
	errorLog      string
}

// create runs policy, identity, error log and severity checks, asks the guard
// store for a record and mirrors it. The record is cleared again when no
// entry could be created for it.
func (m *Manager) create(ctx context.Context, req createRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.isolationAllowed(ctx, req.severity); err != nil {
		return "", err
	}

	var (
		inventoryPath = req.inventoryPath
		path          = req.path
		ecoCore       bool
		ok            bool
	)
	if path == nil {
		path, ok = m.locator.PhysicalPath(inventoryPath)
		if !ok {
			m.logger.Error("Invalid argument", zap.String("isolate_hardware", inventoryPath))
			return "", fmt.Errorf("unknown hardware %s: %w", inventoryPath, ErrInvalidArgument)
		}
		_, ecoCore, _ = m.locator.InventoryPath(path, false)
	} else {
		inventoryPath, ecoCore, ok = m.locator.InventoryPath(path, false)
		if !ok {
			m.logger.Error("Invalid argument", zap.Stringer("isolate_hardware", path))
			return "", fmt.Errorf("unknown hardware %s: %w", path, ErrInvalidArgument)
		}
	}

	var eid uint32
	if req.errorLog != "" {
		id, err := m.platform.ErrorLogID(ctx, req.errorLog)
		if err != nil {
			m.logger.Error("Invalid argument", zap.String("error_log", req.errorLog), zap.Error(err))
			return "", fmt.Errorf("unresolvable error log %s: %w", req.errorLog, ErrInvalidArgument)
		}
		eid = id
	}

	guardType, ok := entry.GuardType(req.severity)
	if !ok {
		m.logger.Error("Invalid argument", zap.String("severity", string(req.severity)))
		return "", fmt.Errorf("severity %q has no guard type: %w", req.severity, ErrInvalidArgument)
	}

	record, err := m.guard.Create(ctx, path, eid, guardType)
	if err != nil {
		m.logger.Error("Failed to create guard record", zap.Stringer("path", path), zap.Error(err))
		return "", fmt.Errorf("create guard record: %v: %w", err, ErrInternalFailure)
	}

	if objPath, ok := m.updateEntry(ctx, record.RecordID, req.severity, inventoryPath, req.errorLog, record.TargetID, ecoCore); ok {
		return objPath, nil
	}

	objPath, err := m.createEntry(ctx, newEntryParams{
		recordID:      record.RecordID,
		severity:      req.severity,
		inventoryPath: inventoryPath,
		errorLogPath:  req.errorLog,
		path:          record.TargetID,
		ecoCore:       ecoCore,
		elapsed:       m.now(),
	}, true)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrInternalFailure)
	}
	return objPath, nil
}

type newEntryParams struct {
	recordID      uint32
	resolved      bool
	severity      entry.Severity
	inventoryPath string
	errorLogPath  string
	path          guard.EntityPath
	ecoCore       bool
	elapsed       time.Time
}

// createEntry adds an entry to the table and persists it. With rollback the
// guard record is cleared when that fails, so no record outlives its mirror.
func (m *Manager) createEntry(ctx context.Context, p newEntryParams, rollback bool) (string, error) {
	objPath := m.ObjectPath(p.recordID)

	err := m.insertEntry(ctx, objPath, p)
	if err != nil {
		m.logger.Error("Failed to create entry",
			zap.Uint32("record_id", p.recordID),
			zap.Stringer("path", p.path),
			zap.Error(err))
		if rollback {
			if cerr := m.guard.Clear(ctx, p.recordID); cerr != nil {
				m.logger.Error("Failed to roll back guard record",
					zap.Uint32("record_id", p.recordID),
					zap.Error(cerr))
			}
		}
		return "", err
	}
	return objPath, nil
}

func (m *Manager) insertEntry(ctx context.Context, objPath string, p newEntryParams) error {
	if _, exists := m.entries[p.recordID]; exists {
		return fmt.Errorf("entry %d already exists", p.recordID)
	}

	e, err := entry.New(entry.Params{
		RecordID:     p.recordID,
		ObjectPath:   objPath,
		Path:         p.path,
		Severity:     p.severity,
		Resolved:     p.resolved,
		Associations: entry.Associations(p.inventoryPath, p.errorLogPath),
		Elapsed:      p.elapsed,
		EcoCore:      p.ecoCore,
	}, m.files, ownerOf(m))
	if err != nil {
		return err
	}
	if err := e.Serialize(ctx); err != nil {
		return err
	}

	m.entries[p.recordID] = e
	m.platform.SetEnabled(ctx, p.inventoryPath, p.resolved)
	m.syncEcoCores(ctx)
	return nil
}

// updateEntry refreshes the entry mirroring (recordID, path), including its
// eco-core membership. It never creates; the second return is false when no
// such entry exists.
func (m *Manager) updateEntry(ctx context.Context, recordID uint32, sev entry.Severity, inventoryPath, errorLogPath string, path guard.EntityPath, ecoCore bool) (string, bool) {
	e, ok := m.entries[recordID]
	if !ok || !e.Matches(recordID, path) {
		return "", false
	}

	sevChanged := e.SetSeverity(sev)
	assocChanged := e.SetAssociations(entry.Associations(inventoryPath, errorLogPath))
	if sevChanged || assocChanged {
		// the guard store overrode the record in place
		e.SetElapsed(m.now())
	}
	e.SetEcoCore(ecoCore)

	if err := e.Serialize(ctx); err != nil {
		m.logger.Error("Failed to persist updated entry", zap.Uint32("record_id", recordID), zap.Error(err))
	}
	m.syncEcoCores(ctx)
	return e.ObjectPath(), true
}

// eraseEntry drops an entry from the table and from the eco-core set.
func (m *Manager) eraseEntry(recordID uint32) {
	if _, ok := m.entries[recordID]; !ok {
		return
	}
	delete(m.entries, recordID)
	m.syncEcoCores(context.Background())
}

// sortedIDs returns the table keys in ascending order.
func (m *Manager) sortedIDs() []uint32 {
	ids := make([]uint32, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// resolveAllEntries resolves every entry, continuing past failures.
func (m *Manager) resolveAllEntries(ctx context.Context, clearRecord bool) {
	for _, id := range m.sortedIDs() {
		e, ok := m.entries[id]
		if !ok {
			continue
		}
		if err := e.Resolve(ctx, clearRecord); err != nil {
			m.logger.Error("Failed to resolve entry", zap.Uint32("record_id", id), zap.Error(err))
		}
	}
}

// DeleteAll resolves every entry and clears its guard record.
func (m *Manager) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.deisolationAllowed(ctx); err != nil {
		return err
	}
	m.resolveAllEntries(ctx, true)
	return nil
}

// DeleteEntry resolves one entry and clears its guard record.
func (m *Manager) DeleteEntry(ctx context.Context, recordID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.deisolationAllowed(ctx); err != nil {
		return err
	}
	e, ok := m.entries[recordID]
	if !ok {
		return fmt.Errorf("entry %d: %w", recordID, ErrNotFound)
	}
	if err := e.Resolve(ctx, true); err != nil {
		m.logger.Error("Failed to delete entry", zap.Uint32("record_id", recordID), zap.Error(err))
		return fmt.Errorf("%v: %w", err, ErrInternalFailure)
	}
	return nil
}

// ResolveAllEntries resolves every entry, optionally clearing guard records.
// Failures are logged per entry.
func (m *Manager) ResolveAllEntries(ctx context.Context, clearRecord bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveAllEntries(ctx, clearRecord)
}

// EraseEntry drops one entry without touching the guard store.
func (m *Manager) EraseEntry(recordID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eraseEntry(recordID)
}
