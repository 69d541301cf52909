package isolation

import (
	"context"
	"fmt"

	"hw-isolation/core/reconcile"
	"hw-isolation/feature/entry"
	"hw-isolation/feature/guard"

	"go.uber.org/zap"
)

var recordSource = reconcile.Source[guard.Record]{
	Key:   func(r guard.Record) string { return r.TargetID.Key() },
	Valid: guard.Record.Valid,
}

// PassResult summarises one reconciliation pass.
type PassResult struct {
	Summary      reconcile.Summary `json:"summary"`
	Failed       int               `json:"failed"`
	RemovedFiles int               `json:"removed_files"`
}

// Restore mirrors every valid non-ephemeral guard record at startup, then
// removes persisted files nothing refers to. Only a failure to list the guard
// store is returned.
func (m *Manager) Restore(ctx context.Context) (PassResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.guard.List(ctx, true)
	if err != nil {
		m.logger.Error("Failed to list guard records for restore", zap.Error(err))
		return PassResult{}, fmt.Errorf("list guard records: %w", err)
	}

	// the persisted set is only a hint for this restore
	hints := m.ecoCores

	var res PassResult
	res.Summary.Records = len(records)
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		if err := m.createEntryForRecord(ctx, r, true, hints.has(r.TargetID)); err != nil {
			res.Failed++
			m.logger.Error("Skipping restore of isolated hardware",
				zap.Stringer("path", r.TargetID),
				zap.Uint32("record_id", r.RecordID),
				zap.Error(err))
			continue
		}
		res.Summary.Create++
	}

	res.RemovedFiles = m.cleanupPersistedFiles(ctx)
	m.syncEcoCores(ctx)
	res.Summary.Entries = len(m.entries)

	m.logger.Info("Restored hardware isolation entries",
		zap.Int("records", res.Summary.Records),
		zap.Int("entries", res.Summary.Entries),
		zap.Int("failed", res.Failed),
		zap.Int("removed_files", res.RemovedFiles))
	return res, nil
}

// ProcessRecordFileChange is the guard file watch callback. The host writes
// the partition in several steps, so the pass runs once after the debounce
// delay no matter how many signals arrive.
func (m *Manager) ProcessRecordFileChange() {
	if m.debounce.Signal() {
		m.logger.Debug("Scheduled reconciliation", zap.Duration("delay", m.cfg.Debounce))
	}
}

func (m *Manager) handleRecordFileChange() {
	if _, err := m.Reconcile(context.Background()); err != nil {
		m.logger.Error("Reconciliation pass failed", zap.Error(err))
	}
}

// Reconcile runs one pass against the current guard listing. Per-item
// failures are logged and counted; only a failure to list is returned.
func (m *Manager) Reconcile(ctx context.Context) (PassResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.guard.List(ctx, true)
	if err != nil {
		m.logger.Error("Failed to list guard records", zap.Error(err))
		return PassResult{}, fmt.Errorf("list guard records: %w", err)
	}

	snapshot := make([]reconcile.Entry, 0, len(m.entries))
	for id, e := range m.entries {
		snapshot = append(snapshot, reconcile.Entry{ID: id, Key: e.Path().Key()})
	}

	plan := reconcile.Build(snapshot, records, recordSource)
	res := PassResult{Summary: plan.Summary}

	if plan.ClearAll {
		m.logger.Info("Guard store is empty, resolving all entries", zap.Int("entries", len(m.entries)))
		m.resolveAllEntries(ctx, false)
		m.entries = make(map[uint32]*entry.Entry)
	} else {
		for _, a := range plan.Actions {
			if err := m.apply(ctx, a); err != nil {
				res.Failed++
				m.logger.Error("Reconciliation action failed",
					zap.String("action", string(a.Type)),
					zap.Uint32("record_id", a.EntryID),
					zap.Stringer("path", guard.EntityPath(a.Key)),
					zap.Error(err))
			}
		}
	}

	m.syncEcoCores(ctx)
	res.RemovedFiles = m.cleanupPersistedFiles(ctx)

	m.logger.Info("Reconciled hardware isolation entries",
		zap.Int("records", plan.Summary.Records),
		zap.Int("resolved", plan.Summary.Resolve),
		zap.Int("updated", plan.Summary.Update),
		zap.Int("created", plan.Summary.Create),
		zap.Int("corrupt", plan.Summary.Corrupt),
		zap.Int("failed", res.Failed))
	return res, nil
}

func (m *Manager) apply(ctx context.Context, a reconcile.Action[guard.Record]) error {
	switch a.Type {
	case reconcile.ActionResolve:
		e, ok := m.entries[a.EntryID]
		if !ok {
			return nil
		}
		return e.Resolve(ctx, false)

	case reconcile.ActionUpdate:
		e, ok := m.entries[a.EntryID]
		if !ok {
			return nil
		}
		return m.updateEntryForRecord(ctx, e, a.Record)

	case reconcile.ActionCreate:
		return m.createEntryForRecord(ctx, a.Record, false, false)

	case reconcile.ActionCorrupt:
		m.logger.Error("More than one valid record exists for the same hardware",
			zap.Error(ErrCorruption),
			zap.Stringer("path", guard.EntityPath(a.Key)),
			zap.Uint32("record_id", a.EntryID),
			zap.String("reason", a.Reason))
		return nil
	}
	return fmt.Errorf("unknown action %q", a.Type)
}

// createEntryForRecord mirrors a guard record found in the store. During
// restore an unresolvable error log only drops the log association; at
// runtime the record is skipped until the next pass.
func (m *Manager) createEntryForRecord(ctx context.Context, r guard.Record, restoring, ecoCoreHint bool) error {
	inventoryPath, ecoCore, ok := m.locator.InventoryPath(r.TargetID, ecoCoreHint)
	if !ok {
		return fmt.Errorf("no inventory path for %s", r.TargetID)
	}

	errorLogPath, err := m.platform.ErrorLogPath(ctx, r.ElogID)
	if err != nil {
		if !restoring {
			return fmt.Errorf("no error log path for eid %#x: %w", r.ElogID, err)
		}
		m.logger.Warn("Restoring without error log association",
			zap.Stringer("path", r.TargetID),
			zap.Uint32("eid", r.ElogID),
			zap.Error(err))
		errorLogPath = ""
	}

	sev, ok := entry.SeverityOf(r.ErrType)
	if !ok {
		return fmt.Errorf("no severity for guard type %s", r.ErrType)
	}

	elapsed := m.now()
	if restoring {
		if p, found, err := entry.Load(ctx, m.files, r.RecordID); err != nil {
			m.logger.Warn("Ignoring unreadable entry file", zap.Uint32("record_id", r.RecordID), zap.Error(err))
		} else if found && p.Path.Equal(r.TargetID) {
			elapsed = p.Elapsed
		}
	}

	_, err = m.createEntry(ctx, newEntryParams{
		recordID:      r.RecordID,
		resolved:      !r.Valid(),
		severity:      sev,
		inventoryPath: inventoryPath,
		errorLogPath:  errorLogPath,
		path:          r.TargetID,
		ecoCore:       ecoCore,
		elapsed:       elapsed,
	}, false)
	return err
}

// updateEntryForRecord refreshes an entry from its single valid record.
// Nothing is written when the entry already matches.
func (m *Manager) updateEntryForRecord(ctx context.Context, e *entry.Entry, r guard.Record) error {
	inventoryPath, ecoCore, ok := m.locator.InventoryPath(r.TargetID, false)
	if !ok {
		return fmt.Errorf("no inventory path for %s", r.TargetID)
	}

	errorLogPath, err := m.platform.ErrorLogPath(ctx, r.ElogID)
	if err != nil {
		return fmt.Errorf("no error log path for eid %#x: %w", r.ElogID, err)
	}

	sev, ok := entry.SeverityOf(r.ErrType)
	if !ok {
		return fmt.Errorf("no severity for guard type %s", r.ErrType)
	}

	if r.RecordID != e.RecordID() {
		// the host cleared the old record and guarded the location again
		return m.rekeyEntry(ctx, e, r)
	}

	sevChanged := e.SetSeverity(sev)
	assocChanged := e.SetAssociations(entry.Associations(inventoryPath, errorLogPath))
	ecoChanged := e.EcoCore() != ecoCore
	e.SetEcoCore(ecoCore)

	m.platform.SetEnabled(ctx, inventoryPath, false)

	if sevChanged || assocChanged {
		e.SetElapsed(m.now())
	}
	if !sevChanged && !assocChanged && !ecoChanged {
		return nil
	}
	return e.Serialize(ctx)
}

// rekeyEntry replaces an entry whose location now carries a different
// record id. The new record is mirrored first; the old entry is resolved,
// without touching the guard store, only once that succeeded. On failure the
// old entry stays as a stale mirror until the next pass.
func (m *Manager) rekeyEntry(ctx context.Context, e *entry.Entry, r guard.Record) error {
	m.logger.Info("Guard record replaced",
		zap.Stringer("path", r.TargetID),
		zap.Uint32("old_record_id", e.RecordID()),
		zap.Uint32("new_record_id", r.RecordID))

	if _, exists := m.entries[r.RecordID]; !exists {
		if err := m.createEntryForRecord(ctx, r, false, false); err != nil {
			return err
		}
	}

	if err := e.Resolve(ctx, false); err != nil {
		return err
	}

	// resolving re-enabled the shared inventory object
	if replacement, ok := m.entries[r.RecordID]; ok {
		m.platform.SetEnabled(ctx, replacement.InventoryPath(), false)
	}
	return nil
}

// cleanupPersistedFiles removes entry files that belong to no entry,
// including names that are not record ids. It returns the number removed.
func (m *Manager) cleanupPersistedFiles(ctx context.Context) int {
	names, err := m.files.List(ctx)
	if err != nil {
		m.logger.Error("Failed to list persisted entry files", zap.Error(err))
		return 0
	}

	removed := 0
	for _, name := range names {
		if id, ok := entry.ParseFileName(name); ok {
			if _, active := m.entries[id]; active {
				continue
			}
		}
		if err := m.files.Remove(ctx, name); err != nil {
			m.logger.Error("Failed to remove stale entry file", zap.String("file", name), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("Removed stale entry files", zap.Int("count", removed))
	}
	return removed
}
