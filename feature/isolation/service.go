package isolation

import (
	"context"
	"fmt"

	"hw-isolation/core/utils"
	"hw-isolation/feature/entry"
	"hw-isolation/feature/guard"

	"go.uber.org/zap"
)

// CreateRequest is the body of a create-by-inventory-path call.
type CreateRequest struct {
	IsolateHardware string `json:"isolate_hardware"`
	Severity        string `json:"severity"`
	ErrorLog        string `json:"error_log,omitempty"`
}

// CreateByPathRequest is the body of a create-by-entity-path call.
type CreateByPathRequest struct {
	EntityPath string `json:"entity_path"`
	Severity   string `json:"severity"`
	ErrorLog   string `json:"error_log,omitempty"`
}

// Service adapts request-shaped input to the manager.
type Service struct {
	manager *Manager
	logger  *zap.Logger
}

// NewService creates a service over a manager.
func NewService(manager *Manager, logger *zap.Logger) *Service {
	return &Service{manager: manager, logger: logger}
}

// Create isolates hardware by inventory path, with an error log if given.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	sev, err := entry.ParseSeverity(req.Severity)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrInvalidArgument)
	}
	if req.IsolateHardware == "" {
		return "", fmt.Errorf("isolate_hardware is required: %w", ErrInvalidArgument)
	}
	if req.ErrorLog != "" {
		return s.manager.CreateWithErrorLog(ctx, req.IsolateHardware, sev, req.ErrorLog)
	}
	return s.manager.Create(ctx, req.IsolateHardware, sev)
}

// CreateByPath isolates hardware by raw entity path.
func (s *Service) CreateByPath(ctx context.Context, req CreateByPathRequest) (string, error) {
	sev, err := entry.ParseSeverity(req.Severity)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrInvalidArgument)
	}
	path, err := guard.ParseEntityPath(req.EntityPath)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrInvalidArgument)
	}
	return s.manager.CreateWithEntityPath(ctx, path, sev, req.ErrorLog)
}

// List returns all entries.
func (s *Service) List() []entry.View {
	return s.manager.Entries()
}

// Get returns one entry by its record id.
func (s *Service) Get(id string) (entry.View, error) {
	recordID, err := parseRecordID(id)
	if err != nil {
		return entry.View{}, err
	}
	return s.manager.Entry(recordID)
}

// Delete de-isolates one entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	recordID, err := parseRecordID(id)
	if err != nil {
		return err
	}
	return s.manager.DeleteEntry(ctx, recordID)
}

// DeleteAll de-isolates every entry.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.manager.DeleteAll(ctx)
}

// RecordInfo returns the isolation state of an inventory object.
func (s *Service) RecordInfo(inventoryPath string) (RecordInfo, error) {
	if inventoryPath == "" {
		return RecordInfo{}, fmt.Errorf("inventory_path is required: %w", ErrInvalidArgument)
	}
	return s.manager.IsolatedHwRecordInfo(inventoryPath)
}

// Sync raises the same debounced signal as a guard file change.
func (s *Service) Sync() {
	s.manager.ProcessRecordFileChange()
}

func parseRecordID(id string) (uint32, error) {
	recordID, ok := utils.ToUint32(id)
	if !ok || recordID == guard.InvalidRecordID {
		return 0, fmt.Errorf("invalid record id %q: %w", id, ErrInvalidArgument)
	}
	return recordID, nil
}
