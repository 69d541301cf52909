package isolation

import (
	"context"
	"errors"
	"time"

	"hw-isolation/core/storage"
	"hw-isolation/feature/guard"

	"go.uber.org/zap"
)

// Locator resolves hardware identity.
type Locator interface {
	PhysicalPath(inventoryPath string) (guard.EntityPath, bool)
	InventoryPath(path guard.EntityPath, ecoCoreHint bool) (inventoryPath string, ecoCore bool, ok bool)
}

// Platform is the manager's view of the rest of the system.
type Platform interface {
	IsolationSettingEnabled(ctx context.Context) bool
	ChassisPoweredOff(ctx context.Context) (bool, error)
	ErrorLogID(ctx context.Context, logPath string) (uint32, error)
	ErrorLogPath(ctx context.Context, eid uint32) (string, error)
	SetEnabled(ctx context.Context, inventoryPath string, enabled bool)
}

// Deps are the collaborators of a Manager.
type Deps struct {
	Guard    guard.Store
	Locator  Locator
	Platform Platform
	// Entries holds one file per entry.
	Entries storage.Client
	// State holds the eco-core set.
	State  storage.Client
	Logger *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (d *Deps) validate() error {
	switch {
	case d.Guard == nil:
		return errors.New("guard store is required")
	case d.Locator == nil:
		return errors.New("locator is required")
	case d.Platform == nil:
		return errors.New("platform is required")
	case d.Entries == nil:
		return errors.New("entry storage is required")
	case d.State == nil:
		return errors.New("state storage is required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return nil
}
