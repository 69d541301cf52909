package cmd

import (
	"context"
	"fmt"
	"os"

	"hw-isolation/core/bus"
	"hw-isolation/core/config"
	"hw-isolation/core/logger"
	"hw-isolation/core/storage"
	"hw-isolation/feature/guard"
	"hw-isolation/feature/isolation"
	"hw-isolation/feature/locator"
	"hw-isolation/feature/platform"

	"go.uber.org/zap"
)

// setup loads configuration and builds the logger every command starts with.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, l, nil
}

// daemon holds the collaborators shared by start and restore.
type daemon struct {
	bus     *bus.Client
	guard   *guard.FileStore
	manager *isolation.Manager
}

// openDaemon connects to the bus and builds a manager over the configured
// guard partition, inventory map and state directories.
func openDaemon(ctx context.Context, cfg *config.Config, l *zap.Logger) (*daemon, error) {
	store, err := guard.NewFileStore(cfg.Guard, l)
	if err != nil {
		return nil, fmt.Errorf("failed to open guard store: %w", err)
	}

	loc, err := locator.LoadFile(cfg.Locator.InventoryFile, l)
	if err != nil {
		return nil, err
	}

	mode := os.FileMode(cfg.Storage.FileMode)
	entries, err := storage.NewClient(cfg.Storage.EntryDir, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open entry storage: %w", err)
	}
	state, err := storage.NewClient(cfg.Storage.ManagerDir, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open manager storage: %w", err)
	}

	client, err := bus.Connect(cfg.Bus, l)
	if err != nil {
		return nil, err
	}

	mgr, err := isolation.NewManager(ctx, cfg.Isolation, isolation.Deps{
		Guard:    store,
		Locator:  loc,
		Platform: platform.New(client, l),
		Entries:  entries,
		State:    state,
		Logger:   l,
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create isolation manager: %w", err)
	}

	l.Info("Isolation manager ready",
		zap.String("guard_file", store.Path()),
		zap.Int("known_hardware", loc.Len()))
	return &daemon{bus: client, guard: store, manager: mgr}, nil
}

func (d *daemon) Close() {
	d.manager.Close()
	_ = d.bus.Close()
}
