package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hw-isolation/core/loader"
	"hw-isolation/core/logger"
	"hw-isolation/core/middleware/auth"
	"hw-isolation/core/middleware/rayid"
	"hw-isolation/core/watcher"
	"hw-isolation/feature/isolation"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Hardware Isolation API
// @version 1.0
// @description Management API for hardware isolation entries.
// @host localhost:8091
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the hardware isolation daemon",
	Long: `Restores isolation entries from the guard partition, watches it for
changes made by the host and serves the management API.`,
	RunE: runStart,
}

func init() {
	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, logg, err := setup()
	if err != nil {
		return err
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDaemon(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer d.Close()

	if _, err := d.manager.Restore(ctx); err != nil {
		// a locked or unreadable partition is picked up by the next write
		logg.Warn("Restore failed", zap.Error(err))
	}

	fw, err := watcher.New(d.guard.Path(), d.manager.ProcessRecordFileChange, logg)
	if err != nil {
		return fmt.Errorf("failed to watch guard file: %w", err)
	}
	fw.Start(ctx)
	defer fw.Close()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	mgr := loader.NewManager(logg)
	mgr.Register(isolation.NewFeature(d.manager, logg))

	// RayID must be first to trace everything
	app.Use(rayid.New())
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})
	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
	if !cfg.Server.AuthEnabled() {
		logg.Warn("Management API is not protected by an API key")
	}

	if err := mgr.LoadAll(app); err != nil {
		return fmt.Errorf("failed to load features: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
		serveErr <- app.Listen(cfg.Server.Address())
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}

	logg.Info("Shutting down server...")
	return app.Shutdown()
}
