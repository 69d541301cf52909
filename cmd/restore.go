package cmd

import (
	"context"

	"hw-isolation/feature/isolation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reconcileAfterRestore bool

// restoreCmd runs the startup restore once and reports what it found.
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore isolation entries from the guard partition and exit",
	Long: `Mirrors every valid guard record as an isolation entry, removes entry
files no record refers to, and prints a report.

Examples:
  # Restore only
  restore

  # Restore, then run one reconciliation pass as the daemon would
  restore --reconcile`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().BoolVar(&reconcileAfterRestore, "reconcile", false, "Run a reconciliation pass after restoring")
	RootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, l, err := setup()
	if err != nil {
		return err
	}
	defer l.Sync()

	d, err := openDaemon(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.manager.Restore(ctx)
	if err != nil {
		return err
	}
	printPassReport(l, "Restore report", res)

	if reconcileAfterRestore {
		res, err = d.manager.Reconcile(ctx)
		if err != nil {
			return err
		}
		printPassReport(l, "Reconciliation report", res)
	}

	for _, v := range d.manager.Entries() {
		l.Info("Entry",
			zap.Uint32("record_id", v.RecordID),
			zap.String("severity", string(v.Severity)),
			zap.String("inventory_path", v.InventoryPath),
			zap.String("entity_path", v.EntityPath),
			zap.String("error_log", v.ErrorLogPath),
			zap.Bool("eco_core", v.EcoCore),
		)
	}
	return nil
}

// printPassReport prints a pass summary using logger.
func printPassReport(l *zap.Logger, title string, res isolation.PassResult) {
	s := res.Summary
	l.Info(title,
		zap.Int("records", s.Records),
		zap.Int("entries", s.Entries),
		zap.Int("created", s.Create),
		zap.Int("updated", s.Update),
		zap.Int("resolved", s.Resolve),
		zap.Int("corrupt", s.Corrupt),
		zap.Int("failed", res.Failed),
		zap.Int("removed_files", res.RemovedFiles),
	)
}
