package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"hw-isolation/core/utils"
	"hw-isolation/feature/guard"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the guard record commands
	listAll       bool
	isolatePath   string
	isolateType   string
	isolateElogID uint32
	deisolateAll  bool
	yesConfirm    bool
)

// recordsCmd lists the records in the guard partition.
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List guard records",
	Long: `Lists the records in the guard partition. Cleared and ephemeral
records are hidden unless --all is given.`,
	RunE: runRecords,
}

// isolateCmd writes a guard record directly, as the host would.
var isolateCmd = &cobra.Command{
	Use:   "isolate",
	Short: "Create a guard record for an entity path",
	Long: `Creates a guard record in the partition. A running daemon mirrors it
as an entry after its next reconciliation pass.

Examples:
  isolate --path "23 01 00 03" --type manual
  isolate --path 23010003 --type fatal --eid 0x50000003`,
	RunE: runIsolate,
}

// deisolateCmd clears guard records.
var deisolateCmd = &cobra.Command{
	Use:   "deisolate [record-id]",
	Short: "Clear one guard record, or all of them with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDeisolate,
}

func init() {
	recordsCmd.Flags().BoolVar(&listAll, "all", false, "Include cleared and ephemeral records")

	isolateCmd.Flags().StringVar(&isolatePath, "path", "", "Entity path as hex bytes")
	isolateCmd.Flags().StringVar(&isolateType, "type", "manual", "Guard type (manual, fatal, predictive, ...)")
	isolateCmd.Flags().Uint32Var(&isolateElogID, "eid", 0, "Error log id the record is attributed to")
	_ = isolateCmd.MarkFlagRequired("path")

	deisolateCmd.Flags().BoolVar(&deisolateAll, "all", false, "Clear every active record")
	deisolateCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	RootCmd.AddCommand(recordsCmd, isolateCmd, deisolateCmd)
}

// openGuard builds the guard store alone; these commands need no bus.
func openGuard() (*guard.FileStore, *zap.Logger, error) {
	cfg, l, err := setup()
	if err != nil {
		return nil, nil, err
	}
	store, err := guard.NewFileStore(cfg.Guard, l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open guard store: %w", err)
	}
	return store, l, nil
}

func runRecords(cmd *cobra.Command, args []string) error {
	store, l, err := openGuard()
	if err != nil {
		return err
	}
	defer l.Sync()

	records, err := store.List(context.Background(), !listAll)
	if err != nil {
		return err
	}

	shown := 0
	for _, r := range records {
		if !listAll && !r.Valid() {
			continue
		}
		shown++
		l.Info("Guard record",
			zap.Uint32("record_id", r.RecordID),
			zap.Stringer("path", r.TargetID),
			zap.Stringer("type", r.ErrType),
			zap.String("eid", fmt.Sprintf("%#08x", r.ElogID)),
			zap.Bool("valid", r.Valid()),
		)
	}
	l.Info("Guard records listed", zap.Int("count", shown), zap.String("file", store.Path()))
	return nil
}

func runIsolate(cmd *cobra.Command, args []string) error {
	path, err := guard.ParseEntityPath(isolatePath)
	if err != nil {
		return err
	}
	t, err := guard.ParseType(isolateType)
	if err != nil {
		return err
	}

	store, l, err := openGuard()
	if err != nil {
		return err
	}
	defer l.Sync()

	r, err := store.Create(context.Background(), path, isolateElogID, t)
	if err != nil {
		return fmt.Errorf("failed to create guard record: %w", err)
	}

	l.Info("Created guard record",
		zap.Uint32("record_id", r.RecordID),
		zap.Stringer("path", r.TargetID),
		zap.Stringer("type", r.ErrType))
	return nil
}

func runDeisolate(cmd *cobra.Command, args []string) error {
	if deisolateAll == (len(args) == 1) {
		return fmt.Errorf("give either a record id or --all")
	}

	store, l, err := openGuard()
	if err != nil {
		return err
	}
	defer l.Sync()
	ctx := context.Background()

	if !deisolateAll {
		id, ok := utils.ToUint32(args[0])
		if !ok || id == guard.InvalidRecordID {
			return fmt.Errorf("invalid record id %q", args[0])
		}
		if err := store.Clear(ctx, id); err != nil {
			return err
		}
		l.Info("Cleared guard record", zap.Uint32("record_id", id))
		return nil
	}

	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	cleared, err := store.ClearAll(ctx)
	if err != nil {
		return err
	}
	l.Info("Cleared guard records", zap.Int("count", cleared))
	return nil
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
