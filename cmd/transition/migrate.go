package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atomworks/nucrm/internal/migrator"
	"github.com/atomworks/nucrm/models"
)

func newMigrateCmd() *cobra.Command {
	var (
		dryRun    bool
		batchSize int
		columns   []string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Encrypt unmigrated rows batch by batch",
		Long: `migrate runs Scan, Encrypt, Verify batches until no unmigrated rows
remain. Legacy plaintext columns are left in place; a later schema
release drops them once every consumer reads the encrypted columns.

The exit code is zero only when every scanned row was encrypted and
verified. Skipped rows (unparseable plaintext, row-local failures) and
verify mismatches make the run fail; interrupting with SIGINT stops
cleanly at the next batch boundary.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			opts := migrateOptions(a, dryRun, batchSize, columns)
			report, err := a.mig.Run(cmd.Context(), opts)
			printReport(report)
			if err != nil {
				return err
			}
			if report.Failed() {
				return errRunFailed
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "scan and verify in memory without writing anything")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per batch (default: MIGRATOR_BATCH_SIZE)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "restrict to these protected columns (default: all)")

	return cmd
}

func migrateOptions(a *app, dryRun bool, batchSize int, columns []string) migrator.Options {
	if batchSize <= 0 {
		batchSize = a.cfg.Migrator.BatchSize
	}

	return migrator.Options{
		DryRun:    dryRun,
		BatchSize: batchSize,
		Columns:   columns,
	}
}

func printReport(report models.MigrationReport) {
	fmt.Printf("run:               %s\n", report.RunID)
	fmt.Printf("dry run:           %t\n", report.DryRun)
	fmt.Printf("scanned:           %d\n", report.Scanned)
	fmt.Printf("encrypted:         %d\n", report.Encrypted)
	fmt.Printf("skipped:           %d\n", report.Skipped)
	fmt.Printf("verify mismatches: %d\n", report.VerifyMismatches)
}
