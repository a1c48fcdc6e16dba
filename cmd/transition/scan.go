package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atomworks/nucrm/internal/store"
)

func newScanCmd() *cobra.Command {
	var columns []string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Count unmigrated rows per protected column",
		Long: `scan reports, per protected column, how many rows still hold legacy
plaintext without a ciphertext counterpart. Read-only.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			counts, err := a.mig.Scan(cmd.Context(), columns)
			if err != nil {
				return err
			}

			total := 0
			for _, column := range store.ProtectedColumnNames() {
				n, ok := counts[column]
				if !ok {
					continue
				}
				total += n
				fmt.Printf("%-22s %d\n", column, n)
			}
			fmt.Printf("%-22s %d\n", "total", total)

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&columns, "columns", nil, "restrict to these protected columns (default: all)")

	return cmd
}
