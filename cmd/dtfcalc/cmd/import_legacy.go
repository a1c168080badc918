package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/pricing"
	"github.com/Simplici0/printdesk/internal/store"
)

func newImportLegacyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy <export.json>",
		Short: "Import calculators from a legacy database export",
		Long: `Reads a legacy database export, converts the range-string price tables of
every calculator and stores them in the database given by --db. Calculators
with the same ID are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read export: %w", err)
			}
			legacy, err := pricing.ParseLegacyDatabase(raw)
			if err != nil {
				return err
			}

			st, closeDB, err := root.openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := cmd.Context()
			now := time.Now().UTC()
			err = st.WithTx(ctx, func(tx *store.Store) error {
				for _, lc := range legacy {
					createdAt := now
					if existing, err := tx.Calculators.Get(ctx, lc.ID); err == nil {
						createdAt = existing.CreatedAt
					}
					if err := tx.Calculators.Upsert(ctx, store.Calculator{
						ID:         lc.ID,
						Name:       lc.Name,
						Technology: lc.Technology,
						IsActive:   lc.IsActive,
						Pricing:    lc.Configuration,
						CreatedAt:  createdAt,
						UpdatedAt:  now,
					}); err != nil {
						return err
					}
					if codes := lc.Configuration.IndivisibleFormats(); len(codes) > 0 {
						root.log().Warn("imported formats that cannot be quoted",
							zap.String("calculator_id", lc.ID), zap.Strings("formats", codes))
					}
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("import calculators: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d calculators\n", len(legacy))
			return nil
		},
	}
}
