package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fortexx_ledger/internal/services"
)

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert servers and products from a YAML catalog",
		Long: `Upsert servers and products from a YAML catalog.

Servers are matched by code_name, products by code_name within their server.
Existing rows are overwritten, missing rows are created, nothing is deleted.

Example:
  ledgerctl seed -f catalog.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			seed, err := services.ParseCatalogSeed(f)
			if err != nil {
				return err
			}

			db, logger, err := openDB()
			if err != nil {
				return err
			}

			result, err := services.NewCatalogService(db, nil, logger).ApplySeed(cmd.Context(), seed)
			if err != nil {
				return fmt.Errorf("failed to apply seed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "upserted %d servers and %d products\n", result.Servers, result.Products)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
