package cmd

import (
	"fmt"

	"github.com/jeremyjsx/postcast/internal/config"
	"github.com/jeremyjsx/postcast/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the posts schema to DATABASE_URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		dialect, err := store.ParseDialect(cfg.DatabaseDriver)
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		// Open applies the schema as part of connecting.
		db, err := store.Open(cmd.Context(), dialect, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", dialect)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
