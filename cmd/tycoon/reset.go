package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/idleworks/tycoon/internal/infra/storage"
)

var resetKeepJournal bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored session",
	Long: `Delete the saved session so the next start begins from catalog
defaults. The event journal is cleared too unless --keep-journal is set.
Do not run this against a database a live server is using; send DELETE
/api/save to the server instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := storage.InitSQLite(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		if err := storage.NewSQLiteSaveStore(db, cfg.Storage.Slot).DeleteSave(ctx); err != nil {
			return err
		}
		if !resetKeepJournal {
			if err := storage.NewSQLiteEventRepository(db).Clear(ctx); err != nil {
				return err
			}
		}

		log.Info("session reset", "path", cfg.Storage.Path, "slot", cfg.Storage.Slot, "journal_cleared", !resetKeepJournal)
		fmt.Fprintf(cmd.OutOrStdout(), "reset slot %q in %s\n", cfg.Storage.Slot, cfg.Storage.Path)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetKeepJournal, "keep-journal", false, "keep the event journal")
	rootCmd.AddCommand(resetCmd)
}
