package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stake-plus/govmeet/src/data"
	"github.com/stake-plus/govmeet/src/meeting/store"
)

func migrateCommand() *cobra.Command {
	var mysql bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the meeting tables",
		Long: "Create or update the meeting tables of the channel's sqlite file, " +
			"or with --mysql of the shared database named by MYSQL_DSN.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if mysql {
				dsn, err := data.GetMySQLDSN()
				if err != nil {
					return err
				}
				db, err := data.ConnectMySQL(dsn)
				if err != nil {
					return fmt.Errorf("db: %w", err)
				}
				if sqlDB, err := db.DB(); err == nil {
					defer sqlDB.Close()
				}
				if err := store.Migrate(db); err != nil {
					return err
				}
				if err := data.LoadSettings(db); err != nil {
					return fmt.Errorf("settings: %w", err)
				}
				fmt.Fprintln(out, "shared database migrated")
				return nil
			}

			provider, err := store.NewFileProvider(globalFlags.dataDir, nil)
			if err != nil {
				return err
			}
			defer provider.Close()
			// Opening a channel creates and migrates its file.
			if _, err := provider.Open(cmd.Context(), globalFlags.channel); err != nil {
				return err
			}
			fmt.Fprintf(out, "channel %s migrated (%s)\n", globalFlags.channel, store.ChannelFileName(globalFlags.channel))
			return nil
		},
	}
	cmd.Flags().BoolVar(&mysql, "mysql", false, "migrate the shared MySQL database instead")
	return cmd
}
