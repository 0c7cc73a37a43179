package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talgya/socweb/internal/api"
	"github.com/talgya/socweb/internal/persistence"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recorded runs over a read-only HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.Output.Database, _ = cmd.Flags().GetString("db")
			}
			if cfg.Output.Database == "" {
				return fmt.Errorf("no run database configured (--db or SOCWEB_DB)")
			}
			port, _ := cmd.Flags().GetInt("port")

			db, err := persistence.Open(cfg.Output.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			slog.Info("database opened", "path", cfg.Output.Database)

			srv := &api.Server{DB: db, Port: port}
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().String("db", "", "SQLite run database")
	cmd.Flags().Int("port", 8080, "HTTP port")
	return cmd
}
