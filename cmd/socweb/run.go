package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talgya/socweb/internal/entropy"
	"github.com/talgya/socweb/internal/experiment"
	"github.com/talgya/socweb/internal/netfile"
	"github.com/talgya/socweb/internal/persistence"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one or more realizations of the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("foodweb") {
				cfg.Input.FoodWeb, _ = flags.GetString("foodweb")
			}
			if flags.Changed("sites") {
				cfg.Input.Sites, _ = flags.GetString("sites")
			}
			if flags.Changed("out") {
				cfg.Output.Dir, _ = flags.GetString("out")
			}
			if flags.Changed("db") {
				cfg.Output.Database, _ = flags.GetString("db")
			}
			if flags.Changed("seed") {
				cfg.Run.Seed, _ = flags.GetInt64("seed")
			}
			if flags.Changed("niter") {
				cfg.Run.Niter, _ = flags.GetInt("niter")
			}
			if flags.Changed("realizations") {
				cfg.Run.Realizations, _ = flags.GetInt("realizations")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if cfg.Run.Seed == 0 {
				cfg.Run.Seed = entropy.RandomSeed()
				slog.Info("drew random seed", "seed", cfg.Run.Seed)
			}

			web, err := netfile.LoadFoodWeb(cfg.Input.FoodWeb)
			if err != nil {
				return err
			}
			land, err := netfile.LoadLandscape(cfg.Input.Sites)
			if err != nil {
				return err
			}
			slog.Info("inputs loaded",
				"food_web", cfg.Input.FoodWeb,
				"species", len(web.Species),
				"trophic_links", len(web.Edges),
				"sites", len(land.Sites),
				"site_links", len(land.Edges),
			)

			runner := &experiment.Runner{Config: cfg, Web: web, Land: land}
			if cfg.Output.Database != "" {
				if dir := filepath.Dir(cfg.Output.Database); dir != "." {
					os.MkdirAll(dir, 0755)
				}
				db, err := persistence.Open(cfg.Output.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				db.SaveMeta("version", version)
				slog.Info("database opened", "path", cfg.Output.Database)
				runner.Store = db
			}

			rows, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range rows {
				slog.Info("stability", "realization", r.Realization, "last_all_alive", r.LastAllAlive)
			}
			return nil
		},
	}

	cmd.Flags().String("foodweb", "", "Food-web network file")
	cmd.Flags().String("sites", "", "Site neighborhood network file")
	cmd.Flags().String("out", "", "Output directory")
	cmd.Flags().String("db", "", "SQLite run database")
	cmd.Flags().Int64("seed", 0, "Seed of the first realization (0 draws one)")
	cmd.Flags().Int("niter", 0, "Timesteps per realization")
	cmd.Flags().Int("realizations", 0, "Number of realizations")
	return cmd
}
