package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/socweb/internal/landscape"
	"github.com/talgya/socweb/internal/netfile"
)

func newLandscapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "landscape <file>",
		Short: "Generate a hex-grid site network with noise-driven capacities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("radius") {
				cfg.Landscape.Radius, _ = flags.GetInt("radius")
			}
			if flags.Changed("max-capacity") {
				cfg.Landscape.MaxCapacity, _ = flags.GetInt("max-capacity")
			}
			if err := cfg.ValidateLandscape(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			seed, _ := flags.GetInt64("seed")

			gen := landscape.GenConfig{
				Radius:      cfg.Landscape.Radius,
				Seed:        seed,
				MaxCapacity: cfg.Landscape.MaxCapacity,
				Frequency:   cfg.Landscape.Frequency,
				Octaves:     cfg.Landscape.Octaves,
				Persistence: cfg.Landscape.Persistence,
				WaterLevel:  cfg.Landscape.WaterLevel,
			}
			cells := landscape.Generate(gen)
			land := landscape.Build(cells)

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating landscape file: %w", err)
			}
			if err := netfile.WriteLandscape(f, land); err != nil {
				f.Close()
				return fmt.Errorf("writing landscape: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			slog.Info("landscape generated",
				"path", args[0],
				"radius", gen.Radius,
				"sites", len(land.Sites),
				"links", len(land.Edges),
			)
			return nil
		},
	}

	cmd.Flags().Int("radius", 0, "Hex grid radius")
	cmd.Flags().Int("max-capacity", 0, "Capacity of a cell of perfect habitat")
	cmd.Flags().Int64("seed", 1, "Noise seed")
	return cmd
}
