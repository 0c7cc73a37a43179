// Package config provides configuration loading for socweb.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/socweb/internal/entropy"
)

// Config contains all socweb settings.
type Config struct {
	// Run controls the length of a realization and its periodic layers.
	Run RunConfig `json:"run" yaml:"run"`

	// Feeding holds the predator feeding constants.
	Feeding FeedingConfig `json:"feeding" yaml:"feeding"`

	// Input names the Pajek files that describe the system.
	Input InputConfig `json:"input" yaml:"input"`

	// Output controls where results go.
	Output OutputConfig `json:"output" yaml:"output"`

	// Landscape configures the synthetic site-network generator.
	Landscape LandscapeConfig `json:"landscape" yaml:"landscape"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// RunConfig sets the timestep schedule.
type RunConfig struct {
	Niter          int `json:"niter" yaml:"niter"`
	MigrationEvery int `json:"migration_every" yaml:"migration_every"`
	NetworksEvery  int `json:"networks_every" yaml:"networks_every"`
	ShowEvery      int `json:"show_every" yaml:"show_every"`
	SaveEvery      int `json:"save_every" yaml:"save_every"`
	ReportEvery    int `json:"report_every" yaml:"report_every"`
	Realizations   int `json:"realizations" yaml:"realizations"`

	// Seed of the first realization. 0 draws one from the OS.
	Seed int64 `json:"seed" yaml:"seed"`
}

// FeedingConfig sets how hard a predator hunts in one trial.
type FeedingConfig struct {
	Attempts            int `json:"attempts" yaml:"attempts"`
	PreyDrawsPerAttempt int `json:"prey_draws_per_attempt" yaml:"prey_draws_per_attempt"`
}

// InputConfig names the food-web and site files.
type InputConfig struct {
	FoodWeb string `json:"food_web" yaml:"food_web"`
	Sites   string `json:"sites" yaml:"sites"`
}

// OutputConfig controls result files and the run database.
type OutputConfig struct {
	// Dir receives the .dat and .net report files.
	Dir string `json:"dir" yaml:"dir"`

	// Database is the SQLite file runs are recorded in. Empty disables it.
	Database string `json:"database" yaml:"database"`
}

// LandscapeConfig shapes generated hex-grid landscapes.
type LandscapeConfig struct {
	Radius      int     `json:"radius" yaml:"radius"`
	MaxCapacity int     `json:"max_capacity" yaml:"max_capacity"`
	Frequency   float64 `json:"frequency" yaml:"frequency"`
	Octaves     int     `json:"octaves" yaml:"octaves"`
	Persistence float64 `json:"persistence" yaml:"persistence"`
	// Cells whose normalized noise falls below WaterLevel are not habitat.
	WaterLevel float64 `json:"water_level" yaml:"water_level"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: trace, debug, info (default), warn or error.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Niter:          1000,
			MigrationEvery: 10,
			NetworksEvery:  100,
			ShowEvery:      10,
			SaveEvery:      100,
			ReportEvery:    100,
			Realizations:   1,
		},
		Feeding: FeedingConfig{
			Attempts:            5,
			PreyDrawsPerAttempt: 1,
		},
		Input: InputConfig{
			FoodWeb: "foodweb.net",
			Sites:   "sites.net",
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Landscape: LandscapeConfig{
			Radius:      4,
			MaxCapacity: 200,
			Frequency:   0.15,
			Octaves:     4,
			Persistence: 0.5,
			WaterLevel:  0.3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns the defaults with environment overrides applied, or the
// given file with overrides when path is not empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Run.Niter <= 0 {
		return fmt.Errorf("niter must be positive, got %d", c.Run.Niter)
	}
	if c.Run.Realizations <= 0 {
		return fmt.Errorf("realizations must be positive, got %d", c.Run.Realizations)
	}
	if c.Run.Seed < 0 || c.Run.Seed > entropy.MaxSeed {
		return fmt.Errorf("seed must be in [0, %d], got %d", int64(entropy.MaxSeed), c.Run.Seed)
	}
	intervals := map[string]int{
		"migration_every": c.Run.MigrationEvery,
		"networks_every":  c.Run.NetworksEvery,
		"show_every":      c.Run.ShowEvery,
		"save_every":      c.Run.SaveEvery,
		"report_every":    c.Run.ReportEvery,
	}
	for name, v := range intervals {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, v)
		}
	}
	if c.Feeding.Attempts <= 0 || c.Feeding.PreyDrawsPerAttempt <= 0 {
		return fmt.Errorf("feeding constants must be positive, got %d attempts x %d draws",
			c.Feeding.Attempts, c.Feeding.PreyDrawsPerAttempt)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output dir must be set")
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: trace, debug, info, warn, error, or empty for default)", c.Logging.Level)
	}
	return nil
}

// ValidateLandscape checks the generator settings.
func (c *Config) ValidateLandscape() error {
	l := c.Landscape
	if l.Radius < 0 {
		return fmt.Errorf("landscape radius must be non-negative, got %d", l.Radius)
	}
	if l.MaxCapacity <= 0 {
		return fmt.Errorf("landscape max_capacity must be positive, got %d", l.MaxCapacity)
	}
	if l.Octaves <= 0 || l.Frequency <= 0 {
		return fmt.Errorf("landscape noise needs positive octaves and frequency")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SOCWEB_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SOCWEB_SEED: %w", err)
		}
		cfg.Run.Seed = n
	}
	if v := os.Getenv("SOCWEB_NITER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SOCWEB_NITER: %w", err)
		}
		cfg.Run.Niter = n
	}
	if v := os.Getenv("SOCWEB_DB"); v != "" {
		cfg.Output.Database = v
	}
	if v := os.Getenv("SOCWEB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}
