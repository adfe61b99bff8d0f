// Package config loads and validates the pulse configuration from a YAML
// file, environment variable overrides, and defaults, in that order of
// increasing precedence for the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/openpulse/pulse/internal/pulse"
	"github.com/openpulse/pulse/internal/store"
	"github.com/openpulse/pulse/internal/topics"
)

// DefaultDBPath is where the snapshot database lives unless overridden.
const DefaultDBPath = "~/.pulse/pulse.db"

// Scoring holds the engine knobs.
type Scoring struct {
	VelocityCap   float64 `yaml:"velocity_cap"`
	Damping       float64 `yaml:"damping"`
	MaxIterations int     `yaml:"max_iterations"`
	// MaxAuthors is the author-diversity normalization population.
	// Zero means derive it from each capture's distinct-author count.
	MaxAuthors int           `yaml:"max_authors"`
	Weights    pulse.Weights `yaml:"weights"`
}

// Aggregation holds the capture-side filters.
type Aggregation struct {
	MinSharedAuthors int `yaml:"min_shared_authors"`
	WindowHours      int `yaml:"window_hours"`
}

// Snapshot holds snapshot cadence and retention.
type Snapshot struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	Retention       int `yaml:"retention"`
}

// Config is the complete resolved configuration.
type Config struct {
	DBPath      string      `yaml:"db_path"`
	FetchLimit  int         `yaml:"fetch_limit"`
	Scoring     Scoring     `yaml:"scoring"`
	Aggregation Aggregation `yaml:"aggregation"`
	Snapshot    Snapshot    `yaml:"snapshot"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:     DefaultDBPath,
		FetchLimit: 100,
		Scoring: Scoring{
			VelocityCap:   pulse.DefaultVelocityCap,
			Damping:       0.85,
			MaxIterations: 100,
			Weights:       pulse.DefaultWeights(),
		},
		Aggregation: Aggregation{
			MinSharedAuthors: topics.DefaultMinSharedAuthors,
			WindowHours:      topics.DefaultWindowHours,
		},
		Snapshot: Snapshot{
			IntervalMinutes: 60,
			Retention:       store.DefaultRetention,
		},
	}
}

// Load reads the config file at path (or the defaults when path is empty
// or missing), applies environment overrides, and validates the result.
// Defects surface here as ErrInvalidConfig, before anything opens a
// database or touches the network.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(ExpandPath(path))
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parsing %s: %v", pulse.ErrInvalidConfig, path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PULSE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PULSE_FETCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FetchLimit = n
		}
	}
	if v := os.Getenv("PULSE_VELOCITY_CAP"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.VelocityCap = f
		}
	}
	if v := os.Getenv("PULSE_DAMPING"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.Damping = f
		}
	}
	if v := os.Getenv("PULSE_MAX_AUTHORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.MaxAuthors = n
		}
	}
	if v := os.Getenv("PULSE_MIN_SHARED_AUTHORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Aggregation.MinSharedAuthors = n
		}
	}
	if v := os.Getenv("PULSE_WINDOW_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Aggregation.WindowHours = n
		}
	}
}

// Validate checks every knob once at load time.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path is required", pulse.ErrInvalidConfig)
	}
	if c.FetchLimit <= 0 {
		return fmt.Errorf("%w: fetch_limit must be positive, got %d", pulse.ErrInvalidConfig, c.FetchLimit)
	}
	if c.Scoring.VelocityCap <= 0 {
		return fmt.Errorf("%w: velocity_cap must be positive, got %g", pulse.ErrInvalidConfig, c.Scoring.VelocityCap)
	}
	if c.Scoring.Damping <= 0 || c.Scoring.Damping >= 1 {
		return fmt.Errorf("%w: damping %g outside (0,1)", pulse.ErrInvalidConfig, c.Scoring.Damping)
	}
	if c.Scoring.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive, got %d", pulse.ErrInvalidConfig, c.Scoring.MaxIterations)
	}
	if c.Scoring.MaxAuthors < 0 {
		return fmt.Errorf("%w: max_authors cannot be negative, got %d", pulse.ErrInvalidConfig, c.Scoring.MaxAuthors)
	}
	if err := c.Scoring.Weights.Validate(); err != nil {
		return err
	}
	if c.Aggregation.MinSharedAuthors < 0 {
		return fmt.Errorf("%w: min_shared_authors cannot be negative, got %d", pulse.ErrInvalidConfig, c.Aggregation.MinSharedAuthors)
	}
	if c.Aggregation.WindowHours <= 0 {
		return fmt.Errorf("%w: window_hours must be positive, got %d", pulse.ErrInvalidConfig, c.Aggregation.WindowHours)
	}
	if c.Snapshot.IntervalMinutes <= 0 {
		return fmt.Errorf("%w: snapshot interval_minutes must be positive, got %d", pulse.ErrInvalidConfig, c.Snapshot.IntervalMinutes)
	}
	if c.Snapshot.Retention <= 0 {
		return fmt.Errorf("%w: snapshot retention must be positive, got %d", pulse.ErrInvalidConfig, c.Snapshot.Retention)
	}
	return nil
}

// EngineConfig materializes the pulse engine configuration with the
// resolved author population.
func (c Config) EngineConfig(maxAuthors int) pulse.Config {
	return pulse.Config{
		VelocityCap:   c.Scoring.VelocityCap,
		Damping:       c.Scoring.Damping,
		MaxIterations: c.Scoring.MaxIterations,
		MaxAuthors:    maxAuthors,
		Weights:       c.Scoring.Weights,
	}
}

// ExpandPath resolves a leading ~/ against the user's home directory.
func ExpandPath(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
