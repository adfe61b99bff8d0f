package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/openpulse/pulse/internal/pulse"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != DefaultDBPath {
		t.Fatalf("Expected default db path, got %q", cfg.DBPath)
	}
	if cfg.Scoring.Weights != pulse.DefaultWeights() {
		t.Fatalf("Expected default weights, got %+v", cfg.Scoring.Weights)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	data := []byte(`
db_path: /tmp/test-pulse.db
fetch_limit: 25
scoring:
  velocity_cap: 5.0
  damping: 0.9
  max_iterations: 200
  weights:
    velocity: 0.4
    eigenvector: 0.2
    betweenness: 0.2
    pagerank: 0.1
    authors: 0.1
aggregation:
  min_shared_authors: 3
  window_hours: 24
snapshot:
  interval_minutes: 30
  retention: 48
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/test-pulse.db" || cfg.FetchLimit != 25 {
		t.Fatalf("Unexpected top-level config: %+v", cfg)
	}
	if cfg.Scoring.VelocityCap != 5.0 || cfg.Scoring.Damping != 0.9 {
		t.Fatalf("Unexpected scoring config: %+v", cfg.Scoring)
	}
	if cfg.Scoring.Weights.Velocity != 0.4 {
		t.Fatalf("Unexpected weights: %+v", cfg.Scoring.Weights)
	}
	if cfg.Aggregation.MinSharedAuthors != 3 || cfg.Aggregation.WindowHours != 24 {
		t.Fatalf("Unexpected aggregation config: %+v", cfg.Aggregation)
	}
	if cfg.Snapshot.IntervalMinutes != 30 || cfg.Snapshot.Retention != 48 {
		t.Fatalf("Unexpected snapshot config: %+v", cfg.Snapshot)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	data := []byte(`
scoring:
  weights:
    velocity: 0.9
    eigenvector: 0.9
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, pulse.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig for weights not summing to 1, got %v", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	if err := os.WriteFile(path, []byte("{{not yaml"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, pulse.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig for malformed yaml, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PULSE_DB_PATH", "/tmp/env-pulse.db")
	t.Setenv("PULSE_FETCH_LIMIT", "42")
	t.Setenv("PULSE_MAX_AUTHORS", "77")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/env-pulse.db" {
		t.Fatalf("Expected env db path, got %q", cfg.DBPath)
	}
	if cfg.FetchLimit != 42 {
		t.Fatalf("Expected env fetch limit 42, got %d", cfg.FetchLimit)
	}
	if cfg.Scoring.MaxAuthors != 77 {
		t.Fatalf("Expected env max authors 77, got %d", cfg.Scoring.MaxAuthors)
	}
}

func TestValidateRejectsBadKnobs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"zero fetch limit", func(c *Config) { c.FetchLimit = 0 }},
		{"negative velocity cap", func(c *Config) { c.Scoring.VelocityCap = -1 }},
		{"damping too high", func(c *Config) { c.Scoring.Damping = 1.0 }},
		{"zero iterations", func(c *Config) { c.Scoring.MaxIterations = 0 }},
		{"negative max authors", func(c *Config) { c.Scoring.MaxAuthors = -1 }},
		{"zero window", func(c *Config) { c.Aggregation.WindowHours = 0 }},
		{"zero retention", func(c *Config) { c.Snapshot.Retention = 0 }},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, pulse.ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", tc.name, err)
		}
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.Scoring.VelocityCap = 4.0

	ec := cfg.EngineConfig(33)
	if ec.MaxAuthors != 33 {
		t.Fatalf("Expected max authors 33, got %d", ec.MaxAuthors)
	}
	if ec.VelocityCap != 4.0 {
		t.Fatalf("Expected velocity cap carried over, got %g", ec.VelocityCap)
	}
	if _, err := pulse.NewEngine(ec); err != nil {
		t.Fatalf("Engine config should construct an engine: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	if got := ExpandPath("~/x/pulse.db"); got != filepath.Join(home, "x/pulse.db") {
		t.Fatalf("ExpandPath = %q", got)
	}
	if got := ExpandPath("/abs/pulse.db"); got != "/abs/pulse.db" {
		t.Fatalf("Absolute path should pass through, got %q", got)
	}
}
