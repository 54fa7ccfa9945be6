package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"worldsim/internal/stats"
)

const (
	DefaultTriggerProbability   = 0.01
	DefaultMaxCascadeDepth      = 8
	DefaultTickSeconds          = 1.0
	DefaultTickInterval         = 100 * time.Millisecond
	DefaultDriftRate            = 0.05
	DefaultDayPhaseSeconds      = 300.0
	DefaultWeatherChangeSeconds = 60.0
)

type ProjectConfig struct {
	Project     string           `yaml:"project"`
	Version     int              `yaml:"version"`
	Paths       Paths            `yaml:"paths"`
	Database    DatabaseConfig   `yaml:"database"`
	Simulation  SimulationConfig `yaml:"simulation"`
	CustomStats []string         `yaml:"custom_stats"`
	Aggregates  []Aggregate      `yaml:"aggregates"`

	dir string
}

type Paths struct {
	World   string `yaml:"world"`
	Catalog string `yaml:"catalog"`
	Names   string `yaml:"names"`
	Save    string `yaml:"save"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type SimulationConfig struct {
	Seed                 int64         `yaml:"seed"`
	TickSeconds          float64       `yaml:"tick_seconds"`
	TickInterval         time.Duration `yaml:"tick_interval"`
	TriggerProbability   *float64      `yaml:"trigger_probability"`
	WeightedSelection    bool          `yaml:"weighted_selection"`
	MaxCascadeDepth      int           `yaml:"max_cascade_depth"`
	DriftRate            float64       `yaml:"drift_rate"`
	DayPhaseSeconds      float64       `yaml:"day_phase_seconds"`
	WeatherChangeSeconds float64       `yaml:"weather_change_seconds"`
}

// Aggregate declares a world-level accumulator owned by a subsystem. Names
// are dotted ("economy.prosperity") so they never collide with entity stats.
// When Track names an entity stat the accumulator follows its world average.
type Aggregate struct {
	Name    string  `yaml:"name"`
	Initial float64 `yaml:"initial"`
	Track   string  `yaml:"track"`
}

type envOverrides struct {
	Seed               *int64   `env:"WORLDSIM_SEED"`
	DatabaseDSN        *string  `env:"WORLDSIM_DATABASE_DSN"`
	TriggerProbability *float64 `env:"WORLDSIM_TRIGGER_PROBABILITY"`
	SavePath           *string  `env:"WORLDSIM_SAVE_PATH"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	cfg.dir = filepath.Dir(path)

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	applyDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

// Resolve makes a configured path relative to the config file's directory.
func (c *ProjectConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// Probability returns the scheduler's per-tick trigger chance.
func (s SimulationConfig) Probability() float64 {
	if s.TriggerProbability == nil {
		return DefaultTriggerProbability
	}
	return *s.TriggerProbability
}

func (c *ProjectConfig) AggregateByName(name string) (Aggregate, bool) {
	for _, aggregate := range c.Aggregates {
		if strings.EqualFold(aggregate.Name, name) {
			return aggregate, true
		}
	}
	return Aggregate{}, false
}

func applyEnv(cfg *ProjectConfig) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if overrides.Seed != nil {
		cfg.Simulation.Seed = *overrides.Seed
	}
	if overrides.DatabaseDSN != nil {
		cfg.Database.DSN = *overrides.DatabaseDSN
	}
	if overrides.TriggerProbability != nil {
		p := *overrides.TriggerProbability
		cfg.Simulation.TriggerProbability = &p
	}
	if overrides.SavePath != nil {
		cfg.Paths.Save = *overrides.SavePath
	}
	return nil
}

func applyDefaults(cfg *ProjectConfig) {
	sim := &cfg.Simulation
	if sim.TickSeconds == 0 {
		sim.TickSeconds = DefaultTickSeconds
	}
	if sim.TickInterval == 0 {
		sim.TickInterval = DefaultTickInterval
	}
	if sim.MaxCascadeDepth == 0 {
		sim.MaxCascadeDepth = DefaultMaxCascadeDepth
	}
	if sim.DriftRate == 0 {
		sim.DriftRate = DefaultDriftRate
	}
	if sim.DayPhaseSeconds == 0 {
		sim.DayPhaseSeconds = DefaultDayPhaseSeconds
	}
	if sim.WeatherChangeSeconds == 0 {
		sim.WeatherChangeSeconds = DefaultWeatherChangeSeconds
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Paths.World) == "" {
		return fmt.Errorf("paths.world is required")
	}
	if strings.TrimSpace(cfg.Paths.Catalog) == "" {
		return fmt.Errorf("paths.catalog is required")
	}

	sim := cfg.Simulation
	if p := sim.Probability(); p < 0 || p > 1 {
		return fmt.Errorf("trigger_probability must be within [0,1], got %v", p)
	}
	if sim.TickSeconds < 0 {
		return fmt.Errorf("tick_seconds must not be negative")
	}
	if sim.MaxCascadeDepth < 0 {
		return fmt.Errorf("max_cascade_depth must not be negative")
	}
	if sim.DriftRate < 0 || sim.DriftRate > 1 {
		return fmt.Errorf("drift_rate must be within [0,1], got %v", sim.DriftRate)
	}

	seen := make(map[string]struct{})
	for i, name := range cfg.CustomStats {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("custom stat %d name is required", i)
		}
		if stats.IsCore(name) {
			return fmt.Errorf("custom stat %s shadows a core stat", name)
		}
		if strings.Contains(name, ".") {
			return fmt.Errorf("custom stat %s must not contain '.'", name)
		}
		key := strings.ToLower(name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate custom stat: %s", name)
		}
		seen[key] = struct{}{}
	}

	aggregates := make(map[string]struct{})
	for i, aggregate := range cfg.Aggregates {
		name := strings.TrimSpace(aggregate.Name)
		if name == "" {
			return fmt.Errorf("aggregate %d name is required", i)
		}
		parts := strings.Split(name, ".")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("aggregate %s must be named <subsystem>.<name>", aggregate.Name)
		}
		key := strings.ToLower(name)
		if _, exists := aggregates[key]; exists {
			return fmt.Errorf("duplicate aggregate: %s", aggregate.Name)
		}
		aggregates[key] = struct{}{}
		if aggregate.Track != "" && !stats.IsCore(aggregate.Track) {
			if _, ok := seen[strings.ToLower(aggregate.Track)]; !ok {
				return fmt.Errorf("aggregate %s tracks unknown stat: %s", aggregate.Name, aggregate.Track)
			}
		}
	}

	return nil
}
