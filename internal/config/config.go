package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"trilemma/internal/strategy"
	"trilemma/internal/tournament"
)

// Config holds a tournament's population and run settings.
type Config struct {
	Rounds  RoundsConfig  `yaml:"rounds"`
	Seed    int64         `yaml:"seed"`
	Workers int           `yaml:"workers"`
	Verbose bool          `yaml:"verbose"`
	Record  bool          `yaml:"record"`
	Roster  []RosterEntry `yaml:"roster"`

	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// RoundsConfig is the closed interval a match length is drawn from.
type RoundsConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// RosterEntry assigns Count consecutive population slots to one strategy.
type RosterEntry struct {
	Strategy string `yaml:"strategy"`
	Count    int    `yaml:"count"`
}

type StorageConfig struct {
	Kind         string `yaml:"kind"` // memory, sqlite
	Path         string `yaml:"path"`
	ArtifactsDir string `yaml:"artifacts_dir"`
	ExportsDir   string `yaml:"exports_dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the 90-slot reference population.
func DefaultConfig() *Config {
	rounds := tournament.DefaultRoundRange()
	return &Config{
		Rounds:  RoundsConfig{Min: rounds.Min, Max: rounds.Max},
		Seed:    1,
		Workers: 4,
		Roster: []RosterEntry{
			{Strategy: strategy.NameEchoConsensus, Count: 1},
			{Strategy: strategy.NameRandomTitForTat, Count: 30},
			{Strategy: strategy.NameMajorityRule, Count: 30},
			{Strategy: strategy.NameAlwaysDefect, Count: 29},
		},
		Storage: StorageConfig{
			Kind:         "memory",
			Path:         "trilemma.db",
			ArtifactsDir: "artifacts",
			ExportsDir:   "exports",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.applyEnvOverrides(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over cfg.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks everything that must hold before any match is played.
func (c *Config) Validate() error {
	if err := c.RoundRange().Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if _, err := tournament.BuildRoster(c.Groups()); err != nil {
		return err
	}
	return nil
}

func (c *Config) RoundRange() tournament.RoundRange {
	return tournament.RoundRange{Min: c.Rounds.Min, Max: c.Rounds.Max}
}

func (c *Config) Groups() []tournament.Group {
	groups := make([]tournament.Group, 0, len(c.Roster))
	for _, e := range c.Roster {
		groups = append(groups, tournament.Group{Strategy: e.Strategy, Count: e.Count})
	}
	return groups
}

// PopulationSize is the number of slots the roster expands to.
func (c *Config) PopulationSize() int {
	n := 0
	for _, e := range c.Roster {
		if e.Count > 0 {
			n += e.Count
		}
	}
	return n
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if kind := os.Getenv("TRILEMMA_STORE"); kind != "" {
		c.Storage.Kind = kind
	}
	if path := os.Getenv("TRILEMMA_DB"); path != "" {
		c.Storage.Path = path
	}
	if dir := os.Getenv("TRILEMMA_ARTIFACTS_DIR"); dir != "" {
		c.Storage.ArtifactsDir = dir
	}
	if level := os.Getenv("TRILEMMA_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if raw := os.Getenv("TRILEMMA_WORKERS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("TRILEMMA_WORKERS must be a non-negative integer, got %q", raw)
		}
		c.Workers = n
	}
	return nil
}
