// ABOUTME: Configuration loading and parsing for the log transformer daemon.
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete daemon configuration.
type Config struct {
	Sources     []string          `yaml:"sources"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// AggregationConfig holds the timing knobs of the dedup engine.
type AggregationConfig struct {
	Window        time.Duration `yaml:"-"`
	PruneInterval time.Duration `yaml:"-"`
	PollDelay     time.Duration `yaml:"-"`
	ShutdownGrace time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	WindowRaw        string `yaml:"window"`
	PruneIntervalRaw string `yaml:"prune_interval"`
	PollDelayRaw     string `yaml:"poll_delay"`
	ShutdownGraceRaw string `yaml:"shutdown_grace"`
}

// LoggingConfig holds application log output configuration.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Console bool   `yaml:"console"`
	File    bool   `yaml:"file"`
	// Path is the application log file; rotation keeps MaxSizeMB per
	// file with MaxBackups old files.
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the built-in configuration used when no config file
// or flag overrides a value.
func Default() *Config {
	return &Config{
		Sources: []string{"examples/service_*/*.log"},
		Aggregation: AggregationConfig{
			Window:        20 * time.Second,
			PruneInterval: 5 * time.Second,
			PollDelay:     500 * time.Millisecond,
			ShutdownGrace: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Console:    true,
			File:       false,
			Path:       "./app-logs/gcp-transformer.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Load reads a configuration file and returns the parsed Config merged
// over the defaults. Environment variables in the format ${VAR_NAME}
// are expanded and duration strings parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.ParseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// ParseDurations converts any raw duration strings into time.Duration
// values, leaving defaults untouched where a raw value is absent.
func (c *Config) ParseDurations() error {
	var err error

	if c.Aggregation.WindowRaw != "" {
		c.Aggregation.Window, err = time.ParseDuration(c.Aggregation.WindowRaw)
		if err != nil {
			return fmt.Errorf("parsing window %q: %w", c.Aggregation.WindowRaw, err)
		}
	}

	if c.Aggregation.PruneIntervalRaw != "" {
		c.Aggregation.PruneInterval, err = time.ParseDuration(c.Aggregation.PruneIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing prune_interval %q: %w", c.Aggregation.PruneIntervalRaw, err)
		}
	}

	if c.Aggregation.PollDelayRaw != "" {
		c.Aggregation.PollDelay, err = time.ParseDuration(c.Aggregation.PollDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_delay %q: %w", c.Aggregation.PollDelayRaw, err)
		}
	}

	if c.Aggregation.ShutdownGraceRaw != "" {
		c.Aggregation.ShutdownGrace, err = time.ParseDuration(c.Aggregation.ShutdownGraceRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_grace %q: %w", c.Aggregation.ShutdownGraceRaw, err)
		}
	}

	return nil
}

// Validate checks that all required configuration fields are present
// and valid. Returns an error describing the first failure encountered.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source pattern is required")
	}

	if c.Aggregation.Window <= 0 {
		return fmt.Errorf("aggregation.window must be positive")
	}
	if c.Aggregation.PruneInterval <= 0 {
		return fmt.Errorf("aggregation.prune_interval must be positive")
	}
	if c.Aggregation.PollDelay <= 0 {
		return fmt.Errorf("aggregation.poll_delay must be positive")
	}
	if c.Aggregation.ShutdownGrace <= 0 {
		return fmt.Errorf("aggregation.shutdown_grace must be positive")
	}

	if c.Logging.File && c.Logging.Path == "" {
		return fmt.Errorf("logging.path is required when file logging is enabled")
	}

	return nil
}
