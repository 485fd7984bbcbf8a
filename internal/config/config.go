// Package config loads rdtrace settings from a YAML file and applies
// RDTRACE_* environment overrides on top.
package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/staticrd/staticrd/internal/lru"
)

// Config is the full rdtrace configuration.
type Config struct {
	Trace   TraceConfig   `yaml:"trace"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// TraceConfig controls trace runs.
type TraceConfig struct {
	// Algorithm is an oracle selector such as "Olken" or "Scale,0.5,64".
	Algorithm string `yaml:"algorithm"`
	// Strict rejects unknown algorithm names instead of falling back.
	Strict bool `yaml:"strict"`
	// AssignBases runs the layout pass before tracing.
	AssignBases bool `yaml:"assign_bases"`
	// EventLogs keeps the address and distance logs.
	EventLogs bool   `yaml:"event_logs"`
	Kernel    string `yaml:"kernel"`
	Size      int    `yaml:"size"`
}

// IngestConfig controls real-trace ingestion.
type IngestConfig struct {
	Header bool `yaml:"header"`
}

// OutputConfig selects where results are saved.
type OutputConfig struct {
	// Dir is a directory sink. Ignored when Store is set.
	Dir string `yaml:"dir"`
	// Store is a badger database directory.
	Store string `yaml:"store"`
	Name  string `yaml:"name"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig controls metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Trace: TraceConfig{
			Algorithm:   string(lru.Default),
			AssignBases: true,
			EventLogs:   true,
			Kernel:      "matmul",
			Size:        16,
		},
		Ingest: IngestConfig{Header: true},
		Output: OutputConfig{Dir: "results"},
		Log:    LogConfig{Level: "info", Pretty: true},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Trace.Algorithm = env.Str("RDTRACE_ALGORITHM", c.Trace.Algorithm)
	if env.Has("RDTRACE_STRICT") {
		c.Trace.Strict = env.Bool("RDTRACE_STRICT")
	}
	c.Trace.Kernel = env.Str("RDTRACE_KERNEL", c.Trace.Kernel)
	c.Trace.Size = env.Int("RDTRACE_SIZE", c.Trace.Size)
	c.Output.Dir = env.Str("RDTRACE_OUTPUT_DIR", c.Output.Dir)
	c.Output.Store = env.Str("RDTRACE_STORE", c.Output.Store)
	c.Log.Level = env.Str("RDTRACE_LOG_LEVEL", c.Log.Level)
	if env.Has("RDTRACE_METRICS") {
		c.Metrics.Enabled = env.Bool("RDTRACE_METRICS")
	}
}

// Validate checks the configuration for values no run can use.
func (c Config) Validate() error {
	if _, err := lru.ParseSelector(c.Trace.Algorithm); err != nil {
		return errors.Wrap(err, "trace.algorithm")
	}
	if c.Trace.Size <= 0 {
		return errors.Errorf("trace.size must be positive, got %d", c.Trace.Size)
	}
	return nil
}
