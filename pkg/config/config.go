// Package config loads the engine configuration from YAML with environment
// overrides and opens the configured model store.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-topology/pkg/logging"
	"github.com/dd0wney/cluso-topology/pkg/metrics"
	"github.com/dd0wney/cluso-topology/pkg/namespace"
	"github.com/dd0wney/cluso-topology/pkg/refinement"
	"github.com/dd0wney/cluso-topology/pkg/store"
	"github.com/dd0wney/cluso-topology/pkg/store/filestore"
	"github.com/dd0wney/cluso-topology/pkg/store/memory"
	"github.com/dd0wney/cluso-topology/pkg/store/postgres"
	"github.com/dd0wney/cluso-topology/pkg/validation"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Choosers
const (
	ChooserFirst = "first"
	ChooserNone  = "none"
)

// Default configuration values
const (
	DefaultLogLevel  = "info"
	DefaultStorePath = "./models"

	// MaxIterationsLimit caps configured iteration bounds.
	MaxIterationsLimit = 100000
)

// Config is the engine configuration.
type Config struct {
	LogLevel                 string   `yaml:"log_level"`
	PatternNamespaces        []string `yaml:"pattern_namespaces"`
	PatternNamespacePrefixes []string `yaml:"pattern_namespace_prefixes"`

	Pipeline PipelineConfig `yaml:"pipeline"`
	Store    StoreConfig    `yaml:"store"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type PipelineConfig struct {
	// MaxIterations bounds loops whose condition never fails. Zero disables the bound.
	MaxIterations int    `yaml:"max_iterations"`
	Chooser       string `yaml:"chooser"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Compress    bool   `yaml:"compress"`
	DatabaseURL string `yaml:"database_url"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Pipeline: PipelineConfig{
			MaxIterations: refinement.DefaultMaxIterations,
			Chooser:       ChooserFirst,
		},
		Store: StoreConfig{
			Backend:  BackendMemory,
			Path:     DefaultStorePath,
			Compress: true,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: metrics.DefaultNamespace,
		},
	}
}

// Load reads path on top of Default, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with LOG_LEVEL, TOPOLOGY_STORE_BACKEND,
// TOPOLOGY_STORE_PATH, TOPOLOGY_DATABASE_URL, TOPOLOGY_PATTERN_NAMESPACES
// (comma-separated) and TOPOLOGY_MAX_ITERATIONS.
func (c *Config) applyEnv() error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TOPOLOGY_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("TOPOLOGY_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("TOPOLOGY_DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
	}
	if v := os.Getenv("TOPOLOGY_PATTERN_NAMESPACES"); v != "" {
		c.PatternNamespaces = splitAndTrim(v, ",")
	}
	if v := os.Getenv("TOPOLOGY_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TOPOLOGY_MAX_ITERATIONS %q: %w", v, err)
		}
		c.Pipeline.MaxIterations = n
	}
	return nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("Config")
	cv.OneOf("LogLevel", strings.ToLower(c.LogLevel), []string{"debug", "info", "warn", "warning", "error"}).
		Each("PatternNamespaces", c.PatternNamespaces, nonEmpty).
		Each("PatternNamespacePrefixes", c.PatternNamespacePrefixes, nonEmpty).
		RangeInt("Pipeline.MaxIterations", c.Pipeline.MaxIterations, 0, MaxIterationsLimit).
		OneOf("Pipeline.Chooser", c.Pipeline.Chooser, []string{ChooserFirst, ChooserNone}).
		OneOf("Store.Backend", c.Store.Backend, []string{BackendMemory, BackendFile, BackendPostgres}).
		When(c.Store.Backend == BackendFile, func(v *validation.ConfigValidator) {
			v.Required("Store.Path", c.Store.Path)
		}).
		When(c.Store.Backend == BackendPostgres, func(v *validation.ConfigValidator) {
			v.Required("Store.DatabaseURL", c.Store.DatabaseURL).
				Custom("Store.DatabaseURL", func() error { return postgresURL(c.Store.DatabaseURL) })
		}).
		When(c.Metrics.Enabled, func(v *validation.ConfigValidator) {
			v.Required("Metrics.Namespace", c.Metrics.Namespace)
		})
	return cv.Validate()
}

// Level returns the parsed log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// Namespaces builds the pattern namespace manager.
func (c *Config) Namespaces() *namespace.Manager {
	return namespace.New(c.PatternNamespaces, c.PatternNamespacePrefixes)
}

// Chooser returns the configured candidate chooser.
func (c *Config) Chooser() refinement.Chooser {
	if c.Pipeline.Chooser == ChooserNone {
		return refinement.NoneChooser{}
	}
	return refinement.FirstChooser{}
}

// MetricsRegistry returns a registry when metrics are enabled, nil otherwise.
// A nil registry records nothing.
func (c *Config) MetricsRegistry() *metrics.Registry {
	if !c.Metrics.Enabled {
		return nil
	}
	return metrics.NewRegistryWithNamespace(validation.DefaultOr(c.Metrics.Namespace, metrics.DefaultNamespace))
}

// OpenStore opens the configured backend and wraps it with metrics and logging.
func OpenStore(ctx context.Context, cfg *Config, reg *metrics.Registry, logger logging.Logger) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Backend {
	case BackendMemory:
		s = memory.New()
	case BackendFile:
		s, err = filestore.Open(cfg.Store.Path, filestore.Options{Compress: cfg.Store.Compress})
	case BackendPostgres:
		s, err = postgres.Open(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return store.Instrument(s, cfg.Store.Backend, reg, logger), nil
}

func nonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func postgresURL(s string) error {
	if s == "" || strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://") {
		return nil
	}
	return errors.New("must be a postgres:// or postgresql:// URL")
}

// splitAndTrim splits s and drops empty parts.
func splitAndTrim(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
