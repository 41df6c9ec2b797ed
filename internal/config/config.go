// Package config loads the apidoc configuration file. Environment variables
// referenced in the YAML are expanded before parsing, and a local .env file is
// applied first so secrets can stay out of the config file.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "git.home.luguber.info/inful/apidoc/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Project string        `yaml:"project"`
	Intake  IntakeConfig  `yaml:"intake"`
	Output  OutputConfig  `yaml:"output"`
	Render  RenderConfig  `yaml:"render"`
	Watch   WatchConfig   `yaml:"watch"`
	History HistoryConfig `yaml:"history"`
	Events  EventsConfig  `yaml:"events"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// IntakeConfig selects the symbol record sources.
type IntakeConfig struct {
	// RecordFiles are globs of YAML record files.
	RecordFiles []string `yaml:"record_files,omitempty"`
	// GoPackages are Go package patterns scanned for exported symbols.
	GoPackages []string `yaml:"go_packages,omitempty"`
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
}

// RenderConfig controls model assembly and the output formats.
type RenderConfig struct {
	Formats          []string `yaml:"formats"`
	IncludeNonPublic bool     `yaml:"include_non_public"`
	PageHeight       int      `yaml:"page_height,omitempty"`
	VerifyLinks      bool     `yaml:"verify_links"`
}

// WatchConfig controls daemon-mode regeneration. Durations are strings in
// time.ParseDuration syntax ("500ms", "2m").
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"`
	Interval string `yaml:"interval,omitempty"`
}

// DebounceDuration returns the parsed debounce window. Call Validate first.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(w.Debounce)
	return d
}

// IntervalDuration returns the parsed rebuild interval, 0 when unset.
func (w WatchConfig) IntervalDuration() time.Duration {
	if w.Interval == "" {
		return 0
	}
	d, _ := time.ParseDuration(w.Interval)
	return d
}

// HistoryConfig controls the run history store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// EventsConfig controls run event publishing. Disabled when URL is empty.
type EventsConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint. Disabled when Listen is empty.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

var supportedFormats = map[string]bool{
	"markdown": true,
	"html":     true,
	"paged":    true,
}

// Load reads, expands, and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal; only a real .env is applied.
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, apperrors.WrapError(err, apperrors.CategoryConfig, fmt.Sprintf("load %s", envPath)).Build()
			}
			break
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryConfig, "read config file").
			WithContext("path", configPath).
			Build()
	}

	return Parse(data)
}

// Parse expands environment variables in the YAML content, unmarshals it, and
// applies defaults and validation.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryConfig, "parse config").Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Project == "" {
		c.Project = "API Documentation"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./docs-out"
	}
	if len(c.Render.Formats) == 0 {
		c.Render.Formats = []string{"markdown"}
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = "500ms"
	}
	if c.History.Path == "" {
		c.History.Path = ".apidoc/history.db"
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "apidoc.runs"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the configuration for values the generator cannot work with.
func (c *Config) Validate() error {
	if len(c.Intake.RecordFiles) == 0 && len(c.Intake.GoPackages) == 0 {
		return apperrors.ConfigError("no intake sources configured").
			WithContext("hint", "set intake.record_files or intake.go_packages").
			Build()
	}
	for _, f := range c.Render.Formats {
		if !supportedFormats[f] {
			return apperrors.ConfigError("unsupported output format").
				WithContext("format", f).
				WithContext("supported", strings.Join(formatNames(), ", ")).
				Build()
		}
	}
	if c.Render.PageHeight < 0 {
		return apperrors.ConfigError("page_height must not be negative").Build()
	}
	if err := validDuration("watch.debounce", c.Watch.Debounce, false); err != nil {
		return err
	}
	if err := validDuration("watch.interval", c.Watch.Interval, true); err != nil {
		return err
	}
	return nil
}

func validDuration(field, value string, optional bool) error {
	if value == "" {
		if optional {
			return nil
		}
		return apperrors.ConfigError("missing duration").WithContext("field", field).Build()
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryConfig, "invalid duration").
			WithContext("field", field).
			Build()
	}
	if d < 0 {
		return apperrors.ConfigError("duration must not be negative").
			WithContext("field", field).
			Build()
	}
	return nil
}

func formatNames() []string {
	names := make([]string, 0, len(supportedFormats))
	for name := range supportedFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
