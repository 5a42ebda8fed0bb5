// Package config loads formsync settings from YAML.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formsync/pkg/fieldpath"
)

// FileName is the project-level config file looked up by the CLI.
const FileName = "formsync.yaml"

// Transport names.
const (
	TransportMemory  = "memory"
	TransportPhoenix = "phoenix"
	TransportNATS    = "nats"
)

// Config is the complete formsync configuration.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Transport TransportConfig `yaml:"transport"`
	Guard     GuardConfig     `yaml:"guard"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Export    ExportConfig    `yaml:"export"`
}

// CollectorConfig configures field collection.
type CollectorConfig struct {
	// Prefix limits collection to names under this root, e.g. soal_selidik.
	Prefix string `yaml:"prefix"`
	// FormID selects the form by id; empty uses the first form.
	FormID string `yaml:"form_id"`
}

// DispatchConfig configures debouncing.
type DispatchConfig struct {
	Quiet time.Duration `yaml:"quiet"`
	Event string        `yaml:"event"`
}

// TransportConfig selects and configures the sync channel.
type TransportConfig struct {
	Kind    string        `yaml:"kind"`
	Phoenix PhoenixConfig `yaml:"phoenix"`
	NATS    NATSConfig    `yaml:"nats"`
	// Mirror also prints every message as a JSON line when a remote
	// transport is selected.
	Mirror bool `yaml:"mirror"`
}

// PhoenixConfig configures the LiveView websocket.
type PhoenixConfig struct {
	URL       string        `yaml:"url"`
	Topic     string        `yaml:"topic"`
	CSRFToken string        `yaml:"csrf_token"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// NATSConfig configures the NATS publisher.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	Flush         bool   `yaml:"flush"`
}

// GuardConfig binds events to OpenAPI operations for payload validation.
type GuardConfig struct {
	Document string            `yaml:"document"`
	Bindings map[string]string `yaml:"bindings,omitempty"`
	Strict   bool              `yaml:"strict"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// ExportConfig configures document exports.
type ExportConfig struct {
	Format    string            `yaml:"format"`
	OutputDir string            `yaml:"output_dir"`
	Theme     string            `yaml:"theme"`
	Variant   string            `yaml:"variant"`
	Tokens    map[string]string `yaml:"tokens,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Dispatch: DispatchConfig{
			Quiet: 300 * time.Millisecond,
			Event: "autosave",
		},
		Transport: TransportConfig{
			Kind: TransportMemory,
			Phoenix: PhoenixConfig{
				Heartbeat: 30 * time.Second,
			},
			NATS: NATSConfig{
				SubjectPrefix: "formsync.events",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Export: ExportConfig{
			Format:    "pdf",
			OutputDir: ".",
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil config")
	}
	var errs []error
	if prefix := c.Collector.Prefix; prefix != "" {
		if _, ok := fieldpath.Parse(prefix); !ok {
			errs = append(errs, fmt.Errorf("collector.prefix %q is not a valid field name", prefix))
		}
	}
	if c.Dispatch.Quiet <= 0 {
		errs = append(errs, errors.New("dispatch.quiet must be positive"))
	}
	if strings.TrimSpace(c.Dispatch.Event) == "" {
		errs = append(errs, errors.New("dispatch.event is required"))
	}
	switch c.Transport.Kind {
	case TransportMemory:
	case TransportPhoenix:
		if c.Transport.Phoenix.URL == "" {
			errs = append(errs, errors.New("transport.phoenix.url is required"))
		} else if _, err := url.Parse(c.Transport.Phoenix.URL); err != nil {
			errs = append(errs, fmt.Errorf("transport.phoenix.url: %w", err))
		}
		if c.Transport.Phoenix.Topic == "" {
			errs = append(errs, errors.New("transport.phoenix.topic is required"))
		}
	case TransportNATS:
		if c.Transport.NATS.URL == "" {
			errs = append(errs, errors.New("transport.nats.url is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("transport.kind %q is not one of memory, phoenix, nats", c.Transport.Kind))
	}
	if len(c.Guard.Bindings) > 0 && c.Guard.Document == "" {
		errs = append(errs, errors.New("guard.document is required when bindings are set"))
	}
	switch c.Export.Format {
	case "", "pdf", "html", "markdown":
	default:
		errs = append(errs, fmt.Errorf("export.format %q is not one of pdf, html, markdown", c.Export.Format))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// LoadFromFile reads path on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Merge overlays non-zero values from other.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Collector.Prefix != "" {
		c.Collector.Prefix = other.Collector.Prefix
	}
	if other.Collector.FormID != "" {
		c.Collector.FormID = other.Collector.FormID
	}
	if other.Dispatch.Quiet != 0 {
		c.Dispatch.Quiet = other.Dispatch.Quiet
	}
	if other.Dispatch.Event != "" {
		c.Dispatch.Event = other.Dispatch.Event
	}

	if other.Transport.Kind != "" {
		c.Transport.Kind = other.Transport.Kind
	}
	if other.Transport.Mirror {
		c.Transport.Mirror = true
	}
	mergeString(&c.Transport.Phoenix.URL, other.Transport.Phoenix.URL)
	mergeString(&c.Transport.Phoenix.Topic, other.Transport.Phoenix.Topic)
	mergeString(&c.Transport.Phoenix.CSRFToken, other.Transport.Phoenix.CSRFToken)
	if other.Transport.Phoenix.Heartbeat != 0 {
		c.Transport.Phoenix.Heartbeat = other.Transport.Phoenix.Heartbeat
	}
	mergeString(&c.Transport.NATS.URL, other.Transport.NATS.URL)
	mergeString(&c.Transport.NATS.SubjectPrefix, other.Transport.NATS.SubjectPrefix)
	if other.Transport.NATS.Flush {
		c.Transport.NATS.Flush = true
	}

	mergeString(&c.Guard.Document, other.Guard.Document)
	if len(other.Guard.Bindings) > 0 {
		c.Guard.Bindings = make(map[string]string, len(other.Guard.Bindings))
		for k, v := range other.Guard.Bindings {
			c.Guard.Bindings[k] = v
		}
	}
	if other.Guard.Strict {
		c.Guard.Strict = true
	}

	mergeString(&c.Log.Level, other.Log.Level)
	mergeString(&c.Log.Format, other.Log.Format)
	mergeString(&c.Metrics.Addr, other.Metrics.Addr)

	mergeString(&c.Export.Format, other.Export.Format)
	mergeString(&c.Export.OutputDir, other.Export.OutputDir)
	mergeString(&c.Export.Theme, other.Export.Theme)
	mergeString(&c.Export.Variant, other.Export.Variant)
	if len(other.Export.Tokens) > 0 {
		if c.Export.Tokens == nil {
			c.Export.Tokens = make(map[string]string, len(other.Export.Tokens))
		}
		for k, v := range other.Export.Tokens {
			c.Export.Tokens[k] = v
		}
	}
}

// Find walks from dir up to the filesystem root looking for FileName.
func Find(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func mergeString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
