// Package config loads mdsite.yaml: directories, the pages and folders to
// emit and the optional ledger, metrics and event sinks.
package config

import (
	stdErrors "errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdsite/internal/errors"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/retry"
	"git.home.luguber.info/inful/mdsite/internal/site"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "mdsite.yaml"

// DefaultSubject is the NATS subject used when events are enabled without one.
const DefaultSubject = "mdsite.builds"

// Config is the site configuration.
type Config struct {
	ContentDir  string `yaml:"content_dir"`
	TemplateDir string `yaml:"template_dir"`
	OutputDir   string `yaml:"output_dir"`
	// Concurrency bounds parallel page renders per folder (0 = NumCPU).
	Concurrency int  `yaml:"concurrency,omitempty"`
	FailFast    bool `yaml:"fail_fast,omitempty"`

	Markdown MarkdownConfig `yaml:"markdown,omitempty"`
	Pages    []PageSpec     `yaml:"pages,omitempty"`
	Folders  []FolderSpec   `yaml:"folders,omitempty"`

	// Ledger is the SQLite build history database ("" disables it).
	Ledger string `yaml:"ledger,omitempty"`
	// MetricsFile receives a Prometheus textfile after each build ("" disables it).
	MetricsFile string       `yaml:"metrics_file,omitempty"`
	Events      EventsConfig `yaml:"events,omitempty"`
}

// MarkdownConfig selects goldmark features.
type MarkdownConfig struct {
	Extensions []string `yaml:"extensions,omitempty"`
	EscapeHTML bool     `yaml:"escape_html,omitempty"`
	HeadingIDs bool     `yaml:"heading_ids,omitempty"`
}

// Options converts the section to converter options.
func (m MarkdownConfig) Options() markdown.Options {
	return markdown.Options{
		Extensions: append([]string(nil), m.Extensions...),
		EscapeHTML: m.EscapeHTML,
		HeadingIDs: m.HeadingIDs,
	}
}

// EventsConfig configures build-completed notifications.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	// JetStream publishes with acknowledgement to a stream bound to Subject.
	JetStream bool `yaml:"jetstream,omitempty"`
	// MaxRetries retries a failed publish; Backoff is fixed, linear or exponential.
	MaxRetries int    `yaml:"max_retries,omitempty"`
	Backoff    string `yaml:"backoff,omitempty"`
}

// RetryPolicy returns the publish retry policy.
func (e EventsConfig) RetryPolicy() retry.Policy {
	return retry.NewPolicy(retry.ParseMode(e.Backoff), 0, 0, e.MaxRetries)
}

// Enabled reports whether events should be published.
func (e EventsConfig) Enabled() bool { return e.NATSURL != "" }

// Load reads the configuration at path. Environment variables from .env and
// .env.local are loaded first and ${VAR} references are expanded before the
// YAML is decoded. Defaults are applied and the result is validated.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	// #nosec G304 -- the configuration path is chosen by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		if stdErrors.Is(err, fs.ErrNotExist) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.FileSystem("read config", path, err)
	}
	return Parse(path, data)
}

// Parse decodes configuration bytes. path only labels errors.
func Parse(path string, data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.ConfigInvalid(path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with only defaults set.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ContentDir == "" {
		c.ContentDir = site.DefaultContentDir
	}
	if c.TemplateDir == "" {
		c.TemplateDir = site.DefaultTemplateDir
	}
	if c.OutputDir == "" {
		c.OutputDir = site.DefaultOutputDir
	}
	if c.Events.Enabled() && c.Events.Subject == "" {
		c.Events.Subject = DefaultSubject
	}
}
