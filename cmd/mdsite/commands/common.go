// Package commands implements the mdsite subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdsite/internal/build"
	"git.home.luguber.info/inful/mdsite/internal/buildlog"
	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/events"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
)

// stdout receives user-facing command output.
var stdout io.Writer = os.Stdout

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"mdsite.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render all configured pages and folders"`
	Watch   WatchCmd   `cmd:"" help:"Build, serve the output and rebuild on changes"`
	Init    InitCmd    `cmd:"" help:"Write a starter configuration, templates and content"`
	History HistoryCmd `cmd:"" help:"List recent builds from the ledger"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// DirFlags override the directories of the configuration file.
type DirFlags struct {
	Content   string `help:"Content directory (overrides content_dir)" type:"path"`
	Templates string `help:"Template directory (overrides template_dir)" type:"path"`
	Output    string `short:"o" help:"Output directory (overrides output_dir)" type:"path"`
	FailFast  bool   `name:"fail-fast" help:"Stop a build at the first failing page"`
}

func (d DirFlags) apply(cfg *config.Config) {
	if d.Content != "" {
		cfg.ContentDir = d.Content
	}
	if d.Templates != "" {
		cfg.TemplateDir = d.Templates
	}
	if d.Output != "" {
		cfg.OutputDir = d.Output
	}
	if d.FailFast {
		cfg.FailFast = true
	}
}

// loadConfig loads the configuration file and applies flag overrides.
func loadConfig(path string, flags DirFlags) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg)
	return cfg, nil
}

// newBuildService wires the ledger, metrics and event publisher configured
// in cfg. The returned cleanup closes them.
func newBuildService(cfg *config.Config, reg *prom.Registry, logger *slog.Logger) (*build.DefaultBuildService, func(), error) {
	svc := build.NewBuildService().WithLogger(logger).WithMetrics(reg)
	var closers []func() error

	if cfg.Ledger != "" {
		ledger, err := buildlog.Open(cfg.Ledger)
		if err != nil {
			return nil, nil, fmt.Errorf("open ledger: %w", err)
		}
		svc.WithLedger(ledger)
		closers = append(closers, ledger.Close)
	}

	if cfg.Events.Enabled() {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject, cfg.Events.JetStream)
		if err != nil {
			// Events are best effort; the build itself still runs.
			logger.Warn("Build events disabled", logfields.Error(err))
		} else {
			svc.WithPublisher(pub.WithRetry(cfg.Events.RetryPolicy()))
			closers = append(closers, pub.Close)
		}
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Cleanup failed", logfields.Error(err))
			}
		}
	}
	return svc, cleanup, nil
}
