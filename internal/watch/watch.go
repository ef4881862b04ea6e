package watch

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdsite/internal/build"
	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
)

// Build triggers.
const (
	TriggerInitial  = "initial"
	TriggerChange   = "change"
	TriggerSchedule = "schedule"
)

// Options configures Run.
type Options struct {
	Config  *config.Config
	Service build.BuildService
	// Addr is the HTTP listen address; empty disables serving.
	Addr string
	// Every schedules periodic rebuilds; zero disables them.
	Every    time.Duration
	Debounce time.Duration
	Registry *prom.Registry
	Logger   *slog.Logger
	// Ready, when set, receives the bound HTTP address once serving.
	Ready func(addr string)
}

// Run builds the site, then rebuilds it on changes under the content and
// template directories and on the optional schedule until ctx is done.
func Run(ctx context.Context, opts Options) error {
	if opts.Config == nil || opts.Service == nil {
		return fmt.Errorf("watch: config and build service are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	status := &Status{}
	runBuild := func(ctx context.Context, trigger string) {
		res, err := opts.Service.Run(ctx, build.BuildRequest{Config: opts.Config, Trigger: trigger})
		status.Record(res, err)
		if err != nil {
			logger.Warn("Rebuild failed", logfields.Trigger(trigger), logfields.Error(err))
		}
	}
	runBuild(ctx, TriggerInitial)

	ctx, cancel := context.WithCancel(ctx)

	rebuilder := NewRebuilder(runBuild, opts.Debounce)
	done := make(chan struct{})
	go func() {
		defer close(done)
		rebuilder.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	if opts.Every > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.SchedulePeriodicBuild(opts.Every, rebuilder); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				logger.Warn("Scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	if opts.Addr != "" {
		srv, err := serve(opts, status, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("HTTP server shutdown error", logfields.Error(err))
			}
		}()
	}

	watcher, err := NewWatcher(opts.Config.ContentDir, opts.Config.TemplateDir)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	logger.Info("Watching for changes",
		slog.String("content", opts.Config.ContentDir),
		slog.String("templates", opts.Config.TemplateDir))
	return watcher.Run(ctx, func(string) { rebuilder.Trigger(TriggerChange) })
}

func serve(opts Options, status *Status, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", opts.Addr, err)
	}
	srv := &http.Server{
		Handler:           NewHandler(opts.Config.OutputDir, opts.Registry, status),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", logfields.Error(err))
		}
	}()
	addr := ln.Addr().String()
	logger.Info("Serving site", slog.String("addr", "http://"+addr))
	if opts.Ready != nil {
		opts.Ready(addr)
	}
	return srv, nil
}
