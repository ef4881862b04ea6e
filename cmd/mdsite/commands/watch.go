package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/mdsite/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	DirFlags
	Addr  string        `help:"HTTP listen address (empty disables serving)" default:":8080"`
	Every time.Duration `help:"Also rebuild periodically (e.g. 1h); 0 disables"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, w.DirFlags)
	if err != nil {
		return err
	}

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, cleanup, err := newBuildService(cfg, reg, g.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return watch.Run(ctx, watch.Options{
		Config:   cfg,
		Service:  svc,
		Addr:     w.Addr,
		Every:    w.Every,
		Registry: reg,
		Logger:   g.Logger,
	})
}
