package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdsite/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	DirFlags
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, b.DirFlags)
	if err != nil {
		return err
	}

	svc, cleanup, err := newBuildService(cfg, prom.NewRegistry(), g.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := svc.Run(ctx, build.BuildRequest{Config: cfg, Trigger: "cli"})
	if res != nil {
		fmt.Fprintf(stdout, "Build %s: %s (%d pages written, %d failed) in %s\n",
			res.BuildID, res.Status, res.Pages, res.Failed, res.Duration.Round(time.Millisecond))
	}
	return err
}
