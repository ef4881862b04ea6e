package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/mdsite/internal/buildlog"
	"git.home.luguber.info/inful/mdsite/internal/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of builds to show" default:"10"`
	Pages bool `help:"Also list the pages of the most recent build"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, DirFlags{})
	if err != nil {
		return err
	}
	if cfg.Ledger == "" {
		return errors.ValidationFailed("ledger", "no ledger configured in "+root.Config)
	}
	if _, err := os.Stat(cfg.Ledger); err != nil {
		return errors.FileSystem("open ledger", cfg.Ledger, err)
	}

	ledger, err := buildlog.Open(cfg.Ledger)
	if err != nil {
		return err
	}
	defer func() { _ = ledger.Close() }()

	ctx := context.Background()
	builds, err := ledger.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}

	out := stdout
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tOUTCOME\tPAGES\tFAILED\tDURATION")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			b.ID, b.StartedAt.Format(time.RFC3339), b.Outcome, b.Pages, b.Failed, b.Duration().Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !h.Pages || len(builds) == 0 {
		return nil
	}
	pages, err := ledger.Pages(ctx, builds[0].ID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "OUTPUT\tMODE\tSTATUS\tFINGERPRINT\tERROR")
	for _, p := range pages {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Output, p.Mode, p.Status, p.Fingerprint, p.Error)
	}
	return tw.Flush()
}
