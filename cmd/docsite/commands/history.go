package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show (defaults to history.limit)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return derrors.ConfigError("build history is disabled").
			UserAction().
			WithContext("hint", "set history.path in the configuration").
			Build()
	}
	limit := h.Limit
	if limit <= 0 {
		limit = cfg.History.Limit
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builds, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tID\tSTATUS\tPAGES\tFILES\tBROKEN\tDURATION\tERROR")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			b.Started.Local().Format(time.DateTime), b.ID, b.Status, b.Pages, b.Passthrough,
			b.BrokenLinks, b.Duration.Round(time.Millisecond), b.Error)
	}
	return tw.Flush()
}
