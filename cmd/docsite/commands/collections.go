package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/docsite/internal/collections"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// CollectionsCmd implements the 'collections' command.
type CollectionsCmd struct {
	Name string `arg:"" optional:"" help:"Only print this collection"`
}

func (c *CollectionsCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	_, built, err := rt.builder.Plan(context.Background())
	if err != nil {
		return err
	}
	reg, err := collections.FromConfig(cfg.Collections)
	if err != nil {
		return err
	}
	names := append(reg.Names(), collections.All)
	if c.Name != "" {
		if _, ok := built[c.Name]; !ok {
			return derrors.NewError(derrors.CategoryNotFound, "unknown collection").
				WithContext("name", c.Name).
				Build()
		}
		names = []string{c.Name}
	}
	for _, name := range names {
		items := built[name]
		_, _ = fmt.Fprintf(g.Out, "%s (%d)\n", name, len(items))
		for _, it := range items {
			_, _ = fmt.Fprintf(g.Out, "  %-40s %s\n", it.URL, it.PageTitle)
		}
	}
	return nil
}
