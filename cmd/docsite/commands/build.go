package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/docsite/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Override the output directory" type:"path"`
	NoClean     bool   `name:"no-clean" help:"Keep existing files in the output directory"`
	VerifyLinks bool   `name:"verify-links" help:"Check internal links after the build"`
	StrictLinks bool   `name:"strict-links" help:"Fail the build on broken internal links"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	b.apply(cfg)

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := notifyContext(context.Background())
	defer cancel()

	report, err := rt.builder.Build(ctx)
	if report != nil {
		_, _ = fmt.Fprintf(g.Out, "Build %s: %s\n", report.BuildID, report.Summary())
		for _, broken := range report.BrokenLinks {
			_, _ = fmt.Fprintf(g.Out, "  broken link %s -> %s\n", broken.Page, broken.Link)
		}
	}
	return err
}

func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Output != "" {
		cfg.Dirs.Output = b.Output
	}
	if b.NoClean {
		cfg.Build.Clean = false
	}
	if b.VerifyLinks {
		cfg.Build.VerifyLinks = true
	}
	if b.StrictLinks {
		cfg.Build.VerifyLinks = true
		cfg.Build.StrictLinks = true
	}
}
