package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port            int           `short:"p" help:"Port to listen on (overrides serve.port)"`
	NoLiveReload    bool          `name:"no-live-reload" help:"Disable live reload script injection"`
	RebuildInterval time.Duration `name:"rebuild-interval" help:"Also rebuild on this interval (e.g. 5m)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if s.Port > 0 {
		cfg.Serve.Port = s.Port
	}
	if s.NoLiveReload {
		cfg.Serve.LiveReload = false
	}
	if s.RebuildInterval > 0 {
		cfg.Serve.RebuildInterval = s.RebuildInterval
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := notifyContext(context.Background())
	defer cancel()

	srv := server.New(rt.builder, server.Options{
		Addr:            server.AddrFor(cfg.Serve.Port),
		InputDir:        cfg.Dirs.Input,
		OutputDir:       cfg.Dirs.Output,
		LiveReload:      cfg.Serve.LiveReload,
		Debounce:        cfg.Serve.Debounce,
		RebuildInterval: cfg.Serve.RebuildInterval,
		MetricsPath:     cfg.Serve.MetricsPath,
		MetricsHandler:  metrics.HTTPHandler(rt.registry),
		Recorder:        rt.recorder,
	})
	_, _ = fmt.Fprintf(g.Out, "Serving %s at http://localhost:%d/\n", cfg.Dirs.Output, cfg.Serve.Port)
	return srv.Run(ctx)
}
