// Package commands implements the docsite CLI subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// Global carries state shared by all subcommands.
type Global struct {
	Out io.Writer
}

// NewGlobal returns the shared state writing user-facing output to out.
func NewGlobal(out io.Writer) *Global {
	if out == nil {
		out = os.Stdout
	}
	return &Global{Out: out}
}

// CLI is the root command with its global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docsite.yaml" type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build       BuildCmd       `cmd:"" help:"Build the site into the output directory"`
	Serve       ServeCmd       `cmd:"" help:"Build, serve and rebuild on change with live reload"`
	Init        InitCmd        `cmd:"" help:"Write an example configuration and starter site"`
	Collections CollectionsCmd `cmd:"" help:"Print each collection's pages in order"`
	History     HistoryCmd     `cmd:"" help:"List recent builds from the history database"`
	Version     VersionCmd     `cmd:"" help:"Print version information"`
}

// AfterApply runs after flag parsing and sets up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)})))
	return nil
}

// parseLogLevel honors -v first, then DOCSITE_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DOCSITE_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads the configuration and resolves relative input and output
// directories against the config file's directory.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	resolveDirs(cfg, filepath.Dir(path))
	return cfg, nil
}

func resolveDirs(cfg *config.Config, base string) {
	if base == "" || base == "." {
		return
	}
	if !filepath.IsAbs(cfg.Dirs.Input) {
		cfg.Dirs.Input = filepath.Join(base, cfg.Dirs.Input)
	}
	if !filepath.IsAbs(cfg.Dirs.Output) {
		cfg.Dirs.Output = filepath.Join(base, cfg.Dirs.Output)
	}
	if cfg.History.Path != "" && cfg.History.Path != ":memory:" && !filepath.IsAbs(cfg.History.Path) {
		cfg.History.Path = filepath.Join(base, cfg.History.Path)
	}
}

// runtime holds the builder and the resources wired around it.
type runtime struct {
	builder  *site.Builder
	registry *prom.Registry
	recorder metrics.Recorder
	closers  []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// newRuntime wires metrics, history and notifications into a builder.
func newRuntime(cfg *config.Config) (*runtime, error) {
	reg := prom.NewRegistry()
	rt := &runtime{registry: reg, recorder: metrics.NewPrometheusRecorder(reg)}
	opts := []site.Option{site.WithRecorder(rt.recorder)}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close history", logfields.Error(err))
			}
		})
		opts = append(opts, site.WithHistory(store))
	}

	notifier, err := notify.NewNATSNotifier(cfg.Notify.NATSURL, cfg.Notify.Subject, cfg.Notify.Timeout)
	if err != nil {
		slog.Warn("Build notifications disabled", logfields.Error(err))
		notifier = notify.Nop{}
	}
	if c, ok := notifier.(interface{ Close() }); ok {
		rt.closers = append(rt.closers, c.Close)
	}
	opts = append(opts, site.WithNotifier(notifier))

	b, err := site.New(cfg, opts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.builder = b
	return rt, nil
}
