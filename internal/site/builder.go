// Package site turns discovered content into the output directory.
package site

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsite/internal/collections"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/helpers"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
)

// PageData describes the page being rendered.
type PageData struct {
	URL        string
	InputPath  string
	OutputPath string
	FileSlug   string
	Date       time.Time
}

// TemplateData is the value templates execute against.
type TemplateData struct {
	Page        PageData
	Data        map[string]any
	Content     template.HTML
	Collections map[string][]*content.Item
	Global      map[string]any
	Site        config.SiteConfig
}

// Builder runs site builds. It is safe to call Build repeatedly but not
// concurrently.
type Builder struct {
	cfg         *config.Config
	helpers     *helpers.Registry
	rules       *markdown.RuleTable
	collections *collections.Registry
	recorder    metrics.Recorder
	history     history.Recorder
	notifier    notify.Notifier
	now         func() time.Time
}

// Option customizes a Builder.
type Option func(*Builder)

// WithHelpers replaces the template helper registry.
func WithHelpers(r *helpers.Registry) Option { return func(b *Builder) { b.helpers = r } }

// WithRules replaces the markdown rule table.
func WithRules(t *markdown.RuleTable) Option { return func(b *Builder) { b.rules = t } }

// WithCollections replaces the collection registry.
func WithCollections(r *collections.Registry) Option {
	return func(b *Builder) { b.collections = r }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

// WithHistory records every build in h.
func WithHistory(h history.Recorder) Option { return func(b *Builder) { b.history = h } }

// WithNotifier publishes every build through n.
func WithNotifier(n notify.Notifier) Option { return func(b *Builder) { b.notifier = n } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// MarkdownOptions maps the markdown configuration onto renderer options.
func MarkdownOptions(cfg config.MarkdownConfig) markdown.Options {
	return markdown.Options{
		InlineCodeClass:    cfg.InlineCodeClass,
		ExternalLinkTarget: cfg.ExternalLinkTarget,
		ExternalLinkRel:    cfg.ExternalLinkRel,
		HardWraps:          cfg.HardWraps,
	}
}

// New returns a builder for cfg. Dependencies not supplied through options
// are derived from cfg.
func New(cfg *config.Config, opts ...Option) (*Builder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	b := &Builder{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		notifier: notify.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.helpers == nil {
		b.helpers = helpers.Default()
	}
	if b.rules == nil {
		b.rules = markdown.DefaultRules(MarkdownOptions(cfg.Markdown))
	}
	if b.collections == nil {
		reg, err := collections.FromConfig(cfg.Collections)
		if err != nil {
			return nil, err
		}
		b.collections = reg
	}
	return b, nil
}

// Config returns the configuration the builder was created with.
func (b *Builder) Config() *config.Config {
	return b.cfg
}

func (b *Builder) contentOptions() content.Options {
	return content.Options{
		InputDir:      b.cfg.Dirs.Input,
		OutputDir:     b.cfg.Dirs.Output,
		IncludesDir:   b.cfg.Dirs.Includes,
		DataDir:       b.cfg.Dirs.Data,
		GitDates:      b.cfg.Build.GitDates,
		DefaultLayout: b.cfg.Build.DefaultLayout,
	}
}

// Plan discovers content and builds the collections without writing
// anything.
func (b *Builder) Plan(ctx context.Context) ([]*content.Item, map[string][]*content.Item, error) {
	items, err := content.Discover(ctx, b.contentOptions())
	if err != nil {
		return nil, nil, err
	}
	return items, b.collections.Build(items), nil
}

// Build runs every stage and returns the report. The report is returned
// even when the build fails.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	st := &buildState{
		report: newReport(uuid.NewString(), b.now()),
		outDir: filepath.Clean(b.cfg.Dirs.Output),
	}
	log := slog.With(logfields.BuildID(st.report.BuildID))
	log.Info("Build started", logfields.Path(b.cfg.Dirs.Input), logfields.Output(st.outDir))

	err := b.runStages(ctx, st, log)

	r := st.report
	r.End = b.now()
	r.Err = err
	r.deriveOutcome(ctx.Err() != nil)

	b.recorder.ObserveBuildDuration(r.Duration())
	b.recorder.IncBuildOutcome(r.metricsOutcome())
	b.recorder.SetPagesRendered(r.Pages)
	b.recorder.AddPassthroughFiles(r.Passthrough)
	b.recorder.AddBrokenLinks(len(r.BrokenLinks))

	b.publish(context.WithoutCancel(ctx), r, log)

	if err != nil {
		log.Error("Build failed", logfields.Error(err), logfields.DurationMS(float64(r.Duration().Milliseconds())))
		return r, err
	}
	for _, w := range r.Warnings {
		log.Warn("Build warning", logfields.Error(w))
	}
	log.Info("Build completed", "summary", r.Summary())
	return r, nil
}

// publish records the build in history and notifies subscribers. Failures
// are logged and never fail the build.
func (b *Builder) publish(ctx context.Context, r *Report, log *slog.Logger) {
	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}
	if b.history != nil {
		rec := history.Build{
			ID:          r.BuildID,
			Started:     r.Start,
			Duration:    r.Duration(),
			Pages:       r.Pages,
			Passthrough: r.Passthrough,
			BrokenLinks: len(r.BrokenLinks),
			Status:      history.Status(r.Outcome),
			Error:       errText,
		}
		if err := b.history.Record(ctx, rec); err != nil {
			log.Warn("Failed to record build history", logfields.Error(err))
		}
	}
	if b.notifier != nil {
		ev := notify.BuildEvent{
			Type:        notify.EventBuildCompleted,
			BuildID:     r.BuildID,
			Timestamp:   r.End,
			Status:      string(r.Outcome),
			DurationMS:  r.Duration().Milliseconds(),
			Pages:       r.Pages,
			Passthrough: r.Passthrough,
			BrokenLinks: len(r.BrokenLinks),
			Error:       errText,
		}
		if err := b.notifier.Notify(ctx, ev); err != nil {
			log.Warn("Failed to publish build event", logfields.Error(err))
		}
	}
}

func (b *Builder) includesDir() string {
	return filepath.Join(b.cfg.Dirs.Input, b.cfg.Dirs.Includes)
}
