package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/linkcheck"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// StageName identifies a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StagePrepareOutput StageName = "prepare_output"
	StageDiscover      StageName = "discover"
	StageCollections   StageName = "collections"
	StageRender        StageName = "render_pages"
	StageWrite         StageName = "write_outputs"
	StagePassthrough   StageName = "passthrough"
	StageVerifyLinks   StageName = "verify_links"
	StageManifest      StageName = "manifest"
)

// renderedPage is a page ready to be written.
type renderedPage struct {
	item *content.Item
	html []byte
}

// buildState is shared between the stages of one build.
type buildState struct {
	report      *Report
	outDir      string
	items       []*content.Item
	collections map[string][]*content.Item
	global      map[string]any
	templates   *templateSet
	pages       []renderedPage
}

type stageFunc func(ctx context.Context, st *buildState) error

type stageDef struct {
	name    StageName
	fn      stageFunc
	enabled bool
}

func (b *Builder) stages() []stageDef {
	return []stageDef{
		{StagePrepareOutput, b.stagePrepareOutput, true},
		{StageDiscover, b.stageDiscover, true},
		{StageCollections, b.stageCollections, true},
		{StageRender, b.stageRender, true},
		{StageWrite, b.stageWrite, true},
		{StagePassthrough, b.stagePassthrough, true},
		{StageVerifyLinks, b.stageVerifyLinks, b.cfg.Build.VerifyLinks},
		{StageManifest, b.stageManifest, b.cfg.Build.Manifest},
	}
}

func (b *Builder) runStages(ctx context.Context, st *buildState, log *slog.Logger) error {
	for _, s := range b.stages() {
		if !s.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			b.recorder.IncStageResult(string(s.name), metrics.ResultCanceled)
			return err
		}
		start := b.now()
		err := s.fn(ctx, st)
		d := b.now().Sub(start)
		st.report.StageDurations[s.name] = d
		b.recorder.ObserveStageDuration(string(s.name), d)
		log.Debug("Stage finished", logfields.Stage(string(s.name)), logfields.DurationMS(float64(d.Milliseconds())))

		switch {
		case err == nil:
			b.recorder.IncStageResult(string(s.name), metrics.ResultSuccess)
		case ctx.Err() != nil:
			b.recorder.IncStageResult(string(s.name), metrics.ResultCanceled)
			return ctx.Err()
		case errors.GetSeverity(err) == errors.SeverityWarning:
			b.recorder.IncStageResult(string(s.name), metrics.ResultWarning)
			st.report.Warnings = append(st.report.Warnings, err)
		default:
			b.recorder.IncStageResult(string(s.name), metrics.ResultFatal)
			return err
		}
	}
	return nil
}

func (b *Builder) stagePrepareOutput(_ context.Context, st *buildState) error {
	if b.cfg.Build.Clean {
		if err := checkCleanTarget(b.cfg.Dirs.Input, st.outDir); err != nil {
			return err
		}
		if err := os.RemoveAll(st.outDir); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean output directory").
				WithContext("output", st.outDir).
				Build()
		}
	}
	if err := os.MkdirAll(st.outDir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("output", st.outDir).
			Build()
	}
	return nil
}

// checkCleanTarget refuses to remove a directory that contains the input.
func checkCleanTarget(input, output string) error {
	in, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(out, in)
	if err == nil && !strings.HasPrefix(rel, "..") {
		return errors.BuildError("refusing to clean an output directory that contains the input").
			WithContext("output", output).
			Build()
	}
	return nil
}

func (b *Builder) stageDiscover(ctx context.Context, st *buildState) error {
	items, err := content.Discover(ctx, b.contentOptions())
	if err != nil {
		return err
	}
	global, err := content.LoadGlobalData(filepath.Join(b.cfg.Dirs.Input, b.cfg.Dirs.Data))
	if err != nil {
		return errors.WrapError(err, errors.CategoryContent, "failed to load global data").Build()
	}
	st.items = items
	st.global = global
	st.report.Items = len(items)
	return nil
}

func (b *Builder) stageCollections(_ context.Context, st *buildState) error {
	st.collections = b.collections.Build(st.items)
	for name, items := range st.collections {
		st.report.Collections[name] = len(items)
		slog.Debug("Collection built", logfields.Collection(name), logfields.Pages(len(items)))
	}
	return nil
}

func (b *Builder) stageWrite(ctx context.Context, st *buildState) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.cfg.Build.Concurrency))
	for _, p := range st.pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(p.item.OutputPath), 0o755); err != nil {
				return errors.WrapError(err, errors.CategoryFileSystem, "failed to create page directory").
					WithContext("path", p.item.OutputPath).
					Build()
			}
			if err := os.WriteFile(p.item.OutputPath, p.html, 0o644); err != nil {
				return errors.WrapError(err, errors.CategoryFileSystem, "failed to write page").
					WithContext("path", p.item.OutputPath).
					Build()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	st.report.Pages = len(st.pages)
	return nil
}

func (b *Builder) stagePassthrough(ctx context.Context, st *buildState) error {
	n, err := copyPassthrough(ctx, b.cfg.Dirs.Input, st.outDir, b.cfg.Passthrough)
	st.report.Passthrough = n
	return err
}

func (b *Builder) stageVerifyLinks(ctx context.Context, st *buildState) error {
	checker, err := linkcheck.NewChecker(st.outDir, b.cfg.Site.BaseURL)
	if err != nil {
		return err
	}
	broken, err := checker.Check(ctx)
	if err != nil {
		return err
	}
	st.report.BrokenLinks = broken
	if len(broken) == 0 {
		return nil
	}
	for _, br := range broken {
		slog.Warn("Broken link", logfields.Path(br.Page), logfields.URL(br.Link))
	}
	builder := errors.NewError(errors.CategoryLinks, fmt.Sprintf("%d broken internal link(s)", len(broken))).
		WithContext("first", broken[0].Page+" -> "+broken[0].Link)
	if !b.cfg.Build.StrictLinks {
		builder = builder.Warning()
	}
	return builder.Build()
}
