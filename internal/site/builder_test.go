package site

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// newTestSite lays out a small documentation site and returns its config.
func newTestSite(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	in := filepath.Join(root, "src")

	writeFile(t, in, "_includes/base.html", `<html><title>{{.Data.pageTitle}} | {{.Site.Title}}</title>`+
		`<body class="{{.Data.theme}}">{{template "nav.html" .}}{{.Content}}</body></html>`)
	writeFile(t, in, "_includes/nav.html", `<nav>{{range .Collections.guidesSorted}}`+
		`<a class="{{mainMenuActiveClass .URL $.Page.URL}}" href="{{.URL}}">{{.PageTitle}}</a>{{end}}</nav>`)
	writeFile(t, in, "_includes/guide.html", "---\nlayout: base.html\ntheme: guide\n---\n"+
		`<article>{{.Content}}</article>`+
		`{{with findPreviousArticle .Collections.guidesSorted .Page.URL}}<a rel="prev" href="{{.URL}}">prev</a>{{end}}`+
		`{{with findNextArticle .Collections.guidesSorted .Page.URL}}<a rel="next" href="{{.URL}}">next</a>{{end}}`)
	writeFile(t, in, "_data/links.json", `{"repo": "https://example.com/repo"}`)

	writeFile(t, in, "index.html", "---\nlayout: base.html\npageTitle: Home\n---\n"+
		`<h1 id="{{idify .Data.pageTitle}}">{{.Site.Title}}</h1><a href="{{.Global.links.repo}}">repo</a>`)
	writeFile(t, in, "guides/guides.yaml", "tags: guides\nlayout: guide.html\n")
	writeFile(t, in, "guides/second.md", "---\npageNumber: 2\npageTitle: Second\n---\nUse `npm`.\n")
	writeFile(t, in, "guides/first.md", "---\npageNumber: 1\npageTitle: First\n---\n"+
		"See [docs](https://example.com).\n\n![A diagram](/assets/diagram.jpg)\n")
	writeFile(t, in, "assets/site.css", "body{}")
	writeFile(t, in, "assets/diagram.jpg", "jpg")
	writeFile(t, in, "photos/cat.jpg", "jpg")
	writeFile(t, in, "top.jpg", "jpg")
	writeFile(t, in, "notes.txt", "not copied")

	cfg := config.Default()
	cfg.Site.Title = "Test Docs"
	cfg.Dirs.Input = in
	cfg.Dirs.Output = filepath.Join(root, "build")
	config.Normalize(cfg)
	require.NoError(t, config.ValidateConfig(cfg))
	return cfg
}

func TestBuild(t *testing.T) {
	cfg := newTestSite(t)
	b, err := New(cfg)
	require.NoError(t, err)

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)
	require.Equal(t, 3, report.Items)
	require.Equal(t, 3, report.Pages)
	require.Equal(t, 4, report.Passthrough)
	require.Equal(t, 2, report.Collections["guidesSorted"])
	require.NotEmpty(t, report.BuildID)

	out := cfg.Dirs.Output
	home := readFile(t, out, "index.html")
	require.Contains(t, home, "<title>Home | Test Docs</title>")
	require.Contains(t, home, `<h1 id="home">Test Docs</h1>`)
	require.Contains(t, home, `href="https://example.com/repo"`)
	require.Contains(t, home, `<a class="" href="/guides/first/">First</a><a class="" href="/guides/second/">Second</a>`)

	first := readFile(t, out, "guides/first/index.html")
	require.Contains(t, first, `<body class="guide">`)
	require.Contains(t, first, `<a class="active fw-bold" href="/guides/first/">First</a>`)
	require.Contains(t, first, `<a href="https://example.com" target="_blank" rel="noopener">docs</a>`)
	require.Contains(t, first, `<figure class="my-5 p-4 bg-light">`)
	require.Contains(t, first, `<a rel="next" href="/guides/second/">next</a>`)
	require.NotContains(t, first, `rel="prev"`)

	second := readFile(t, out, "guides/second/index.html")
	require.Contains(t, second, `<code class="language-markup">npm</code>`)
	require.Contains(t, second, `<a rel="prev" href="/guides/first/">prev</a>`)
	require.NotContains(t, second, `rel="next"`)

	for _, rel := range []string{"assets/site.css", "assets/diagram.jpg", "photos/cat.jpg", "top.jpg"} {
		require.FileExists(t, filepath.Join(out, filepath.FromSlash(rel)))
	}
	require.NoFileExists(t, filepath.Join(out, "notes.txt"))

	m, err := ReadManifest(out)
	require.NoError(t, err)
	require.Equal(t, report.BuildID, m.BuildID)
	require.Len(t, m.Pages, 3)
	for _, p := range m.Pages {
		require.NotEmpty(t, p.Fingerprint)
		if p.URL == "/guides/first/" {
			require.Len(t, p.Links, 2)
		}
	}
}

func TestBuild_CleansOutput(t *testing.T) {
	cfg := newTestSite(t)
	writeFile(t, cfg.Dirs.Output, "stale.html", "old")

	b, err := New(cfg)
	require.NoError(t, err)
	_, err = b.Build(context.Background())
	require.NoError(t, err)
	require.NoFileExists(t, filepath.Join(cfg.Dirs.Output, "stale.html"))
}

func TestBuild_RefusesToCleanInputParent(t *testing.T) {
	cfg := newTestSite(t)
	cfg.Dirs.Output = filepath.Dir(cfg.Dirs.Input)

	b, err := New(cfg)
	require.NoError(t, err)
	report, err := b.Build(context.Background())
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, report.Outcome)
	require.DirExists(t, cfg.Dirs.Input)
}

func TestBuild_MissingLayout(t *testing.T) {
	cfg := newTestSite(t)
	writeFile(t, cfg.Dirs.Input, "broken.md", "---\nlayout: nope.html\n---\nx\n")

	b, err := New(cfg)
	require.NoError(t, err)
	_, err = b.Build(context.Background())
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate))
}

func TestBuild_DuplicateOutput(t *testing.T) {
	cfg := newTestSite(t)
	writeFile(t, cfg.Dirs.Input, "other.md", "---\npermalink: /guides/first/\n---\nx\n")

	b, err := New(cfg)
	require.NoError(t, err)
	_, err = b.Build(context.Background())
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
}

func TestBuild_VerifyLinks(t *testing.T) {
	cfg := newTestSite(t)
	cfg.Build.VerifyLinks = true
	writeFile(t, cfg.Dirs.Input, "dangling.md", "[gone](/nowhere/)\n")

	b, err := New(cfg)
	require.NoError(t, err)
	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeWarning, report.Outcome)
	require.Len(t, report.BrokenLinks, 1)
	require.Equal(t, "/nowhere/", report.BrokenLinks[0].Target)

	cfg.Build.StrictLinks = true
	report, err = b.Build(context.Background())
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, report.Outcome)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryLinks))
}

func TestBuild_Canceled(t *testing.T) {
	cfg := newTestSite(t)
	b, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := b.Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, OutcomeCanceled, report.Outcome)
}

type recordingHistory struct{ builds []history.Build }

func (r *recordingHistory) Record(_ context.Context, b history.Build) error {
	r.builds = append(r.builds, b)
	return nil
}

type recordingNotifier struct {
	events []notify.BuildEvent
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, ev notify.BuildEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

type countingRecorder struct {
	metrics.NoopRecorder
	outcomes []metrics.BuildOutcomeLabel
	stages   map[string]metrics.ResultLabel
}

func (c *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	c.outcomes = append(c.outcomes, o)
}

func (c *countingRecorder) IncStageResult(stage string, r metrics.ResultLabel) {
	c.stages[stage] = r
}

func TestBuild_Hooks(t *testing.T) {
	cfg := newTestSite(t)
	hist := &recordingHistory{}
	notifier := &recordingNotifier{err: errors.New("nats down")}
	rec := &countingRecorder{stages: map[string]metrics.ResultLabel{}}
	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	b, err := New(cfg,
		WithHistory(hist),
		WithNotifier(notifier),
		WithRecorder(rec),
		WithClock(func() time.Time { return clock }),
	)
	require.NoError(t, err)
	report, err := b.Build(context.Background())
	require.NoError(t, err, "notifier failures do not fail the build")

	require.Len(t, hist.builds, 1)
	require.Equal(t, report.BuildID, hist.builds[0].ID)
	require.Equal(t, history.StatusSuccess, hist.builds[0].Status)
	require.Equal(t, 3, hist.builds[0].Pages)

	require.Len(t, notifier.events, 1)
	require.Equal(t, notify.EventBuildCompleted, notifier.events[0].Type)
	require.Equal(t, "success", notifier.events[0].Status)

	require.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	require.Equal(t, metrics.ResultSuccess, rec.stages[string(StageRender)])
	_, verified := rec.stages[string(StageVerifyLinks)]
	require.False(t, verified, "disabled stages are skipped")
}

func TestPlan(t *testing.T) {
	cfg := newTestSite(t)
	b, err := New(cfg)
	require.NoError(t, err)

	items, built, err := b.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	var urls []string
	for _, it := range built["guidesSorted"] {
		urls = append(urls, it.URL)
	}
	require.Equal(t, "/guides/first/,/guides/second/", strings.Join(urls, ","))
	require.NoDirExists(t, cfg.Dirs.Output)
}
