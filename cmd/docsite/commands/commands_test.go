package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func newProject(t *testing.T) (*CLI, *Global, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	root := &CLI{Config: filepath.Join(dir, "docsite.yaml")}
	var out bytes.Buffer
	g := NewGlobal(&out)
	require.NoError(t, (&InitCmd{}).Run(g, root))
	return root, g, &out
}

func TestInitThenBuild(t *testing.T) {
	root, g, out := newProject(t)
	dir := filepath.Dir(root.Config)
	require.Contains(t, out.String(), "Created _includes/base.html")
	require.FileExists(t, filepath.Join(dir, "index.md"))
	require.FileExists(t, filepath.Join(dir, "guides", "getting-started.md"))

	out.Reset()
	require.NoError(t, (&BuildCmd{}).Run(g, root))
	require.Contains(t, out.String(), "outcome=success")

	home, err := os.ReadFile(filepath.Join(dir, "build", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(home), `<a class="active fw-bold" href="/">Home</a>`)
	require.Contains(t, string(home), `<main id="home">`)

	guide, err := os.ReadFile(filepath.Join(dir, "build", "guides", "getting-started", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(guide), `<code class="language-markup">docsite serve</code>`)
	require.Contains(t, string(guide), `<a class="active fw-bold" href="/guides/getting-started/">Getting started</a>`)
}

func TestInit_KeepsExistingFiles(t *testing.T) {
	root, g, out := newProject(t)
	page := filepath.Join(filepath.Dir(root.Config), "index.md")
	require.NoError(t, os.WriteFile(page, []byte("mine"), 0o600))

	out.Reset()
	require.NoError(t, (&InitCmd{Force: true, NoSample: false}).Run(g, root))
	data, err := os.ReadFile(page)
	require.NoError(t, err)
	require.NotEqual(t, "mine", string(data))

	require.NoError(t, os.WriteFile(page, []byte("mine"), 0o600))
	err = (&InitCmd{}).Run(g, root)
	require.Error(t, err)
	require.True(t, derrors.HasCategory(err, derrors.CategoryValidation))
	data, err = os.ReadFile(page)
	require.NoError(t, err)
	require.Equal(t, "mine", string(data))
}

func TestCollections(t *testing.T) {
	root, g, out := newProject(t)
	out.Reset()
	require.NoError(t, (&CollectionsCmd{}).Run(g, root))

	text := out.String()
	require.Contains(t, text, "guidesSorted (1)\n")
	require.Contains(t, text, "/guides/getting-started/")
	require.Contains(t, text, "pluginsSorted (0)\n")
	require.Contains(t, text, "all (2)\n")
	require.Less(t, strings.Index(text, "introductionSorted"), strings.Index(text, "guidesSorted"))

	out.Reset()
	require.NoError(t, (&CollectionsCmd{Name: "guidesSorted"}).Run(g, root))
	require.NotContains(t, out.String(), "all (")

	err := (&CollectionsCmd{Name: "missing"}).Run(g, root)
	require.True(t, derrors.HasCategory(err, derrors.CategoryNotFound))
}

func TestHistory(t *testing.T) {
	root, g, out := newProject(t)

	err := (&HistoryCmd{}).Run(g, root)
	require.True(t, derrors.HasCategory(err, derrors.CategoryConfig))

	require.NoError(t, os.WriteFile(root.Config, []byte("site:\n  title: Docs\nhistory:\n  path: history.db\n"), 0o600))
	require.NoError(t, (&BuildCmd{}).Run(g, root))
	require.NoError(t, (&BuildCmd{}).Run(g, root))

	out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 1}).Run(g, root))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "STATUS")
	require.Contains(t, lines[1], "success")
	require.FileExists(t, filepath.Join(filepath.Dir(root.Config), "history.db"))
}

func TestBuildCmd_Apply(t *testing.T) {
	cfg := config.Default()
	(&BuildCmd{Output: "/tmp/out", NoClean: true, StrictLinks: true}).apply(cfg)
	require.Equal(t, "/tmp/out", cfg.Dirs.Output)
	require.False(t, cfg.Build.Clean)
	require.True(t, cfg.Build.VerifyLinks)
	require.True(t, cfg.Build.StrictLinks)
}

func TestResolveDirs(t *testing.T) {
	cfg := config.Default()
	cfg.History.Path = "h.db"
	resolveDirs(cfg, "/srv/docs")
	require.Equal(t, "/srv/docs", cfg.Dirs.Input)
	require.Equal(t, "/srv/docs/build", cfg.Dirs.Output)
	require.Equal(t, "/srv/docs/h.db", cfg.History.Path)

	cfg = config.Default()
	resolveDirs(cfg, ".")
	require.Equal(t, ".", cfg.Dirs.Input)
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLogLevel(true))

	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for env, want := range tests {
		t.Setenv("DOCSITE_LOG_LEVEL", env)
		require.Equal(t, want, parseLogLevel(false), env)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, VersionCmd{}.Run(NewGlobal(&out)))
	require.True(t, strings.HasPrefix(out.String(), "docsite "))
}
