package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docsite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, ".", cfg.Dirs.Input)
	require.Equal(t, "build", cfg.Dirs.Output)
	require.Equal(t, []string{"assets", "**/*.jpg"}, cfg.Passthrough)
	require.Equal(t, "language-markup", cfg.Markdown.InlineCodeClass)
	require.Equal(t, "_blank", cfg.Markdown.ExternalLinkTarget)
	require.Equal(t, "noopener", cfg.Markdown.ExternalLinkRel)
	require.Equal(t, 300*time.Millisecond, cfg.Serve.Debounce)
	require.NoError(t, ValidateConfig(cfg))

	names := make([]string, 0, len(cfg.Collections))
	for _, c := range cfg.Collections {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"introductionSorted", "guidesSorted", "pluginsSorted", "apiSorted", "plugin-providers-sorted"}, names)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "site:\n"+
		"  title: Test Docs\n"+
		"dirs:\n"+
		"  input: ./src/\n"+
		"  output: public\n"+
		"collections:\n"+
		"  - name: guides\n"+
		"    tag: guides\n"+
		"    sort: pageNumber\n"+
		"  - name: api\n"+
		"    tag: api\n"+
		"    sort: title\n"+
		"serve:\n"+
		"  port: 9000\n"+
		"  debounce: 1s\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Test Docs", cfg.Site.Title)
	require.Equal(t, "src", cfg.Dirs.Input)
	require.Equal(t, "public", cfg.Dirs.Output)
	require.Equal(t, "_includes", cfg.Dirs.Includes, "omitted keys keep defaults")
	require.Len(t, cfg.Collections, 2)
	require.Equal(t, SortByPageNumber, cfg.Collections[0].Sort)
	require.Equal(t, SortByTitle, cfg.Collections[1].Sort)
	require.Equal(t, 9000, cfg.Serve.Port)
	require.Equal(t, time.Second, cfg.Serve.Debounce)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCSITE_TEST_NATS", "nats://example:4222")
	path := writeConfig(t, "notify:\n  nats_url: ${DOCSITE_TEST_NATS}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "nats://example:4222", cfg.Notify.NATSURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "build", cfg.Dirs.Output)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"output equals input", func(c *Config) { c.Dirs.Output = "." }},
		{"missing collection name", func(c *Config) { c.Collections[0].Name = "" }},
		{"missing collection tag", func(c *Config) { c.Collections[0].Tag = "" }},
		{"reserved collection name", func(c *Config) { c.Collections[0].Name = "all" }},
		{"duplicate collection", func(c *Config) { c.Collections[1].Name = c.Collections[0].Name }},
		{"unknown sort", func(c *Config) { c.Collections[0].Sort = "date" }},
		{"port out of range", func(c *Config) { c.Serve.Port = 70000 }},
		{"absolute includes", func(c *Config) { c.Dirs.Includes = "/etc" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryValidation))
		})
	}
}

func TestNormalizeSortMode(t *testing.T) {
	tests := map[string]SortMode{
		"":            SortByPageNumber,
		"pageNumber":  SortByPageNumber,
		"page_number": SortByPageNumber,
		"Title":       SortByTitle,
		"pageTitle":   SortByTitle,
		"date":        SortMode("date"),
	}
	for in, want := range tests {
		require.Equal(t, want, NormalizeSortMode(in), in)
	}
}

func TestNormalize(t *testing.T) {
	cfg := Default()
	cfg.Passthrough = []string{" ./assets/ ", "", "images/**"}
	cfg.Build.Concurrency = 0
	cfg.Serve.MetricsPath = "metrics"
	Normalize(cfg)

	require.Equal(t, []string{"assets", "images/**"}, cfg.Passthrough)
	require.Equal(t, 1, cfg.Build.Concurrency)
	require.Equal(t, "/metrics", cfg.Serve.MetricsPath)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsite.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "My Documentation", cfg.Site.Title)

	err = Init(path, false)
	require.Error(t, err)
	require.NoError(t, Init(path, true))
}
