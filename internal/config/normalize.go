package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/foundation/normalization"
)

// Normalize canonicalizes user supplied values in place.
func Normalize(cfg *Config) {
	cfg.Dirs.Input = cleanDir(cfg.Dirs.Input, ".")
	cfg.Dirs.Output = cleanDir(cfg.Dirs.Output, "build")
	cfg.Dirs.Includes = cleanDir(cfg.Dirs.Includes, "_includes")
	cfg.Dirs.Data = cleanDir(cfg.Dirs.Data, "_data")

	passthrough := make([]string, 0, len(cfg.Passthrough))
	for _, p := range cfg.Passthrough {
		p = filepath.ToSlash(strings.TrimSpace(p))
		p = strings.TrimPrefix(p, "./")
		p = strings.TrimSuffix(p, "/")
		if p != "" {
			passthrough = append(passthrough, p)
		}
	}
	cfg.Passthrough = passthrough

	for i := range cfg.Collections {
		c := &cfg.Collections[i]
		c.Name = strings.TrimSpace(c.Name)
		c.Tag = strings.TrimSpace(c.Tag)
		c.Sort = NormalizeSortMode(string(c.Sort))
	}

	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = 1
	}
	if cfg.Serve.MetricsPath != "" && !strings.HasPrefix(cfg.Serve.MetricsPath, "/") {
		cfg.Serve.MetricsPath = "/" + cfg.Serve.MetricsPath
	}
	if cfg.History.Limit <= 0 {
		cfg.History.Limit = 20
	}
}

var sortModes = normalization.NewNormalizer(map[string]SortMode{
	"page_number": SortByPageNumber,
	"pagenumber":  SortByPageNumber,
	"page-number": SortByPageNumber,
	"number":      SortByPageNumber,
	"title":       SortByTitle,
	"page_title":  SortByTitle,
	"pagetitle":   SortByTitle,
	"page-title":  SortByTitle,
}, SortByPageNumber)

// NormalizeSortMode maps accepted spellings to a SortMode. Unknown values are
// returned unchanged so validation can report them.
func NormalizeSortMode(raw string) SortMode {
	if m, ok := sortModes.Lookup(raw); ok {
		return m
	}
	return SortMode(raw)
}

func cleanDir(dir, fallback string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return fallback
	}
	return filepath.Clean(dir)
}
