package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Options locates the site sources.
type Options struct {
	InputDir    string
	OutputDir   string
	IncludesDir string // relative to InputDir
	DataDir     string // relative to InputDir
	// GitDates resolves `date: git Last Modified` through the repository.
	GitDates      bool
	DefaultLayout string
}

var skipDirs = map[string]bool{
	"node_modules": true,
}

// Discover walks the input directory and returns every page, ordered by date
// and then input path.
func Discover(ctx context.Context, opts Options) ([]*Item, error) {
	root := opts.InputDir
	skip := skipSet(opts)

	var dater *GitDater
	if opts.GitDates {
		dater = NewGitDater(root)
	}
	dirData := newDirDataCache(root)

	var items []*Item
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] || skip[absPath(path)] {
				return filepath.SkipDir
			}
			return nil
		}
		kind, ok := kindFor(d.Name())
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		item, err := loadItem(path, filepath.ToSlash(rel), kind, opts, dirData, dater)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryContent, "failed to discover content").
			WithContext("input", root).
			Build()
	}

	SortDefault(items)
	slog.Debug("Discovered content", logfields.Pages(len(items)), logfields.Path(root))
	return items, nil
}

// SortDefault orders items by date and then input path.
func SortDefault(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].InputPath < items[j].InputPath
	})
}

func skipSet(opts Options) map[string]bool {
	set := map[string]bool{}
	for _, dir := range []string{
		opts.OutputDir,
		filepath.Join(opts.InputDir, opts.IncludesDir),
		filepath.Join(opts.InputDir, opts.DataDir),
	} {
		if dir == "" {
			continue
		}
		set[absPath(dir)] = true
	}
	return set
}

func kindFor(name string) (TemplateKind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return KindMarkdown, true
	case ".html":
		return KindHTML, true
	}
	return "", false
}

func loadItem(path, rel string, kind TemplateKind, opts Options, dirData *dirDataCache, dater *GitDater) (*Item, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read page").
			WithContext("path", rel).
			Build()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	fm, body, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "invalid frontmatter").
			WithContext("path", rel).
			Build()
	}
	fields, err := frontmatter.ParseYAML(fm)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "invalid frontmatter").
			WithContext("path", rel).
			Build()
	}
	data, err := dirData.cascade(rel, fields)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "invalid directory data").
			WithContext("path", rel).
			Build()
	}

	item := &Item{
		InputPath:   rel,
		Kind:        kind,
		FileSlug:    fileSlugFor(rel),
		Data:        data,
		Body:        body,
		Tags:        appendTags(nil, data["tags"]),
		Fingerprint: mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fm), "\n"), string(body)),
	}

	if n, ok := intValue(data["pageNumber"]); ok {
		item.PageNumber = n
	}
	item.PageTitle = pageTitle(data, item.FileSlug)

	if layout, ok := stringValue(data["layout"]); ok {
		item.Layout = layout
	} else {
		item.Layout = opts.DefaultLayout
	}

	item.Date, err = resolveDate(data["date"], path, info, dater)
	if err != nil {
		return nil, errors.ContentError("invalid date").
			WithContext("path", rel).
			WithContext("date", fmt.Sprint(data["date"])).
			Build()
	}

	switch p := data["permalink"].(type) {
	case bool:
		if p {
			return nil, errors.ContentError("permalink must be a path or false").WithContext("path", rel).Build()
		}
		item.URL = urlFor(rel)
	case string:
		item.URL = normalizePermalink(p)
		item.OutputPath = outputFor(opts.OutputDir, item.URL)
		if !insideDir(opts.OutputDir, item.OutputPath) {
			return nil, errors.ContentError("permalink escapes the output directory").
				WithContext("path", rel).
				WithContext("permalink", p).
				Build()
		}
	default:
		item.URL = urlFor(rel)
		item.OutputPath = outputFor(opts.OutputDir, item.URL)
	}
	return item, nil
}

// pageTitle prefers pageTitle, then title, then a title derived from slug.
func pageTitle(data map[string]any, slug string) string {
	if s, ok := stringValue(data["pageTitle"]); ok {
		return s
	}
	if s, ok := stringValue(data["title"]); ok {
		return s
	}
	return fallbackTitle(slug)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
