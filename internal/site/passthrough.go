package site

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// passthroughMatcher decides which input files are copied verbatim.
type passthroughMatcher struct {
	dirs  []string // slash separated, relative to the input
	files map[string]bool
	globs []glob.Glob
}

// newPassthroughMatcher classifies each entry as a directory, a file or a
// glob. Entries naming something that exists are taken literally.
func newPassthroughMatcher(inputDir string, patterns []string) (*passthroughMatcher, error) {
	m := &passthroughMatcher{files: map[string]bool{}}
	for _, p := range patterns {
		p = strings.TrimSuffix(filepath.ToSlash(p), "/")
		if info, err := os.Stat(filepath.Join(inputDir, filepath.FromSlash(p))); err == nil {
			if info.IsDir() {
				m.dirs = append(m.dirs, p)
			} else {
				m.files[p] = true
			}
			continue
		}
		if !strings.ContainsAny(p, "*?[{") {
			// Missing literal paths copy nothing.
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.ValidationError("invalid passthrough pattern").
				WithContext("pattern", p).
				Build()
		}
		m.globs = append(m.globs, g)
		if rest, ok := strings.CutPrefix(p, "**/"); ok {
			// "**/" also covers the input root.
			if rg, err := glob.Compile(rest, '/'); err == nil {
				m.globs = append(m.globs, rg)
			}
		}
	}
	return m, nil
}

func (m *passthroughMatcher) match(rel string) bool {
	if m.files[rel] {
		return true
	}
	for _, d := range m.dirs {
		if rel == d || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// copyPassthrough copies every matching input file to the same relative path
// below outDir and returns the number of files copied.
func copyPassthrough(ctx context.Context, inputDir, outDir string, patterns []string) (int, error) {
	if len(patterns) == 0 {
		return 0, nil
	}
	m, err := newPassthroughMatcher(inputDir, patterns)
	if err != nil {
		return 0, err
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return 0, err
	}

	copied := 0
	err = filepath.WalkDir(inputDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p == inputDir {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			if abs, err := filepath.Abs(p); err == nil && abs == absOut {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(inputDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !m.match(rel) {
			return nil
		}
		if err := copyFile(p, filepath.Join(outDir, filepath.FromSlash(rel))); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to copy passthrough file").
				WithContext("path", rel).
				Build()
		}
		copied++
		return nil
	})
	return copied, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
