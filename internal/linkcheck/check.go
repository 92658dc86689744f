package linkcheck

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Broken is an internal link whose target does not exist.
type Broken struct {
	Page   string // page file, relative to the output directory
	Link   string
	Tag    string
	Target string // resolved site path
}

// Checker verifies internal links in an output directory.
type Checker struct {
	outDir string
	base   *url.URL
}

// NewChecker returns a checker for outDir. baseURL may be empty.
func NewChecker(outDir, baseURL string) (*Checker, error) {
	c := &Checker{outDir: outDir}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, errors.ValidationError("invalid base URL").
				WithContext("base_url", baseURL).
				Build()
		}
		c.base = u
	}
	return c, nil
}

// Check scans every HTML file below the output directory.
func (c *Checker) Check(ctx context.Context) ([]Broken, error) {
	var broken []Broken
	err := filepath.WalkDir(c.outDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		found, err := c.CheckFile(p)
		if err != nil {
			return err
		}
		broken = append(broken, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(broken, func(i, j int) bool { return broken[i].Page < broken[j].Page })
	return broken, nil
}

// CheckFile checks the links of one HTML file.
func (c *Checker) CheckFile(file string) ([]Broken, error) {
	f, err := os.Open(filepath.Clean(file))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open HTML file").
			WithContext("path", file).
			Build()
	}
	defer func() { _ = f.Close() }()

	links, err := ExtractLinks(f, c.base)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(c.outDir, file)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)
	pageDir := path.Join("/", path.Dir(rel))

	var broken []Broken
	for _, l := range links {
		if !l.Internal {
			continue
		}
		target, ok := resolve(l.URL, pageDir)
		if !ok {
			continue
		}
		if !c.exists(target) {
			broken = append(broken, Broken{Page: rel, Link: l.URL, Tag: l.Tag, Target: target})
		}
	}
	return broken, nil
}

// resolve turns a link into a site path. ok is false for links without a
// path component.
func resolve(link, pageDir string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil || u.Path == "" {
		return "", false
	}
	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = path.Join(pageDir, p)
		if strings.HasSuffix(u.Path, "/") && !strings.HasSuffix(p, "/") {
			p += "/"
		}
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return p, true
}

func (c *Checker) exists(sitePath string) bool {
	local := filepath.Join(c.outDir, filepath.FromSlash(strings.TrimPrefix(sitePath, "/")))
	candidates := []string{local}
	if strings.HasSuffix(sitePath, "/") || path.Ext(sitePath) == "" {
		candidates = append(candidates, filepath.Join(local, "index.html"))
	}
	for _, cand := range candidates {
		if info, err := os.Stat(cand); err == nil && (!info.IsDir() || cand != local) {
			return true
		}
	}
	return false
}
