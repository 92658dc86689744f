package content

import (
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// urlFor derives the page URL from a slash separated input path.
//
//	index.md       -> /
//	guides/index.md -> /guides/
//	guides/setup.md -> /guides/setup/
func urlFor(rel string) string {
	dir, file := path.Split(rel)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if stem == "index" {
		if dir == "" {
			return "/"
		}
		return "/" + dir
	}
	return "/" + dir + stem + "/"
}

// normalizePermalink turns a frontmatter permalink into a URL.
func normalizePermalink(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if path.Ext(p) == "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// outputFor maps a URL onto a file below outDir.
func outputFor(outDir, url string) string {
	if strings.HasSuffix(url, "/") {
		return filepath.Join(outDir, filepath.FromSlash(url), "index.html")
	}
	return filepath.Join(outDir, filepath.FromSlash(url))
}

// insideDir reports whether p resolves to dir or a path below it.
func insideDir(dir, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// fileSlugFor returns the file name without extension. Index pages take the
// name of their directory.
func fileSlugFor(rel string) string {
	dir, file := path.Split(rel)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if stem == "index" {
		if dir == "" {
			return ""
		}
		return path.Base(dir)
	}
	return stem
}

// fallbackTitle derives a readable title from a slug.
func fallbackTitle(slug string) string {
	if slug == "" {
		return "Home"
	}
	return titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
}
