// Package content discovers page templates and resolves their data, URLs and
// dates.
package content

import (
	"time"
)

// TemplateKind identifies how a page body is rendered.
type TemplateKind string

const (
	KindMarkdown TemplateKind = "md"
	KindHTML     TemplateKind = "html"
)

// Item is one page of the site.
type Item struct {
	// URL is the site-relative address, always starting and ending with "/"
	// unless a permalink names a file.
	URL string
	// InputPath is relative to the input directory, slash separated.
	InputPath string
	// OutputPath is the absolute file the page is written to. It is empty for
	// pages with `permalink: false`.
	OutputPath string
	FileSlug   string
	Kind       TemplateKind

	PageNumber int
	PageTitle  string
	Tags       []string
	Layout     string
	Date       time.Time

	// Data is the merged directory data and frontmatter.
	Data map[string]any
	Body []byte

	Fingerprint string
}

// HasTag reports whether the item carries tag.
func (it *Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Writes reports whether the item produces an output file.
func (it *Item) Writes() bool {
	return it.OutputPath != ""
}
