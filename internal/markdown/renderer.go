package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Options configures the default rule table.
type Options struct {
	InlineCodeClass    string
	ExternalLinkTarget string
	ExternalLinkRel    string
	HardWraps          bool
}

// DefaultOptions matches the site's stylesheet.
func DefaultOptions() Options {
	return Options{
		InlineCodeClass:    "language-markup",
		ExternalLinkTarget: "_blank",
		ExternalLinkRel:    "noopener",
	}
}

// HTMLOptions returns the goldmark HTML options the rule table is seeded with.
func (o Options) HTMLOptions() []html.Option {
	opts := []html.Option{html.WithUnsafe()}
	if o.HardWraps {
		opts = append(opts, html.WithHardWraps())
	}
	return opts
}

// DefaultRules returns a table with the inline code, image and link overrides
// installed.
func DefaultRules(o Options) *RuleTable {
	t := NewRuleTable(o.HTMLOptions()...)
	t.Override(ast.KindCodeSpan, CodeSpanClass(o.InlineCodeClass))
	t.Override(ast.KindImage, FigureImage())
	links := ExternalLinks(o.ExternalLinkTarget, o.ExternalLinkRel)
	t.Override(ast.KindLink, links)
	t.Override(ast.KindAutoLink, links)
	return t
}

// rulePriority places the table ahead of goldmark's HTML renderer (1000).
const rulePriority = 100

// Renderer converts markdown to HTML through a RuleTable.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a goldmark instance that renders through rules.
func NewRenderer(rules *RuleTable) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(rules, rulePriority)),
		),
	)
	return &Renderer{md: md}
}

// Render converts src to HTML.
func (r *Renderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
