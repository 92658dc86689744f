package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// CodeSpanToken is an inline code span about to be rendered.
type CodeSpanToken struct {
	node *ast.CodeSpan
}

// NewCodeSpanToken wraps n.
func NewCodeSpanToken(n *ast.CodeSpan) CodeSpanToken {
	return CodeSpanToken{node: n}
}

// AddClass appends class to the span's class attribute.
func (t CodeSpanToken) AddClass(class string) {
	addClass(t.node, class)
}

// ImageToken carries the values an image is rendered from.
type ImageToken struct {
	Src   string
	Alt   string
	Title string
}

// NewImageToken reads the destination and the plain text description of n.
func NewImageToken(n *ast.Image, source []byte) ImageToken {
	return ImageToken{
		Src:   string(n.Destination),
		Alt:   plainText(n, source),
		Title: string(n.Title),
	}
}

// LinkToken is a link about to be rendered. It covers inline links and
// autolinks.
type LinkToken struct {
	node  ast.Node
	Href  string
	Title string
}

// NewLinkToken wraps an inline link.
func NewLinkToken(n *ast.Link) LinkToken {
	return LinkToken{node: n, Href: string(n.Destination), Title: string(n.Title)}
}

// NewAutoLinkToken wraps an autolink.
func NewAutoLinkToken(n *ast.AutoLink, source []byte) LinkToken {
	href := string(n.URL(source))
	if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(href), "mailto:") {
		href = "mailto:" + href
	}
	return LinkToken{node: n, Href: href}
}

// IsExternal reports whether the link points off-site.
func (t LinkToken) IsExternal() bool {
	return strings.HasPrefix(t.Href, "http")
}

// SetAttr sets an attribute rendered on the opening tag.
func (t LinkToken) SetAttr(name, value string) {
	t.node.SetAttributeString(name, []byte(value))
}

func addClass(n ast.Node, class string) {
	if existing, ok := n.AttributeString("class"); ok {
		if b, ok := existing.([]byte); ok && len(b) > 0 {
			class = string(b) + " " + class
		}
	}
	n.SetAttributeString("class", []byte(class))
}

// plainText concatenates the text content below n, dropping markup.
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.CodeSpan:
			for s := v.FirstChild(); s != nil; s = s.NextSibling() {
				if txt, ok := s.(*ast.Text); ok {
					buf.Write(txt.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
