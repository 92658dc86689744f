package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// CodeSpanClass adds class to every inline code span and then delegates.
func CodeSpanClass(class string) Wrapper {
	return func(next RenderFunc) RenderFunc {
		return func(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
			if entering && class != "" {
				if cs, ok := n.(*ast.CodeSpan); ok {
					NewCodeSpanToken(cs).AddClass(class)
				}
			}
			return next(w, source, n, entering)
		}
	}
}

// FigureImage renders every image as a captioned figure. The previous rule
// is never called.
func FigureImage() Wrapper {
	return func(_ RenderFunc) RenderFunc {
		return func(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			img, ok := n.(*ast.Image)
			if !ok {
				return ast.WalkContinue, nil
			}
			writeFigure(w, NewImageToken(img, source))
			return ast.WalkSkipChildren, nil
		}
	}
}

// writeFigure drops javascript:, vbscript:, file: and non-image data: sources.
func writeFigure(w util.BufWriter, tok ImageToken) {
	var src []byte
	if !html.IsDangerousURL([]byte(tok.Src)) {
		src = util.EscapeHTML(util.URLEscape([]byte(tok.Src), true))
	}
	alt := util.EscapeHTML([]byte(tok.Alt))

	_, _ = w.WriteString("<figure class=\"my-5 p-4 bg-light\">\n")
	_, _ = w.WriteString("\t<img class=\"d-block mx-auto\" src=\"")
	_, _ = w.Write(src)
	_, _ = w.WriteString("\" alt=\"")
	_, _ = w.Write(alt)
	_, _ = w.WriteString("\"/>\n")
	_, _ = w.WriteString("\t<figcaption class=\"text-center mt-4 fst-italic small\">\n\t\t")
	_, _ = w.Write(alt)
	_, _ = w.WriteString("\n\t</figcaption>\n</figure>\n")
}

// ExternalLinks sets target and rel on links whose href starts with "http"
// and then delegates. Empty values are not written.
func ExternalLinks(target, rel string) Wrapper {
	return func(next RenderFunc) RenderFunc {
		return func(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
			if entering {
				var tok LinkToken
				switch v := n.(type) {
				case *ast.Link:
					tok = NewLinkToken(v)
				case *ast.AutoLink:
					tok = NewAutoLinkToken(v, source)
				default:
					return next(w, source, n, entering)
				}
				if tok.IsExternal() {
					if target != "" {
						tok.SetAttr("target", target)
					}
					if rel != "" {
						tok.SetAttr("rel", rel)
					}
				}
			}
			return next(w, source, n, entering)
		}
	}
}
