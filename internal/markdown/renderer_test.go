package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"
)

func render(t *testing.T, src string) string {
	t.Helper()
	out, err := NewRenderer(DefaultRules(DefaultOptions())).Render([]byte(src))
	require.NoError(t, err)
	return string(out)
}

func TestRender_InlineCodeGetsLanguageClass(t *testing.T) {
	out := render(t, "Use `<div>` here.")
	require.Contains(t, out, `<code class="language-markup">&lt;div&gt;</code>`)
}

func TestRender_InlineCodeClassIsConfigurable(t *testing.T) {
	opts := DefaultOptions()
	opts.InlineCodeClass = "inline"
	out, err := NewRenderer(DefaultRules(opts)).Render([]byte("`x`"))
	require.NoError(t, err)
	require.Contains(t, string(out), `<code class="inline">x</code>`)
}

func TestRender_FencedCodeIsUntouched(t *testing.T) {
	out := render(t, "```\ncode\n```\n")
	require.Contains(t, out, "<pre><code>code\n</code></pre>")
}

func TestRender_ExternalLink(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"https", "[Site](https://example.com)", `<a href="https://example.com" target="_blank" rel="noopener">Site</a>`},
		{"http", "[Site](http://example.com)", `<a href="http://example.com" target="_blank" rel="noopener">Site</a>`},
		{"autolink", "<https://example.com>", `<a href="https://example.com" target="_blank" rel="noopener">https://example.com</a>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Contains(t, render(t, tt.src), tt.want)
		})
	}
}

func TestRender_InternalLinkIsUnchanged(t *testing.T) {
	for _, src := range []string{"[Guide](/guides/)", "[Anchor](#top)", "[Rel](../api/)", "[Mail](mailto:a@example.com)"} {
		out := render(t, src)
		require.NotContains(t, out, "target=")
		require.NotContains(t, out, "rel=")
	}
}

func TestRender_ImageBecomesFigure(t *testing.T) {
	out := render(t, "![A cat on a mat](/assets/cat.jpg)")
	want := "<figure class=\"my-5 p-4 bg-light\">\n" +
		"\t<img class=\"d-block mx-auto\" src=\"/assets/cat.jpg\" alt=\"A cat on a mat\"/>\n" +
		"\t<figcaption class=\"text-center mt-4 fst-italic small\">\n" +
		"\t\tA cat on a mat\n" +
		"\t</figcaption>\n" +
		"</figure>\n"
	require.Contains(t, out, want)
	require.NotContains(t, out, "<img src=")
}

func TestRender_ImageEscapesValues(t *testing.T) {
	out := render(t, `![Tom & "Jerry"](/a.jpg?x=1&y=2)`)
	require.Contains(t, out, `src="/a.jpg?x=1&amp;y=2"`)
	require.Contains(t, out, `alt="Tom &amp; &quot;Jerry&quot;"`)
}

func TestRender_ImageSrcIsURLEscaped(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "space", src: "![x](<my photo.jpg>)", want: `src="my%20photo.jpg"`},
		{name: "non-ascii", src: "![x](ü.jpg)", want: `src="%C3%BC.jpg"`},
		{name: "query", src: "![x](/img.png?a=1&b=2)", want: `src="/img.png?a=1&amp;b=2"`},
		{name: "javascript", src: "![x](javascript:alert(1))", want: `src=""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, tt.src)
			require.Contains(t, out, tt.want)
			require.NotContains(t, out, "javascript:")
		})
	}
}

func TestRender_ImageWithoutDescription(t *testing.T) {
	out := render(t, "![](/a.jpg)")
	require.Contains(t, out, `alt=""`)
	require.Contains(t, out, "<figcaption class=\"text-center mt-4 fst-italic small\">\n\t\t\n\t</figcaption>")
}

func TestRender_ImageDescriptionDropsMarkup(t *testing.T) {
	out := render(t, "![An *emphasised* `word`](/a.jpg)")
	require.Contains(t, out, `alt="An emphasised word"`)
}

func TestRender_HeadingIDsAndTables(t *testing.T) {
	out := render(t, "# Getting Started\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.Contains(t, out, `<h1 id="getting-started">Getting Started</h1>`)
	require.Contains(t, out, "<table>")
}

func TestRuleTable_OverrideComposes(t *testing.T) {
	rules := NewRuleTable()
	var calls []string
	wrap := func(name string) Wrapper {
		return func(next RenderFunc) RenderFunc {
			return func(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
				if entering {
					calls = append(calls, name)
				}
				return next(w, source, n, entering)
			}
		}
	}
	rules.Override(ast.KindCodeSpan, wrap("first"))
	rules.Override(ast.KindCodeSpan, wrap("second"))

	out, err := NewRenderer(rules).Render([]byte("`x`"))
	require.NoError(t, err)
	require.Equal(t, []string{"second", "first"}, calls)
	require.Contains(t, string(out), "<code>x</code>")
}

func TestRuleTable_SeededWithDefaults(t *testing.T) {
	rules := NewRuleTable()
	for _, kind := range []ast.NodeKind{ast.KindParagraph, ast.KindCodeSpan, ast.KindImage, ast.KindLink, ast.KindAutoLink} {
		fn, ok := rules.Lookup(kind)
		require.True(t, ok, kind.String())
		require.NotNil(t, fn)
	}

	out, err := NewRenderer(rules).Render([]byte("![alt](/a.jpg)"))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(out), `<img src="/a.jpg" alt="alt">`))
}
