package linkcheck

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestExtractLinks(t *testing.T) {
	base, _ := url.Parse("https://docs.example.com")
	doc := `<html><head><link rel="stylesheet" href="/assets/site.css"><script src="/assets/app.js"></script></head>
<body><a href="/guides/">Guides</a><a href="https://other.org/">x</a><a href="https://docs.example.com/api/">api</a>
<a href="#top">top</a><a href="mailto:a@b.c">mail</a><img src="cat.jpg" alt="cat"></body></html>`

	links, err := ExtractLinks(strings.NewReader(doc), base)
	require.NoError(t, err)
	require.Len(t, links, 8)

	internal := map[string]bool{}
	for _, l := range links {
		internal[l.URL] = l.Internal
	}
	require.True(t, internal["/assets/site.css"])
	require.True(t, internal["/guides/"])
	require.True(t, internal["https://docs.example.com/api/"])
	require.True(t, internal["cat.jpg"])
	require.False(t, internal["https://other.org/"])
	require.False(t, internal["#top"])
	require.False(t, internal["mailto:a@b.c"])
}

func TestResolve(t *testing.T) {
	tests := []struct {
		link, dir, want string
	}{
		{"/guides/", "/", "/guides/"},
		{"setup/", "/guides", "/guides/setup/"},
		{"../api/", "/guides/setup", "/guides/api/"},
		{"cat.jpg?v=1#x", "/posts", "/posts/cat.jpg"},
		{"/my%20file.pdf", "/", "/my file.pdf"},
	}
	for _, tt := range tests {
		got, ok := resolve(tt.link, tt.dir)
		require.True(t, ok)
		require.Equal(t, tt.want, got, tt.link)
	}
	_, ok := resolve("?q=1", "/")
	require.False(t, ok)
}

func TestChecker_Check(t *testing.T) {
	out := t.TempDir()
	writeFile(t, out, "index.html", `<a href="/guides/">ok</a><a href="/missing/">bad</a><img src="/assets/logo.jpg">`)
	writeFile(t, out, "guides/index.html", `<a href="setup/">ok</a><a href="../">home</a><a href="nope.html">bad</a>`)
	writeFile(t, out, "guides/setup/index.html", `<a href="https://example.com/">ext</a>`)
	writeFile(t, out, "assets/logo.jpg", "jpg")

	c, err := NewChecker(out, "")
	require.NoError(t, err)
	broken, err := c.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, broken, 2)

	require.Equal(t, "guides/index.html", broken[0].Page)
	require.Equal(t, "/guides/nope.html", broken[0].Target)
	require.Equal(t, "index.html", broken[1].Page)
	require.Equal(t, "/missing/", broken[1].Target)
}

func TestNewChecker_InvalidBase(t *testing.T) {
	_, err := NewChecker(t.TempDir(), "://bad")
	require.Error(t, err)
}
