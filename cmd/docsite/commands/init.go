package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/config"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force    bool `help:"Overwrite existing files"`
	NoSample bool `name:"no-sample" help:"Only write the configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	_, _ = fmt.Fprintf(g.Out, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	if i.NoSample {
		return nil
	}
	written, err := scaffold(filepath.Dir(root.Config), i.Force)
	for _, f := range written {
		_, _ = fmt.Fprintf(g.Out, "Created %s\n", f)
	}
	return err
}

const baseLayout = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Data.pageTitle}} | {{.Site.Title}}</title>
</head>
<body>
  <nav>
    <a class="{{mainMenuActiveClass "/" .Page.URL}}" href="/">Home</a>
    {{range .Collections.guidesSorted}}<a class="{{mainMenuActiveClass .URL $.Page.URL}}" href="{{.URL}}">{{.PageTitle}}</a>
    {{end}}
  </nav>
  <main id="{{idify .Data.pageTitle}}">{{.Content}}</main>
  <footer>
    {{with findPreviousArticle .Collections.guidesSorted .Page.URL}}<a rel="prev" href="{{.URL}}">{{.PageTitle}}</a>{{end}}
    {{with findNextArticle .Collections.guidesSorted .Page.URL}}<a rel="next" href="{{.URL}}">{{.PageTitle}}</a>{{end}}
  </footer>
</body>
</html>
`

// scaffold writes a starter layout and two pages below dir. Existing files
// are kept unless force is set.
func scaffold(dir string, force bool) ([]string, error) {
	index, err := frontmatter.Render(map[string]any{
		"layout":    "base.html",
		"pageTitle": "Home",
	}, []byte("# Welcome\n\nStart with the [first guide](/guides/getting-started/).\n"))
	if err != nil {
		return nil, err
	}
	guide, err := frontmatter.Render(map[string]any{
		"layout":     "base.html",
		"tags":       []string{"guides"},
		"pageNumber": 1,
		"pageTitle":  "Getting started",
	}, []byte("Run `docsite serve` and edit this page.\n"))
	if err != nil {
		return nil, err
	}

	files := []struct {
		rel  string
		data []byte
	}{
		{"_includes/base.html", []byte(baseLayout)},
		{"index.md", index},
		{"guides/getting-started.md", guide},
	}
	var written []string
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f.rel))
		if _, err := os.Stat(p); err == nil && !force {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return written, derrors.WrapError(err, derrors.CategoryFileSystem, "create directory").
				WithContext("path", p).
				Build()
		}
		if err := os.WriteFile(p, f.data, 0o644); err != nil {
			return written, derrors.WrapError(err, derrors.CategoryFileSystem, "write starter file").
				WithContext("path", p).
				Build()
		}
		written = append(written, f.rel)
	}
	return written, nil
}
