package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
)

// maxLayoutDepth bounds layout chains, which also stops cycles.
const maxLayoutDepth = 10

type layoutMeta struct {
	parent string
	data   map[string]any
}

// templateSet holds every template below the includes directory. Layouts
// and partials share one namespace keyed by slash separated relative path.
type templateSet struct {
	pristine *template.Template
	exec     *template.Template
	meta     map[string]layoutMeta
}

func loadTemplates(dir string, funcs template.FuncMap) (*templateSet, error) {
	root := template.New("").Funcs(funcs)
	set := &templateSet{meta: make(map[string]layoutMeta)}

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) && p == dir {
				return filepath.SkipDir
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		raw, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		doc, err := frontmatter.Parse(raw)
		if err != nil {
			return errors.WrapError(err, errors.CategoryTemplate, "invalid layout frontmatter").
				WithContext("layout", name).
				Build()
		}
		if _, err := root.New(name).Parse(string(doc.Body)); err != nil {
			return errors.WrapError(err, errors.CategoryTemplate, "failed to parse template").
				WithContext("layout", name).
				Build()
		}
		meta := layoutMeta{data: doc.Fields}
		if parent, ok := doc.Fields["layout"].(string); ok {
			meta.parent = parent
			delete(meta.data, "layout")
		}
		set.meta[name] = meta
		return nil
	})
	if err != nil {
		return nil, err
	}

	exec, err := root.Clone()
	if err != nil {
		return nil, err
	}
	set.pristine = root
	set.exec = exec
	return set, nil
}

// resolve finds the template for a layout reference. "base" matches
// "base.html".
func (s *templateSet) resolve(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if _, ok := s.meta[name]; ok {
		return name, true
	}
	if path.Ext(name) == "" {
		if _, ok := s.meta[name+".html"]; ok {
			return name + ".html", true
		}
	}
	return "", false
}

// chain returns the layouts applied to a page, innermost first, and the
// data they contribute.
func (s *templateSet) chain(name string) ([]string, map[string]any, error) {
	var names []string
	data := map[string]any{}
	seen := map[string]bool{}
	for name != "" {
		if len(names) == maxLayoutDepth {
			return nil, nil, errors.TemplateError(fmt.Sprintf("layout chain deeper than %d", maxLayoutDepth)).
				WithContext("layout", name).
				Build()
		}
		resolved, ok := s.resolve(name)
		if !ok {
			return nil, nil, errors.TemplateError("layout not found").
				WithContext("layout", name).
				Build()
		}
		if seen[resolved] {
			return nil, nil, errors.TemplateError("layout cycle").
				WithContext("layout", resolved).
				Build()
		}
		seen[resolved] = true
		names = append(names, resolved)
		meta := s.meta[resolved]
		// Inner layouts win over outer ones.
		for k, v := range meta.data {
			if _, exists := data[k]; !exists {
				data[k] = v
			}
		}
		name = meta.parent
	}
	return names, data, nil
}

// pageTemplate parses a page body in the context of the includes so it can
// call partials and helpers.
func (s *templateSet) pageTemplate(name string, body []byte) (*template.Template, error) {
	t, err := s.pristine.Clone()
	if err != nil {
		return nil, err
	}
	return t.New("page:" + name).Parse(string(body))
}

// applyLayouts wraps content in each layout of the chain.
func (s *templateSet) applyLayouts(names []string, data TemplateData) ([]byte, error) {
	out := []byte(data.Content)
	for _, name := range names {
		data.Content = template.HTML(out)
		var buf bytes.Buffer
		if err := s.exec.ExecuteTemplate(&buf, name, data); err != nil {
			return nil, errors.WrapError(err, errors.CategoryTemplate, "failed to execute layout").
				WithContext("layout", name).
				Build()
		}
		out = buf.Bytes()
	}
	return out, nil
}

func mergeData(layers ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}
