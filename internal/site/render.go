package site

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"

	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

func (b *Builder) stageRender(ctx context.Context, st *buildState) error {
	set, err := loadTemplates(b.includesDir(), b.helpers.FuncMap())
	if err != nil {
		return err
	}
	st.templates = set

	md := markdown.NewRenderer(b.rules)
	owners := make(map[string]string, len(st.items))
	st.pages = st.pages[:0]
	for _, it := range st.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !it.Writes() {
			continue
		}
		if prev, dup := owners[it.OutputPath]; dup {
			return errors.ContentError("two pages write the same output").
				WithContext("url", it.URL).
				WithContext("first", prev).
				WithContext("second", it.InputPath).
				Build()
		}
		owners[it.OutputPath] = it.InputPath

		html, err := b.renderItem(st, md, it)
		if err != nil {
			return err
		}
		st.pages = append(st.pages, renderedPage{item: it, html: html})
	}
	return nil
}

func (b *Builder) renderItem(st *buildState, md *markdown.Renderer, it *content.Item) ([]byte, error) {
	chain, layoutData, err := st.templates.chain(it.Layout)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", it.InputPath)
		}
		return nil, err
	}

	data := TemplateData{
		Page: PageData{
			URL:        it.URL,
			InputPath:  it.InputPath,
			OutputPath: it.OutputPath,
			FileSlug:   it.FileSlug,
			Date:       it.Date,
		},
		Data:        mergeData(layoutData, it.Data),
		Collections: st.collections,
		Global:      st.global,
		Site:        b.cfg.Site,
	}

	var body []byte
	switch it.Kind {
	case content.KindMarkdown:
		body, err = md.Render(it.Body)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryMarkdown, "failed to render markdown").
				WithContext("path", it.InputPath).
				Build()
		}
	case content.KindHTML:
		body, err = executePage(st.templates, it, data)
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("Rendered page", logfields.URL(it.URL), logfields.Layout(it.Layout))
	if len(chain) == 0 {
		return body, nil
	}
	data.Content = template.HTML(body) //nolint:gosec // renderer output
	return st.templates.applyLayouts(chain, data)
}

func executePage(set *templateSet, it *content.Item, data TemplateData) ([]byte, error) {
	t, err := set.pageTemplate(it.InputPath, it.Body)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "failed to parse page template").
			WithContext("path", it.InputPath).
			Build()
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "failed to execute page template").
			WithContext("path", it.InputPath).
			Build()
	}
	return buf.Bytes(), nil
}
