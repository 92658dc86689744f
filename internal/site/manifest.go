package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// ManifestFile is written to the output directory root.
const ManifestFile = "build-manifest.json"

// Manifest lists the pages of a build.
type Manifest struct {
	BuildID   string         `json:"build_id"`
	Generated time.Time      `json:"generated"`
	Pages     []ManifestPage `json:"pages"`
	Counts    map[string]int `json:"collections"`
}

// ManifestPage is one written page.
type ManifestPage struct {
	URL         string          `json:"url"`
	Input       string          `json:"input"`
	Output      string          `json:"output"`
	Fingerprint string          `json:"fingerprint"`
	Links       []markdown.Link `json:"links,omitempty"`
}

func (b *Builder) stageManifest(_ context.Context, st *buildState) error {
	m := Manifest{
		BuildID:   st.report.BuildID,
		Generated: b.now().UTC(),
		Pages:     make([]ManifestPage, 0, len(st.pages)),
		Counts:    st.report.Collections,
	}
	for _, p := range st.pages {
		m.Pages = append(m.Pages, manifestPage(st.outDir, p.item))
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode manifest").Build()
	}
	path := filepath.Join(st.outDir, ManifestFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write manifest").
			WithContext("path", path).
			Build()
	}
	return nil
}

func manifestPage(outDir string, it *content.Item) ManifestPage {
	out := it.OutputPath
	if rel, err := filepath.Rel(outDir, it.OutputPath); err == nil {
		out = filepath.ToSlash(rel)
	}
	mp := ManifestPage{
		URL:         it.URL,
		Input:       it.InputPath,
		Output:      out,
		Fingerprint: it.Fingerprint,
	}
	if it.Kind == content.KindMarkdown {
		mp.Links = markdown.ExtractLinks(it.Body)
	}
	return mp
}

// ReadManifest loads the manifest of a previous build.
func ReadManifest(outDir string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(outDir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
