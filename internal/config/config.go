// Package config loads and validates the docsite.yaml site configuration.
package config

import "time"

// SortMode selects the ordering strategy of a named collection.
type SortMode string

const (
	SortByPageNumber SortMode = "page_number"
	SortByTitle      SortMode = "title"
)

// Config represents the complete site configuration.
type Config struct {
	Site        SiteConfig         `yaml:"site"`
	Dirs        DirsConfig         `yaml:"dirs"`
	Passthrough []string           `yaml:"passthrough"`
	Collections []CollectionConfig `yaml:"collections"`
	Markdown    MarkdownConfig     `yaml:"markdown"`
	Build       BuildConfig        `yaml:"build"`
	Serve       ServeConfig        `yaml:"serve"`
	History     HistoryConfig      `yaml:"history"`
	Notify      NotifyConfig       `yaml:"notify"`
}

// SiteConfig holds values exposed to templates as .Site.
type SiteConfig struct {
	Title       string         `yaml:"title"`
	BaseURL     string         `yaml:"base_url,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Params      map[string]any `yaml:"params,omitempty"`
}

// DirsConfig locates the site sources and the build output.
type DirsConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Includes string `yaml:"includes"` // relative to Input
	Data     string `yaml:"data"`     // relative to Input
}

// CollectionConfig declares a named, sorted view over items carrying a tag.
type CollectionConfig struct {
	Name string   `yaml:"name"`
	Tag  string   `yaml:"tag"`
	Sort SortMode `yaml:"sort"`
}

// MarkdownConfig tunes the rendering overrides.
type MarkdownConfig struct {
	InlineCodeClass    string `yaml:"inline_code_class"`
	ExternalLinkTarget string `yaml:"external_link_target"`
	ExternalLinkRel    string `yaml:"external_link_rel"`
	HardWraps          bool   `yaml:"hard_wraps,omitempty"`
}

// BuildConfig controls the build pipeline.
type BuildConfig struct {
	Clean         bool   `yaml:"clean"`
	Concurrency   int    `yaml:"concurrency"`
	VerifyLinks   bool   `yaml:"verify_links"`
	StrictLinks   bool   `yaml:"strict_links,omitempty"`
	Manifest      bool   `yaml:"manifest"`
	GitDates      bool   `yaml:"git_dates"`
	DefaultLayout string `yaml:"default_layout,omitempty"`
}

// ServeConfig controls the development server.
type ServeConfig struct {
	Port            int           `yaml:"port"`
	LiveReload      bool          `yaml:"live_reload"`
	Debounce        time.Duration `yaml:"debounce"`
	RebuildInterval time.Duration `yaml:"rebuild_interval,omitempty"`
	MetricsPath     string        `yaml:"metrics_path"`
}

// HistoryConfig enables the build history database when Path is set.
type HistoryConfig struct {
	Path  string `yaml:"path,omitempty"`
	Limit int    `yaml:"limit"`
}

// NotifyConfig enables NATS build notifications when NATSURL is set.
type NotifyConfig struct {
	NATSURL string        `yaml:"nats_url,omitempty"`
	Subject string        `yaml:"subject"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultCollections mirrors the collections of the documentation site this
// tool was built for.
func DefaultCollections() []CollectionConfig {
	return []CollectionConfig{
		{Name: "introductionSorted", Tag: "introduction", Sort: SortByPageNumber},
		{Name: "guidesSorted", Tag: "guides", Sort: SortByPageNumber},
		{Name: "pluginsSorted", Tag: "plugins", Sort: SortByTitle},
		{Name: "apiSorted", Tag: "api", Sort: SortByTitle},
		{Name: "plugin-providers-sorted", Tag: "plugin-providers", Sort: SortByPageNumber},
	}
}

// Default returns a configuration with every default applied. Load decodes
// the YAML file on top of it, so omitted keys keep these values.
func Default() *Config {
	return &Config{
		Site: SiteConfig{Title: "Documentation"},
		Dirs: DirsConfig{
			Input:    ".",
			Output:   "build",
			Includes: "_includes",
			Data:     "_data",
		},
		Passthrough: []string{"assets", "**/*.jpg"},
		Collections: DefaultCollections(),
		Markdown: MarkdownConfig{
			InlineCodeClass:    "language-markup",
			ExternalLinkTarget: "_blank",
			ExternalLinkRel:    "noopener",
		},
		Build: BuildConfig{
			Clean:       true,
			Concurrency: 4,
			Manifest:    true,
		},
		Serve: ServeConfig{
			Port:        8080,
			LiveReload:  true,
			Debounce:    300 * time.Millisecond,
			MetricsPath: "/metrics",
		},
		History: HistoryConfig{Limit: 20},
		Notify: NotifyConfig{
			Subject: "docsite.builds",
			Timeout: 5 * time.Second,
		},
	}
}
