// Package collections builds the named, sorted page lists exposed to
// templates.
package collections

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
)

// All is the name of the collection holding every page.
const All = "all"

// Strategy derives a collection from every page of the site. It must not
// reorder or modify all.
type Strategy func(all []*content.Item) []*content.Item

// FilterByTag returns the items carrying tag, in input order.
func FilterByTag(all []*content.Item, tag string) []*content.Item {
	out := make([]*content.Item, 0)
	for _, it := range all {
		if it.HasTag(tag) {
			out = append(out, it)
		}
	}
	return out
}

// ByPageNumber selects tag and sorts ascending by page number. Ties keep
// their input order.
func ByPageNumber(tag string) Strategy {
	return func(all []*content.Item) []*content.Item {
		out := FilterByTag(all, tag)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PageNumber < out[j].PageNumber
		})
		return out
	}
}

var lower = cases.Lower(language.Und)

// ByTitle selects tag and sorts ascending by lower-cased page title. Ties
// keep their input order.
func ByTitle(tag string) Strategy {
	return func(all []*content.Item) []*content.Item {
		out := FilterByTag(all, tag)
		keys := make(map[*content.Item]string, len(out))
		for _, it := range out {
			keys[it] = lower.String(it.PageTitle)
		}
		sort.SliceStable(out, func(i, j int) bool {
			return strings.Compare(keys[out[i]], keys[out[j]]) < 0
		})
		return out
	}
}

type entry struct {
	name     string
	strategy Strategy
}

// Registry holds named collection strategies in registration order.
type Registry struct {
	entries []entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers strategy under name, replacing an earlier registration.
func (r *Registry) Add(name string, strategy Strategy) error {
	if name == "" || name == All {
		return fmt.Errorf("invalid collection name %q", name)
	}
	for i, e := range r.entries {
		if e.name == name {
			r.entries[i].strategy = strategy
			return nil
		}
	}
	r.entries = append(r.entries, entry{name: name, strategy: strategy})
	return nil
}

// Names lists the registered collections in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.name)
	}
	return names
}

// Build evaluates every strategy against all. The result always contains
// the "all" collection.
func (r *Registry) Build(all []*content.Item) map[string][]*content.Item {
	out := make(map[string][]*content.Item, len(r.entries)+1)
	out[All] = all
	for _, e := range r.entries {
		out[e.name] = e.strategy(all)
	}
	return out
}

// FromConfig builds a registry from collection declarations.
func FromConfig(decls []config.CollectionConfig) (*Registry, error) {
	r := NewRegistry()
	for _, d := range decls {
		var s Strategy
		switch d.Sort {
		case config.SortByPageNumber:
			s = ByPageNumber(d.Tag)
		case config.SortByTitle:
			s = ByTitle(d.Tag)
		default:
			return nil, fmt.Errorf("collection %q: unknown sort %q", d.Name, d.Sort)
		}
		if err := r.Add(d.Name, s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default returns the registry of the documentation site's collections.
func Default() *Registry {
	r, err := FromConfig(config.DefaultCollections())
	if err != nil {
		panic(err)
	}
	return r
}
