// Package normalization maps loosely written configuration strings onto
// enum values.
package normalization

import (
	"fmt"
	"slices"
	"strings"
)

// Normalizer maps aliases to enum values. Keys are compared after
// lower-casing and trimming.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
	keys         []string
}

// NewNormalizer builds a normalizer from alias->value pairs. defaultValue is
// returned for empty input.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	n := &Normalizer[T]{
		values:       make(map[string]T, len(values)),
		defaultValue: defaultValue,
		keys:         make([]string, 0, len(values)),
	}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	slices.Sort(n.keys)
	return n
}

// Lookup returns the value for raw. Empty input yields the default.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	key := clean(raw)
	if key == "" {
		return n.defaultValue, true
	}
	v, ok := n.values[key]
	return v, ok
}

// NormalizeWithError is Lookup with a descriptive error for unknown input.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if v, ok := n.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// IsValid reports whether v is one of the mapped values.
func (n *Normalizer[T]) IsValid(v T) bool {
	for _, known := range n.values {
		if known == v {
			return true
		}
	}
	return false
}

// ValidKeys returns the accepted aliases in sorted order.
func (n *Normalizer[T]) ValidKeys() []string {
	return slices.Clone(n.keys)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
