// Package helpers provides the functions templates call by name.
package helpers

import (
	"fmt"
	"html/template"
	"maps"
	"reflect"
	"sort"
)

// Registry maps helper names to functions. It is handed to the renderer, so
// separate sites never share helper state.
type Registry struct {
	funcs template.FuncMap
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: template.FuncMap{}}
}

// Default returns a registry with every built-in helper. Its eq and neq
// replace the text/template builtins: both take exactly two arguments, so
// {{eq .x "a" "b"}} fails to execute, and operands of different types are
// unequal instead of an error.
func Default() *Registry {
	r := NewRegistry()
	for name, fn := range map[string]any{
		"eq":                     Eq,
		"neq":                    Neq,
		"mainMenuActiveClass":    MainMenuActiveClass,
		"returnValueConditional": ReturnValueConditional,
		"idify":                  Idify,
		"encodeURIComponent":     EncodeURIComponent,
		"articleIsInCategory":    ArticleIsInCategory,
		"findPreviousArticle":    FindPreviousArticle,
		"findNextArticle":        FindNextArticle,
	} {
		r.MustRegister(name, fn)
	}
	return r
}

// Register adds fn under name. fn must be a function returning one value, or
// a value and an error.
func (r *Registry) Register(name string, fn any) error {
	if name == "" {
		return fmt.Errorf("helper name is required")
	}
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("helper %q is not a function", name)
	}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != reflect.TypeOf((*error)(nil)).Elem() {
			return fmt.Errorf("helper %q: second result must be error", name)
		}
	default:
		return fmt.Errorf("helper %q must return one value or a value and an error", name)
	}
	r.funcs[name] = fn
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, fn any) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Names lists the registered helpers alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FuncMap returns a copy suitable for template.Funcs.
func (r *Registry) FuncMap() template.FuncMap {
	return maps.Clone(r.funcs)
}
