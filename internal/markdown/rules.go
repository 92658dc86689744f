package markdown

import (
	"sync"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// RenderFunc renders a single node. It is goldmark's NodeRendererFunc.
type RenderFunc = renderer.NodeRendererFunc

// Wrapper builds a rule from the rule it replaces.
type Wrapper func(next RenderFunc) RenderFunc

// RuleTable maps node kinds to render functions.
type RuleTable struct {
	mu    sync.RWMutex
	rules map[ast.NodeKind]RenderFunc
}

// NewRuleTable returns a table seeded with goldmark's default HTML rules.
func NewRuleTable(opts ...html.Option) *RuleTable {
	t := &RuleTable{rules: make(map[ast.NodeKind]RenderFunc)}
	html.NewRenderer(opts...).RegisterFuncs(t)
	return t
}

// Register implements renderer.NodeRendererFuncRegisterer so the default
// renderer can seed the table.
func (t *RuleTable) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[kind] = fn
}

// Override replaces the rule for kind. wrap receives the current rule, which
// is nil only for kinds the default renderer does not handle.
func (t *RuleTable) Override(kind ast.NodeKind, wrap Wrapper) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[kind] = wrap(t.rules[kind])
}

// Lookup returns the rule registered for kind.
func (t *RuleTable) Lookup(kind ast.NodeKind) (RenderFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.rules[kind]
	return fn, ok
}

// RegisterFuncs implements renderer.NodeRenderer.
func (t *RuleTable) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for kind, fn := range t.rules {
		reg.Register(kind, fn)
	}
}
