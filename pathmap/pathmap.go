package pathmap

import (
	"fmt"
	"strings"
)

// Item is a matched (key, value) entry of a tree node. Key is a string
// for map nodes and an int index for sequence nodes.
type Item struct {
	Key   any
	Value any
}

// TransformFunc rewrites a single matched leaf value.
type TransformFunc func(value any) (any, error)

// Translator pairs a compiled path with the transform applied to the
// values it matches. Translators are applied in declaration order, each
// as one full pass over the tree.
type Translator struct {
	Path      Path
	Transform TransformFunc
}

// component defines the interface for path component matchers.
// Both operations are total over the tree shape: a node that is not a
// map or sequence, or that lacks the requested entry, yields nothing.
type component interface {
	// values returns the matching child values of node.
	values(node any) []any
	// items returns the matching (key, value) entries of node.
	items(node any) []Item
}

// Path is a compiled path pattern. Components are stored deepest-first,
// so Path[0] is the leaf component whose matches are rewritten.
type Path []component

// Compile turns a path specification into a compiled Path. Each element
// is one of:
//   - nil: wildcard, matches every entry of a map or sequence
//   - func(any) bool, func(string) bool or func(int) bool: predicate
//     over the entry key; the string form never matches sequence
//     indexes and the int form never matches map keys
//   - any other value: exact key (string) or index (int), matched by
//     equality
//
// These are the only predicate signatures; a func of any other type is
// an exact-key element like any other value and matches nothing.
//
// Elements are given outermost-first; Compile reverses them so that
// traversal can walk the compiled slice back-to-front from the root.
func Compile(spec ...any) Path {
	p := make(Path, 0, len(spec))
	for i := len(spec) - 1; i >= 0; i-- {
		switch c := spec[i].(type) {
		case nil:
			p = append(p, wildcardComp{})
		case func(any) bool:
			p = append(p, predicateComp{fn: c})
		case func(string) bool:
			p = append(p, predicateComp{fn: stringKey(c)})
		case func(int) bool:
			p = append(p, predicateComp{fn: intKey(c)})
		default:
			p = append(p, attributeComp{key: c})
		}
	}
	return p
}

// String renders the path outermost-first for diagnostics.
func (p Path) String() string {
	parts := make([]string, 0, len(p))
	for i := len(p) - 1; i >= 0; i-- {
		switch c := p[i].(type) {
		case attributeComp:
			parts = append(parts, fmt.Sprintf("%v", c.key))
		case wildcardComp:
			parts = append(parts, "*")
		default:
			parts = append(parts, "?")
		}
	}
	return strings.Join(parts, ".")
}

// stringKey adapts a string-keyed predicate to the raw key type;
// sequence indexes never match.
func stringKey(fn func(string) bool) func(any) bool {
	return func(key any) bool {
		s, ok := key.(string)
		return ok && fn(s)
	}
}

// intKey adapts an index-keyed predicate; map keys never match.
func intKey(fn func(int) bool) func(any) bool {
	return func(key any) bool {
		i, ok := key.(int)
		return ok && fn(i)
	}
}

// attributeComp matches exactly one entry: a map key or sequence index.
type attributeComp struct {
	key any
}

func (a attributeComp) items(node any) []Item {
	switch n := node.(type) {
	case map[string]any:
		k, ok := a.key.(string)
		if !ok {
			return nil
		}
		v, ok := n[k]
		if !ok {
			return nil
		}
		return []Item{{Key: k, Value: v}}
	case []any:
		i, ok := a.key.(int)
		if !ok || i < 0 || i >= len(n) {
			return nil
		}
		return []Item{{Key: i, Value: n[i]}}
	}
	return nil
}

func (a attributeComp) values(node any) []any {
	return valuesOf(a, node)
}

// wildcardComp matches every entry of a map or sequence.
type wildcardComp struct{}

func (wildcardComp) items(node any) []Item {
	switch n := node.(type) {
	case map[string]any:
		items := make([]Item, 0, len(n))
		for k, v := range n {
			items = append(items, Item{Key: k, Value: v})
		}
		return items
	case []any:
		items := make([]Item, 0, len(n))
		for i, v := range n {
			items = append(items, Item{Key: i, Value: v})
		}
		return items
	}
	return nil
}

func (wildcardComp) values(node any) []any {
	switch n := node.(type) {
	case map[string]any:
		vals := make([]any, 0, len(n))
		for _, v := range n {
			vals = append(vals, v)
		}
		return vals
	case []any:
		return n
	}
	return nil
}

// predicateComp matches every entry whose key satisfies fn. The key is
// passed raw: string for maps, int index for sequences.
type predicateComp struct {
	fn func(any) bool
}

func (p predicateComp) items(node any) []Item {
	var items []Item
	for _, it := range (wildcardComp{}).items(node) {
		if p.fn(it.Key) {
			items = append(items, it)
		}
	}
	return items
}

func (p predicateComp) values(node any) []any {
	return valuesOf(p, node)
}

// valuesOf derives values from items for components without a cheaper
// enumeration of their own.
func valuesOf(c component, node any) []any {
	items := c.items(node)
	if len(items) == 0 {
		return nil
	}
	vals := make([]any, len(items))
	for i, it := range items {
		vals[i] = it.Value
	}
	return vals
}
