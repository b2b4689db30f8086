package pathmap

// Translate walks every root along path and rewrites matching leaf
// values in place with fn. All components but the last fan out: the
// working set of nodes is replaced by the union of each component's
// matching child values, so a wildcard or predicate at an intermediate
// level can multiply the nodes under consideration. The leaf component
// then enumerates (key, value) entries of every surviving node and
// stores fn(value) back under the same key.
//
// A path of length 1 applies the leaf component directly to the roots.
// An empty path matches nothing.
//
// The first transform failure aborts the pass, leaving earlier rewrites
// in place, and is returned wrapped in a *TranslateError.
func Translate(path Path, fn TransformFunc, roots ...any) error {
	if len(path) == 0 {
		return nil
	}

	nodes := roots
	for i := len(path) - 1; i > 0; i-- {
		var next []any
		for _, node := range nodes {
			next = append(next, path[i].values(node)...)
		}
		nodes = next
	}

	leaf := path[0]
	for _, node := range nodes {
		for _, it := range leaf.items(node) {
			v, err := fn(it.Value)
			if err != nil {
				return &TranslateError{Path: path, Key: it.Key, Err: err}
			}
			store(node, it.Key, v)
		}
	}
	return nil
}

// Apply runs each translator in order, each as one full pass over root.
// Later translators see the tree as mutated by earlier ones; this order
// is part of the caller's contract.
func Apply(root any, translators []Translator) error {
	for _, tr := range translators {
		if err := Translate(tr.Path, tr.Transform, root); err != nil {
			return err
		}
	}
	return nil
}

// store writes value back into node under key. Keys produced by items
// always fit the node shape, so mismatches are ignored.
func store(node, key, value any) {
	switch n := node.(type) {
	case map[string]any:
		if k, ok := key.(string); ok {
			n[k] = value
		}
	case []any:
		if i, ok := key.(int); ok && i >= 0 && i < len(n) {
			n[i] = value
		}
	}
}
