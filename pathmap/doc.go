// Package pathmap re-types values inside a generically decoded response
// tree (arbitrary nesting of map[string]any, []any and scalars) using
// path patterns applied as ordered passes over the tree.
//
// A path pattern has one component per tree depth level, given
// outermost-first. Each component is one of:
//   - an exact key: a string (map key) or int (sequence index)
//   - a wildcard: nil, matching every entry of a map or sequence
//   - a predicate: a func deciding per key; func(any) bool,
//     func(string) bool (map keys) or func(int) bool (indexes)
//
// For example:
//
//	path := pathmap.Compile("response", "docs", nil, "timestamp")
//	err := pathmap.Translate(path, parseTime, tree)
//
// rewrites the "timestamp" field of every document in place.
//
// Matching is best-effort: missing keys, out-of-range indexes and shape
// mismatches produce no matches rather than errors. Transform failures
// are never swallowed; they abort the pass and surface as a
// *TranslateError.
//
// Compiled paths are immutable and safe for concurrent reuse.
package pathmap
