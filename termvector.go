package solr

import (
	"cmp"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/solrgo/solr/pathmap"
)

// TermData is per-term statistics reported by the term vector handler.
type TermData struct {
	TF       int64
	DF       int64
	TFIDF    float64
	Offsets  *Span
	Position int64
}

// Span is a start/end character range within a field value.
type Span struct {
	Start int64
	End   int64
}

// NewTermVectorHandler creates a search handler for the term vector
// component at /tvrh. Its reply nests named lists several levels deep;
// the handler's translator stack turns them into mappings and TermData
// values. Extra translators run after the stock ones.
func NewTermVectorHandler(client *Client, extra ...pathmap.Translator) *SearchHandler {
	translators := append(TermVectorTranslators(), extra...)
	return NewSearchHandler(client, "/tvrh", NewJSONResponseParser(translators...))
}

// TermVectorTranslators is the stock translator stack for term vector
// replies: the payload becomes a mapping with a docs sequence, each
// document's per-field named lists become mappings, and each term's
// statistics become a *TermData.
func TermVectorTranslators() []pathmap.Translator {
	notUniqueKey := func(key string) bool { return key != "uniqueKey" }
	return []pathmap.Translator{
		{Path: pathmap.Compile("termVectors"), Transform: translateTermVectors},
		{Path: pathmap.Compile("termVectors", "docs", nil, notUniqueKey), Transform: NamedListToMap},
		{Path: pathmap.Compile("termVectors", "docs", nil, notUniqueKey, nil), Transform: parseTermVectorData},
	}
}

// TermVectorOptions selects which term statistics the server reports.
type TermVectorOptions struct {
	TF        bool
	DF        bool
	TFIDF     bool
	Offsets   bool
	Positions bool
}

// AllTermVectorOptions requests every statistic.
var AllTermVectorOptions = TermVectorOptions{
	TF:        true,
	DF:        true,
	TFIDF:     true,
	Offsets:   true,
	Positions: true,
}

// Params renders the options as query parameters, scoped to one field
// or, with an empty field, to all queried fields.
func (o TermVectorOptions) Params(field string) url.Values {
	format := func(opt string) string {
		if field == "" || field == "*" {
			return "tv." + opt
		}
		return fmt.Sprintf("f.%s.tv.%s", field, opt)
	}

	q := make(url.Values)
	flags := []struct {
		name string
		on   bool
	}{
		{"tf", o.TF},
		{"df", o.DF},
		{"tf_idf", o.TFIDF},
		{"offsets", o.Offsets},
		{"positions", o.Positions},
	}
	on := 0
	for _, f := range flags {
		if f.on {
			q.Set(format(f.name), "true")
			on++
		}
	}
	if on == len(flags) {
		q = make(url.Values)
		q.Set(format("all"), "true")
	}
	return q
}

// WithTermVectors requests term vectors for the given fields, or for
// the query fields when none are named.
func WithTermVectors(fields ...string) QueryOption {
	return func(o *queryOptions) {
		if len(fields) > 0 {
			o.params.Set("tv.fl", strings.Join(fields, ","))
		}
		o.params.Set("tv.all", "true")
	}
}

// NamedListToMap converts a flat named list [k1, v1, k2, v2, ...] into
// a mapping. Usable directly as a pathmap transform.
func NamedListToMap(v any) (any, error) {
	return namedListMap(v)
}

func namedListMap(v any) (map[string]any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("solr: expected named list, got %T", v)
	}
	if len(list)%2 != 0 {
		return nil, fmt.Errorf("solr: odd number of elements in named list")
	}
	m := make(map[string]any, len(list)/2)
	for i := 0; i < len(list); i += 2 {
		k, ok := list[i].(string)
		if !ok {
			return nil, fmt.Errorf("solr: named list key is %T, not a string", list[i])
		}
		m[k] = list[i+1]
	}
	return m, nil
}

// translateTermVectors shapes the top-level termVectors payload: the
// named list becomes a mapping and its doc-* entries move into a docs
// sequence, ordered by their numeric suffix so doc-10 follows doc-2.
func translateTermVectors(v any) (any, error) {
	m, err := namedListMap(v)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.HasPrefix(k, "doc-") {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b string) int {
		na, aerr := strconv.Atoi(strings.TrimPrefix(a, "doc-"))
		nb, berr := strconv.Atoi(strings.TrimPrefix(b, "doc-"))
		if aerr == nil && berr == nil {
			return cmp.Compare(na, nb)
		}
		return strings.Compare(a, b)
	})

	docs := make([]any, 0, len(keys))
	for _, k := range keys {
		doc, err := namedListMap(m[k])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
		delete(m, k)
	}
	m["docs"] = docs
	return m, nil
}

// parseTermVectorData converts one term's named list of statistics into
// a *TermData.
func parseTermVectorData(v any) (any, error) {
	fields, err := namedListMap(v)
	if err != nil {
		return nil, err
	}

	td := &TermData{}
	for k, val := range fields {
		switch k {
		case "tf":
			td.TF, err = asInt64(val)
		case "df":
			td.DF, err = asInt64(val)
		case "tf-idf":
			td.TFIDF, err = asFloat64(val)
		case "offsets":
			td.Offsets, err = parseOffsets(val)
		case "position":
			td.Position, err = asInt64(val)
		}
		if err != nil {
			return nil, fmt.Errorf("solr: term data field %s: %w", k, err)
		}
	}
	return td, nil
}

// parseOffsets reads the first start/end pair of an offsets named list.
func parseOffsets(v any) (*Span, error) {
	list, ok := v.([]any)
	if !ok || len(list) < 4 {
		return nil, fmt.Errorf("expected offsets named list, got %v", v)
	}
	start, err := asInt64(list[1])
	if err != nil {
		return nil, err
	}
	end, err := asInt64(list[3])
	if err != nil {
		return nil, err
	}
	return &Span{Start: start, End: end}, nil
}
