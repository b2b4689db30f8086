package solr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/theory/jsonpath"
)

// Document is a single matching document: field name to typed value.
type Document map[string]any

// QueryFunc re-issues the originating search with modified parameters.
// Pagination helpers use it to fetch adjacent batches.
type QueryFunc func(ctx context.Context, params url.Values) (*Response, error)

// Response is the structured result of a search call.
//
// Extra holds every top-level key the assembler did not recognize, such
// as facet counts, highlighting data or custom handler payloads.
type Response struct {
	Header   map[string]any
	Results  []Document
	NumFound int64
	Start    int64
	MaxScore float64
	Extra    map[string]any

	// Set once during assembly, immutable thereafter.
	params url.Values
	query  QueryFunc
}

// Len returns the number of documents contained in this batch.
func (r *Response) Len() int {
	return len(r.Results)
}

// Params returns a copy of the parameters the response was produced
// with.
func (r *Response) Params() url.Values {
	return cloneValues(r.params)
}

// NextBatch re-issues the originating query for the next set of
// matches. Returns nil when this batch already reached the end.
func (r *Response) NextBatch(ctx context.Context) (*Response, error) {
	if r.query == nil {
		return nil, ErrNoQuery
	}
	start := r.Start + int64(len(r.Results))
	if start >= r.NumFound {
		return nil, nil
	}

	params := cloneValues(r.params)
	params.Set("start", strconv.FormatInt(start, 10))
	return r.query(ctx, params)
}

// PreviousBatch re-issues the originating query for the previous set of
// matches. Returns nil when this is the first batch.
func (r *Response) PreviousBatch(ctx context.Context) (*Response, error) {
	if r.query == nil {
		return nil, ErrNoQuery
	}
	if r.Start == 0 {
		return nil, nil
	}

	rows := int64(len(r.Results))
	if v := r.params.Get("rows"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			rows = n
		}
	}
	start := max(r.Start-rows, 0)

	params := cloneValues(r.params)
	params.Set("start", strconv.FormatInt(start, 10))
	params.Set("rows", strconv.FormatInt(rows, 10))
	return r.query(ctx, params)
}

// Documents decodes Results into out, which must be a pointer to a
// slice of structs. Field mapping follows `solr` struct tags.
func (r *Response) Documents(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "solr",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("solr: building document decoder: %w", err)
	}
	if err := dec.Decode(r.Results); err != nil {
		return fmt.Errorf("solr: decoding documents: %w", err)
	}
	return nil
}

// Select evaluates a JSONPath expression against the response viewed as
// a single object: header, docs and every extra attribute. Useful for
// digging into extension payloads without declaring translators.
func (r *Response) Select(expr string) ([]any, error) {
	p, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("solr: invalid selection path %q: %w", expr, err)
	}

	view := make(map[string]any, len(r.Extra)+2)
	for k, v := range r.Extra {
		view[k] = v
	}
	docs := make([]any, len(r.Results))
	for i, d := range r.Results {
		docs[i] = map[string]any(d)
	}
	view["header"] = r.Header
	view["docs"] = docs

	return p.Select(view), nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
