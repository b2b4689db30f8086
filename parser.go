package solr

import (
	"fmt"
	"net/url"

	"github.com/ohler55/ojg/oj"

	"github.com/solrgo/solr/pathmap"
)

// ResponseParser turns a raw wire payload into a Response. WT names the
// response writer the server must be asked for.
type ResponseParser interface {
	WT() string
	Parse(data []byte, params url.Values, query QueryFunc) (*Response, error)
}

// JSONResponseParser parses the JSON wire format.
//
// JSON is cheaper for the server to produce than the tag format but
// loses type information. To re-type values, construct the parser with
// translators: (path, transform) pairs applied in order, each as a
// separate pass over the decoded tree. For example:
//
//	solr.NewJSONResponseParser(pathmap.Translator{
//		Path:      pathmap.Compile("response", "docs", nil, "timestamp"),
//		Transform: solr.ParseTimeValue,
//	})
//
// parses the timestamp field of every document into a time.Time.
//
// A parser is immutable after construction and safe for concurrent use,
// provided its transforms are.
type JSONResponseParser struct {
	translators []pathmap.Translator
}

// NewJSONResponseParser creates a parser applying the given translators
// in declaration order.
func NewJSONResponseParser(translators ...pathmap.Translator) *JSONResponseParser {
	return &JSONResponseParser{translators: translators}
}

// WT implements ResponseParser.
func (p *JSONResponseParser) WT() string {
	return "json"
}

// Parse implements ResponseParser.
func (p *JSONResponseParser) Parse(data []byte, params url.Values, query QueryFunc) (*Response, error) {
	tree, err := oj.Parse(data)
	if err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON payload", Err: err}
	}
	return BuildResponse(tree, p.translators, params, query)
}

// BuildResponse applies translators to a decoded tree in declaration
// order and lifts the well-known substructure into a Response.
//
// The tree is mutated in place and must not be reused afterwards. An
// empty tree yields a nil Response with no error. Top-level keys other
// than responseHeader and response survive as Extra attributes; the
// literal key "name" is tag-format metadata noise and is dropped.
func BuildResponse(tree any, translators []pathmap.Translator, params url.Values, query QueryFunc) (*Response, error) {
	if err := pathmap.Apply(tree, translators); err != nil {
		return nil, err
	}

	if tree == nil {
		return nil, nil
	}
	root, ok := tree.(map[string]any)
	if !ok {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("top level is %T, not a mapping", tree)}
	}
	if len(root) == 0 {
		return nil, nil
	}

	resp := &Response{
		Extra:  make(map[string]any),
		params: cloneValues(params),
		query:  query,
	}

	if h, ok := pop(root, "responseHeader"); ok {
		header, ok := h.(map[string]any)
		if !ok {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("responseHeader is %T, not a mapping", h)}
		}
		resp.Header = header
	}

	if rv, ok := pop(root, "response"); ok {
		result, ok := rv.(map[string]any)
		if !ok {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("response is %T, not a mapping", rv)}
		}
		if err := liftResult(resp, result); err != nil {
			return nil, err
		}
	}

	for k, v := range root {
		if k != "name" {
			resp.Extra[k] = v
		}
	}
	return resp, nil
}

// liftResult extracts docs, numFound, start and maxScore from the
// response sub-mapping and keeps its remaining keys as Extra.
func liftResult(resp *Response, result map[string]any) error {
	if d, ok := pop(result, "docs"); ok {
		seq, ok := d.([]any)
		if !ok {
			return &MalformedResponseError{Reason: fmt.Sprintf("docs is %T, not a sequence", d)}
		}
		resp.Results = make([]Document, 0, len(seq))
		for _, e := range seq {
			doc, ok := e.(map[string]any)
			if !ok {
				return &MalformedResponseError{Reason: fmt.Sprintf("document is %T, not a mapping", e)}
			}
			resp.Results = append(resp.Results, Document(doc))
		}
	}

	if v, ok := pop(result, "numFound"); ok {
		n, err := asInt64(v)
		if err != nil {
			return &MalformedResponseError{Reason: "numFound", Err: err}
		}
		resp.NumFound = n
	}
	if v, ok := pop(result, "start"); ok {
		n, err := asInt64(v)
		if err != nil {
			return &MalformedResponseError{Reason: "start", Err: err}
		}
		resp.Start = n
	}
	if v, ok := pop(result, "maxScore"); ok {
		f, err := asFloat64(v)
		if err != nil {
			return &MalformedResponseError{Reason: "maxScore", Err: err}
		}
		resp.MaxScore = f
	}

	for k, v := range result {
		if k != "name" {
			resp.Extra[k] = v
		}
	}
	return nil
}

func pop(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if ok {
		delete(m, key)
	}
	return v, ok
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}
