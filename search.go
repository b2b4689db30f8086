package solr

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrHighlightFields is returned when highlighting of the query fields
// is requested but no field list was given.
var ErrHighlightFields = errors.New("solr: highlighting requested without fields")

// SearchHandler issues queries against one request handler path and
// parses replies with a fixed response parser. A handler is stateless
// and safe for concurrent use.
type SearchHandler struct {
	client *Client
	path   string
	parser ResponseParser
}

// NewSearchHandler binds a handler path (e.g. "/select") to a response
// parser. A nil parser defaults to a JSON parser with no translators.
func NewSearchHandler(client *Client, relpath string, parser ResponseParser) *SearchHandler {
	if relpath == "" {
		relpath = "/select"
	}
	if parser == nil {
		parser = NewJSONResponseParser()
	}
	return &SearchHandler{
		client: client,
		path:   relpath,
		parser: parser,
	}
}

// queryOptions collects per-call query settings.
type queryOptions struct {
	fields       []string
	score        bool
	sort         []string
	sortOrder    string
	highlight    []string
	highlightAll bool
	params       url.Values
}

// QueryOption configures a single Query call.
type QueryOption func(*queryOptions)

// WithFields sets the field list to return. Defaults to all fields.
func WithFields(fields ...string) QueryOption {
	return func(o *queryOptions) {
		o.fields = fields
	}
}

// WithoutScore drops the implicit score field from the field list.
func WithoutScore() QueryOption {
	return func(o *queryOptions) {
		o.score = false
	}
}

// WithSort sets the fields to sort by. Each entry may carry its own
// "asc" or "desc" suffix; entries without one get the order set by
// WithSortOrder.
func WithSort(fields ...string) QueryOption {
	return func(o *queryOptions) {
		o.sort = fields
	}
}

// WithSortOrder sets the default sort order, "asc" or "desc".
func WithSortOrder(order string) QueryOption {
	return func(o *queryOptions) {
		o.sortOrder = order
	}
}

// WithHighlight enables highlighting. With no arguments the fields from
// WithFields are highlighted; Query fails if none were given.
func WithHighlight(fields ...string) QueryOption {
	return func(o *queryOptions) {
		o.highlightAll = true
		o.highlight = fields
	}
}

// WithRows limits the number of documents returned per batch.
func WithRows(n int) QueryOption {
	return WithParam("rows", strconv.Itoa(n))
}

// WithStart sets the offset of the first document returned.
func WithStart(n int) QueryOption {
	return WithParam("start", strconv.Itoa(n))
}

// WithParam passes an arbitrary query parameter, e.g. "fq" or
// "hl.simple.post".
func WithParam(name string, values ...string) QueryOption {
	return func(o *queryOptions) {
		for _, v := range values {
			o.params.Add(name, v)
		}
	}
}

// Query runs q against the handler and parses the reply.
func (h *SearchHandler) Query(ctx context.Context, q string, opts ...QueryOption) (*Response, error) {
	o := queryOptions{
		score:     true,
		sortOrder: "asc",
		params:    make(url.Values),
	}
	for _, opt := range opts {
		opt(&o)
	}

	params := cloneValues(o.params)
	if q != "" {
		params.Set("q", q)
	}

	if o.highlightAll {
		params.Set("hl", "true")
		hl := o.highlight
		if len(hl) == 0 {
			if len(o.fields) == 0 {
				return nil, ErrHighlightFields
			}
			hl = o.fields
		}
		params.Set("hl.fl", strings.Join(hl, ","))
	}

	fields := o.fields
	if len(fields) == 0 {
		fields = []string{"*"}
	}
	fl := strings.Join(fields, ",")
	if o.score && !hasField(fields, "score") {
		fl += ",score"
	}
	params.Set("fl", fl)

	if len(o.sort) > 0 {
		if o.sortOrder != "asc" && o.sortOrder != "desc" {
			return nil, fmt.Errorf("solr: sort order must be asc or desc, got %q", o.sortOrder)
		}
		sorting := make([]string, len(o.sort))
		for i, f := range o.sort {
			f = strings.TrimSpace(f)
			if !strings.HasSuffix(f, " asc") && !strings.HasSuffix(f, " desc") {
				f += " " + o.sortOrder
			}
			sorting[i] = f
		}
		params.Set("sort", strings.Join(sorting, ","))
	}

	params.Set("version", responseVersion)
	params.Set("wt", h.parser.WT())

	return h.reissue(ctx, params)
}

// Raw sends the parameters as-is and returns the undecoded reply.
func (h *SearchHandler) Raw(ctx context.Context, params url.Values) ([]byte, error) {
	return h.client.post(ctx, h.path, nil, params.Encode(), contentTypeForm)
}

// reissue runs a fully built parameter set; it doubles as the
// Response's pagination callback.
func (h *SearchHandler) reissue(ctx context.Context, params url.Values) (*Response, error) {
	data, err := h.Raw(ctx, params)
	if err != nil {
		return nil, err
	}
	return h.parser.Parse(data, params, h.reissue)
}

func hasField(fields []string, name string) bool {
	for _, f := range fields {
		for _, part := range strings.Split(f, ",") {
			if strings.TrimSpace(part) == name {
				return true
			}
		}
	}
	return false
}
