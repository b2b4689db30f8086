package solr

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"strconv"
	"testing"
)

// pagedQuery fakes the reissue func: it serves windows over a fixed
// corpus and records the parameters of every call.
func pagedQuery(t *testing.T, total int64, calls *[]url.Values) QueryFunc {
	t.Helper()

	var query QueryFunc
	query = func(_ context.Context, params url.Values) (*Response, error) {
		*calls = append(*calls, params)

		start, _ := strconv.ParseInt(params.Get("start"), 10, 64)
		rows, _ := strconv.ParseInt(params.Get("rows"), 10, 64)
		var docs []Document
		for i := start; i < min(start+rows, total); i++ {
			docs = append(docs, Document{"id": strconv.FormatInt(i, 10)})
		}
		return &Response{
			Results:  docs,
			NumFound: total,
			Start:    start,
			params:   cloneValues(params),
			query:    query,
		}, nil
	}
	return query
}

func TestNextBatch(t *testing.T) {
	t.Parallel()

	var calls []url.Values
	query := pagedQuery(t, 5, &calls)

	resp, err := query(context.Background(), url.Values{"q": {"*:*"}, "start": {"0"}, "rows": {"2"}})
	if err != nil {
		t.Fatalf("query error = %v", err)
	}

	var ids []string
	for resp != nil {
		for _, d := range resp.Results {
			ids = append(ids, d["id"].(string))
		}
		resp, err = resp.NextBatch(context.Background())
		if err != nil {
			t.Fatalf("NextBatch() error = %v", err)
		}
	}

	want := []string{"0", "1", "2", "3", "4"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if len(calls) != 3 {
		t.Errorf("query calls = %d, want 3", len(calls))
	}
	if got := calls[1].Get("start"); got != "2" {
		t.Errorf("second call start = %q, want 2", got)
	}
	if got := calls[1].Get("q"); got != "*:*" {
		t.Errorf("second call q = %q, want preserved", got)
	}
}

func TestPreviousBatch(t *testing.T) {
	t.Parallel()

	var calls []url.Values
	query := pagedQuery(t, 5, &calls)

	resp, err := query(context.Background(), url.Values{"q": {"*:*"}, "start": {"4"}, "rows": {"2"}})
	if err != nil {
		t.Fatalf("query error = %v", err)
	}

	resp, err = resp.PreviousBatch(context.Background())
	if err != nil {
		t.Fatalf("PreviousBatch() error = %v", err)
	}
	if resp.Start != 2 {
		t.Errorf("Start = %d, want 2", resp.Start)
	}

	resp, err = resp.PreviousBatch(context.Background())
	if err != nil {
		t.Fatalf("PreviousBatch() error = %v", err)
	}
	if resp.Start != 0 {
		t.Errorf("Start = %d, want 0", resp.Start)
	}

	// First batch has no predecessor.
	resp, err = resp.PreviousBatch(context.Background())
	if err != nil {
		t.Fatalf("PreviousBatch() error = %v", err)
	}
	if resp != nil {
		t.Errorf("PreviousBatch() = %v, want nil", resp)
	}
}

func TestPreviousBatchClampsStart(t *testing.T) {
	t.Parallel()

	var calls []url.Values
	query := pagedQuery(t, 5, &calls)

	resp, err := query(context.Background(), url.Values{"start": {"1"}, "rows": {"3"}})
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	resp, err = resp.PreviousBatch(context.Background())
	if err != nil {
		t.Fatalf("PreviousBatch() error = %v", err)
	}
	if resp.Start != 0 {
		t.Errorf("Start = %d, want clamped to 0", resp.Start)
	}
}

func TestBatchWithoutQuery(t *testing.T) {
	t.Parallel()

	r := &Response{NumFound: 10, Start: 2}
	if _, err := r.NextBatch(context.Background()); !errors.Is(err, ErrNoQuery) {
		t.Errorf("NextBatch() error = %v, want ErrNoQuery", err)
	}
	if _, err := r.PreviousBatch(context.Background()); !errors.Is(err, ErrNoQuery) {
		t.Errorf("PreviousBatch() error = %v, want ErrNoQuery", err)
	}
}

func TestNextBatchExhausted(t *testing.T) {
	t.Parallel()

	r := &Response{
		Results:  []Document{{"id": "a"}},
		NumFound: 3,
		Start:    2,
		query: func(context.Context, url.Values) (*Response, error) {
			t.Fatal("query must not be called past the end")
			return nil, nil
		},
	}
	resp, err := r.NextBatch(context.Background())
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}
	if resp != nil {
		t.Errorf("NextBatch() = %v, want nil", resp)
	}
}

func TestParamsCopy(t *testing.T) {
	t.Parallel()

	r := &Response{params: url.Values{"q": {"*:*"}}}
	p := r.Params()
	p.Set("q", "mutated")
	if got := r.params.Get("q"); got != "*:*" {
		t.Errorf("params.Get(q) = %q, want unchanged", got)
	}
}

func TestDocuments(t *testing.T) {
	t.Parallel()

	type book struct {
		ID      string  `solr:"id"`
		Title   string  `solr:"title"`
		Price   float64 `solr:"price"`
		InStock bool    `solr:"inStock"`
	}

	r := &Response{Results: []Document{
		{"id": "978", "title": "The Go Programming Language", "price": 32.5, "inStock": true},
		{"id": "979", "title": "Learning Go", "price": 28.0, "inStock": false},
	}}

	var books []book
	if err := r.Documents(&books); err != nil {
		t.Fatalf("Documents() error = %v", err)
	}
	want := []book{
		{ID: "978", Title: "The Go Programming Language", Price: 32.5, InStock: true},
		{ID: "979", Title: "Learning Go", Price: 28.0, InStock: false},
	}
	if !reflect.DeepEqual(books, want) {
		t.Errorf("Documents() = %v, want %v", books, want)
	}
}

func TestDocumentsBadTarget(t *testing.T) {
	t.Parallel()

	r := &Response{Results: []Document{{"id": "a"}}}
	var out []struct{}
	if err := r.Documents(out); err == nil {
		t.Error("Documents(non-pointer) error = nil, want error")
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	r := &Response{
		Header:  map[string]any{"status": int64(0)},
		Results: []Document{{"id": "a"}, {"id": "b"}},
		Extra: map[string]any{
			"facet_counts": map[string]any{
				"facet_fields": map[string]any{
					"cat": []any{"books", int64(2)},
				},
			},
		},
	}

	got, err := r.Select("$.facet_counts.facet_fields.cat[1]")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(got) != 1 || got[0] != int64(2) {
		t.Errorf("Select() = %v, want [2]", got)
	}

	got, err = r.Select("$.docs[*].id")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if !reflect.DeepEqual(got, []any{"a", "b"}) {
		t.Errorf("Select() = %v, want [a b]", got)
	}

	if _, err := r.Select("$["); err == nil {
		t.Error("Select(invalid) error = nil, want error")
	}
}
