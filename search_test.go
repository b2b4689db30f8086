package solr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

const emptyResultJSON = `{"responseHeader":{"status":0},"response":{"numFound":0,"start":0,"docs":[]}}`

// captureServer records the form parameters of every search request and
// answers with a fixed payload.
func captureServer(t *testing.T, payload string, got *[]url.Values) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		*got = append(*got, r.PostForm)
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestQueryParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		q       string
		opts    []QueryOption
		want    map[string]string
		wantErr error
	}{
		{
			name: "defaults",
			q:    "text:world",
			want: map[string]string{
				"q":       "text:world",
				"fl":      "*,score",
				"wt":      "json",
				"version": "2.2",
			},
		},
		{
			name: "fields",
			q:    "*:*",
			opts: []QueryOption{WithFields("id", "title")},
			want: map[string]string{"fl": "id,title,score"},
		},
		{
			name: "fields without score",
			q:    "*:*",
			opts: []QueryOption{WithFields("id"), WithoutScore()},
			want: map[string]string{"fl": "id"},
		},
		{
			name: "explicit score not doubled",
			q:    "*:*",
			opts: []QueryOption{WithFields("id", "score")},
			want: map[string]string{"fl": "id,score"},
		},
		{
			name: "sort default order",
			q:    "*:*",
			opts: []QueryOption{WithSort("price", "title desc")},
			want: map[string]string{"sort": "price asc,title desc"},
		},
		{
			name: "sort order override",
			q:    "*:*",
			opts: []QueryOption{WithSort("price"), WithSortOrder("desc")},
			want: map[string]string{"sort": "price desc"},
		},
		{
			name: "highlight explicit fields",
			q:    "*:*",
			opts: []QueryOption{WithHighlight("title")},
			want: map[string]string{"hl": "true", "hl.fl": "title"},
		},
		{
			name: "highlight falls back to field list",
			q:    "*:*",
			opts: []QueryOption{WithFields("id", "title"), WithHighlight()},
			want: map[string]string{"hl": "true", "hl.fl": "id,title"},
		},
		{
			name:    "highlight without fields",
			q:       "*:*",
			opts:    []QueryOption{WithHighlight()},
			wantErr: ErrHighlightFields,
		},
		{
			name: "rows start and raw params",
			q:    "*:*",
			opts: []QueryOption{WithRows(10), WithStart(20), WithParam("fq", "inStock:true")},
			want: map[string]string{"rows": "10", "start": "20", "fq": "inStock:true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []url.Values
			client := captureServer(t, emptyResultJSON, &calls)

			_, err := client.Query(context.Background(), tt.q, tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Query() error = %v, want %v", err, tt.wantErr)
				}
				if len(calls) != 0 {
					t.Fatal("request sent despite option error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(calls) != 1 {
				t.Fatalf("requests = %d, want 1", len(calls))
			}
			for k, v := range tt.want {
				if got := calls[0].Get(k); got != v {
					t.Errorf("param %s = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestQueryBadSortOrder(t *testing.T) {
	t.Parallel()

	var calls []url.Values
	client := captureServer(t, emptyResultJSON, &calls)

	_, err := client.Query(context.Background(), "*:*", WithSort("price"), WithSortOrder("sideways"))
	if err == nil {
		t.Fatal("Query() error = nil, want sort order error")
	}
}

func TestQueryPagination(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		switch r.PostForm.Get("start") {
		case "", "0":
			w.Write([]byte(`{"response":{"numFound":3,"start":0,"docs":[{"id":"a"},{"id":"b"}]}}`))
		case "2":
			w.Write([]byte(`{"response":{"numFound":3,"start":2,"docs":[{"id":"c"}]}}`))
		default:
			t.Errorf("unexpected start %q", r.PostForm.Get("start"))
		}
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := client.Query(context.Background(), "*:*", WithRows(2))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if resp.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", resp.Len())
	}

	next, err := resp.NextBatch(context.Background())
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}
	if next.Len() != 1 || next.Results[0]["id"] != "c" {
		t.Errorf("next batch = %v, want single doc c", next.Results)
	}

	last, err := next.NextBatch(context.Background())
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}
	if last != nil {
		t.Errorf("NextBatch() past end = %v, want nil", last)
	}
}

func TestQueryCustomHandler(t *testing.T) {
	t.Parallel()

	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(emptyResultJSON))
	}))
	defer srv.Close()

	client, err := New(srv.URL + "/solr/core0")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mlt := NewSearchHandler(client, "/mlt", nil)
	if _, err := mlt.Query(context.Background(), "id:123"); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if _, err := client.Query(context.Background(), "*:*"); err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	want := []string{"/solr/core0/mlt", "/solr/core0/select"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestRaw(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`raw payload`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	data, err := client.Select.Raw(context.Background(), url.Values{"q": {"*:*"}})
	if err != nil {
		t.Fatalf("Raw() error = %v", err)
	}
	if string(data) != "raw payload" {
		t.Errorf("Raw() = %q", data)
	}
}
