package solr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		opts    []Option
		wantErr bool
	}{
		{name: "http", url: "http://localhost:8983/solr"},
		{name: "https", url: "https://search.example.com/solr/core0"},
		{name: "missing scheme", url: "localhost:8983", wantErr: true},
		{name: "bad scheme", url: "ftp://localhost/solr", wantErr: true},
		{name: "negative retries", url: "http://localhost:8983/solr", opts: []Option{WithMaxRetries(-1)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.url, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Select == nil {
				t.Error("Select handler not initialized")
			}
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	t.Parallel()

	var gotAuth, gotRequestID, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(emptyResultJSON))
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithBasicAuth("reader", "sekrit"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := client.Query(context.Background(), "*:*"); err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if !strings.HasPrefix(gotAuth, "Basic ") {
		t.Errorf("Authorization = %q, want Basic credentials", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("X-Request-Id header missing")
	}
	if gotContentType != contentTypeForm {
		t.Errorf("Content-Type = %q, want %q", gotContentType, contentTypeForm)
	}
}

// flakyTransport fails the first n round trips with a transport error.
type flakyTransport struct {
	failures int
	calls    int
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return f.next.RoundTrip(req)
}

func TestRetryTransportErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyResultJSON))
	}))
	defer srv.Close()

	tr := &flakyTransport{failures: 2, next: http.DefaultTransport}
	client, err := New(srv.URL,
		WithHTTPClient(&http.Client{Transport: tr}),
		WithMaxRetries(3),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := client.Query(context.Background(), "*:*"); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if tr.calls != 3 {
		t.Errorf("round trips = %d, want 3", tr.calls)
	}
}

func TestRetriesExhausted(t *testing.T) {
	t.Parallel()

	tr := &flakyTransport{failures: 100, next: http.DefaultTransport}
	client, err := New("http://localhost:1",
		WithHTTPClient(&http.Client{Transport: tr}),
		WithMaxRetries(2),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Query(context.Background(), "*:*")
	if err == nil {
		t.Fatal("Query() error = nil, want transport failure")
	}
	if tr.calls != 3 {
		t.Errorf("round trips = %d, want 3", tr.calls)
	}
}

func TestHTTPErrorNotRetried(t *testing.T) {
	t.Parallel()

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "server overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithMaxRetries(3))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Query(context.Background(), "*:*")
	var herr *HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("Query() error = %v, want *HTTPError", err)
	}
	if herr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", herr.StatusCode)
	}
	if !strings.Contains(string(herr.Body), "server overloaded") {
		t.Errorf("Body = %q, want server message", herr.Body)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want no retries on HTTP errors", requests)
	}
}

func TestQueryContextCancelled(t *testing.T) {
	t.Parallel()

	client, err := New("http://localhost:1", WithMaxRetries(5))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Query(ctx, "*:*"); !errors.Is(err, context.Canceled) {
		t.Errorf("Query() error = %v, want context.Canceled", err)
	}
}
