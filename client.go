package solr

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solrgo/solr/internal/ratelimit"
)

const (
	// DefaultTimeout is the default timeout for server requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retries after a
	// transport-level failure.
	DefaultMaxRetries = 3

	responseVersion = "2.2"

	contentTypeForm = "application/x-www-form-urlencoded; charset=utf-8"
	contentTypeXML  = "text/xml; charset=utf-8"
)

// Client talks to one search server core.
//
// Select is the stock search handler bound to /select with a plain JSON
// parser; additional handlers with their own parsers and translators
// are created via NewSearchHandler.
type Client struct {
	baseURL    *url.URL
	httpc      *http.Client
	username   string
	password   string
	maxRetries int
	limiter    *ratelimit.Limiter
	log        zerolog.Logger

	Select *SearchHandler
}

type options struct {
	httpc      *http.Client
	tlsConfig  *tls.Config
	timeout    time.Duration
	username   string
	password   string
	maxRetries int
	rateLimit  float64
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient replaces the tuned default HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(o *options) {
		o.httpc = httpc
	}
}

// WithTLSConfig sets the TLS configuration of the default HTTP client,
// e.g. for client-side certificates. Ignored with WithHTTPClient.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = cfg
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithBasicAuth includes HTTP Basic authentication in every request.
func WithBasicAuth(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithMaxRetries sets how many times a request is retried after a
// transport-level failure. HTTP error statuses are never retried.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative
// means unlimited.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(o *options) {
		o.rateLimit = requestsPerSecond
	}
}

// WithLogger enables debug logging of requests and responses.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New creates a client for the server core at rawURL, e.g.
// http://localhost:8983/solr.
func New(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("solr: invalid server URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("solr: unsupported URL scheme %q", u.Scheme)
	}

	o := options{
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxRetries < 0 {
		return nil, fmt.Errorf("solr: max retries must be >= 0, got %d", o.maxRetries)
	}

	httpc := o.httpc
	if httpc == nil {
		httpc = newHTTPClient(o.tlsConfig, o.timeout)
	}

	c := &Client{
		baseURL:    u,
		httpc:      httpc,
		username:   o.username,
		password:   o.password,
		maxRetries: o.maxRetries,
		limiter:    ratelimit.New(o.rateLimit),
		log:        o.log,
	}
	c.Select = NewSearchHandler(c, "/select", nil)
	return c, nil
}

// Query runs q against the stock /select handler.
func (c *Client) Query(ctx context.Context, q string, opts ...QueryOption) (*Response, error) {
	return c.Select.Query(ctx, q, opts...)
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.httpc.CloseIdleConnections()
}

// newHTTPClient creates a tuned HTTP client for search traffic.
func newHTTPClient(tlsConfig *tls.Config, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		TLSClientConfig:        tlsConfig,
		TLSHandshakeTimeout:    10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		IdleConnTimeout:        60 * time.Second,
		MaxIdleConns:           100,
		MaxIdleConnsPerHost:    10,
		MaxResponseHeaderBytes: 1 << 20, // 1 MiB
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// post sends one request, retrying on transport-level errors up to the
// configured limit. Non-200 statuses become an *HTTPError.
func (c *Client) post(ctx context.Context, relpath string, query url.Values, body, contentType string) ([]byte, error) {
	u := c.baseURL.JoinPath(relpath)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("solr: rate limiting interrupted: %w", err)
		}

		data, err := c.postOnce(ctx, u.String(), body, contentType, attempt)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		var herr *HTTPError
		if errors.As(err, &herr) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("solr: request failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) postOnce(ctx context.Context, endpoint, body, contentType string, attempt int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("solr: building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	c.log.Debug().
		Str("request_id", requestID).
		Str("url", endpoint).
		Int("attempt", attempt).
		Int("body_bytes", len(body)).
		Msg("request")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solr: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("solr: reading response: %w", err)
	}

	c.log.Debug().
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Msg("response")

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       data,
		}
	}
	return data, nil
}
