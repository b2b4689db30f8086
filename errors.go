package solr

import (
	"errors"
	"fmt"
)

// ErrNoQuery is returned by pagination helpers on a Response that was
// not produced by a search handler.
var ErrNoQuery = errors.New("solr: response has no originating query")

// HTTPError is a non-2xx reply from the server. Body often carries a
// server-side traceback with far more detail than the status line.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("solr: HTTP %d %s", e.StatusCode, e.Status)
}

// MalformedResponseError indicates a payload whose top-level structure
// does not resemble a search response.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("solr: malformed response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("solr: malformed response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// UpdateError is a failed update command reported by the server in an
// otherwise successful HTTP reply.
type UpdateError struct {
	Status int
	Reason string
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("solr: update failed with status %d: %s", e.Status, e.Reason)
}
