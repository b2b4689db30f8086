package solr

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
	"time"
)

// UpdateOp is an atomic field update operation applied on the server
// instead of replacing the whole document.
type UpdateOp string

const (
	UpdateSet UpdateOp = "set"
	UpdateInc UpdateOp = "inc"
	UpdateAdd UpdateOp = "add"
)

// commitOptions mirror the server's commit-control parameters.
type commitOptions struct {
	commit       bool
	optimize     bool
	waitFlush    bool
	waitSearcher bool
}

// CommitOption adjusts commit behavior of an update call.
type CommitOption func(*commitOptions)

// WithCommit issues a commit as part of the same request.
func WithCommit() CommitOption {
	return func(o *commitOptions) {
		o.commit = true
	}
}

// WithOptimize issues an optimize as part of the same request.
func WithOptimize() CommitOption {
	return func(o *commitOptions) {
		o.optimize = true
	}
}

// WithoutWaitFlush makes the server acknowledge before flushing index
// changes to disk.
func WithoutWaitFlush() CommitOption {
	return func(o *commitOptions) {
		o.waitFlush = false
	}
}

// WithoutWaitSearcher makes the server acknowledge before a new
// searcher is opened on the committed changes.
func WithoutWaitSearcher() CommitOption {
	return func(o *commitOptions) {
		o.waitSearcher = false
	}
}

func applyCommitOptions(opts []CommitOption) (commitOptions, error) {
	o := commitOptions{waitFlush: true, waitSearcher: true}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.commit && !o.optimize && (!o.waitFlush || !o.waitSearcher) {
		return o, fmt.Errorf("solr: wait options cannot be specified without commit or optimize")
	}
	return o, nil
}

// query returns the commit-control parameters piggybacked on the
// update URL.
func (o commitOptions) query() url.Values {
	q := make(url.Values)
	switch {
	case o.optimize:
		q.Set("optimize", "true")
	case o.commit:
		q.Set("commit", "true")
	default:
		return q
	}
	if !o.waitFlush {
		q.Set("waitFlush", "false")
		q.Set("waitSearcher", "false")
	} else if !o.waitSearcher {
		q.Set("waitSearcher", "false")
	}
	return q
}

// Updater builds document update bodies, optionally marking fields with
// atomic update operations. For example, to set price and increment
// num_updates on existing documents:
//
//	up := client.Updater(map[string]solr.UpdateOp{
//		"price":       solr.UpdateSet,
//		"num_updates": solr.UpdateInc,
//	})
//	err := up.Add(ctx, solr.Document{"id": 1, "price": 105, "num_updates": 1})
type Updater struct {
	client   *Client
	fieldOps map[string]UpdateOp
}

// Updater creates an updater with per-field update operations. A nil
// map means plain add/replace semantics.
func (c *Client) Updater(fieldOps map[string]UpdateOp) *Updater {
	return &Updater{client: c, fieldOps: fieldOps}
}

// Add indexes a single document. Commit when done for it to become
// visible.
func (u *Updater) Add(ctx context.Context, doc Document, opts ...CommitOption) error {
	return u.AddMany(ctx, []Document{doc}, opts...)
}

// AddMany indexes several documents in a single request.
func (u *Updater) AddMany(ctx context.Context, docs []Document, opts ...CommitOption) error {
	if len(docs) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("<add>")
	for _, doc := range docs {
		u.writeDoc(&b, doc)
	}
	b.WriteString("</add>")
	return u.client.update(ctx, b.String(), opts)
}

// writeDoc serializes one document. Multi-valued fields expand into
// repeated field elements; nil values mean "field absent" and are
// dropped.
func (u *Updater) writeDoc(b *strings.Builder, doc Document) {
	b.WriteString("<doc>")
	for _, field := range slices.Sorted(maps.Keys(doc)) {
		for _, v := range fieldValues(doc[field]) {
			if v == nil {
				continue
			}
			b.WriteString(`<field name="`)
			xmlEscape(b, field)
			if op, ok := u.fieldOps[field]; ok {
				b.WriteString(`" update="`)
				xmlEscape(b, string(op))
			}
			b.WriteString(`">`)
			xmlEscape(b, formatFieldValue(v))
			b.WriteString("</field>")
		}
	}
	b.WriteString("</doc>")
}

// Add indexes a single document with plain add/replace semantics.
func (c *Client) Add(ctx context.Context, doc Document, opts ...CommitOption) error {
	return c.Updater(nil).Add(ctx, doc, opts...)
}

// AddMany indexes several documents with plain add/replace semantics.
func (c *Client) AddMany(ctx context.Context, docs []Document, opts ...CommitOption) error {
	return c.Updater(nil).AddMany(ctx, docs, opts...)
}

// Delete removes documents by unique ids and/or standard-syntax
// queries. With neither given, no request is sent.
func (c *Client) Delete(ctx context.Context, ids []string, queries []string, opts ...CommitOption) error {
	if len(ids) == 0 && len(queries) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("<delete>")
	for _, id := range ids {
		b.WriteString("<id>")
		xmlEscape(&b, id)
		b.WriteString("</id>")
	}
	for _, q := range queries {
		b.WriteString("<query>")
		xmlEscape(&b, q)
		b.WriteString("</query>")
	}
	b.WriteString("</delete>")
	return c.update(ctx, b.String(), opts)
}

// DeleteByID removes one document by its unique id.
func (c *Client) DeleteByID(ctx context.Context, id string, opts ...CommitOption) error {
	return c.Delete(ctx, []string{id}, nil, opts...)
}

// DeleteByQuery removes every document matching a query.
func (c *Client) DeleteByQuery(ctx context.Context, query string, opts ...CommitOption) error {
	return c.Delete(ctx, nil, []string{query}, opts...)
}

// Commit makes pending updates visible to searchers.
func (c *Client) Commit(ctx context.Context, opts ...CommitOption) error {
	return c.commitVerb(ctx, "commit", opts)
}

// Optimize compacts the index and commits.
func (c *Client) Optimize(ctx context.Context, opts ...CommitOption) error {
	return c.commitVerb(ctx, "optimize", opts)
}

func (c *Client) commitVerb(ctx context.Context, verb string, opts []CommitOption) error {
	o := commitOptions{waitFlush: true, waitSearcher: true}
	for _, opt := range opts {
		opt(&o)
	}

	// Only deviations from the defaults are spelled out.
	var attrs string
	if !o.waitFlush {
		attrs = ` waitFlush="false" waitSearcher="false"`
	} else if !o.waitSearcher {
		attrs = ` waitSearcher="false"`
	}
	body := fmt.Sprintf("<%s%s/>", verb, attrs)
	return c.update(ctx, body, nil)
}

// update posts an update body, with commit-control options as URL
// parameters, and checks for old-style in-band errors.
func (c *Client) update(ctx context.Context, body string, opts []CommitOption) error {
	o, err := applyCommitOptions(opts)
	if err != nil {
		return err
	}
	data, err := c.post(ctx, "/update", o.query(), body, contentTypeXML)
	if err != nil {
		return err
	}
	return checkUpdateResult(data)
}

// checkUpdateResult detects the old-style error reply: HTTP 200 with a
// result element carrying a non-zero status.
func checkUpdateResult(data []byte) error {
	if !bytes.HasPrefix(data, []byte(`<result status="`)) ||
		bytes.HasPrefix(data, []byte(`<result status="0"`)) {
		return nil
	}
	var res struct {
		Status int    `xml:"status,attr"`
		Reason string `xml:",chardata"`
	}
	if err := xml.Unmarshal(data, &res); err != nil {
		return &UpdateError{Reason: string(data)}
	}
	return &UpdateError{Status: res.Status, Reason: strings.TrimSpace(res.Reason)}
}

// fieldValues expands a multi-valued field into its elements.
func fieldValues(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	}
	return []any{v}
}

// formatFieldValue converts a field value to its wire representation.
func formatFieldValue(v any) string {
	switch x := v.(type) {
	case time.Time:
		return FormatTime(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case string:
		return x
	}
	return fmt.Sprintf("%v", v)
}

func xmlEscape(b *strings.Builder, s string) {
	// EscapeText on a strings.Builder never fails.
	_ = xml.EscapeText(b, []byte(s))
}
