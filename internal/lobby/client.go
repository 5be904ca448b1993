// Package lobby is a small client for the Lobby CRM data API. Only the thread list
// endpoint is used.
package lobby

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/argushq/argus/internal/threads"
)

const (
	DefaultBaseURL = "https://thelobby.ai"
	DefaultVersion = "version-test/"

	// DefaultTimeout bounds a whole request, body included.
	DefaultTimeout = 20 * time.Second
)

// ErrMissingToken means no API token was configured.
var ErrMissingToken = errors.New("lobby: missing api token")

// StatusError is a non-2xx answer from the Lobby API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	switch e.Code {
	case http.StatusUnauthorized:
		return "Lobby API: invalid or expired token"
	case http.StatusForbidden:
		return "Lobby API: access denied"
	default:
		return fmt.Sprintf("Lobby API error (%d)", e.Code)
	}
}

type Client struct {
	http    *http.Client
	baseURL *url.URL
	version string
	token   string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil && raw != "" {
			c.baseURL = u
		}
	}
}

// WithVersion sets the data API version prefix, e.g. "version-test/" or "" for live.
func WithVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

// New builds a client. Responses are cached in memory and revalidated with the
// upstream's cache headers, and every request is bounded by DefaultTimeout.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:    &http.Client{Transport: httpcache.NewMemoryCacheTransport(), Timeout: DefaultTimeout},
		baseURL: u,
		version: DefaultVersion,
		token:   token,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type constraint struct {
	Key            string `json:"key"`
	ConstraintType string `json:"constraint_type"`
	Value          string `json:"value"`
}

// versionPath always ends in a slash unless empty.
func versionPath(v string) string {
	v = strings.Trim(v, "/")
	if v == "" {
		return ""
	}
	return v + "/"
}

func (c *Client) threadsURL(req threads.Request) (string, error) {
	cons, err := json.Marshal([]constraint{{Key: "user", ConstraintType: "equals", Value: req.LobbyUserID}})
	if err != nil {
		return "", err
	}
	q := req.Query.Normalize()
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + versionPath(c.version) + "api/1.1/obj/thread"
	v := url.Values{}
	v.Set("constraints", string(cons))
	v.Set("cursor", strconv.Itoa(req.Cursor))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("sort_field", q.SortField)
	v.Set("descending", strconv.FormatBool(q.Descending))
	u.RawQuery = v.Encode()
	return u.String(), nil
}

// ListThreads fetches one page of req.LobbyUserID's threads starting at req.Cursor.
// The returned cursor points past the last result.
func (c *Client) ListThreads(ctx context.Context, req threads.Request) (threads.Page, error) {
	if req.LobbyUserID == "" {
		return threads.Page{}, threads.ErrNotLinked
	}
	if req.Cursor < 0 {
		req.Cursor = 0
	}
	raw, err := c.threadsURL(req)
	if err != nil {
		return threads.Page{}, err
	}
	var body envelope
	if err := c.doJSON(ctx, raw, &body); err != nil {
		return threads.Page{}, err
	}
	return body.page(req.Cursor), nil
}

func (c *Client) doJSON(ctx context.Context, raw string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("lobby: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("lobby: decode threads: %w", err)
	}
	return nil
}

// envelope accepts {"response":{results,count,remaining}}, {"results":[...]} or a bare array.
type envelope struct {
	results   []threads.Thread
	count     *int
	remaining *int
}

func (e *envelope) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &e.results)
	}
	var top struct {
		Response *struct {
			Results   []threads.Thread `json:"results"`
			Count     *int             `json:"count"`
			Remaining *int             `json:"remaining"`
		} `json:"response"`
		Results []threads.Thread `json:"results"`
	}
	if err := json.Unmarshal(b, &top); err != nil {
		return err
	}
	if r := top.Response; r != nil && r.Results != nil {
		e.results, e.count, e.remaining = r.Results, r.Count, r.Remaining
		return nil
	}
	e.results = top.Results
	if top.Response != nil {
		e.count, e.remaining = top.Response.Count, top.Response.Remaining
	}
	return nil
}

func (e envelope) page(cursor int) threads.Page {
	p := threads.Page{
		Results: e.results,
		Cursor:  cursor + len(e.results),
		Count:   len(e.results),
	}
	if p.Results == nil {
		p.Results = []threads.Thread{}
	}
	if e.count != nil {
		p.Count = *e.count
	}
	if e.remaining != nil {
		p.Remaining = *e.remaining
	}
	return p
}
