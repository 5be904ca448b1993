// Package threads holds the email thread list: the record shape relayed from the
// Lobby API, a keyed TTL snapshot cache, recency ordering, and the service that ties
// an upstream fetcher to the cache.
package threads

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Query defaults, matching what the Lobby list endpoint is asked for when the
// caller does not say otherwise.
const (
	DefaultLimit     = 50
	DefaultSortField = "last_contact"
	MaxLimit         = 100
)

// ErrNotLinked is returned when the signed-in user has no Lobby account to filter on.
var ErrNotLinked = errors.New("no lobby account linked")

// Thread is one email thread as the Lobby API returns it. Known fields are decoded
// for display and ordering; the raw object is kept so relays pass it through untouched.
type Thread struct {
	ID           string
	Subject      string
	Summary      string
	Status       string
	Label        string
	LastContact  string
	ModifiedDate string
	CreatedDate  string
	Date         string
	Important    bool
	Urgent       bool
	PreTag       string
	User         string

	raw json.RawMessage
}

func (t *Thread) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*t = Thread{
		ID:           text(m["_id"]),
		Subject:      text(m["subject"]),
		Summary:      text(m["summary"]),
		Status:       text(m["status"]),
		Label:        text(m["label"]),
		LastContact:  text(m["last_contact"]),
		ModifiedDate: text(m["Modified Date"]),
		CreatedDate:  text(m["Created Date"]),
		Date:         text(m["date"]),
		Important:    flag(m["Important"]),
		Urgent:       flag(m["Urgent"]),
		PreTag:       text(m["pre_tag"]),
		User:         text(m["user"]),
		raw:          append(json.RawMessage(nil), b...),
	}
	return nil
}

func (t Thread) MarshalJSON() ([]byte, error) {
	if len(t.raw) > 0 {
		return t.raw, nil
	}
	m := map[string]any{"_id": t.ID}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("subject", t.Subject)
	put("summary", t.Summary)
	put("status", t.Status)
	put("label", t.Label)
	put("last_contact", t.LastContact)
	put("Modified Date", t.ModifiedDate)
	put("Created Date", t.CreatedDate)
	put("date", t.Date)
	put("pre_tag", t.PreTag)
	put("user", t.User)
	if t.Important {
		m["Important"] = true
	}
	if t.Urgent {
		m["Urgent"] = true
	}
	return json.Marshal(m)
}

// text reads a JSON string, or the literal text of a number (Lobby sometimes sends
// epoch milliseconds). Anything else reads as empty.
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func flag(raw json.RawMessage) bool {
	var b bool
	_ = json.Unmarshal(raw, &b)
	return b
}

// Page is one window of the remote list plus the upstream bookkeeping needed to ask
// for the next one.
type Page struct {
	Results   []Thread `json:"results"`
	Cursor    int      `json:"cursor"`
	Count     int      `json:"count"`
	Remaining int      `json:"remaining"`
}

// HasMore reports whether upstream says there are records left to fetch.
func (p Page) HasMore() bool { return p.Remaining > 0 }

func (p Page) clone() Page {
	out := p
	out.Results = make([]Thread, len(p.Results))
	copy(out.Results, p.Results)
	return out
}

// Query is the part of a list request that identifies a snapshot. The cursor is not
// part of it: "load more" grows the snapshot for the same query.
type Query struct {
	Limit      int
	SortField  string
	Descending bool
}

// DefaultQuery is what the Emails view asks for.
func DefaultQuery() Query {
	return Query{Limit: DefaultLimit, SortField: DefaultSortField, Descending: true}
}

// Normalize fills zero values with defaults and clamps the limit.
func (q Query) Normalize() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.SortField = strings.TrimSpace(q.SortField)
	if q.SortField == "" {
		q.SortField = DefaultSortField
	}
	return q
}

// Request is everything an upstream fetcher needs for one page.
type Request struct {
	LobbyUserID string
	Cursor      int
	Query
}

// Owner identifies whose threads are being read: the app user (cache scope) and the
// Lobby user the upstream filter is built from.
type Owner struct {
	UserID      string
	LobbyUserID string
}
