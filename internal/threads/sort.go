package threads

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006 3:04 pm",
	"Jan 2, 2006",
}

// epochMillisDigits is the shortest all-digit value read as epoch milliseconds;
// anything shorter is before 1970-01-12.
const epochMillisDigits = 10

// ParseDate reads the date formats Lobby is known to emit. All-digit strings of at
// least epochMillisDigits are epoch milliseconds; shorter ones, like a bare year,
// do not parse.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) >= epochMillisDigits {
		if ms, err := strconv.ParseUint(s, 10, 63); err == nil {
			return time.UnixMilli(int64(ms)).UTC(), true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateField returns the first non-empty of last_contact, "Modified Date" and date.
func (t Thread) DateField() string {
	switch {
	case t.LastContact != "":
		return t.LastContact
	case t.ModifiedDate != "":
		return t.ModifiedDate
	default:
		return t.Date
	}
}

// EffectiveDate is the parsed DateField, or the zero time when it is missing or
// does not parse. The zero time orders after every real date.
func (t Thread) EffectiveDate() time.Time {
	d, _ := ParseDate(t.DateField())
	return d
}

// SortByRecency returns a copy of in ordered newest first.
func SortByRecency(in []Thread) []Thread {
	out := make([]Thread, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveDate().After(out[j].EffectiveDate())
	})
	return out
}

// Merge appends next to have and takes next's upstream bookkeeping.
func Merge(have, next Page) Page {
	results := make([]Thread, 0, len(have.Results)+len(next.Results))
	results = append(results, have.Results...)
	results = append(results, next.Results...)
	return Page{
		Results:   results,
		Cursor:    next.Cursor,
		Count:     next.Count,
		Remaining: next.Remaining,
	}
}
