// internal/listing/query.go
package listing

import (
	"net/url"
	"strconv"
	"time"
)

// Direction of the single active sort column.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SearchKey is the text filter matched against every searchable column.
const SearchKey = "q"

// DateLayout is the backend's calendar date format.
const DateLayout = "2006-01-02"

// DateRange is an optional inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether day falls inside the range. Open ends match.
func (r DateRange) Contains(day time.Time) bool {
	d := truncateDay(day)
	if !r.From.IsZero() && d.Before(truncateDay(r.From)) {
		return false
	}
	if !r.To.IsZero() && d.After(truncateDay(r.To)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Query is the full UI state a list fetch depends on. Page is 1-based.
type Query struct {
	Filters   map[string]string
	Selectors map[string]string
	Range     DateRange
	SortKey   string
	SortDir   Direction
	Page      int
	Size      int
}

func (q Query) clone() Query {
	c := q
	c.Filters = copyMap(q.Filters)
	c.Selectors = copyMap(q.Selectors)
	return c
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ToggleSort selects key as the sort column. The active column flips
// direction; any other column starts ascending.
func ToggleSort(q Query, key string) Query {
	if q.SortKey == key {
		if q.SortDir == Asc {
			q.SortDir = Desc
		} else {
			q.SortDir = Asc
		}
		return q
	}
	q.SortKey = key
	q.SortDir = Asc
	return q
}

// Params renders q as Spring-style request parameters. The backend counts
// pages from zero.
func (q Query) Params() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page-1))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.SortKey != "" {
		dir := q.SortDir
		if dir == "" {
			dir = Asc
		}
		v.Set("sort", q.SortKey+","+string(dir))
	}
	for k, val := range q.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	for k, val := range q.Selectors {
		if val != "" {
			v.Set(k, val)
		}
	}
	if !q.Range.From.IsZero() {
		v.Set("startDate", q.Range.From.Format(DateLayout))
	}
	if !q.Range.To.IsZero() {
		v.Set("endDate", q.Range.To.Format(DateLayout))
	}
	return v
}
