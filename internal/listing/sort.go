// internal/listing/sort.go
package listing

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"fieldsales-console/pkg/columns"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var errUnexpectedShape = errors.New("expected a JSON array or page object")

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
}

var timeLayouts = []string{"15:04:05", "15:04", "3:04 PM"}

// ParseDate accepts the date formats the backend is known to emit.
func ParseDate(s string) (time.Time, bool) {
	return parseAny(dateLayouts, s)
}

func parseAny(layouts []string, s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// comparer orders two cell values of one column kind.
type comparer struct {
	kind     string
	collator *collate.Collator
}

func newComparer(kind string, tag language.Tag) *comparer {
	return &comparer{kind: kind, collator: collate.New(tag)}
}

func (c *comparer) compare(a, b string) int {
	switch c.kind {
	case columns.KindNumber:
		fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
		fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if errA == nil && errB == nil {
			return compareFloat(fa, fb)
		}
		if r, ok := missingLast(errA == nil, errB == nil); ok {
			return r
		}
	case columns.KindDate, columns.KindTime:
		layouts := dateLayouts
		if c.kind == columns.KindTime {
			layouts = timeLayouts
		}
		ta, okA := parseAny(layouts, a)
		tb, okB := parseAny(layouts, b)
		if okA && okB {
			return ta.Compare(tb)
		}
		if r, ok := missingLast(okA, okB); ok {
			return r
		}
	}
	return c.collator.CompareString(a, b)
}

// missingLast orders parseable values before unparseable ones.
func missingLast(okA, okB bool) (int, bool) {
	switch {
	case okA && !okB:
		return -1, true
	case !okA && okB:
		return 1, true
	}
	return 0, false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// sortRows orders idx by one column of rows. The sort is stable and has no
// secondary key, so ties keep backend order in both directions.
func sortRows(idx []int, rows []columns.Row, key, kind string, dir Direction, tag language.Tag) {
	if key == "" {
		return
	}
	cmp := newComparer(kind, tag)
	sort.SliceStable(idx, func(i, j int) bool {
		r := cmp.compare(rows[idx[i]][key], rows[idx[j]][key])
		if dir == Desc {
			return r > 0
		}
		return r < 0
	})
}

// matches applies the text filters and selectors of q to one row.
func matches(row columns.Row, q Query, searchable []string, known func(string) bool) bool {
	for key, needle := range q.Filters {
		needle = strings.ToLower(strings.TrimSpace(needle))
		if needle == "" {
			continue
		}
		if key == SearchKey {
			if !anyContains(row, searchable, needle) {
				return false
			}
			continue
		}
		if !strings.Contains(strings.ToLower(row[key]), needle) {
			return false
		}
	}
	for key, want := range q.Selectors {
		if want == "" || !known(key) {
			continue
		}
		if !strings.EqualFold(row[key], want) {
			return false
		}
	}
	return true
}

func anyContains(row columns.Row, keys []string, needle string) bool {
	for _, k := range keys {
		if strings.Contains(strings.ToLower(row[k]), needle) {
			return true
		}
	}
	return false
}
