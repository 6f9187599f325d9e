package listing

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/models"
	"fieldsales-console/pkg/columns"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type staticCredentials struct {
	token string
}

func (s staticCredentials) Token() string { return s.token }
func (staticCredentials) Username() string { return "admin" }
func (staticCredentials) Role() models.Role { return models.RoleAdmin }
func (staticCredentials) EmployeeID() int64 { return 0 }
func (staticCredentials) TeamID() int64 { return 0 }
func (staticCredentials) IsAdmin() bool { return true }

type row struct {
	ID    int64   `json:"id"`
	Name  string  `json:"storeName"`
	City  string  `json:"city"`
	Sale  float64 `json:"monthlySale"`
	Added string  `json:"visit_date"`
}

var testEntity = columns.Entity{
	Name: "test",
	Columns: []columns.Column{
		{Key: "storeName", Header: "Customer Name", Kind: columns.KindString, Searchable: true, Default: true},
		{Key: "city", Header: "City", Kind: columns.KindString, Searchable: true, Default: true},
		{Key: "monthlySale", Header: "Monthly Sale", Kind: columns.KindNumber},
		{Key: "visit_date", Header: "Visit Date", Kind: columns.KindDate},
	},
}

type recordingFetcher struct {
	mu      sync.Mutex
	queries []Query
	items   []row
	err     error
}

func (f *recordingFetcher) fetch(_ context.Context, token string, q Query) (Result[row], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return Result[row]{}, f.err
	}
	return Result[row]{Items: append([]row(nil), f.items...), TotalCount: len(f.items)}, nil
}

func (f *recordingFetcher) calls() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Query(nil), f.queries...)
}

func rowID(r row) string { return strconv.FormatInt(r.ID, 10) }

func newController(t *testing.T, f *recordingFetcher, mutate func(*Config[row])) *Controller[row] {
	cfg := Config[row]{
		Entity:      testEntity,
		Fetch:       f.fetch,
		ID:          rowID,
		Debounce:    20 * time.Millisecond,
		PageSize:    2,
		DateKey:     "visit_date",
		Credentials: staticCredentials{token: "tok"},
		Logger:      logger.NewTestLogger(t),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c := New(cfg)
	t.Cleanup(c.Close)
	return c
}

func names(items []row) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.Name
	}
	return out
}

var sampleRows = []row{
	{ID: 1, Name: "banana mart", City: "Pune", Sale: 900, Added: "2024-01-03"},
	{ID: 2, Name: "Apple Stores", City: "Mumbai", Sale: 1200, Added: "2024-01-01"},
	{ID: 3, Name: "cherry corner", City: "pune", Sale: 80, Added: "2024-01-05"},
	{ID: 4, Name: "Éclair House", City: "Delhi", Sale: 1200, Added: "2024-01-02"},
}

// ==========================
// Pure Function Tests
// ==========================

func TestWindow(t *testing.T) {
	tests := []struct {
		n, page, size      int
		wantStart, wantEnd int
	}{
		{10, 1, 3, 0, 3},
		{10, 3, 3, 6, 9},
		{10, 4, 3, 9, 10},
		{10, 5, 3, 10, 10},
		{0, 1, 10, 0, 0},
		{7, 0, 5, 0, 5},
		{7, 2, 0, 0, 7},
		{4, math.MaxInt, 2, 4, 4},
		{4, math.MaxInt/2 + 1, 2, 4, 4},
		{4, 1, math.MaxInt, 0, 4},
		{4, 2, math.MaxInt, 4, 4},
	}
	for _, tt := range tests {
		start, end := Window(tt.n, tt.page, tt.size)
		assert.Equal(t, tt.wantStart, start, "n=%d page=%d size=%d", tt.n, tt.page, tt.size)
		assert.Equal(t, tt.wantEnd, end, "n=%d page=%d size=%d", tt.n, tt.page, tt.size)
	}
}

func TestWindow_CoversEveryItemOnce(t *testing.T) {
	for n := 0; n <= 25; n++ {
		for size := 1; size <= 7; size++ {
			seen := 0
			for page := 1; ; page++ {
				start, end := Window(n, page, size)
				if start == end {
					break
				}
				assert.Equal(t, (page-1)*size, start)
				assert.LessOrEqual(t, end-start, size)
				seen += end - start
			}
			assert.Equal(t, n, seen)
		}
	}
}

func TestToggleSort(t *testing.T) {
	q := Query{}
	q = ToggleSort(q, "storeName")
	assert.Equal(t, Asc, q.SortDir)

	q = ToggleSort(q, "storeName")
	assert.Equal(t, Desc, q.SortDir)

	q = ToggleSort(q, "storeName")
	assert.Equal(t, Asc, q.SortDir)

	q = ToggleSort(ToggleSort(q, "storeName"), "city")
	assert.Equal(t, "city", q.SortKey)
	assert.Equal(t, Asc, q.SortDir)
}

func TestQuery_Params(t *testing.T) {
	q := Query{
		Filters:   map[string]string{"storeName": "mart", "city": ""},
		Selectors: map[string]string{"status": "Assigned"},
		Range: DateRange{
			From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		SortKey: "visit_date",
		SortDir: Desc,
		Page:    3,
		Size:    25,
	}

	want := url.Values{
		"page":      {"2"},
		"size":      {"25"},
		"sort":      {"visit_date,desc"},
		"storeName": {"mart"},
		"status":    {"Assigned"},
		"startDate": {"2024-01-01"},
		"endDate":   {"2024-01-31"},
	}
	assert.Equal(t, want, q.Params())
}

func TestNormalize(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		res, err := Normalize[row]([]byte(`[{"id":1},{"id":2}]`))
		require.NoError(t, err)
		assert.Len(t, res.Items, 2)
		assert.Equal(t, 2, res.TotalCount)
	})

	t.Run("page envelope", func(t *testing.T) {
		res, err := Normalize[row]([]byte(`{"content":[{"id":1}],"totalElements":41,"totalPages":5,"last":false}`))
		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
		assert.Equal(t, 41, res.TotalCount)
	})

	t.Run("empty", func(t *testing.T) {
		res, err := Normalize[row]([]byte(" null "))
		require.NoError(t, err)
		assert.Empty(t, res.Items)
	})

	t.Run("scalar is rejected", func(t *testing.T) {
		_, err := Normalize[row]([]byte(`"nope"`))
		assert.Error(t, err)
	})
}

// ==========================
// Controller Tests
// ==========================

func TestController_DebouncesTextFilters(t *testing.T) {
	f := &recordingFetcher{items: sampleRows}
	c := newController(t, f, nil)

	c.SetFilter("storeName", "ab")
	c.SetFilter("storeName", "abc")
	c.Wait()

	calls := f.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "abc", calls[0].Filters["storeName"])
}

func TestController_SelectorsFetchImmediately(t *testing.T) {
	f := &recordingFetcher{items: sampleRows}
	c := newController(t, f, func(cfg *Config[row]) { cfg.Debounce = time.Hour })

	c.SetSelector("priority", "high")
	c.Wait()
	c.SetRange(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Time{})
	c.Wait()

	calls := f.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "high", calls[1].Selectors["priority"])
	assert.False(t, calls[1].Range.From.IsZero())
}

func TestController_ClientSideSearchSortPage(t *testing.T) {
	f := &recordingFetcher{items: sampleRows}
	c := newController(t, f, nil)

	c.Refresh()
	c.Wait()
	st := c.Snapshot()
	assert.Equal(t, 4, st.TotalCount)
	assert.Equal(t, []string{"banana mart", "Apple Stores"}, names(st.Items))

	c.SortBy("storeName")
	st = c.Snapshot()
	assert.Equal(t, []string{"Apple Stores", "banana mart"}, names(st.Items))

	c.SetPage(2)
	assert.Equal(t, []string{"cherry corner", "Éclair House"}, names(c.Snapshot().Items))

	c.SortBy("storeName")
	c.SetPage(1)
	assert.Equal(t, []string{"Éclair House", "cherry corner"}, names(c.Snapshot().Items))

	assert.Len(t, f.calls(), 1, "sorting and paging re-slice without fetching")

	c.SetFilter(SearchKey, "PUNE")
	c.Wait()
	st = c.Snapshot()
	assert.Equal(t, 2, st.TotalCount)
	assert.Equal(t, []string{"cherry corner", "banana mart"}, names(st.Items))
}

func TestController_NumericSortIsStable(t *testing.T) {
	f := &recordingFetcher{items: sampleRows}
	c := newController(t, f, func(cfg *Config[row]) { cfg.PageSize = 10 })
	c.Refresh()
	c.Wait()

	c.SortBy("monthlySale")
	assert.Equal(t, []string{"cherry corner", "banana mart", "Apple Stores", "Éclair House"}, names(c.Snapshot().Items))

	c.SortBy("monthlySale")
	assert.Equal(t, []string{"Apple Stores", "Éclair House", "banana mart", "cherry corner"}, names(c.Snapshot().Items))
}

func TestController_DateRangeClientSide(t *testing.T) {
	f := &recordingFetcher{items: sampleRows}
	c := newController(t, f, func(cfg *Config[row]) { cfg.PageSize = 10 })

	c.SetRange(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	c.Wait()

	assert.ElementsMatch(t, []string{"banana mart", "Éclair House"}, names(c.Snapshot().Items))
}

func TestController_ServerSidePassesThrough(t *testing.T) {
	f := &recordingFetcher{items: sampleRows[:2]}
	c := newController(t, f, func(cfg *Config[row]) { cfg.Mode = ServerSide })

	c.SortBy("storeName")
	c.Wait()
	c.SetPage(3)
	c.Wait()

	calls := f.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "storeName", calls[1].SortKey)
	assert.Equal(t, 3, calls[1].Page)
	assert.Equal(t, []string{"banana mart", "Apple Stores"}, names(c.Snapshot().Items))
}

func TestController_PageSizeResetsToFirstPage(t *testing.T) {
	t.Run("client side re-slices", func(t *testing.T) {
		f := &recordingFetcher{items: sampleRows}
		c := newController(t, f, nil)
		c.Refresh()
		c.Wait()
		c.SetPage(2)

		c.SetPageSize(3)
		st := c.Snapshot()
		assert.Equal(t, 1, st.Query.Page)
		assert.Equal(t, []string{"banana mart", "Apple Stores", "cherry corner"}, names(st.Items))
		assert.Len(t, f.calls(), 1)
	})

	t.Run("server side refetches", func(t *testing.T) {
		f := &recordingFetcher{items: sampleRows[:2]}
		c := newController(t, f, func(cfg *Config[row]) { cfg.Mode = ServerSide })
		c.SetPage(4)
		c.Wait()

		c.SetPageSize(25)
		c.Wait()

		calls := f.calls()
		require.Len(t, calls, 2)
		assert.Equal(t, 25, calls[1].Size)
		assert.Equal(t, 1, calls[1].Page)
	})
}

func TestController_LatestQueryWins(t *testing.T) {
	release := make(chan struct{})

	fetch := func(ctx context.Context, _ string, q Query) (Result[row], error) {
		if q.Page == 1 {
			<-release
			return Result[row]{Items: []row{{ID: 99, Name: "stale"}}, TotalCount: 1}, nil
		}
		return Result[row]{Items: []row{{ID: 1, Name: "fresh"}}, TotalCount: 1}, nil
	}

	c := New(Config[row]{
		Entity:      testEntity,
		Fetch:       fetch,
		ID:          rowID,
		Mode:        ServerSide,
		Credentials: staticCredentials{token: "tok"},
		Logger:      logger.NewTestLogger(t),
	})
	defer c.Close()

	c.Refresh()
	c.SetPage(2)

	assert.Eventually(t, func() bool {
		st := c.Snapshot()
		return len(st.Items) == 1 && st.Items[0].Name == "fresh"
	}, time.Second, 5*time.Millisecond)

	close(release)
	c.Wait()

	st := c.Snapshot()
	assert.Equal(t, []string{"fresh"}, names(st.Items))
	assert.Equal(t, uint64(2), st.Generation)
}

func TestController_FetchErrorKeepsPreviousRows(t *testing.T) {
	f := &recordingFetcher{items: sampleRows}
	c := newController(t, f, nil)
	c.Refresh()
	c.Wait()

	f.mu.Lock()
	f.err = errors.New("502 bad gateway")
	f.mu.Unlock()

	c.Refresh()
	c.Wait()

	st := c.Snapshot()
	assert.EqualError(t, st.Err, "502 bad gateway")
	assert.Equal(t, 4, st.TotalCount)
	assert.False(t, st.Loading)
}

func TestController_NoToken(t *testing.T) {
	f := &recordingFetcher{items: sampleRows}
	c := newController(t, f, func(cfg *Config[row]) { cfg.Credentials = staticCredentials{} })

	c.Refresh()
	c.Wait()

	assert.Error(t, c.Snapshot().Err)
	assert.Empty(t, f.calls())
}

func TestController_Columns(t *testing.T) {
	c := newController(t, &recordingFetcher{}, nil)

	assert.Equal(t, []string{"storeName", "city"}, c.VisibleColumns())
	require.NoError(t, c.ToggleColumn("monthlySale"))
	require.NoError(t, c.ToggleColumn("storeName"))
	assert.Equal(t, []string{"city", "monthlySale"}, c.VisibleColumns())
	assert.Error(t, c.ToggleColumn("nope"))
}

func TestController_Delete(t *testing.T) {
	t.Run("optimistic removes locally", func(t *testing.T) {
		f := &recordingFetcher{items: sampleRows}
		var deleted []string
		c := newController(t, f, func(cfg *Config[row]) {
			cfg.PageSize = 10
			cfg.Delete = func(_ context.Context, token, id string) error {
				assert.Equal(t, "tok", token)
				deleted = append(deleted, id)
				return nil
			}
		})
		c.Refresh()
		c.Wait()

		require.NoError(t, c.Delete(context.Background(), "2"))
		assert.Equal(t, []string{"2"}, deleted)
		assert.Equal(t, 3, c.Snapshot().TotalCount)
		assert.Len(t, f.calls(), 1)
	})

	t.Run("refetch policy fetches again", func(t *testing.T) {
		f := &recordingFetcher{items: sampleRows}
		c := newController(t, f, func(cfg *Config[row]) {
			cfg.DeletePolicy = Refetch
			cfg.Delete = func(context.Context, string, string) error { return nil }
		})
		c.Refresh()
		c.Wait()

		require.NoError(t, c.Delete(context.Background(), "2"))
		c.Wait()
		assert.Len(t, f.calls(), 2)
	})

	t.Run("failure leaves list unchanged", func(t *testing.T) {
		f := &recordingFetcher{items: sampleRows}
		c := newController(t, f, func(cfg *Config[row]) {
			cfg.Delete = func(context.Context, string, string) error { return errors.New("409 conflict") }
		})
		c.Refresh()
		c.Wait()

		assert.Error(t, c.Delete(context.Background(), "2"))
		assert.Equal(t, 4, c.Snapshot().TotalCount)
	})

	t.Run("declined confirmation never calls backend", func(t *testing.T) {
		called := false
		c := newController(t, &recordingFetcher{}, func(cfg *Config[row]) {
			cfg.Confirm = func(string) bool { return false }
			cfg.Delete = func(context.Context, string, string) error { called = true; return nil }
		})

		assert.ErrorIs(t, c.Delete(context.Background(), "1"), ErrDeleteCancelled)
		assert.False(t, called)
	})
}

func TestController_SelectionAndBulk(t *testing.T) {
	f := &recordingFetcher{items: sampleRows}
	c := newController(t, f, nil)
	c.Refresh()
	c.Wait()

	assert.Error(t, c.Bulk(context.Background(), func(context.Context, string, []string) error { return nil }))

	c.SelectAll(true)
	assert.Equal(t, []string{"1", "2"}, c.Selected())
	c.Select("2", false)
	c.Select("4", true)

	var got []string
	err := c.Bulk(context.Background(), func(_ context.Context, _ string, ids []string) error {
		got = ids
		return errors.New("partial")
	})
	c.Wait()

	assert.EqualError(t, err, "partial")
	assert.Equal(t, []string{"1", "4"}, got)
	assert.Empty(t, c.Selected())
	assert.Len(t, f.calls(), 2)
}
