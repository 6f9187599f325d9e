// internal/listing/controller.go
package listing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/common/metrics"
	"fieldsales-console/internal/session"
	"fieldsales-console/pkg/columns"

	"golang.org/x/text/language"
)

// Mode says who pages and sorts.
type Mode int

const (
	// ClientSide fetches the whole collection and filters, sorts and pages
	// it in memory.
	ClientSide Mode = iota
	// ServerSide passes the query through and shows the page as returned.
	ServerSide
)

// DeletePolicy says how a successful delete is reflected in the list.
type DeletePolicy int

const (
	Optimistic DeletePolicy = iota
	Refetch
)

const DefaultDebounce = 300 * time.Millisecond

// ErrDeleteCancelled is returned when the confirmation step declines.
var ErrDeleteCancelled = errors.New("delete cancelled")

// Fetcher loads one result for q on behalf of token.
type Fetcher[T any] func(ctx context.Context, token string, q Query) (Result[T], error)

// Deleter removes the record with id.
type Deleter func(ctx context.Context, token, id string) error

// BulkAction runs against the selected ids.
type BulkAction func(ctx context.Context, token string, ids []string) error

// Config wires a controller to one entity type.
type Config[T any] struct {
	Entity       columns.Entity
	Fetch        Fetcher[T]
	ID           func(T) string
	Row          func(T) columns.Row
	Delete       Deleter
	Confirm      func(id string) bool
	Mode         Mode
	DeletePolicy DeletePolicy
	Debounce     time.Duration
	PageSize     int
	DateKey      string
	Language     language.Tag
	Credentials  session.Credentials
	Logger       logger.Logger
}

// State is a consistent snapshot of the list.
type State[T any] struct {
	Query      Query
	Items      []T
	TotalCount int
	Loading    bool
	Err        error
	Generation uint64
}

// Controller is the list page state machine shared by every entity. Text
// filter edits are debounced; every other change fetches at once. Each fetch
// gets a generation number and only the newest generation may commit.
type Controller[T any] struct {
	cfg    Config[T]
	logger logger.Logger

	mu         sync.Mutex
	query      Query
	raw        []T
	rows       []columns.Row
	total      int
	loading    bool
	err        error
	generation uint64
	cancel     context.CancelFunc
	timer      *time.Timer
	visible    map[string]bool
	selected   map[string]bool
	listeners  []func(State[T])

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

func New[T any](cfg Config[T]) *Controller[T] {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.Row == nil {
		cfg.Row = func(item T) columns.Row {
			row, _ := columns.Flatten(item)
			return row
		}
	}
	if cfg.Language == language.Und {
		cfg.Language = language.English
	}

	ctx, stop := context.WithCancel(context.Background())
	c := &Controller[T]{
		cfg:      cfg,
		logger:   logger.Component(cfg.Logger, "listing").WithFields(map[string]interface{}{"entity": cfg.Entity.Name}),
		query:    Query{Page: 1, Size: cfg.PageSize},
		visible:  make(map[string]bool),
		selected: make(map[string]bool),
		ctx:      ctx,
		stop:     stop,
	}
	for _, k := range cfg.Entity.DefaultKeys() {
		c.visible[k] = true
	}
	return c
}

// Subscribe registers fn for every committed fetch and local change.
func (c *Controller[T]) Subscribe(fn func(State[T])) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Snapshot returns the rows currently on screen.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller[T]) stateLocked() State[T] {
	st := State[T]{
		Query:      c.query.clone(),
		Loading:    c.loading,
		Err:        c.err,
		Generation: c.generation,
	}
	if c.cfg.Mode == ServerSide {
		st.Items = append([]T(nil), c.raw...)
		st.TotalCount = c.total
		return st
	}

	idx := c.viewLocked()
	st.TotalCount = len(idx)
	start, end := Window(len(idx), c.query.Page, c.query.Size)
	st.Items = make([]T, 0, end-start)
	for _, i := range idx[start:end] {
		st.Items = append(st.Items, c.raw[i])
	}
	return st
}

// viewLocked filters and sorts the fetched collection, returning indexes
// into raw.
func (c *Controller[T]) viewLocked() []int {
	searchable := c.cfg.Entity.SearchableKeys()
	known := func(key string) bool {
		_, ok := c.cfg.Entity.Column(key)
		return ok
	}

	idx := make([]int, 0, len(c.raw))
	for i, row := range c.rows {
		if !matches(row, c.query, searchable, known) {
			continue
		}
		if c.cfg.DateKey != "" && !c.query.Range.IsZero() {
			day, ok := ParseDate(row[c.cfg.DateKey])
			if !ok || !c.query.Range.Contains(day) {
				continue
			}
		}
		idx = append(idx, i)
	}

	kind := columns.KindString
	if col, ok := c.cfg.Entity.Column(c.query.SortKey); ok {
		kind = col.Kind
	}
	sortRows(idx, c.rows, c.query.SortKey, kind, c.query.SortDir, c.cfg.Language)
	return idx
}

func (c *Controller[T]) notify(st State[T]) {
	c.mu.Lock()
	listeners := append([]func(State[T]){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

// SetFilter edits one text filter. The fetch fires once the debounce delay
// passes with no further edits.
func (c *Controller[T]) SetFilter(key, value string) {
	c.mu.Lock()
	if c.query.Filters == nil {
		c.query.Filters = make(map[string]string)
	}
	c.query.Filters[key] = value
	c.query.Page = 1
	if c.timer != nil && c.timer.Stop() {
		c.wg.Done()
	}
	c.wg.Add(1)
	c.timer = time.AfterFunc(c.cfg.Debounce, func() {
		defer c.wg.Done()
		c.Refresh()
	})
	c.mu.Unlock()
}

// SetSelector sets a dropdown filter such as status, priority or employee.
func (c *Controller[T]) SetSelector(key, value string) {
	c.update(func(q *Query) {
		if q.Selectors == nil {
			q.Selectors = make(map[string]string)
		}
		q.Selectors[key] = value
		q.Page = 1
	}, true)
}

func (c *Controller[T]) SetRange(from, to time.Time) {
	c.update(func(q *Query) {
		q.Range = DateRange{From: from, To: to}
		q.Page = 1
	}, true)
}

// SortBy toggles the sort column.
func (c *Controller[T]) SortBy(key string) {
	c.update(func(q *Query) { *q = ToggleSort(*q, key) }, false)
}

func (c *Controller[T]) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	c.update(func(q *Query) { q.Page = page }, false)
}

func (c *Controller[T]) SetPageSize(size int) {
	if size <= 0 {
		size = c.cfg.PageSize
	}
	c.update(func(q *Query) {
		q.Size = size
		q.Page = 1
	}, false)
}

// update applies mutate and fetches. In client-side mode sort and paging
// changes only re-slice what is already held unless refetch is set.
func (c *Controller[T]) update(mutate func(*Query), refetch bool) {
	c.mu.Lock()
	mutate(&c.query)
	local := c.cfg.Mode == ClientSide && !refetch && c.generation > 0
	var st State[T]
	if local {
		st = c.stateLocked()
	}
	c.mu.Unlock()

	if local {
		c.notify(st)
		return
	}
	c.Refresh()
}

// Refresh fetches the current query now, superseding any fetch in flight.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	q := c.query.clone()
	c.loading = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.fetch(ctx, gen, q)
}

func (c *Controller[T]) fetch(ctx context.Context, gen uint64, q Query) {
	defer c.wg.Done()

	var (
		res Result[T]
		err error
	)
	token, tokenErr := session.RequireToken(c.cfg.Credentials)
	if tokenErr != nil {
		err = tokenErr
	} else {
		res, err = c.cfg.Fetch(ctx, token, q)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		metrics.ListFetches.WithLabelValues(c.cfg.Entity.Name, metrics.FetchStale).Inc()
		c.logger.Debug("discarding stale list result", map[string]interface{}{
			"generation": gen,
		})
		return
	}

	c.loading = false
	if err != nil {
		c.err = err
		c.mu.Unlock()
		metrics.ListFetches.WithLabelValues(c.cfg.Entity.Name, metrics.FetchError).Inc()
		c.logger.Error("list fetch failed", map[string]interface{}{
			"generation": gen,
			"error":      err,
		})
		c.notify(c.Snapshot())
		return
	}

	c.err = nil
	c.setItemsLocked(res.Items)
	c.total = res.TotalCount
	st := c.stateLocked()
	c.mu.Unlock()

	metrics.ListFetches.WithLabelValues(c.cfg.Entity.Name, metrics.FetchApplied).Inc()
	c.notify(st)
}

func (c *Controller[T]) setItemsLocked(items []T) {
	c.raw = items
	c.rows = make([]columns.Row, len(items))
	for i, item := range items {
		c.rows[i] = c.cfg.Row(item)
	}
}

// Wait blocks until pending debounce timers and fetches settle.
func (c *Controller[T]) Wait() {
	c.wg.Wait()
}

// Close cancels any fetch in flight and drops a pending debounce.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.timer != nil && c.timer.Stop() {
		c.wg.Done()
	}
	c.mu.Unlock()
	c.stop()
}

// ToggleColumn flips the visibility of one column. Fetching is unaffected.
func (c *Controller[T]) ToggleColumn(key string) error {
	if _, ok := c.cfg.Entity.Column(key); !ok {
		return apperrors.NewValidationError(fmt.Sprintf("unknown column %q", key), map[string]string{"column": key})
	}
	c.mu.Lock()
	c.visible[key] = !c.visible[key]
	c.mu.Unlock()
	return nil
}

// VisibleColumns lists the shown columns in registry order.
func (c *Controller[T]) VisibleColumns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for _, k := range c.cfg.Entity.Keys() {
		if c.visible[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *Controller[T]) Select(id string, on bool) {
	c.mu.Lock()
	if on {
		c.selected[id] = true
	} else {
		delete(c.selected, id)
	}
	c.mu.Unlock()
}

// SelectAll selects or clears every row on the current page.
func (c *Controller[T]) SelectAll(on bool) {
	st := c.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !on {
		c.selected = make(map[string]bool)
		return
	}
	for _, item := range st.Items {
		c.selected[c.cfg.ID(item)] = true
	}
}

// Selected returns the selected ids in sorted order.
func (c *Controller[T]) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Bulk runs action on the selection, then clears it and refetches whether
// or not the action succeeded.
func (c *Controller[T]) Bulk(ctx context.Context, action BulkAction) error {
	ids := c.Selected()
	if len(ids) == 0 {
		return apperrors.NewValidationError("no rows selected", nil)
	}
	token, err := session.RequireToken(c.cfg.Credentials)
	if err != nil {
		return err
	}

	err = action(ctx, token, ids)
	if err != nil {
		c.logger.Error("bulk action failed", map[string]interface{}{
			"count": len(ids),
			"error": err,
		})
	}

	c.mu.Lock()
	c.selected = make(map[string]bool)
	c.mu.Unlock()
	c.Refresh()
	return err
}

// Delete confirms, deletes and applies the configured policy. A failed
// delete leaves the list untouched.
func (c *Controller[T]) Delete(ctx context.Context, id string) error {
	if c.cfg.Delete == nil {
		return apperrors.NewInternalError(errors.New("list has no delete operation"))
	}
	if c.cfg.Confirm != nil && !c.cfg.Confirm(id) {
		return ErrDeleteCancelled
	}
	token, err := session.RequireToken(c.cfg.Credentials)
	if err != nil {
		return err
	}

	if err := c.cfg.Delete(ctx, token, id); err != nil {
		c.logger.Error("delete failed", map[string]interface{}{
			"id":    id,
			"error": err,
		})
		return err
	}

	if c.cfg.DeletePolicy == Refetch {
		c.Refresh()
		return nil
	}

	c.mu.Lock()
	kept := c.raw[:0:0]
	for _, item := range c.raw {
		if c.cfg.ID(item) != id {
			kept = append(kept, item)
		}
	}
	if removed := len(c.raw) - len(kept); removed > 0 && c.total >= removed {
		c.total -= removed
	}
	c.setItemsLocked(kept)
	delete(c.selected, id)
	st := c.stateLocked()
	c.mu.Unlock()

	c.notify(st)
	return nil
}
