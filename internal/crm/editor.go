// internal/crm/editor.go
package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotEditing = errors.New("not in edit mode")
	ErrNotLoaded  = errors.New("record not loaded")
)

// Record is the slice of Resource an Editor needs.
type Record[T any] interface {
	GetByID(ctx context.Context, id string) (*T, error)
	Edit(ctx context.Context, id string, item T) (*T, error)
}

// Editor holds one record on a detail page. Fields can only change after
// BeginEdit; Save puts the whole working copy back and Cancel drops it.
type Editor[T any] struct {
	mu       sync.Mutex
	resource Record[T]
	id       string
	current  *T
	working  *T
}

func NewEditor[T any](resource Record[T], id string) *Editor[T] {
	return &Editor[T]{resource: resource, id: id}
}

// Load fetches the record and leaves edit mode.
func (e *Editor[T]) Load(ctx context.Context) (T, error) {
	item, err := e.resource.GetByID(ctx, e.id)
	if err != nil {
		var zero T
		return zero, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = item
	e.working = nil
	return *item, nil
}

// Current returns the last loaded or saved record.
func (e *Editor[T]) Current() (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		var zero T
		return zero, false
	}
	return *e.current, true
}

func (e *Editor[T]) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working != nil
}

func (e *Editor[T]) BeginEdit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return ErrNotLoaded
	}
	if e.working == nil {
		copied, err := deepCopy(e.current)
		if err != nil {
			return err
		}
		e.working = copied
	}
	return nil
}

// deepCopy keeps slices and pointers of the working copy apart from the
// loaded record.
func deepCopy[T any](v *T) (*T, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("copy record: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("copy record: %w", err)
	}
	return &out, nil
}

// Edit applies fn to the working copy.
func (e *Editor[T]) Edit(fn func(*T)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.working == nil {
		return fmt.Errorf("edit %s: %w", e.id, ErrNotEditing)
	}
	fn(e.working)
	return nil
}

// Working returns the copy being edited.
func (e *Editor[T]) Working() (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.working == nil {
		var zero T
		return zero, ErrNotEditing
	}
	return *e.working, nil
}

// Save sends the working copy and replaces the current record with the
// backend's answer. On failure the editor stays in edit mode.
func (e *Editor[T]) Save(ctx context.Context) (T, error) {
	e.mu.Lock()
	if e.working == nil {
		e.mu.Unlock()
		var zero T
		return zero, fmt.Errorf("save %s: %w", e.id, ErrNotEditing)
	}
	payload := *e.working
	e.mu.Unlock()

	saved, err := e.resource.Edit(ctx, e.id, payload)
	if err != nil {
		var zero T
		return zero, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = saved
	e.working = nil
	return *saved, nil
}

// Cancel leaves edit mode without saving.
func (e *Editor[T]) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.working = nil
}
