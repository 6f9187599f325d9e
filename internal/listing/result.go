// internal/listing/result.go
package listing

import (
	"bytes"
	"encoding/json"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/models"
)

// Result is the one shape the controller consumes, whatever the endpoint
// returned.
type Result[T any] struct {
	Items      []T
	TotalCount int
}

// Normalize accepts a bare JSON array or a Spring page envelope.
func Normalize[T any](raw []byte) (Result[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Result[T]{}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Result[T]{}, apperrors.NewDecodeError("list", err)
		}
		return Result[T]{Items: items, TotalCount: len(items)}, nil
	case '{':
		var page models.Page[T]
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return Result[T]{}, apperrors.NewDecodeError("page", err)
		}
		return FromPage(page), nil
	default:
		return Result[T]{}, apperrors.NewDecodeError("list", errUnexpectedShape)
	}
}

// FromPage adapts an already decoded page envelope.
func FromPage[T any](page models.Page[T]) Result[T] {
	total := int(page.TotalElements)
	if total == 0 && len(page.Content) > 0 {
		total = len(page.Content)
	}
	return Result[T]{Items: page.Content, TotalCount: total}
}

// Window returns the half-open index range page k shows out of n items.
// Pages below 1 are treated as the first page; size <= 0 shows everything.
func Window(n, page, size int) (start, end int) {
	if size <= 0 {
		return 0, n
	}
	if page < 1 {
		page = 1
	}
	// Past the last page; also keeps the products below from overflowing.
	if page-1 > n/size {
		return n, n
	}
	start = (page - 1) * size
	if start > n {
		start = n
	}
	end = start + size
	if end > n || end < start {
		end = n
	}
	return start, end
}
