// internal/export/collect.go
package export

import (
	"context"
	"fmt"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
)

// DefaultMaxPages bounds CollectPages when the backend never reports a last
// page.
const DefaultMaxPages = 500

// PageFunc fetches the page of q numbered q.Page (1-based).
type PageFunc[T any] func(ctx context.Context, q listing.Query) (models.Page[T], error)

// CollectPages walks q from page 1 until the backend marks a page as last.
// Any failed page fails the whole collection.
func CollectPages[T any](ctx context.Context, fetch PageFunc[T], q listing.Query, maxPages int) ([]T, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var all []T
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.Page = page
		p, err := fetch(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, p.Content...)
		if p.Last || len(p.Content) == 0 {
			return all, nil
		}
	}
	return nil, apperrors.NewExportFailedError("collect", fmt.Errorf("no last page within %d pages", maxPages))
}

// CollectOnce asks for everything in a single page of size.
func CollectOnce[T any](ctx context.Context, fetch PageFunc[T], q listing.Query, size int) ([]T, error) {
	q.Page = 1
	if size > 0 {
		q.Size = size
	}
	p, err := fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return p.Content, nil
}

// FromList adapts an unpaged source into a single last page.
func FromList[T any](list func(ctx context.Context) ([]T, error)) PageFunc[T] {
	return func(ctx context.Context, _ listing.Query) (models.Page[T], error) {
		items, err := list(ctx)
		if err != nil {
			return models.Page[T]{}, err
		}
		return models.Page[T]{Content: items, TotalElements: len(items), TotalPages: 1, First: true, Last: true}, nil
	}
}
