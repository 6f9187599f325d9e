// internal/crm/sub.go
package crm

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fieldsales-console/internal/audit"
	crmhttp "fieldsales-console/internal/common/http"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/common/validation"
	"fieldsales-console/internal/models"
)

// SubResource is a collection owned by a parent record, such as a store's
// notes. Listing is scoped by the parent id; items are created with the
// parent reference filled in.
type SubResource[T any] struct {
	deps   Deps
	base   string
	schema string
	attach func(item *T, parentID int64, d Deps)
	logger logger.Logger
}

func newSubResource[T any](deps Deps, base, schema string, attach func(*T, int64, Deps)) *SubResource[T] {
	name := strings.Trim(base, "/")
	return &SubResource[T]{
		deps:   deps,
		base:   "/" + name,
		schema: schema,
		attach: attach,
		logger: logger.Component(deps.Logger, "crm").WithFields(map[string]interface{}{"resource": name}),
	}
}

// NewNotes binds store notes. An explicit EmployeeID on the note is kept;
// otherwise the author defaults to the logged-in employee. That default is a
// product decision, not a value the backend requires.
func NewNotes(deps Deps) *SubResource[models.Note] {
	return newSubResource(deps, "/notes", validation.SchemaNote, func(n *models.Note, storeID int64, d Deps) {
		n.StoreID = storeID
		if n.EmployeeID == 0 && d.Credentials != nil {
			n.EmployeeID = d.Credentials.EmployeeID()
		}
	})
}

// NewBrands binds the brand pros/cons recorded at a store.
func NewBrands(deps Deps) *SubResource[models.BrandProCons] {
	return newSubResource(deps, "/brand", "", func(b *models.BrandProCons, storeID int64, _ Deps) {
		b.StoreID = storeID
	})
}

func NewLikes(deps Deps) *SubResource[models.Like] {
	return newSubResource(deps, "/likes", "", func(l *models.Like, storeID int64, _ Deps) {
		l.StoreID = storeID
	})
}

func NewTimeline(deps Deps) *SubResource[models.TimelineEvent] {
	return newSubResource(deps, "/timeline", "", func(e *models.TimelineEvent, storeID int64, _ Deps) {
		e.StoreID = storeID
	})
}

func (s *SubResource[T]) path(op string) string {
	return s.base + "/" + op
}

// List returns the items under parentID.
func (s *SubResource[T]) List(ctx context.Context, parentID int64) ([]T, error) {
	token, err := s.deps.token()
	if err != nil {
		return nil, err
	}

	var items []T
	if err := s.deps.HTTP.JSON(ctx, crmhttp.Request{
		Method: http.MethodGet,
		Path:   s.path("getByStore"),
		Query:  url.Values{"id": {strconv.FormatInt(parentID, 10)}},
		Token:  token,
	}, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Add creates item under parentID.
func (s *SubResource[T]) Add(ctx context.Context, parentID int64, item T) (*T, error) {
	if s.attach != nil {
		s.attach(&item, parentID, s.deps)
	}
	if s.schema != "" && s.deps.Validator != nil {
		if err := s.deps.Validator.Validate(s.schema, item); err != nil {
			return nil, err
		}
	}
	token, err := s.deps.token()
	if err != nil {
		return nil, err
	}

	var created T
	if err := s.deps.HTTP.JSON(ctx, crmhttp.Request{
		Method: http.MethodPost,
		Path:   s.path("create"),
		Token:  token,
		Body:   item,
	}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *SubResource[T]) Edit(ctx context.Context, id int64, item T) (*T, error) {
	token, err := s.deps.token()
	if err != nil {
		return nil, err
	}

	var saved T
	if err := s.deps.HTTP.JSON(ctx, crmhttp.Request{
		Method: http.MethodPut,
		Path:   s.path("edit"),
		Query:  idQuery(strconv.FormatInt(id, 10)),
		Token:  token,
		Body:   item,
	}, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *SubResource[T]) Remove(ctx context.Context, id int64) error {
	token, err := s.deps.token()
	if err != nil {
		return err
	}
	if _, err := s.deps.HTTP.Send(ctx, crmhttp.Request{
		Method: http.MethodDelete,
		Path:   s.path("deleteById"),
		Query:  idQuery(strconv.FormatInt(id, 10)),
		Token:  token,
	}); err != nil {
		return err
	}
	s.deps.record(ctx, s.logger, audit.Entry{
		Action:       audit.ActionDelete,
		ResourceType: strings.TrimPrefix(s.base, "/"),
		ResourceID:   strconv.FormatInt(id, 10),
		Outcome:      "success",
	})
	return nil
}
