// internal/crm/resource.go
package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"fieldsales-console/internal/audit"
	apperrors "fieldsales-console/internal/common/errors"
	crmhttp "fieldsales-console/internal/common/http"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/common/validation"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/notify"
	"fieldsales-console/internal/session"
)

// Deps is what every entity service needs.
type Deps struct {
	HTTP        *crmhttp.Client
	Credentials session.Credentials
	Validator   *validation.Validator
	Audit       audit.Recorder
	Notifier    notify.Notifier
	Logger      logger.Logger
}

func (d Deps) token() (string, error) {
	if d.Credentials == nil {
		return "", session.ErrNoToken
	}
	return session.RequireToken(d.Credentials)
}

func (d Deps) record(ctx context.Context, log logger.Logger, entry audit.Entry) {
	if d.Audit == nil {
		return
	}
	if entry.Actor == "" && d.Credentials != nil {
		entry.Actor = d.Credentials.Username()
	}
	if err := d.Audit.Record(ctx, entry); err != nil {
		log.Warn("audit record failed", map[string]interface{}{
			"action": entry.Action,
			"error":  err,
		})
	}
}

// Resource is the verb-per-operation CRUD contract the backend exposes for
// each entity: <base>/create, getAll, getById, edit and deleteById, with ids
// passed as the "id" query parameter.
type Resource[T any] struct {
	deps   Deps
	base   string
	schema string
	logger logger.Logger
}

// NewResource binds base (for example "/store") to T. schema names the JSON
// schema create payloads are checked against; empty skips the check.
func NewResource[T any](deps Deps, base, schema string) *Resource[T] {
	return &Resource[T]{
		deps:   deps,
		base:   "/" + strings.Trim(base, "/"),
		schema: schema,
		logger: logger.Component(deps.Logger, "crm").WithFields(map[string]interface{}{"resource": strings.Trim(base, "/")}),
	}
}

func (r *Resource[T]) path(op string) string {
	return r.base + "/" + op
}

func (r *Resource[T]) token() (string, error) {
	return r.deps.token()
}

func idQuery(id string) url.Values {
	return url.Values{"id": {id}}
}

// Create validates item and posts it. The backend's echo of the created
// record is returned.
func (r *Resource[T]) Create(ctx context.Context, item T) (*T, error) {
	if r.schema != "" && r.deps.Validator != nil {
		if err := r.deps.Validator.Validate(r.schema, item); err != nil {
			return nil, err
		}
	}
	token, err := r.token()
	if err != nil {
		return nil, err
	}

	var created T
	if err := r.deps.HTTP.JSON(ctx, crmhttp.Request{
		Method: http.MethodPost,
		Path:   r.path("create"),
		Token:  token,
		Body:   item,
	}, &created); err != nil {
		return nil, err
	}

	r.logger.Info("created", nil)
	return &created, nil
}

// GetAll returns the full collection. Paged and bare-array responses are
// both accepted.
func (r *Resource[T]) GetAll(ctx context.Context) ([]T, error) {
	token, err := r.token()
	if err != nil {
		return nil, err
	}
	res, err := r.list(ctx, token, r.path("getAll"), nil)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (r *Resource[T]) list(ctx context.Context, token, path string, query url.Values) (listing.Result[T], error) {
	body, err := r.deps.HTTP.Send(ctx, crmhttp.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
		Token:  token,
	})
	if err != nil {
		return listing.Result[T]{}, err
	}
	return listing.Normalize[T](body)
}

func (r *Resource[T]) GetByID(ctx context.Context, id string) (*T, error) {
	token, err := r.token()
	if err != nil {
		return nil, err
	}

	var item T
	if err := r.deps.HTTP.JSON(ctx, crmhttp.Request{
		Method: http.MethodGet,
		Path:   r.path("getById"),
		Query:  idQuery(id),
		Token:  token,
	}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Edit replaces the whole record with id.
func (r *Resource[T]) Edit(ctx context.Context, id string, item T) (*T, error) {
	token, err := r.token()
	if err != nil {
		return nil, err
	}

	var saved T
	if err := r.deps.HTTP.JSON(ctx, crmhttp.Request{
		Method: http.MethodPut,
		Path:   r.path("edit"),
		Query:  idQuery(id),
		Token:  token,
		Body:   item,
	}, &saved); err != nil {
		return nil, err
	}

	r.logger.Info("edited", map[string]interface{}{"id": id})
	return &saved, nil
}

func (r *Resource[T]) DeleteByID(ctx context.Context, id string) error {
	token, err := r.token()
	if err != nil {
		return err
	}
	return r.deleteWith(ctx, token, id)
}

func (r *Resource[T]) deleteWith(ctx context.Context, token, id string) error {
	if _, err := r.deps.HTTP.Send(ctx, crmhttp.Request{
		Method: http.MethodDelete,
		Path:   r.path("deleteById"),
		Query:  idQuery(id),
		Token:  token,
	}); err != nil {
		return err
	}
	r.logger.Info("deleted", map[string]interface{}{"id": id})
	r.deps.record(ctx, r.logger, audit.Entry{
		Action:       audit.ActionDelete,
		ResourceType: strings.TrimPrefix(r.base, "/"),
		ResourceID:   id,
		Outcome:      "success",
	})
	return nil
}

// Fetcher serves a client-side list page from getAll.
func (r *Resource[T]) Fetcher() listing.Fetcher[T] {
	return func(ctx context.Context, token string, _ listing.Query) (listing.Result[T], error) {
		return r.list(ctx, token, r.path("getAll"), nil)
	}
}

// Deleter adapts DeleteByID for a list controller.
func (r *Resource[T]) Deleter() listing.Deleter {
	return func(ctx context.Context, token, id string) error {
		return r.deleteWith(ctx, token, id)
	}
}

// fetchPage fetches one page envelope. A bare array is read as a single, last
// page.
func fetchPage[T any](ctx context.Context, deps Deps, token, path string, query url.Values) (models.Page[T], error) {
	body, err := deps.HTTP.Send(ctx, crmhttp.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
		Token:  token,
	})
	if err != nil {
		return models.Page[T]{}, err
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") || trimmed == "" || trimmed == "null" {
		res, err := listing.Normalize[T](body)
		if err != nil {
			return models.Page[T]{}, err
		}
		return models.Page[T]{Content: res.Items, TotalElements: res.TotalCount, TotalPages: 1, Last: true, First: true}, nil
	}

	var p models.Page[T]
	if err := json.Unmarshal(body, &p); err != nil {
		return models.Page[T]{}, apperrors.NewDecodeError("GET "+path, err)
	}
	return p, nil
}
