// internal/crm/employees.go
package crm

import (
	"context"
	"net/http"
	"net/url"

	"fieldsales-console/internal/audit"
	apperrors "fieldsales-console/internal/common/errors"
	crmhttp "fieldsales-console/internal/common/http"
	"fieldsales-console/internal/common/validation"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/notify"
)

const (
	userDeletePath = "/user/manage/delete"
	userUpdatePath = "/user/manage/update"
)

// Employees is the employee service. Login credentials live behind the
// user-management API and are kept in step with the employee record.
type Employees struct {
	*Resource[models.Employee]
}

func NewEmployees(deps Deps) *Employees {
	return &Employees{Resource: NewResource[models.Employee](deps, "/employee", validation.SchemaEmployee)}
}

// Delete removes the employee and then the credentials for username. The two
// calls are independent; when the second fails the first is not undone and a
// PARTIAL_FAILURE error is returned.
func (e *Employees) Delete(ctx context.Context, id, username string) error {
	token, err := e.token()
	if err != nil {
		return err
	}
	if err := e.deleteWith(ctx, token, id); err != nil {
		return err
	}
	if username == "" {
		return nil
	}

	_, err = e.deps.HTTP.Send(ctx, crmhttp.Request{
		Method: http.MethodDelete,
		Path:   userDeletePath,
		Query:  url.Values{"username": {username}},
		Token:  token,
	})
	if err == nil {
		return nil
	}

	partial := apperrors.NewPartialFailureError("employee delete", "credential delete", err)
	e.logger.Error("employee credentials left behind", map[string]interface{}{
		"id":       id,
		"username": username,
		"error":    err.Error(),
	})
	e.deps.record(ctx, e.logger, audit.Entry{
		Action:       audit.ActionDelete,
		ResourceType: "user",
		ResourceID:   username,
		Outcome:      "partial",
		Details:      map[string]interface{}{"employeeId": id},
	})
	notify.Dispatch(ctx, e.deps.Notifier, e.logger, notify.Event{
		Kind:    notify.EventPartialFailure,
		Subject: "Employee credentials not deleted",
		Body:    partial.Message,
		Attributes: map[string]string{
			"employeeId": id,
			"username":   username,
		},
	})
	return partial
}

// UpdateCredentials changes the login pair of an employee.
func (e *Employees) UpdateCredentials(ctx context.Context, creds models.UserDto) error {
	if creds.Username == "" {
		return apperrors.NewValidationError("username is required", map[string]string{"username": "required"})
	}
	token, err := e.token()
	if err != nil {
		return err
	}
	if _, err := e.deps.HTTP.Send(ctx, crmhttp.Request{
		Method: http.MethodPut,
		Path:   userUpdatePath,
		Token:  token,
		Body:   creds,
	}); err != nil {
		return err
	}

	e.deps.record(ctx, e.logger, audit.Entry{
		Action:       audit.ActionUpdate,
		ResourceType: "user",
		ResourceID:   creds.Username,
		Outcome:      "success",
	})
	return nil
}
