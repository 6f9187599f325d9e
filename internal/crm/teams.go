// internal/crm/teams.go
package crm

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"fieldsales-console/internal/audit"
	apperrors "fieldsales-console/internal/common/errors"
	crmhttp "fieldsales-console/internal/common/http"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/common/validation"
	"fieldsales-console/internal/models"
)

const (
	teamCreatePath = "/employee/team/create"
	teamGetAllPath = "/employee/team/getAll"
	teamDeletePath = "/employee/team/delete"
	teamAddPath    = "/employee/team/addFieldOfficer"
	teamRemovePath = "/employee/team/removeFieldOfficer"
	teamResource   = "team"
	teamOpAdd      = "add"
	teamOpRemove   = "remove"
)

// TeamRequest is the create payload: the manager and officers by employee id.
type TeamRequest struct {
	OfficeManager int64   `json:"officeManager"`
	FieldOfficers []int64 `json:"fieldOfficers,omitempty"`
	City          string  `json:"city"`
}

type membershipRequest struct {
	ID            int64   `json:"id"`
	FieldOfficers []int64 `json:"fieldOfficers"`
}

// Teams manages office-manager teams. Membership changes go through
// dedicated add/remove calls rather than an edit of the whole team.
type Teams struct {
	deps   Deps
	logger logger.Logger
}

func NewTeams(deps Deps) *Teams {
	return &Teams{deps: deps, logger: logger.Component(deps.Logger, "crm").WithFields(map[string]interface{}{"resource": teamResource})}
}

func (t *Teams) Create(ctx context.Context, req TeamRequest) (*models.Team, error) {
	if t.deps.Validator != nil {
		if err := t.deps.Validator.Validate(validation.SchemaTeam, req); err != nil {
			return nil, err
		}
	}
	token, err := t.deps.token()
	if err != nil {
		return nil, err
	}

	var team models.Team
	if err := t.deps.HTTP.JSON(ctx, crmhttp.Request{
		Method: http.MethodPost,
		Path:   teamCreatePath,
		Token:  token,
		Body:   req,
	}, &team); err != nil {
		return nil, err
	}
	t.logger.Info("team created", map[string]interface{}{"city": req.City, "officeManager": req.OfficeManager})
	return &team, nil
}

func (t *Teams) GetAll(ctx context.Context) ([]models.Team, error) {
	token, err := t.deps.token()
	if err != nil {
		return nil, err
	}
	var teams []models.Team
	if err := t.deps.HTTP.JSON(ctx, crmhttp.Request{
		Method: http.MethodGet,
		Path:   teamGetAllPath,
		Token:  token,
	}, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (t *Teams) Delete(ctx context.Context, id int64) error {
	token, err := t.deps.token()
	if err != nil {
		return err
	}
	if _, err := t.deps.HTTP.Send(ctx, crmhttp.Request{
		Method: http.MethodDelete,
		Path:   teamDeletePath,
		Query:  url.Values{"id": {strconv.FormatInt(id, 10)}},
		Token:  token,
	}); err != nil {
		return err
	}
	t.deps.record(ctx, t.logger, audit.Entry{
		Action:       audit.ActionDelete,
		ResourceType: teamResource,
		ResourceID:   strconv.FormatInt(id, 10),
		Outcome:      "success",
	})
	return nil
}

// AddFieldOfficers puts employees into team id.
func (t *Teams) AddFieldOfficers(ctx context.Context, id int64, employeeIDs ...int64) error {
	return t.membership(ctx, teamOpAdd, teamAddPath, id, employeeIDs)
}

// RemoveFieldOfficers takes employees out of team id.
func (t *Teams) RemoveFieldOfficers(ctx context.Context, id int64, employeeIDs ...int64) error {
	return t.membership(ctx, teamOpRemove, teamRemovePath, id, employeeIDs)
}

func (t *Teams) membership(ctx context.Context, op, path string, id int64, employeeIDs []int64) error {
	if len(employeeIDs) == 0 {
		return apperrors.NewValidationError("no field officers given", map[string]string{"fieldOfficers": "required"})
	}
	token, err := t.deps.token()
	if err != nil {
		return err
	}

	_, err = t.deps.HTTP.Send(ctx, crmhttp.Request{
		Method: http.MethodPut,
		Path:   path,
		Token:  token,
		Body:   membershipRequest{ID: id, FieldOfficers: employeeIDs},
	})

	outcome := "success"
	if err != nil {
		outcome = "failed"
	}
	t.deps.record(ctx, t.logger, audit.Entry{
		Action:       audit.ActionUpdate,
		ResourceType: teamResource,
		ResourceID:   strconv.FormatInt(id, 10),
		Outcome:      outcome,
		Details:      map[string]interface{}{"operation": op, "fieldOfficers": employeeIDs},
	})
	return err
}
