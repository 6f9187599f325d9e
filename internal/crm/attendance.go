// internal/crm/attendance.go
package crm

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"fieldsales-console/internal/audit"
	apperrors "fieldsales-console/internal/common/errors"
	crmhttp "fieldsales-console/internal/common/http"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
)

const (
	attendanceRangePath = "/attendance/getForRange"
	allowanceGetPath    = "/allowance/getAll"
	allowanceUpdatePath = "/allowance/update"
	allowanceResetPath  = "/allowance/reset"
)

// Attendance reads the daily field log.
type Attendance struct {
	deps Deps
}

func NewAttendance(deps Deps) *Attendance {
	return &Attendance{deps: deps}
}

// Range lists attendance between from and to inclusive.
func (a *Attendance) Range(ctx context.Context, from, to time.Time) ([]models.Attendance, error) {
	token, err := a.deps.token()
	if err != nil {
		return nil, err
	}
	res, err := a.fetch(ctx, token, listing.DateRange{From: from, To: to})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (a *Attendance) fetch(ctx context.Context, token string, r listing.DateRange) (listing.Result[models.Attendance], error) {
	if r.From.IsZero() || r.To.IsZero() {
		return listing.Result[models.Attendance]{}, apperrors.NewValidationError("attendance needs a date range",
			map[string]string{"startDate": "required", "endDate": "required"})
	}
	if r.To.Before(r.From) {
		return listing.Result[models.Attendance]{}, apperrors.NewValidationError("end date is before start date",
			map[string]string{"endDate": "before startDate"})
	}

	body, err := a.deps.HTTP.Send(ctx, crmhttp.Request{
		Method: http.MethodGet,
		Path:   attendanceRangePath,
		Query: url.Values{
			"startDate": {r.From.Format(listing.DateLayout)},
			"endDate":   {r.To.Format(listing.DateLayout)},
		},
		Token: token,
	})
	if err != nil {
		return listing.Result[models.Attendance]{}, err
	}
	return listing.Normalize[models.Attendance](body)
}

// Fetcher serves a client-side attendance list for the query's date range.
func (a *Attendance) Fetcher() listing.Fetcher[models.Attendance] {
	return func(ctx context.Context, token string, q listing.Query) (listing.Result[models.Attendance], error) {
		return a.fetch(ctx, token, q.Range)
	}
}

// Allowances holds the salary settings page.
type Allowances struct {
	deps   Deps
	logger logger.Logger
}

func NewAllowances(deps Deps) *Allowances {
	return &Allowances{deps: deps, logger: logger.Component(deps.Logger, "crm").WithFields(map[string]interface{}{"resource": "allowance"})}
}

func (a *Allowances) Get(ctx context.Context) ([]models.Allowance, error) {
	token, err := a.deps.token()
	if err != nil {
		return nil, err
	}
	body, err := a.deps.HTTP.Send(ctx, crmhttp.Request{Method: http.MethodGet, Path: allowanceGetPath, Token: token})
	if err != nil {
		return nil, err
	}
	res, err := listing.Normalize[models.Allowance](body)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (a *Allowances) Update(ctx context.Context, allowance models.Allowance) (*models.Allowance, error) {
	if allowance.TravelAllowance < 0 || allowance.DearnessAllowance < 0 || allowance.FullMonthSalary < 0 ||
		allowance.CarRatePerKm < 0 || allowance.BikeRatePerKm < 0 {
		return nil, apperrors.NewValidationError("allowances cannot be negative", nil)
	}
	token, err := a.deps.token()
	if err != nil {
		return nil, err
	}

	var saved models.Allowance
	if err := a.deps.HTTP.JSON(ctx, crmhttp.Request{
		Method: http.MethodPut,
		Path:   allowanceUpdatePath,
		Token:  token,
		Body:   allowance,
	}, &saved); err != nil {
		return nil, err
	}
	a.audit(ctx, "update", allowance)
	return &saved, nil
}

// Reset zeroes the settings for one role.
func (a *Allowances) Reset(ctx context.Context, role models.Role) error {
	if role == "" {
		return apperrors.NewValidationError("role is required", map[string]string{"role": "required"})
	}
	token, err := a.deps.token()
	if err != nil {
		return err
	}
	if _, err := a.deps.HTTP.Send(ctx, crmhttp.Request{
		Method: http.MethodPut,
		Path:   allowanceResetPath,
		Query:  url.Values{"role": {string(role)}},
		Token:  token,
	}); err != nil {
		return err
	}
	a.audit(ctx, "reset", models.Allowance{Role: string(role)})
	return nil
}

func (a *Allowances) audit(ctx context.Context, op string, allowance models.Allowance) {
	a.logger.Info("allowance changed", map[string]interface{}{"operation": op, "role": allowance.Role})
	a.deps.record(ctx, a.logger, audit.Entry{
		Action:       audit.ActionUpdate,
		ResourceType: "allowance",
		ResourceID:   allowance.Role,
		Outcome:      "success",
		Details:      map[string]interface{}{"operation": op},
	})
}
