// internal/crm/visits.go
package crm

import (
	"context"
	"net/url"
	"strconv"

	"fieldsales-console/internal/common/validation"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/visits"
)

const (
	visitDateRangePath = "/visit/getByDateRange"
	visitTeamPath      = "/visit/getByTeamAndDate"
	visitStorePath     = "/visit/getByStore"

	// statusSelector is derived on the client; the visit queries take no
	// status parameter.
	statusSelector = "status"
)

func visitParams(q listing.Query) url.Values {
	params := q.Params()
	params.Del(statusSelector)
	return params
}

// Visits is the visit service. Admins query by date range; managers query
// their team.
type Visits struct {
	*Resource[models.Visit]
}

func NewVisits(deps Deps) *Visits {
	return &Visits{Resource: NewResource[models.Visit](deps, "/visit", validation.SchemaVisit)}
}

// DateRangePage fetches one page of the admin-scoped query.
func (v *Visits) DateRangePage(ctx context.Context, token string, q listing.Query) (models.Page[models.Visit], error) {
	return fetchPage[models.Visit](ctx, v.deps, token, visitDateRangePath, visitParams(q))
}

// TeamPage fetches one page of the manager-scoped query.
func (v *Visits) TeamPage(ctx context.Context, token string, teamID int64, q listing.Query) (models.Page[models.Visit], error) {
	params := visitParams(q)
	params.Set("teamId", strconv.FormatInt(teamID, 10))
	return fetchPage[models.Visit](ctx, v.deps, token, visitTeamPath, params)
}

// ScopedPage picks the team query for managers and the date range query for
// everyone else.
func (v *Visits) ScopedPage(ctx context.Context, token string, q listing.Query) (models.Page[models.Visit], error) {
	if v.deps.Credentials.Role() == models.RoleManager && v.deps.Credentials.TeamID() != 0 {
		return v.TeamPage(ctx, token, v.deps.Credentials.TeamID(), q)
	}
	return v.DateRangePage(ctx, token, q)
}

// PagedFetcher serves the server-side visit list. The status selector is
// applied to the returned page, since status is derived, not stored.
// TotalCount stays the backend's unfiltered total.
func (v *Visits) PagedFetcher() listing.Fetcher[models.Visit] {
	return func(ctx context.Context, token string, q listing.Query) (listing.Result[models.Visit], error) {
		p, err := v.ScopedPage(ctx, token, q)
		if err != nil {
			return listing.Result[models.Visit]{}, err
		}
		res := listing.FromPage(p)
		if want, ok := visits.Parse(q.Selectors[statusSelector]); ok {
			res.Items = visits.Filter(res.Items, want)
		}
		return res, nil
	}
}

// ByStore lists a store's visits for its detail page.
func (v *Visits) ByStore(ctx context.Context, storeID int64) ([]models.Visit, error) {
	token, err := v.token()
	if err != nil {
		return nil, err
	}
	res, err := v.list(ctx, token, visitStorePath, url.Values{"id": {strconv.FormatInt(storeID, 10)}})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Status derives the display status of the visit with id.
func (v *Visits) Status(ctx context.Context, id string) (*models.Visit, visits.Status, error) {
	visit, err := v.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return visit, visits.Of(*visit), nil
}
