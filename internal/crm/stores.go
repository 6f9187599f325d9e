// internal/crm/stores.go
package crm

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"fieldsales-console/internal/audit"
	apperrors "fieldsales-console/internal/common/errors"
	crmhttp "fieldsales-console/internal/common/http"
	"fieldsales-console/internal/common/validation"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
)

const (
	storeFilterPath   = "/store/filteredValues"
	storeByTeamPath   = "/store/getByTeam"
	storeReassignPath = "/store/bulkUpdateFieldOfficer"
)

// Stores is the customer service.
type Stores struct {
	*Resource[models.Store]
}

func NewStores(deps Deps) *Stores {
	return &Stores{Resource: NewResource[models.Store](deps, "/store", validation.SchemaStore)}
}

// Create checks the custom client type escape hatch on top of the schema.
// Coordinates are sent as given.
func (s *Stores) Create(ctx context.Context, store models.Store) (*models.Store, error) {
	if store.ClientType == models.ClientTypeCustom && store.CustomClientType == "" {
		return nil, apperrors.NewValidationError("custom client type is required",
			map[string]string{"customClientType": "required when clientType is custom"})
	}
	return s.Resource.Create(ctx, store)
}

// Filter runs the server-side filtered, paged query.
func (s *Stores) Filter(ctx context.Context, q listing.Query) (listing.Result[models.Store], error) {
	token, err := s.token()
	if err != nil {
		return listing.Result[models.Store]{}, err
	}
	return s.filter(ctx, token, q)
}

func (s *Stores) filter(ctx context.Context, token string, q listing.Query) (listing.Result[models.Store], error) {
	p, err := fetchPage[models.Store](ctx, s.deps, token, storeFilterPath, q.Params())
	if err != nil {
		return listing.Result[models.Store]{}, err
	}
	return listing.FromPage(p), nil
}

// FilterFetcher serves a server-side list page.
func (s *Stores) FilterFetcher() listing.Fetcher[models.Store] {
	return s.filter
}

// ByTeam lists the stores assigned to a team's field officers.
func (s *Stores) ByTeam(ctx context.Context, teamID int64) ([]models.Store, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	res, err := s.list(ctx, token, storeByTeamPath, url.Values{"id": {strconv.FormatInt(teamID, 10)}})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

type reassignRequest struct {
	StoreIDs       []int64 `json:"storeIds"`
	FieldOfficerID int64   `json:"fieldOfficerId"`
}

// Reassign returns a bulk action that moves the selected stores to another
// field officer.
func (s *Stores) Reassign(fieldOfficerID int64) listing.BulkAction {
	return func(ctx context.Context, token string, ids []string) error {
		storeIDs, err := parseIDs(ids)
		if err != nil {
			return err
		}

		_, err = s.deps.HTTP.Send(ctx, crmhttp.Request{
			Method: http.MethodPut,
			Path:   storeReassignPath,
			Token:  token,
			Body:   reassignRequest{StoreIDs: storeIDs, FieldOfficerID: fieldOfficerID},
		})

		outcome := "success"
		if err != nil {
			outcome = "failed"
		}
		s.deps.record(ctx, s.logger, audit.Entry{
			Action:       audit.ActionBulk,
			ResourceType: "store",
			Outcome:      outcome,
			Details: map[string]interface{}{
				"operation":      "reassign",
				"storeIds":       storeIDs,
				"fieldOfficerId": fieldOfficerID,
			},
		})
		return err
	}
}

func parseIDs(ids []string) ([]int64, error) {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid id "+strconv.Quote(id), map[string]string{"id": id})
		}
		out = append(out, n)
	}
	return out, nil
}
