package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/crm"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/session"

	"github.com/gorilla/mux"
)

type registerRequest struct {
	Username        string      `json:"username"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirmPassword"`
	Role            models.Role `json:"role"`
	EmployeeID      int64       `json:"employeeId"`
}

type reassignBody struct {
	StoreIDs       []int64 `json:"storeIds"`
	FieldOfficerID int64   `json:"fieldOfficerId"`
}

type listResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
}

// confirmed reads the delete confirmation from ?confirm=true.
func confirmed(r *http.Request) func(string) bool {
	return func(string) bool {
		ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
		return ok
	}
}

func (s *Server) storeList(r *http.Request) (*listing.Controller[models.Store], error) {
	entity, err := s.deps.Registry.Entity("stores")
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return listing.New(listing.Config[models.Store]{
		Entity:       entity,
		Fetch:        s.deps.Stores.FilterFetcher(),
		ID:           crm.StoreID,
		Row:          crm.StoreRow,
		Delete:       s.deps.Stores.Deleter(),
		Confirm:      confirmed(r),
		Mode:         listing.ServerSide,
		DeletePolicy: listing.Refetch,
		Debounce:     time.Millisecond,
		Credentials:  s.deps.Store,
		Logger:       s.logger,
	}), nil
}

// settle waits for the controller's fetches and writes the resulting page.
func settle[T any](ctx context.Context, w http.ResponseWriter, c *listing.Controller[T]) {
	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		writeErr(w, apperrors.NewNetworkError("list refresh", ctx.Err()))
		return
	}

	st := c.Snapshot()
	if st.Err != nil {
		writeErr(w, st.Err)
		return
	}
	items := st.Items
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, listResponse[T]{Items: items, TotalCount: st.TotalCount, Page: st.Query.Page})
}

// deleteStore deletes one store once the caller confirms and answers with the
// refetched first page of the store list.
func (s *Server) deleteStore(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := s.storeList(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer c.Close()

	if err := c.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	settle(r.Context(), w, c)
}

// reassignStores moves the selected stores to another field officer. The
// selection is cleared and the list refetched whatever the outcome.
func (s *Server) reassignStores(w http.ResponseWriter, r *http.Request) {
	var body reassignBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.FieldOfficerID <= 0 {
		writeErr(w, apperrors.NewValidationError("field officer is required",
			map[string]string{"fieldOfficerId": "required"}))
		return
	}

	c, err := s.storeList(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer c.Close()

	for _, id := range body.StoreIDs {
		c.Select(strconv.FormatInt(id, 10), true)
	}
	if err := c.Bulk(r.Context(), s.deps.Stores.Reassign(body.FieldOfficerID)); err != nil {
		c.Wait()
		writeErr(w, err)
		return
	}
	settle(r.Context(), w, c)
}

// editStore loads the store, applies the JSON body on top of it and saves
// the whole record. Fields the body leaves out keep their loaded values.
func (s *Server) editStore(w http.ResponseWriter, r *http.Request) {
	patch, err := readPatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	editor := crm.NewEditor[models.Store](s.deps.Stores, mux.Vars(r)["id"])
	if _, err := editor.Load(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	if err := editor.BeginEdit(); err != nil {
		writeErr(w, err)
		return
	}

	var decodeErr error
	if err := editor.Edit(func(st *models.Store) {
		decodeErr = json.Unmarshal(patch, st)
	}); err != nil {
		writeErr(w, err)
		return
	}
	if decodeErr != nil {
		editor.Cancel()
		writeError(w, http.StatusBadRequest, "invalid store fields")
		return
	}

	saved, err := editor.Save(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func readPatch(r *http.Request) (json.RawMessage, error) {
	var patch json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, err
	}
	// The id comes from the path.
	delete(fields, "id")
	return json.Marshal(fields)
}

// deleteEmployee removes the employee record and then its login. A failed
// second step answers with PARTIAL_FAILURE.
func (s *Server) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	if s.deps.Employees == nil {
		writeError(w, http.StatusNotFound, "no such route")
		return
	}
	if !confirmed(r)("") {
		writeErr(w, listing.ErrDeleteCancelled)
		return
	}
	id := mux.Vars(r)["id"]
	if err := s.deps.Employees.Delete(r.Context(), id, r.URL.Query().Get("username")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// register creates a login for an employee. Only admins may call it.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Store.IsAdmin() {
		writeError(w, http.StatusForbidden, "only admins can register users")
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.deps.Store.Register(r.Context(), session.RegisterInput{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
		EmployeeID:      req.EmployeeID,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}
