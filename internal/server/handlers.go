package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/export"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/search"
	"fieldsales-console/internal/visits"

	"github.com/gorilla/mux"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type visitResponse struct {
	Visit  *models.Visit `json:"visit"`
	Status visits.Status `json:"status"`
}

func (s *Server) getSession(w http.ResponseWriter, _ *http.Request) {
	snap := s.deps.Store.Snapshot()
	snap.Token = ""
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	view, err := s.deps.Shell.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		status := statusOf(err)
		writeRawJSON(w, status, apiResponse{
			Status:  "error",
			Message: view.Error,
			Data:    view,
			Error: &apiError{
				Code:   status,
				Status: http.StatusText(status),
				Reason: string(apperrors.CodeOf(err)),
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Shell.Logout(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) nav(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Shell.View())
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	writeJSON(w, http.StatusOK, s.deps.Shell.Resolve(path))
}

func (s *Server) getVisit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		writeError(w, http.StatusBadRequest, "visit id must be numeric")
		return
	}

	visit, status, err := s.deps.Visits.Status(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visitResponse{Visit: visit, Status: status})
}

// exportVisits writes visits.csv into a per-request directory and streams it
// back. Managers get their team's visits walked page by page; everyone else
// gets one large date range page.
func (s *Server) exportVisits(w http.ResponseWriter, r *http.Request) {
	q, err := exportQuery(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	token := s.deps.Store.Token()
	teamScoped := s.deps.Store.Role() == models.RoleManager && s.deps.Store.TeamID() != 0

	fetch := func(ctx context.Context, q listing.Query) (models.Page[models.Visit], error) {
		return s.deps.Visits.ScopedPage(ctx, token, q)
	}
	job := export.VisitsJob(fetch, q, keysOf(r), teamScoped)
	dir, cleanup, err := s.deps.Exporter.Scratch()
	if err != nil {
		writeErr(w, apperrors.NewExportFailedError(job.Format, err))
		return
	}
	defer cleanup()
	job.Dir = dir

	res, err := export.Run(r.Context(), s.deps.Exporter, job)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.serveFile(w, r, res, "text/csv")
}

func (s *Server) exportCustomers(w http.ResponseWriter, r *http.Request) {
	job := export.CustomersJob(s.deps.Stores.GetAll, keysOf(r))
	dir, cleanup, err := s.deps.Exporter.Scratch()
	if err != nil {
		writeErr(w, apperrors.NewExportFailedError(job.Format, err))
		return
	}
	defer cleanup()
	job.Dir = dir

	res, err := export.Run(r.Context(), s.deps.Exporter, job)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.serveFile(w, r, res, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, res export.Result, contentType string) {
	f, err := os.Open(res.Path)
	if err != nil {
		writeErr(w, apperrors.NewExportFailedError(res.Format, err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeErr(w, apperrors.NewExportFailedError(res.Format, err))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(res.Path)+`"`)
	w.Header().Set("X-Export-Rows", strconv.Itoa(res.Rows))
	http.ServeContent(w, r, filepath.Base(res.Path), info.ModTime(), f)
}

func (s *Server) searchStores(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := search.Query{
		Text:       v.Get("q"),
		City:       v.Get("city"),
		ClientType: v.Get("clientType"),
	}
	if n, err := strconv.Atoi(v.Get("from")); err == nil {
		q.From = n
	}
	if n, err := strconv.Atoi(v.Get("size")); err == nil {
		q.Size = n
	}

	res, err := s.deps.Search.Search(r.Context(), q)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// keysOf reads the selected columns from repeated or comma-joined keys
// parameters.
func keysOf(r *http.Request) []string {
	var keys []string
	for _, raw := range r.URL.Query()["keys"] {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func exportQuery(r *http.Request) (listing.Query, error) {
	v := r.URL.Query()
	var q listing.Query
	var err error
	if q.Range.From, err = queryDate(v.Get("startDate"), "startDate"); err != nil {
		return q, err
	}
	if q.Range.To, err = queryDate(v.Get("endDate"), "endDate"); err != nil {
		return q, err
	}
	if !q.Range.From.IsZero() && !q.Range.To.IsZero() && q.Range.To.Before(q.Range.From) {
		return q, apperrors.NewValidationError("endDate is before startDate", nil)
	}
	if n, err := strconv.Atoi(v.Get("size")); err == nil && n > 0 {
		q.Size = n
	}
	return q, nil
}

func queryDate(raw, param string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, ok := listing.ParseDate(raw)
	if !ok {
		return time.Time{}, apperrors.NewValidationError("invalid date", map[string]string{param: raw})
	}
	return t, nil
}
