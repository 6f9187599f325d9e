// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/crm"
	"fieldsales-console/internal/export"
	"fieldsales-console/internal/search"
	"fieldsales-console/internal/session"
	"fieldsales-console/internal/shell"
	"fieldsales-console/pkg/columns"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is a dependency /readyz checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the console surface drives. Employees, Search and
// Checks are optional.
type Deps struct {
	Shell     *shell.Shell
	Store     *session.Store
	Visits    *crm.Visits
	Stores    *crm.Stores
	Employees *crm.Employees
	Exporter  *export.Exporter
	Search    *search.StoreIndex
	Registry  *columns.Registry
	Checks    map[string]Pinger
	Metrics   http.Handler
	Logger    logger.Logger
}

// Server is the local HTTP face of the console.
type Server struct {
	deps   Deps
	logger logger.Logger
	router *mux.Router
}

func New(d Deps) *Server {
	if d.Metrics == nil {
		d.Metrics = promhttp.Handler()
	}
	if d.Registry == nil {
		d.Registry = columns.Default()
	}
	s := &Server{
		deps:   d,
		logger: logger.Component(d.Logger, "server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.health).Methods("GET")
	r.HandleFunc("/readyz", s.ready).Methods("GET")
	r.Handle("/metrics", s.deps.Metrics).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session", s.getSession).Methods("GET")
	api.HandleFunc("/session/login", s.login).Methods("POST")
	api.HandleFunc("/session/logout", s.logout).Methods("POST")
	api.HandleFunc("/nav", s.nav).Methods("GET")
	api.HandleFunc("/resolve", s.resolve).Methods("GET")

	authed := api.NewRoute().Subrouter()
	authed.Use(s.requireToken)
	authed.HandleFunc("/visits/{id}", s.getVisit).Methods("GET")
	authed.HandleFunc("/exports/visits.csv", s.exportVisits).Methods("GET")
	authed.HandleFunc("/exports/customers.xlsx", s.exportCustomers).Methods("GET")
	authed.HandleFunc("/session/register", s.register).Methods("POST")
	authed.HandleFunc("/stores/reassign", s.reassignStores).Methods("POST")
	authed.HandleFunc("/stores/{id:[0-9]+}", s.editStore).Methods("PUT")
	authed.HandleFunc("/stores/{id:[0-9]+}", s.deleteStore).Methods("DELETE")
	authed.HandleFunc("/employees/{id:[0-9]+}", s.deleteEmployee).Methods("DELETE")
	if s.deps.Search != nil {
		authed.HandleFunc("/stores/search", s.searchStores).Methods("GET")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug("request served", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"requestId":  requestID,
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := session.RequireToken(s.deps.Store); err != nil {
			writeErr(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(s.deps.Checks))
	healthy := true
	for name, p := range s.deps.Checks {
		if err := p.Ping(ctx); err != nil {
			healthy = false
			results[name] = err.Error()
			s.logger.Warn("readiness check failed", map[string]interface{}{
				"check": name,
				"error": err.Error(),
			})
			continue
		}
		results[name] = "up"
	}

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, results)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
