// internal/session/store.go
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"fieldsales-console/internal/audit"
	"fieldsales-console/internal/common/auth"
	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/common/metrics"
	"fieldsales-console/internal/models"
)

// ErrNoToken is returned by operations that need an authenticated session.
var ErrNoToken = errors.New("session has no token")

// AuthAPI is the slice of the backend the store drives.
type AuthAPI interface {
	Token(ctx context.Context, username, password string) (string, error)
	CurrentAdmin(ctx context.Context, token string) (*auth.AdminProfile, error)
	LookupUser(ctx context.Context, token, username string) (*auth.UserProfile, error)
	LookupTeam(ctx context.Context, token string, employeeID int64) (*auth.TeamMembership, error)
	Logout(ctx context.Context, token string) error
	Register(ctx context.Context, token string, req auth.RegisterRequest) error
}

// Credentials is the read-only view other components get of the session.
type Credentials interface {
	Token() string
	Username() string
	Role() models.Role
	EmployeeID() int64
	TeamID() int64
	IsAdmin() bool
}

// Observer receives login outcomes, typically an otel meter.
type Observer interface {
	RecordLogin(ctx context.Context, succeeded bool)
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	Role            models.Role
	EmployeeID      int64
}

// Store owns the session state machine. Every operation moves the status
// through loading before settling on succeeded or failed.
type Store struct {
	mu        sync.RWMutex
	state     models.Session
	listeners []func(models.Session)

	api      AuthAPI
	storage  Storage
	logger   logger.Logger
	audit    audit.Recorder
	observer Observer
}

type Option func(*Store)

func WithAudit(r audit.Recorder) Option {
	return func(s *Store) { s.audit = r }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

func NewStore(api AuthAPI, storage Storage, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		state:   models.EmptySession(),
		api:     api,
		storage: storage,
		logger:  logger.Component(log, "session"),
		audit:   audit.NoOp{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for every state transition.
func (s *Store) Subscribe(fn func(models.Session)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Token() string { return s.Snapshot().Token }
func (s *Store) Username() string { return s.Snapshot().Username }
func (s *Store) Role() models.Role { return s.Snapshot().Role }
func (s *Store) EmployeeID() int64 { return s.Snapshot().EmployeeID }
func (s *Store) TeamID() int64 { return s.Snapshot().TeamID }
func (s *Store) IsAdmin() bool { return s.Snapshot().IsAdmin }
func (s *Store) Storage() Storage { return s.storage }

func (s *Store) transition(mutate func(*models.Session)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state
	listeners := append([]func(models.Session){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (s *Store) setLoading() {
	s.transition(func(st *models.Session) {
		st.Status = models.StatusLoading
		st.Error = ""
	})
}

func (s *Store) fail(operation string, err error) error {
	s.transition(func(st *models.Session) {
		st.Status = models.StatusFailed
		st.Error = errorMessage(err)
	})
	metrics.SessionTransitions.WithLabelValues(operation, string(models.StatusFailed)).Inc()
	return err
}

// Login authenticates against the backend and commits the resolved identity.
// On failure the session is reset to the empty state with status failed and
// durable storage is cleared, so a previous identity never survives.
func (s *Store) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	s.setLoading()

	next, err := s.authenticate(ctx, username, password)
	if err != nil {
		if clearErr := s.storage.Clear(ctx); clearErr != nil {
			s.logger.Warn("failed to clear stored token after login failure", map[string]interface{}{
				"error": clearErr,
			})
		}
		s.logger.Warn("login failed", map[string]interface{}{
			"username": username,
			"error":    err,
		})
		s.recordLogin(ctx, username, false)
		s.transition(func(st *models.Session) {
			*st = models.EmptySession()
			st.Status = models.StatusFailed
			st.Error = errorMessage(err)
		})
		metrics.SessionTransitions.WithLabelValues("login", string(models.StatusFailed)).Inc()
		return err
	}

	s.transition(func(st *models.Session) { *st = next })
	metrics.SessionTransitions.WithLabelValues("login", string(models.StatusSucceeded)).Inc()

	s.logger.Info("login succeeded", map[string]interface{}{
		"username": next.Username,
		"role":     next.Role,
		"isAdmin":  next.IsAdmin,
		"teamId":   next.TeamID,
	})
	s.recordLogin(ctx, next.Username, true)
	return nil
}

func (s *Store) authenticate(ctx context.Context, username, password string) (models.Session, error) {
	next := models.Session{Username: username, Status: models.StatusSucceeded}

	// The teamId key belongs to the previous identity until proven otherwise.
	if err := s.storage.Clear(ctx); err != nil {
		return next, err
	}

	token, err := s.api.Token(ctx, username, password)
	if err != nil {
		return next, err
	}
	if err := s.storage.SaveToken(ctx, token); err != nil {
		return next, err
	}
	next.Token = token

	admin, adminErr := s.api.CurrentAdmin(ctx, token)
	if adminErr == nil {
		next.IsAdmin = true
		next.Role = admin.Role()
		if admin.Username != "" {
			next.Username = admin.Username
		}
	} else {
		s.logger.Debug("admin lookup rejected, falling back to user lookup", map[string]interface{}{
			"username": username,
			"error":    adminErr,
		})
		if err := s.lookupUser(ctx, &next); err != nil {
			return next, err
		}
	}

	if next.Role == models.RoleManager {
		if next.EmployeeID == 0 {
			if err := s.lookupUser(ctx, &next); err != nil {
				return next, err
			}
		}
		team, err := s.api.LookupTeam(ctx, token, next.EmployeeID)
		if err != nil {
			return next, err
		}
		next.TeamID = team.TeamID
		next.OfficeManagerID = team.OfficeManagerID
		if err := s.storage.SaveTeamID(ctx, team.TeamID); err != nil {
			return next, err
		}
	}

	return next, nil
}

func (s *Store) lookupUser(ctx context.Context, next *models.Session) error {
	user, err := s.api.LookupUser(ctx, next.Token, next.Username)
	if err != nil {
		return err
	}
	next.EmployeeID = user.ID
	if next.Role == "" {
		next.Role = models.RoleFromAuthority(user.Role)
	}
	return nil
}

// Logout notifies the backend, then always clears storage and resets to the
// empty session. The backend's answer is only logged.
func (s *Store) Logout(ctx context.Context) error {
	current := s.Snapshot()
	s.setLoading()

	if current.Token != "" {
		if err := s.api.Logout(ctx, current.Token); err != nil {
			s.logger.Warn("logout call failed", map[string]interface{}{
				"username": current.Username,
				"error":    err,
			})
		}
	}

	clearErr := s.storage.Clear(ctx)
	s.transition(func(st *models.Session) { *st = models.EmptySession() })
	metrics.SessionTransitions.WithLabelValues("logout", string(models.StatusIdle)).Inc()

	s.logger.Info("logged out", map[string]interface{}{
		"username": current.Username,
	})
	s.writeAudit(ctx, audit.Entry{Action: audit.ActionLogout, Actor: current.Username, Outcome: "success"})

	return clearErr
}

// Register creates a login. The confirmation is checked before any network
// call.
func (s *Store) Register(ctx context.Context, in RegisterInput) error {
	if err := in.validate(); err != nil {
		s.logger.Warn("registration rejected", map[string]interface{}{
			"username": in.Username,
			"error":    err,
		})
		return err
	}

	s.setLoading()
	err := s.api.Register(ctx, s.Token(), auth.RegisterRequest{
		Username:   in.Username,
		Password:   in.Password,
		Role:       string(in.Role),
		EmployeeID: in.EmployeeID,
	})
	if err != nil {
		return s.fail("register", err)
	}

	s.transition(func(st *models.Session) { st.Status = models.StatusSucceeded })
	metrics.SessionTransitions.WithLabelValues("register", string(models.StatusSucceeded)).Inc()
	s.logger.Info("user registered", map[string]interface{}{
		"username": strings.TrimSpace(in.Username),
		"role":     in.Role,
	})
	return nil
}

func (in RegisterInput) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Username) == "" {
		fields["username"] = "required"
	}
	if in.Password == "" {
		fields["password"] = "required"
	}
	if in.Password != in.ConfirmPassword {
		fields["confirmPassword"] = "does not match password"
	}
	if len(fields) == 0 {
		return nil
	}
	if _, mismatch := fields["confirmPassword"]; mismatch && len(fields) == 1 {
		return apperrors.NewValidationError("passwords do not match", fields)
	}
	return apperrors.NewValidationError("registration form is incomplete", fields)
}

// Adopt installs a token recovered from durable storage. Username and role
// are read from the token's claims when it is a JWT.
func (s *Store) Adopt(token string, teamID int64) {
	identity := auth.IdentityFromToken(token)
	s.transition(func(st *models.Session) {
		st.Token = token
		st.TeamID = teamID
		st.Status = models.StatusSucceeded
		st.Error = ""
		if identity.Username != "" {
			st.Username = identity.Username
		}
		if identity.Role != "" {
			st.Role = models.RoleFromAuthority(identity.Role)
			st.IsAdmin = st.Role == models.RoleAdmin
		}
	})
	s.logger.Debug("session rehydrated", map[string]interface{}{
		"username": identity.Username,
		"teamId":   teamID,
	})
}

// RequireToken returns the current token or ErrNoToken.
func RequireToken(c Credentials) (string, error) {
	token := c.Token()
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (s *Store) recordLogin(ctx context.Context, username string, succeeded bool) {
	if s.observer != nil {
		s.observer.RecordLogin(ctx, succeeded)
	}
	outcome := "success"
	if !succeeded {
		outcome = "failed"
	}
	s.writeAudit(ctx, audit.Entry{Action: audit.ActionLogin, Actor: username, Outcome: outcome})
}

func (s *Store) writeAudit(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", map[string]interface{}{
			"action": entry.Action,
			"error":  err,
		})
	}
}

func errorMessage(err error) string {
	if stdErr, ok := apperrors.AsStandard(err); ok && stdErr.Message != "" {
		return stdErr.Message
	}
	return err.Error()
}
