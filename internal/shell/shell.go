// internal/shell/shell.go
package shell

import (
	"context"

	"fieldsales-console/internal/common/auth"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/session"
)

// User is the identity line shown in the frame header.
type User struct {
	Username   string      `json:"username"`
	Role       models.Role `json:"role"`
	IsAdmin    bool        `json:"isAdmin"`
	EmployeeID int64       `json:"employeeId,omitempty"`
	TeamID     int64       `json:"teamId,omitempty"`
}

// View is what the shell renders. With Login set nothing else is shown.
type View struct {
	Login bool       `json:"login"`
	Error string     `json:"error,omitempty"`
	Nav   []NavEntry `json:"nav,omitempty"`
	User  *User      `json:"user,omitempty"`
}

// Shell gates every page behind a session token.
type Shell struct {
	store     *session.Store
	validator auth.TokenValidator
	logger    logger.Logger
}

func New(store *session.Store, validator auth.TokenValidator, log logger.Logger) *Shell {
	if validator == nil {
		validator = auth.TrustValidator{}
	}
	return &Shell{
		store:     store,
		validator: validator,
		logger:    logger.Component(log, "shell"),
	}
}

// Boot rehydrates the session from durable storage. A stored token the
// validator rejects is cleared and the shell starts logged out.
func (s *Shell) Boot(ctx context.Context) error {
	if s.store.Token() != "" {
		return nil
	}

	persisted, err := s.store.Storage().Load(ctx)
	if err != nil {
		return err
	}
	if persisted.Token == "" {
		s.logger.Debug("no stored session", nil)
		return nil
	}

	if err := s.validator.Validate(ctx, persisted.Token); err != nil {
		s.logger.Warn("stored token rejected, clearing", map[string]interface{}{
			"error": err,
		})
		return s.store.Storage().Clear(ctx)
	}

	s.store.Adopt(persisted.Token, persisted.TeamID)
	s.logger.Info("session rehydrated", map[string]interface{}{
		"username": s.store.Username(),
		"teamId":   persisted.TeamID,
	})
	return nil
}

// View returns the login form or the navigation frame.
func (s *Shell) View() View {
	snap := s.store.Snapshot()
	if !snap.Authenticated() {
		return View{Login: true, Error: snap.Error}
	}
	return View{
		Nav: NavFor(snap.Role),
		User: &User{
			Username:   snap.Username,
			Role:       snap.Role,
			IsAdmin:    snap.IsAdmin,
			EmployeeID: snap.EmployeeID,
			TeamID:     snap.TeamID,
		},
	}
}

// Login submits the login form. The returned view reflects the outcome
// either way.
func (s *Shell) Login(ctx context.Context, username, password string) (View, error) {
	err := s.store.Login(ctx, username, password)
	return s.View(), err
}

func (s *Shell) Logout(ctx context.Context) (View, error) {
	err := s.store.Logout(ctx)
	return s.View(), err
}

// Resolve maps a URL path to a page. Without a token every path resolves to
// the login page.
func (s *Shell) Resolve(path string) Route {
	if s.store.Token() == "" {
		return Route{Page: PageLogin}
	}
	return match(path)
}
