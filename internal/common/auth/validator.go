// internal/common/auth/validator.go
package auth

import (
	"context"
	"fmt"
	"time"

	apperrors "fieldsales-console/internal/common/errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator decides whether a token found in durable storage may be
// adopted without logging in again.
type TokenValidator interface {
	Validate(ctx context.Context, token string) error
}

// TrustValidator accepts any non-empty token.
type TrustValidator struct{}

func (TrustValidator) Validate(_ context.Context, token string) error {
	if token == "" {
		return apperrors.NewAuthenticationError("no token")
	}
	return nil
}

// ExpiryValidator reads the JWT exp claim without verifying the signature;
// the backend remains the authority on every call.
type ExpiryValidator struct {
	Now    func() time.Time
	Leeway time.Duration
}

func (v ExpiryValidator) Validate(_ context.Context, token string) error {
	exp, err := TokenExpiry(token)
	if err != nil {
		return apperrors.NewAuthenticationError(err.Error())
	}
	if exp.IsZero() {
		return nil
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	if now().After(exp.Add(v.Leeway)) {
		return apperrors.NewAuthenticationError(fmt.Sprintf("token expired at %s", exp.UTC().Format(time.RFC3339)))
	}
	return nil
}

// TokenExpiry returns the exp claim of a JWT, or the zero time when the token
// carries none.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("malformed token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// RemoteValidator makes one backend round-trip per check.
type RemoteValidator struct {
	Client *Client
}

func (v RemoteValidator) Validate(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.NewAuthenticationError("no token")
	}
	return v.Client.Validate(ctx, token)
}

// Identity is what a token says about its holder without asking the backend.
type Identity struct {
	Username string
	Role     string
}

// IdentityFromToken reads the subject and role claims of a JWT. Tokens that
// are not JWTs yield an empty identity.
func IdentityFromToken(token string) Identity {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}
	}

	var id Identity
	if sub, err := claims.GetSubject(); err == nil {
		id.Username = sub
	}
	if role, ok := claims["role"].(string); ok {
		id.Role = role
	}
	if id.Role == "" {
		if list, ok := claims["roles"].([]interface{}); ok && len(list) > 0 {
			if first, ok := list[0].(string); ok {
				id.Role = first
			}
		}
	}
	return id
}
