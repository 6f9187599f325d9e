// internal/common/auth/client.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "fieldsales-console/internal/common/errors"
	crmhttp "fieldsales-console/internal/common/http"
	"fieldsales-console/internal/models"
)

// Backend endpoints used by the login flow.
const (
	TokenPath        = "/user/token"
	LogoutPath       = "/user/logout"
	CurrentAdminPath = "/user/manage/current-user"
	UserLookupPath   = "/employee/user/getByUsername"
	TeamLookupPath   = "/employee/team/getbyEmployee"
	RegisterPath     = "/user/manage/create"
)

// Client talks to the backend's authentication and identity endpoints.
type Client struct {
	http         *crmhttp.Client
	validatePath string
}

// Credentials is the body of the token exchange.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Authority is one Spring granted authority ("ROLE_ADMIN").
type Authority struct {
	Authority string `json:"authority"`
}

// AdminProfile is returned by the admin current-user lookup.
type AdminProfile struct {
	Username    string      `json:"username"`
	Authorities []Authority `json:"authorities"`
}

// Role returns the first authority with the ROLE_ prefix stripped.
func (p AdminProfile) Role() models.Role {
	if len(p.Authorities) == 0 {
		return ""
	}
	return models.RoleFromAuthority(p.Authorities[0].Authority)
}

// UserProfile is the general user lookup result.
type UserProfile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
}

// TeamMembership is the team a manager belongs to.
type TeamMembership struct {
	TeamID          int64
	OfficeManagerID int64
}

// RegisterRequest creates a login for an employee.
type RegisterRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	EmployeeID int64  `json:"employeeId,omitempty"`
}

func NewClient(transport *crmhttp.Client, validatePath string) *Client {
	return &Client{http: transport, validatePath: validatePath}
}

// Token exchanges credentials for a bearer token. The backend answers with the
// raw token string; a JSON object with a token field is accepted too.
func (c *Client) Token(ctx context.Context, username, password string) (string, error) {
	body, err := c.http.Send(ctx, crmhttp.Request{
		Method: http.MethodPost,
		Path:   TokenPath,
		Body:   Credentials{Username: username, Password: password},
	})
	if err != nil {
		return "", err
	}

	token, err := parseToken(body)
	if err != nil {
		return "", err
	}
	return token, nil
}

func parseToken(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", apperrors.NewAuthenticationError("token endpoint returned an empty body")
	}

	switch trimmed[0] {
	case '{':
		var resp struct {
			Token       string `json:"token"`
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return "", apperrors.NewDecodeError("token", err)
		}
		if resp.Token != "" {
			return resp.Token, nil
		}
		if resp.AccessToken != "" {
			return resp.AccessToken, nil
		}
		return "", apperrors.NewAuthenticationError("token endpoint response has no token")
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", apperrors.NewDecodeError("token", err)
		}
		return s, nil
	default:
		return string(trimmed), nil
	}
}

// CurrentAdmin asks the admin-only current-user endpoint. It fails for
// non-admin tokens.
func (c *Client) CurrentAdmin(ctx context.Context, token string) (*AdminProfile, error) {
	var profile AdminProfile
	if err := c.http.JSON(ctx, crmhttp.Request{
		Method: http.MethodGet,
		Path:   CurrentAdminPath,
		Token:  token,
	}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// LookupUser resolves the employee behind a username.
func (c *Client) LookupUser(ctx context.Context, token, username string) (*UserProfile, error) {
	var profile UserProfile
	if err := c.http.JSON(ctx, crmhttp.Request{
		Method: http.MethodGet,
		Path:   UserLookupPath,
		Query:  url.Values{"username": {username}},
		Token:  token,
	}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// LookupTeam resolves the team an employee is a member of.
func (c *Client) LookupTeam(ctx context.Context, token string, employeeID int64) (*TeamMembership, error) {
	var teams []models.Team
	if err := c.http.JSON(ctx, crmhttp.Request{
		Method: http.MethodGet,
		Path:   TeamLookupPath,
		Query:  url.Values{"id": {strconv.FormatInt(employeeID, 10)}},
		Token:  token,
	}, &teams); err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, apperrors.NewResourceNotFoundError("team", "no team for employee "+strconv.FormatInt(employeeID, 10))
	}

	membership := &TeamMembership{TeamID: teams[0].ID}
	if teams[0].OfficeManager != nil {
		membership.OfficeManagerID = teams[0].OfficeManager.ID
	}
	return membership, nil
}

// Logout tells the backend the token is done. The response body is ignored.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.http.Send(ctx, crmhttp.Request{
		Method: http.MethodPost,
		Path:   LogoutPath,
		Token:  token,
	})
	return err
}

// Register creates a login through the user-management API.
func (c *Client) Register(ctx context.Context, token string, req RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	_, err := c.http.Send(ctx, crmhttp.Request{
		Method: http.MethodPost,
		Path:   RegisterPath,
		Token:  token,
		Body:   req,
	})
	return err
}

// Validate asks the backend whether token is still accepted.
func (c *Client) Validate(ctx context.Context, token string) error {
	_, err := c.http.Send(ctx, crmhttp.Request{
		Method: http.MethodGet,
		Path:   c.validatePath,
		Token:  token,
	})
	return err
}
