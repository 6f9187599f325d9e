package models

import "strings"

// Role is the backend authority of the logged-in user.
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleManager       Role = "MANAGER"
	RoleOfficeManager Role = "OFFICE_MANAGER"
	RoleFieldOfficer  Role = "FIELD_OFFICER"
)

// RolePrefix is stripped from Spring authorities ("ROLE_ADMIN" -> "ADMIN").
const RolePrefix = "ROLE_"

// RoleFromAuthority converts a Spring authority string into a Role.
func RoleFromAuthority(authority string) Role {
	return Role(strings.TrimPrefix(strings.TrimSpace(authority), RolePrefix))
}

// Status tracks the last async session operation.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Session is the authenticated identity every request is made on behalf of.
// The zero value is the logged-out initial state.
type Session struct {
	Token           string `json:"token,omitempty"`
	Username        string `json:"username,omitempty"`
	Role            Role   `json:"role,omitempty"`
	EmployeeID      int64  `json:"employeeId,omitempty"`
	TeamID          int64  `json:"teamId,omitempty"`
	OfficeManagerID int64  `json:"officeManagerId,omitempty"`
	IsAdmin         bool   `json:"isAdmin"`
	Status          Status `json:"status"`
	Error           string `json:"error,omitempty"`
}

// Authenticated reports whether the session holds a bearer token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// EmptySession returns the initial, logged-out session.
func EmptySession() Session {
	return Session{Status: StatusIdle}
}
