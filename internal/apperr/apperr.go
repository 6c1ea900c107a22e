package apperr

import (
	"fmt"
	"net/http"
)

// Domain groups errors by the part of the system they belong to.
type Domain string

const (
	DomainGeneric Domain = "generic"
	DomainAuth    Domain = "auth"
	DomainUser    Domain = "user"
)

// Error is a terminal business error with a stable machine-readable code.
// Errors of this type are never retried internally.
type Error struct {
	Domain  Domain
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Domain, e.Code, e.Message)
}

// Is matches by (domain, code) so wrapped errors still compare against the
// package sentinels via errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Domain == t.Domain && e.Code == t.Code
}

func New(domain Domain, code, message string, status int) *Error {
	return &Error{Domain: domain, Code: code, Message: message, Status: status}
}

var (
	ErrInvalidCredentials  = New(DomainAuth, "invalid-credentials", "Invalid credentials", http.StatusUnauthorized)
	ErrAlreadyLoggedIn     = New(DomainAuth, "already-logged-in", "User is already logged in", http.StatusBadRequest)
	ErrAlreadyLoggedOut    = New(DomainAuth, "already-logged-out", "User is already logged out", http.StatusBadRequest)
	ErrInvalidRefreshToken = New(DomainAuth, "invalid-refresh-token", "Invalid refresh token", http.StatusUnauthorized)
	ErrUserNotFound        = New(DomainAuth, "user-not-found", "User not found", http.StatusUnauthorized)
	ErrInvalidExpiry       = New(DomainAuth, "invalid-expiry", "Invalid expiry time", http.StatusBadRequest)
	ErrRevokedToken        = New(DomainUser, "revoked-token", "Revoked token", http.StatusBadRequest)
	ErrUserAlreadyExists   = New(DomainUser, "user-already-exists", "User already exists", http.StatusBadRequest)
)
