// Package verifier checks administrator credentials.
package verifier

import (
	"context"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "ekaa/pkg/domain-errors"
	"ekaa/pkg/secrets"
)

// RoleAdmin is the only role the application grants.
const RoleAdmin = "ADMIN"

// Principal is an authenticated identity.
type Principal struct {
	Username string
	Role     string
}

// Verifier checks a username/password pair.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (Principal, error)
}

// Static verifies against a single configured admin identity.
type Static struct {
	username string
	hash     string
}

// NewStatic builds a Static verifier from a username and a bcrypt hash.
func NewStatic(username, passwordHash string) (*Static, error) {
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "admin username is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("admin password hash is not bcrypt: %w", err)
	}
	return &Static{username: username, hash: passwordHash}, nil
}

// Verify always runs the bcrypt comparison so an unknown username costs the
// same as a wrong password.
func (s *Static) Verify(_ context.Context, username, password string) (Principal, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := secrets.Verify(password, s.hash)
	if !userOK || passErr != nil {
		if passErr != nil && !dErrors.HasCode(passErr, dErrors.CodeUnauthorized) {
			return Principal{}, passErr
		}
		return Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return Principal{Username: s.username, Role: RoleAdmin}, nil
}
