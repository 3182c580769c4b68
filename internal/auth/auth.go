// Package auth wires the admin login flow: credential verification, signed
// sessions, logout revocation and the route gate.
package auth

import (
	"log/slog"

	"ekaa/internal/auth/handler"
	"ekaa/internal/auth/service"
	"ekaa/internal/auth/session"
)

// Service exposes login, logout and session authentication.
type Service = service.Service

// Handler wires HTTP endpoints to the auth service.
type Handler = handler.Handler

// NewService constructs the auth service with required dependencies.
func NewService(
	v service.Verifier,
	sessions *session.Manager,
	revocations service.RevocationList,
	lockouts service.LockoutStore,
	opts ...service.Option,
) *Service {
	return service.New(v, sessions, revocations, lockouts, opts...)
}

// NewHandler constructs the HTTP handler for the login routes.
func NewHandler(s *Service, sessions *session.Manager, logger *slog.Logger) *Handler {
	return handler.New(s, sessions, logger)
}
