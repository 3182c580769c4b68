package registration

import (
	"log/slog"

	"ekaa/internal/registration/handler"
	"ekaa/internal/registration/service"
)

// Service exposes submission, listing and export.
type Service = service.Service

// Handler wires HTTP endpoints to the registration service.
type Handler = handler.Handler

// NewService constructs the registration service with its store and options.
func NewService(store service.Store, opts ...service.Option) *Service {
	return service.New(store, opts...)
}

// NewHandler constructs the HTTP handler for the public form and admin views.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
