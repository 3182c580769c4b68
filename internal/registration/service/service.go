package service

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ekaa/internal/audit"
	"ekaa/internal/export"
	"ekaa/internal/platform/metrics"
	"ekaa/internal/registration/models"
	dErrors "ekaa/pkg/domain-errors"
	"ekaa/pkg/requestcontext"
)

var tracer = otel.Tracer("ekaa/internal/registration/service")

// Store is the registration repository.
type Store interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindAll(ctx context.Context) ([]*models.Registration, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service validates and persists submissions and serves the admin reads.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates req and stores a new registration. Validation runs before
// the store is touched, so a rejected request never leaves a row behind.
func (s *Service) Submit(ctx context.Context, req *models.SubmitRequest) (*models.Registration, error) {
	ctx, span := tracer.Start(ctx, "registration.submit")
	defer span.End()

	if err := req.Validate(); err != nil {
		s.metrics.IncrementValidationRejections()
		return nil, err
	}

	reg := req.ToRegistration()
	if err := s.store.Create(ctx, reg); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration")
	}
	span.SetAttributes(attribute.Int64("registration.id", reg.ID))

	s.metrics.IncrementRegistrationsCreated()
	s.emit(ctx, audit.Event{
		Action:         audit.ActionRegistrationCreated,
		RegistrationID: reg.ID,
	})
	return reg, nil
}

// List returns every stored registration in store order.
func (s *Service) List(ctx context.Context) ([]*models.Registration, error) {
	ctx, span := tracer.Start(ctx, "registration.list")
	defer span.End()

	regs, err := s.store.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrations")
	}
	s.emit(ctx, audit.Event{
		Action: audit.ActionRegistrationsListed,
		Actor:  requestcontext.Principal(ctx),
		Count:  len(regs),
	})
	return regs, nil
}

// Export reads every registration and renders the spreadsheet fully in memory.
// Nothing is returned unless the whole document was built.
func (s *Service) Export(ctx context.Context) (*bytes.Buffer, int, error) {
	ctx, span := tracer.Start(ctx, "registration.export")
	defer span.End()
	start := time.Now()

	regs, err := s.store.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrations")
	}

	var buf bytes.Buffer
	if err := export.WriteRegistrations(&buf, regs); err != nil {
		span.RecordError(err)
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build spreadsheet")
	}

	s.metrics.ObserveExport(start, len(regs))
	span.SetAttributes(attribute.Int("export.rows", len(regs)))
	s.emit(ctx, audit.Event{
		Action: audit.ActionRegistrationsExported,
		Actor:  requestcontext.Principal(ctx),
		Count:  len(regs),
	})
	return &buf, len(regs), nil
}

// emit publishes best effort; an audit outage never fails the request.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"event", string(event.Action),
			"error", err,
		)
	}
}
