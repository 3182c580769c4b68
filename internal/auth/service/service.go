package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"ekaa/internal/audit"
	"ekaa/internal/auth/session"
	"ekaa/internal/auth/verifier"
	"ekaa/internal/platform/metrics"
	dErrors "ekaa/pkg/domain-errors"
	"ekaa/pkg/requestcontext"
)

var tracer = otel.Tracer("ekaa/internal/auth/service")

// Login outcomes reported to metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeLocked  = "locked"
)

type Verifier interface {
	Verify(ctx context.Context, username, password string) (verifier.Principal, error)
}

// RevocationList tracks logged-out session JTIs.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// LockoutStore counts failed logins per key within a window.
type LockoutStore interface {
	Failures(ctx context.Context, key string, now time.Time) (int, error)
	RecordFailure(ctx context.Context, key string, now time.Time) (int, error)
	Clear(ctx context.Context, key string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service authenticates the admin and manages session lifecycle.
type Service struct {
	verifier       Verifier
	sessions       *session.Manager
	revocations    RevocationList
	lockouts       LockoutStore
	maxFailures    int
	maxAccount     int
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

// WithMaxFailures sets how many failures from one client IP within the
// lockout window block further attempts for that username. Zero disables it.
func WithMaxFailures(n int) Option {
	return func(s *Service) {
		s.maxFailures = n
	}
}

// WithMaxAccountFailures sets how many failures from any client IP within
// the lockout window block the username everywhere. Zero disables it.
func WithMaxAccountFailures(n int) Option {
	return func(s *Service) {
		s.maxAccount = n
	}
}

func New(v Verifier, sessions *session.Manager, revocations RevocationList, lockouts LockoutStore, opts ...Option) *Service {
	s := &Service{
		verifier:    v,
		sessions:    sessions,
		revocations: revocations,
		lockouts:    lockouts,
		maxFailures: 5,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClientLockoutKey scopes failures to one username from one client IP.
func ClientLockoutKey(username, clientIP string) string {
	return "client:" + username + "|" + clientIP
}

// AccountLockoutKey scopes failures to one username from any client IP.
func AccountLockoutKey(username string) string {
	return "account:" + username
}

// Login verifies credentials and returns a signed session token.
// Locked-out callers are refused before the verifier runs.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer span.End()

	now := requestcontext.Now(ctx)
	clientKey := ClientLockoutKey(username, requestcontext.ClientIP(ctx))
	accountKey := AccountLockoutKey(username)

	failures, err := s.lockedOut(ctx, clientKey, accountKey, now)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read login failures")
	}
	if failures > 0 {
		s.metrics.IncrementLoginAttempt(OutcomeLocked)
		s.emit(ctx, audit.Event{Action: audit.ActionLoginLocked, Actor: username, Count: failures})
		return "", dErrors.New(dErrors.CodeTooManyRequests, "too many failed login attempts")
	}

	principal, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			span.RecordError(err)
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credentials")
		}
		count := s.recordFailure(ctx, clientKey, now)
		s.recordFailure(ctx, accountKey, now)
		s.metrics.IncrementLoginAttempt(OutcomeFailure)
		s.emit(ctx, audit.Event{Action: audit.ActionLoginFailed, Actor: username, Count: count, Reason: "invalid_credentials"})
		return "", err
	}

	for _, key := range []string{clientKey, accountKey} {
		if err := s.lockouts.Clear(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to clear login failures",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}

	token, _, err := s.sessions.Issue(principal.Username, principal.Role, now)
	if err != nil {
		span.RecordError(err)
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session")
	}

	s.metrics.IncrementLoginAttempt(OutcomeSuccess)
	s.emit(ctx, audit.Event{Action: audit.ActionLoginSucceeded, Actor: principal.Username})
	return token, nil
}

// lockedOut returns the failure count that reached a limit, or zero when the
// caller may try again.
func (s *Service) lockedOut(ctx context.Context, clientKey, accountKey string, now time.Time) (int, error) {
	limits := []struct {
		key string
		max int
	}{
		{clientKey, s.maxFailures},
		{accountKey, s.maxAccount},
	}
	for _, l := range limits {
		if l.max <= 0 {
			continue
		}
		failures, err := s.lockouts.Failures(ctx, l.key, now)
		if err != nil {
			return 0, err
		}
		if failures >= l.max {
			return failures, nil
		}
	}
	return 0, nil
}

func (s *Service) recordFailure(ctx context.Context, key string, now time.Time) int {
	failures, err := s.lockouts.RecordFailure(ctx, key, now)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	return failures
}

// Logout revokes the session's JTI for the rest of its lifetime. An invalid
// or expired token has nothing left to revoke.
func (s *Service) Logout(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "auth.logout")
	defer span.End()

	if token == "" {
		return nil
	}
	claims, err := s.sessions.Validate(token)
	if err != nil {
		return nil
	}

	remaining := claims.ExpiresAt.Sub(requestcontext.Now(ctx))
	if remaining > 0 {
		if err := s.revocations.RevokeToken(ctx, claims.ID, remaining); err != nil {
			span.RecordError(err)
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
		}
	}
	s.emit(ctx, audit.Event{Action: audit.ActionLogout, Actor: claims.Username()})
	return nil
}

// Authenticate resolves a session token to its claims. Missing, invalid,
// expired, revoked and non-admin sessions are all unauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (*session.Claims, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing session")
	}
	claims, err := s.sessions.Validate(token)
	if err != nil {
		return nil, err
	}
	if claims.Role != verifier.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session lacks admin role")
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check session revocation")
	}
	if revoked {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session has been revoked")
	}
	return claims, nil
}

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
