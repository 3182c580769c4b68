package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Verifier,RevocationList,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ekaa/internal/audit"
	"ekaa/internal/auth/service/mocks"
	"ekaa/internal/auth/session"
	"ekaa/internal/auth/store/lockout"
	"ekaa/internal/auth/store/revocation"
	"ekaa/internal/auth/verifier"
	"ekaa/internal/platform/metrics"
	dErrors "ekaa/pkg/domain-errors"
	"ekaa/pkg/requestcontext"
)

type AuthServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockVerifier *mocks.MockVerifier
	mockAudit    *mocks.MockAuditPublisher
	sessions     *session.Manager
	revocations  *revocation.InMemoryTRL
	lockouts     *lockout.InMemory
	metrics      *metrics.Metrics
	service      *Service
	now          time.Time
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockVerifier = mocks.NewMockVerifier(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.now = time.Now()
	s.sessions = session.NewManager("test-key", time.Hour, false)
	s.revocations = revocation.NewInMemoryTRL()
	s.lockouts = lockout.NewInMemory(15 * time.Minute)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = New(s.mockVerifier, s.sessions, s.revocations, s.lockouts,
		WithMaxFailures(3),
		WithMaxAccountFailures(5),
		WithAuditPublisher(s.mockAudit),
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *AuthServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AuthServiceSuite) ctx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithClientMetadata(ctx, "10.0.0.1", "test-agent")
}

func (s *AuthServiceSuite) admin() verifier.Principal {
	return verifier.Principal{Username: "admin", Role: verifier.RoleAdmin}
}

func (s *AuthServiceSuite) unauthorized() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

func (s *AuthServiceSuite) TestLogin() {
	s.Run("valid credentials issue an admin session", func() {
		s.mockVerifier.EXPECT().Verify(gomock.Any(), "admin", "pw").Return(s.admin(), nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), audit.Event{Action: audit.ActionLoginSucceeded, Actor: "admin"}).Return(nil)

		token, err := s.service.Login(s.ctx(), "admin", "pw")
		s.Require().NoError(err)

		claims, err := s.sessions.Validate(token)
		s.Require().NoError(err)
		s.Equal("admin", claims.Username())
		s.Equal(verifier.RoleAdmin, claims.Role)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.LoginAttempts.WithLabelValues(OutcomeSuccess)))
	})

	s.Run("invalid credentials are counted", func() {
		s.mockVerifier.EXPECT().Verify(gomock.Any(), "admin", "bad").Return(verifier.Principal{}, s.unauthorized())
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(audit.ActionLoginFailed, e.Action)
				s.Equal(1, e.Count)
				return nil
			})

		_, err := s.service.Login(s.ctx(), "admin", "bad")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		n, _ := s.lockouts.Failures(s.ctx(), ClientLockoutKey("admin", "10.0.0.1"), s.now)
		s.Equal(1, n)
	})

	s.Run("verifier fault is internal", func() {
		s.mockVerifier.EXPECT().Verify(gomock.Any(), "admin", "pw").Return(verifier.Principal{}, errors.New("hash corrupt"))

		_, err := s.service.Login(s.ctx(), "admin", "pw")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *AuthServiceSuite) TestLockout() {
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s.Run("refuses after max failures without consulting the verifier", func() {
		s.mockVerifier.EXPECT().Verify(gomock.Any(), "admin", "bad").
			Return(verifier.Principal{}, s.unauthorized()).Times(3)
		for range 3 {
			_, _ = s.service.Login(s.ctx(), "admin", "bad")
		}

		_, err := s.service.Login(s.ctx(), "admin", "pw")
		s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.LoginAttempts.WithLabelValues(OutcomeLocked)))
	})

	s.Run("another client IP is not affected", func() {
		s.mockVerifier.EXPECT().Verify(gomock.Any(), "admin", "pw").Return(s.admin(), nil)
		ctx := requestcontext.WithClientMetadata(s.ctx(), "10.0.0.2", "test-agent")

		_, err := s.service.Login(ctx, "admin", "pw")
		s.NoError(err)
	})

	s.Run("window elapse unlocks", func() {
		s.mockVerifier.EXPECT().Verify(gomock.Any(), "admin", "pw").Return(s.admin(), nil)
		ctx := requestcontext.WithTime(s.ctx(), s.now.Add(16*time.Minute))

		_, err := s.service.Login(ctx, "admin", "pw")
		s.NoError(err)
	})
}

func (s *AuthServiceSuite) TestAccountLockoutIgnoresClientIP() {
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.mockVerifier.EXPECT().Verify(gomock.Any(), "admin", "bad").
		Return(verifier.Principal{}, s.unauthorized()).Times(5)

	for i := range 5 {
		ctx := requestcontext.WithClientMetadata(s.ctx(), fmt.Sprintf("10.0.1.%d", i), "test-agent")
		_, _ = s.service.Login(ctx, "admin", "bad")
	}

	fresh := requestcontext.WithClientMetadata(s.ctx(), "10.9.9.9", "test-agent")
	_, err := s.service.Login(fresh, "admin", "pw")
	s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))

	n, _ := s.lockouts.Failures(s.ctx(), AccountLockoutKey("admin"), s.now)
	s.Equal(5, n)
}

func (s *AuthServiceSuite) TestSuccessClearsFailures() {
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.mockVerifier.EXPECT().Verify(gomock.Any(), "admin", "bad").Return(verifier.Principal{}, s.unauthorized()).Times(2)
	s.mockVerifier.EXPECT().Verify(gomock.Any(), "admin", "pw").Return(s.admin(), nil)

	_, _ = s.service.Login(s.ctx(), "admin", "bad")
	_, _ = s.service.Login(s.ctx(), "admin", "bad")
	_, err := s.service.Login(s.ctx(), "admin", "pw")
	s.Require().NoError(err)

	n, _ := s.lockouts.Failures(s.ctx(), ClientLockoutKey("admin", "10.0.0.1"), s.now)
	s.Zero(n)
	n, _ = s.lockouts.Failures(s.ctx(), AccountLockoutKey("admin"), s.now)
	s.Zero(n)
}

func (s *AuthServiceSuite) TestAuthenticate() {
	s.Run("valid session resolves to claims", func() {
		token, _, err := s.sessions.Issue("admin", verifier.RoleAdmin, s.now)
		s.Require().NoError(err)

		claims, err := s.service.Authenticate(s.ctx(), token)
		s.Require().NoError(err)
		s.Equal("admin", claims.Username())
	})

	s.Run("missing session is unauthorized", func() {
		_, err := s.service.Authenticate(s.ctx(), "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("non admin role is unauthorized", func() {
		token, _, err := s.sessions.Issue("someone", "USER", s.now)
		s.Require().NoError(err)

		_, err = s.service.Authenticate(s.ctx(), token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("revocation store fault is internal", func() {
		mockTRL := mocks.NewMockRevocationList(s.ctrl)
		svc := New(s.mockVerifier, s.sessions, mockTRL, s.lockouts)
		token, _, err := s.sessions.Issue("admin", verifier.RoleAdmin, s.now)
		s.Require().NoError(err)
		mockTRL.EXPECT().IsRevoked(gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))

		_, err = svc.Authenticate(s.ctx(), token)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *AuthServiceSuite) TestLogout() {
	s.Run("revokes the session", func() {
		token, _, err := s.sessions.Issue("admin", verifier.RoleAdmin, s.now)
		s.Require().NoError(err)
		s.mockAudit.EXPECT().Emit(gomock.Any(), audit.Event{Action: audit.ActionLogout, Actor: "admin"}).Return(nil)

		s.Require().NoError(s.service.Logout(s.ctx(), token))

		_, err = s.service.Authenticate(s.ctx(), token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("anonymous logout is a no-op", func() {
		s.NoError(s.service.Logout(s.ctx(), ""))
		s.NoError(s.service.Logout(s.ctx(), "garbage"))
	})
}
