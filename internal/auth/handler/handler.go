package handler

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ekaa/internal/auth/session"
	dErrors "ekaa/pkg/domain-errors"
	"ekaa/pkg/platform/httputil"
	"ekaa/pkg/requestcontext"
)

// Redirect targets of the login flow.
const (
	LoginPath        = "/admin-login"
	LoginFailedPath  = "/admin-login?error=true"
	LoggedOutPath    = "/admin-login?logout=true"
	AfterLoginTarget = "/admin/registrations"
)

//go:embed static/login.html
var loginPage []byte

// Service defines the interface for admin login operations.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

// Handler serves the login form and the login/logout endpoints.
type Handler struct {
	logger   *slog.Logger
	auth     Service
	sessions *session.Manager
}

func New(auth Service, sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		auth:     auth,
		sessions: sessions,
	}
}

// Register registers the login routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get(LoginPath, h.handleLoginPage)
	r.Post("/perform_login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
	r.Post("/logout", h.handleLogout)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(loginPage)
}

// handleLogin answers every outcome with a redirect; a locked-out caller is
// indistinguishable from one with a wrong password.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "invalid login form",
			"request_id", requestID,
			"error", err.Error(),
		)
		http.Redirect(w, r, LoginFailedPath, http.StatusFound)
		return
	}
	username := r.PostForm.Get("username")

	token, err := h.auth.Login(ctx, username, r.PostForm.Get("password"))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.InfoContext(ctx, "login rejected",
			"request_id", requestID,
			"username", username,
			"error", err.Error(),
		)
		http.Redirect(w, r, LoginFailedPath, http.StatusFound)
		return
	}

	http.SetCookie(w, h.sessions.Cookie(token))
	h.logger.InfoContext(ctx, "admin logged in",
		"request_id", requestID,
		"username", username,
	)
	http.Redirect(w, r, AfterLoginTarget, http.StatusFound)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.auth.Logout(ctx, session.FromRequest(r)); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	http.SetCookie(w, h.sessions.ClearCookie())
	http.Redirect(w, r, LoggedOutPath, http.StatusFound)
}
