// Package gate decides which routes need an admin session and enforces it.
package gate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"ekaa/internal/auth/session"
	dErrors "ekaa/pkg/domain-errors"
	"ekaa/pkg/platform/httputil"
	"ekaa/pkg/requestcontext"
)

// Access is the protection level of a path.
type Access int

const (
	Public Access = iota
	Admin
	Authenticated
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Admin:
		return "admin"
	default:
		return "authenticated"
	}
}

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/admin-login"

var publicPaths = map[string]struct{}{
	"/":              {},
	"/registration":  {},
	"/admin-login":   {},
	"/perform_login": {},
	"/logout":        {},
}

var publicPrefixes = []string{"/images/", "/css/", "/js/"}

// Classify maps a request path to its access level.
func Classify(path string) Access {
	if _, ok := publicPaths[path]; ok {
		return Public
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return Public
		}
	}
	if path == "/admin" || strings.HasPrefix(path, "/admin/") {
		return Admin
	}
	return Authenticated
}

// Authenticator resolves a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Claims, error)
}

// Middleware lets public paths through and requires a valid admin session
// everywhere else. With a single admin role, Admin and Authenticated paths
// need the same session.
func Middleware(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access := Classify(r.URL.Path)
			if access == Public {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claims, err := auth.Authenticate(ctx, session.FromRequest(r))
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					logger.InfoContext(ctx, "redirecting unauthenticated request",
						"request_id", requestcontext.RequestID(ctx),
						"path", r.URL.Path,
						"access", access.String(),
						"reason", err.Error(),
					)
					http.Redirect(w, r, LoginPath, http.StatusFound)
					return
				}
				logger.ErrorContext(ctx, "session check failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err.Error(),
				)
				httputil.WriteError(w, err)
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, claims.Username())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
