package testutil

import (
	"net/http"

	"ekaa/pkg/requestcontext"
)

// WithPrincipal marks the request as coming from the named admin, as the
// access gate does for a valid session.
func WithPrincipal(req *http.Request, username string) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), username))
}
