package middleware

import (
	"net/http"

	perr "auracast/internal/platform/errors"
	pnet "auracast/internal/platform/net"
	phttp "auracast/internal/platform/net/http"
)

// AuthPort resolves the caller behind a request
type AuthPort interface {
	// Parse returns the subject and its granted scope or an error
	Parse(r *http.Request) (subject string, scope string, err error)
}

// Auth rejects requests p cannot resolve and stores the caller for the rest of the chain
// a nil port lets everything through
func Auth(p AuthPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if p == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, scope, err := p.Parse(r)
			if err != nil {
				phttp.Fail(w, r, err)
				return
			}
			ctx := pnet.WithCaller(r.Context(), pnet.Caller{Subject: sub, Scope: scope})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope answers 403 unless the caller stored by Auth holds want
func RequireScope(want string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, ok := pnet.CallerOf(r.Context()); !ok || c.Scope != want {
				phttp.Fail(w, r, perr.Forbiddenf("scope %q required", want))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
