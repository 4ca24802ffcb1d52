package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perr "auracast/internal/platform/errors"
)

// TokenFunc resolves a bearer token to a subject and its granted scope
type TokenFunc func(token string) (subject, scope string, err error)

// Parse satisfies middleware.AuthPort, the scheme match is case-insensitive
// every failure is reported as unauthorized so callers learn nothing about why
func (f TokenFunc) Parse(r *http.Request) (string, string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, tok, _ := strings.Cut(h, " ")
	tok = strings.TrimSpace(tok)
	if !strings.EqualFold(scheme, "bearer") || tok == "" {
		return "", "", perr.Unauthorizedf("missing bearer token")
	}
	if f == nil {
		return "", "", perr.Unauthorizedf("invalid bearer token")
	}
	sub, scope, err := f(tok)
	if err != nil {
		return "", "", perr.Unauthorizedf("invalid bearer token")
	}
	return sub, scope, nil
}

// StaticToken accepts exactly one shared secret, an empty secret rejects everything
func StaticToken(secret, subject, scope string) TokenFunc {
	return func(tok string) (string, string, error) {
		if secret == "" || subtle.ConstantTimeCompare([]byte(tok), []byte(secret)) != 1 {
			return "", "", perr.Unauthorizedf("invalid bearer token")
		}
		return subject, scope, nil
	}
}
