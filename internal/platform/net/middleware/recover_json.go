package middleware

import (
	"net/http"
	"runtime/debug"

	perr "auracast/internal/platform/errors"
	"auracast/internal/platform/logger"
	pnet "auracast/internal/platform/net"
	phttp "auracast/internal/platform/net/http"
)

// RecoverJSON turns a panic into a 500 envelope and logs the stack
// a handler that already wrote its header keeps whatever it sent
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			id := pnet.RequestID(r.Context())
			logger.Named("http").Error().
				Str("request_id", id).
				Str("path", r.URL.Path).
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			if id != "" {
				w.Header().Set("X-Request-ID", id)
			}
			phttp.Fail(w, r, perr.PanicErrf("internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}
