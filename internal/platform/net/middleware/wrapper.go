// Package middleware is the request pipeline: chi and cors adapters plus auth, recovery and access logging
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// Middleware is the standard net/http decorator shape
type Middleware = func(http.Handler) http.Handler

// RequestID reuses an inbound X-Request-ID or mints one
func RequestID() Middleware { return chimw.RequestID }

// RealIP trusts X-Forwarded-For and X-Real-IP for RemoteAddr
func RealIP() Middleware { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) Middleware { return chimw.Timeout(d) }

func NoCache() Middleware      { return chimw.NoCache }
func StripSlashes() Middleware { return chimw.StripSlashes }

// Compress negotiates gzip or deflate at level
func Compress(level int) Middleware { return chimw.NewCompressor(level).Handler }

// AllowContentType answers 415 to bodies of any other content type
func AllowContentType(ct ...string) Middleware { return chimw.AllowContentType(ct...) }

// Throttle caps in-flight requests, the overflow gets 429
func Throttle(limit int) Middleware { return chimw.Throttle(limit) }

// Heartbeat answers GET path with 200 before any routing
func Heartbeat(path string) Middleware { return chimw.Heartbeat(path) }

// CORSOptions is the part of go-chi/cors the API configures, empty lists take defaults
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}
)

// CORS builds the cross-origin handler
func CORS(o CORSOptions) Middleware {
	if len(o.AllowedMethods) == 0 {
		o.AllowedMethods = corsMethods
	}
	if len(o.AllowedHeaders) == 0 {
		o.AllowedHeaders = corsHeaders
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   o.AllowedMethods,
		AllowedHeaders:   o.AllowedHeaders,
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}
