// Package httpkit is what modules mount routes with, it hides the platform http package
package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "auracast/internal/platform/net/http"
	"auracast/internal/platform/net/http/bind"
	"auracast/internal/platform/net/middleware"
)

// Router is the routing surface modules receive
type Router = phttp.Router

// SlowRequest is where the access log switches from info to warn
var SlowRequest = 500 * time.Millisecond

// Get mounts a body-less handler, its result becomes the envelope data
func Get(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Get(path, reply(fn))
}

// Post is Get for POST routes that take no body
func Post(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Post(path, reply(fn))
}

// PostJSON binds and validates the body into T before fn runs
func PostJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Post(path, reply(func(req *http.Request) (any, error) {
		in, err := bind.ParseJSON[T](req)
		if err != nil {
			return nil, err
		}
		return fn(req, in)
	}))
}

func reply(fn func(*http.Request) (any, error)) phttp.Handler {
	return phttp.Handle(func(r *http.Request) phttp.Response {
		out, err := fn(r)
		if err != nil {
			return phttp.Error(err)
		}
		if resp, ok := out.(phttp.Response); ok {
			return resp
		}
		return phttp.OK(out)
	})
}

// MountAPIV1 mounts fn under /api/v1 behind mw
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, fn func(Router)) {
	r.Route("/api/v1", func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		fn(api)
	})
}

// Protected mounts fn in a group that requires p to resolve the caller
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(g Router) {
		g.Use(middleware.Auth(p))
		fn(g)
	})
}

// RequireScope rejects callers without want, use inside Protected
func RequireScope(want string) func(http.Handler) http.Handler {
	return middleware.RequireScope(want)
}

// CommonStack is the middleware every versioned route runs behind, outermost first
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: SlowRequest}),
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}
