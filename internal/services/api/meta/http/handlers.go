// Package http serves liveness, readiness and build info
package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"auracast/internal/core/version"
	"auracast/internal/modkit/httpkit"
	perr "auracast/internal/platform/errors"
)

// Pinger is a store that can prove it is reachable
type Pinger interface {
	Ping(context.Context) error
}

// Readiness reports whether a model is installed
type Readiness interface {
	Ready() bool
}

// Deps are what the meta routes report on, PG and CH are nil when unconfigured
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Model       Readiness
	PG          any
	CH          any
	// PingTimeout bounds each store check, zero means 2s
	PingTimeout time.Duration
}

type handlers struct {
	Deps
	now func() time.Time
}

// Register mounts /health, /ready, /version and /service on r
func Register(r httpkit.Router, d Deps) {
	if d.PingTimeout <= 0 {
		d.PingTimeout = 2 * time.Second
	}
	h := &handlers{Deps: d, now: time.Now}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// HealthResponse says the process is up
type HealthResponse struct {
	OK      bool   `json:"ok" example:"true"`
	Service string `json:"service" example:"auracast-api"`
	Started string `json:"started" example:"2026-10-19T06:00:00Z"`
	Now     string `json:"now" example:"2026-10-19T06:05:00Z"`
}

// ReadyCheck is the outcome of one dependency probe: ok, fail, skipped or unknown
type ReadyCheck struct {
	Name   string `json:"name" example:"pg"`
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
}

// ReadyResponse is ok, or degraded when an audit store is down
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now" example:"2026-10-19T06:05:00Z"`
}

// ServiceResponse reports uptime in seconds
type ServiceResponse struct {
	Name    string `json:"name" example:"auracast-api"`
	Started string `json:"started" example:"2026-10-19T06:00:00Z"`
	Uptime  int64  `json:"uptime" example:"300"`
}

// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse "ok"
// @Router /meta/health [get]
func (h *handlers) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: h.ServiceName, Started: stamp(h.StartedAt), Now: stamp(h.now())}, nil
}

// @Summary Readiness probe; 503 until a model is installed
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse "ok"
// @Failure 503 {object} http.Envelope "model not ready"
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	if h.Model == nil || !h.Model.Ready() {
		return nil, perr.NotReadyf("model not installed")
	}

	stores := []struct {
		name string
		conn any
	}{{"pg", h.PG}, {"ch", h.CH}}
	checks := make([]ReadyCheck, 1+len(stores))
	checks[0] = ReadyCheck{Name: "model", Status: "ok"}

	ctx, cancel := context.WithTimeout(r.Context(), h.PingTimeout)
	defer cancel()
	var g errgroup.Group
	for i, s := range stores {
		g.Go(func() error {
			checks[i+1] = probe(ctx, s.name, s.conn)
			return nil
		})
	}
	_ = g.Wait()

	// the stores only feed the audit trail, losing one degrades instead of failing
	status := "ok"
	for _, c := range checks {
		if c.Status == "fail" {
			status = "degraded"
		}
	}
	return ReadyResponse{Status: status, Checks: checks, Now: stamp(h.now())}, nil
}

func probe(ctx context.Context, name string, conn any) ReadyCheck {
	if conn == nil {
		return ReadyCheck{Name: name, Status: "skipped"}
	}
	p, ok := conn.(Pinger)
	if !ok {
		return ReadyCheck{Name: name, Status: "unknown"}
	}
	if err := p.Ping(ctx); err != nil {
		return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
	}
	return ReadyCheck{Name: name, Status: "ok"}
}

// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo "ok"
// @Router /meta/version [get]
func (h *handlers) version(*http.Request) (any, error) {
	return version.Info(h.ServiceName), nil
}

// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse "ok"
// @Router /meta/service [get]
func (h *handlers) service(*http.Request) (any, error) {
	up := h.now().Sub(h.StartedAt)
	return ServiceResponse{Name: h.ServiceName, Started: stamp(h.StartedAt), Uptime: int64(up / time.Second)}, nil
}
