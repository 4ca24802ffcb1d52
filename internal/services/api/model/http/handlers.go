// Package http provides http transport for model info and admin
package http

import (
	stdhttp "net/http"

	"auracast/internal/modkit/httpkit"
	"auracast/internal/platform/net/middleware"
	svc "auracast/internal/services/api/model/service"
)

// ReloadScope is the scope a caller needs to swap weights
const ReloadScope = "model:reload"

// Register mounts the model endpoints; reload is only mounted when admin is non nil
func Register(r httpkit.Router, s svc.Service, admin middleware.AuthPort) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/", h.info)

	if admin == nil {
		return
	}
	httpkit.Protected(r, admin, func(pr httpkit.Router) {
		pr.Group(func(g httpkit.Router) {
			g.Use(httpkit.RequireScope(ReloadScope))
			httpkit.Post(g, "/reload", h.reload)
		})
	})
}

type handlers struct{ svc svc.Service }

// swagger:route GET /model Model modelInfo
// @Summary Installed model and engine settings
// @Tags Model
// @Produce json
// @Success 200 {object} domain.Info "ok"
// @Failure 503 {object} http.Envelope "model not ready"
// @Router /model [get]
func (h *handlers) info(r *stdhttp.Request) (any, error) {
	return h.svc.Info(r.Context())
}

// swagger:route POST /model/reload Model modelReload
// @Summary Re-read the weights file and install it
// @Tags Model
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.ReloadOutput "ok"
// @Failure 401 {object} http.Envelope "missing or invalid token"
// @Failure 404 {object} http.Envelope "weights file missing"
// @Failure 400 {object} http.Envelope "undecodable weights"
// @Failure 422 {object} http.Envelope "invalid weights"
// @Router /model/reload [post]
func (h *handlers) reload(r *stdhttp.Request) (any, error) {
	return h.svc.Reload(r.Context())
}
