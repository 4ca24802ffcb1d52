// Package http provides http transport for inference and scheduling
package http

import (
	stdhttp "net/http"

	"auracast/internal/modkit/httpkit"
	"auracast/internal/services/api/inference/domain"
	svc "auracast/internal/services/api/inference/service"
)

// Register mounts the inference endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.RiskInput](r, "/risk", h.risk)
	httpkit.PostJSON[domain.PosteriorsInput](r, "/posteriors", h.posteriors)
}

// RegisterPolicy mounts the measurement scheduling endpoints
func RegisterPolicy(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.TopKInput](r, "/topk", h.topK)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /inference/risk Inference inferenceRisk
// @Summary Daily migraine risk with a credible interval
// @Tags Inference
// @Accept json
// @Produce json
// @Param payload body domain.RiskInput true "One day of hourly features"
// @Success 200 {object} domain.RiskOutput "ok"
// @Failure 400 {object} http.Envelope "invalid input"
// @Failure 422 {object} http.Envelope "shape mismatch"
// @Failure 503 {object} http.Envelope "model not ready"
// @Failure 504 {object} http.Envelope "timeout"
// @Router /inference/risk [post]
func (h *handlers) risk(r *stdhttp.Request, in domain.RiskInput) (any, error) {
	return h.svc.Risk(r.Context(), in)
}

// swagger:route POST /inference/posteriors Inference inferencePosteriors
// @Summary Hourly latent state posteriors
// @Tags Inference
// @Accept json
// @Produce json
// @Param payload body domain.PosteriorsInput true "One day of hourly features"
// @Success 200 {object} domain.PosteriorsOutput "ok"
// @Failure 422 {object} http.Envelope "shape mismatch"
// @Failure 503 {object} http.Envelope "model not ready"
// @Router /inference/posteriors [post]
func (h *handlers) posteriors(r *stdhttp.Request, in domain.PosteriorsInput) (any, error) {
	return h.svc.Posteriors(r.Context(), in)
}

// swagger:route POST /policy/topk Policy policyTopK
// @Summary Hours worth measuring, best first
// @Tags Policy
// @Accept json
// @Produce json
// @Param payload body domain.TopKInput true "One day of hourly features and k"
// @Success 200 {object} domain.TopKOutput "ok"
// @Failure 422 {object} http.Envelope "k out of range"
// @Failure 422 {object} http.Envelope "shape mismatch"
// @Failure 503 {object} http.Envelope "model not ready"
// @Router /policy/topk [post]
func (h *handlers) topK(r *stdhttp.Request, in domain.TopKInput) (any, error) {
	return h.svc.TopK(r.Context(), in)
}
