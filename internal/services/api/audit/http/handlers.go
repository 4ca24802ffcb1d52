// Package http exposes the recent audit trail
package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"

	"auracast/internal/modkit/httpkit"
	perr "auracast/internal/platform/errors"
	"auracast/internal/platform/net/http/bind"
	auditdom "auracast/internal/services/audit/domain"
)

// Register mounts the audit read endpoints
func Register(r httpkit.Router, q auditdom.QueryPort) {
	h := &handlers{q: q}
	httpkit.Get(r, "/recent", h.recent)
	httpkit.Get(r, "/lookup", h.lookup)
}

type handlers struct{ q auditdom.QueryPort }

// RecentOutput wraps the newest audit records
type RecentOutput struct {
	Items []auditdom.Record `json:"items"`
}

// swagger:route GET /audit/recent Audit auditRecent
// @Summary Newest inference audit records, newest first
// @Tags Audit
// @Produce json
// @Param limit query int false "max rows (server caps it)"
// @Success 200 {object} RecentOutput "ok"
// @Failure 422 {object} http.Envelope "bad limit"
// @Failure 503 {object} http.Envelope "audit store not configured"
// @Router /audit/recent [get]
func (h *handlers) recent(r *stdhttp.Request) (any, error) {
	if h.q == nil {
		return nil, perr.Unavailablef("audit store not configured")
	}
	limit := 0
	if s := strings.TrimSpace(r.URL.Query().Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, perr.WithField(perr.InvalidParamf("limit must be a positive integer, got %q", s), "limit")
		}
		limit = n
	}
	recs, err := h.q.Recent(r.Context(), limit)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []auditdom.Record{}
	}
	return RecentOutput{Items: recs}, nil
}

// swagger:route GET /audit/lookup Audit auditLookup
// @Summary Newest audit record for one request id
// @Tags Audit
// @Produce json
// @Param request_id query string true "request id"
// @Success 200 {object} domain.Record "ok"
// @Failure 422 {object} http.Envelope "missing or malformed request_id"
// @Failure 404 {object} http.Envelope "no record"
// @Failure 503 {object} http.Envelope "audit store not configured"
// @Router /audit/lookup [get]
func (h *handlers) lookup(r *stdhttp.Request) (any, error) {
	if h.q == nil {
		return nil, perr.Unavailablef("audit store not configured")
	}
	id := strings.TrimSpace(r.URL.Query().Get("request_id"))
	switch {
	case id == "":
		return nil, perr.WithField(perr.InvalidParamf("request_id is required"), "request_id")
	case !bind.ValidRequestID(id):
		return nil, perr.WithField(perr.InvalidParamf("request_id is malformed"), "request_id")
	}
	return h.q.ByRequest(r.Context(), id)
}
