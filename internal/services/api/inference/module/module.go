// Package module mounts the inference and scheduling routes
package module

import (
	"net/http"

	"auracast/internal/modkit"
	"auracast/internal/modkit/httpkit"
	"auracast/internal/modkit/module"
	"auracast/internal/platform/config"
	"auracast/internal/platform/net/middleware"
	infhttp "auracast/internal/services/api/inference/http"
	infsvc "auracast/internal/services/api/inference/service"
	auditdom "auracast/internal/services/audit/domain"
)

// Ports is what the inference modules accept from the audit worker
type Ports struct {
	Audit auditdom.WriterPort
}

// New mounts risk and posteriors at /inference
func New(deps modkit.Deps, opts ...modkit.Option) module.Module {
	return build(deps, "inference", "/inference", infhttp.Register, opts)
}

// NewPolicy mounts the top-k schedule at /policy
func NewPolicy(deps modkit.Deps, opts ...modkit.Option) module.Module {
	return build(deps, "policy", "/policy", infhttp.RegisterPolicy, opts)
}

// InFlightLimit caps concurrent inference requests at CORE_API_MAX_INFLIGHT
// pass the same option to New and NewPolicy so both share one budget
func InFlightLimit(cfg config.Conf) modkit.Option {
	n := FromConfig(cfg).MaxInFlight
	if n <= 0 {
		return modkit.WithMiddlewares()
	}
	return modkit.WithMiddlewares(middleware.Throttle(n))
}

func build(deps modkit.Deps, name, prefix string, routes func(httpkit.Router, infsvc.Service), opts []modkit.Option) *modkit.Routes {
	if deps.Engine == nil {
		panic(name + " API module requires an engine")
	}
	b := modkit.Build(append([]modkit.Option{modkit.WithName(name), modkit.WithPrefix(prefix)}, opts...)...)
	svc := infsvc.New(deps.Engine, modkit.Injected[Ports](b).Audit)

	// json only, checked before the shared in-flight limit
	b.Mw = append([]func(http.Handler) http.Handler{middleware.AllowContentType("application/json")}, b.Mw...)

	return modkit.NewRoutes(b, svc, func(r httpkit.Router) { routes(r, svc) })
}
