// Package module mounts model info and the admin reload route
package module

import (
	"auracast/internal/modkit"
	"auracast/internal/modkit/httpkit"
	"auracast/internal/modkit/module"
	"auracast/internal/platform/net/middleware"
	modelhttp "auracast/internal/services/api/model/http"
	modelsvc "auracast/internal/services/api/model/service"
)

// New builds the module from CORE_API_ADMIN_TOKEN and the engine model path
func New(deps modkit.Deps, opts ...modkit.Option) module.Module {
	return NewWith(deps, FromConfig(deps.Cfg), opts...)
}

// NewWith builds the module from explicit Options, the model service is its port
func NewWith(deps modkit.Deps, o Options, opts ...modkit.Option) module.Module {
	if deps.Engine == nil {
		panic("model API module requires an engine")
	}
	b := modkit.Build(append([]modkit.Option{modkit.WithName("model"), modkit.WithPrefix("/model")}, opts...)...)
	svc := modelsvc.New(deps.Engine, o.ModelPath)

	var admin middleware.AuthPort
	if o.AdminToken != "" {
		admin = httpkit.StaticToken(o.AdminToken, "admin", modelhttp.ReloadScope)
	}
	return modkit.NewRoutes(b, svc, func(r httpkit.Router) { modelhttp.Register(r, svc, admin) })
}
