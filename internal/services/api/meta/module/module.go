// Package module mounts the health, readiness and build info routes
package module

import (
	"time"

	"auracast/internal/modkit"
	"auracast/internal/modkit/httpkit"
	"auracast/internal/modkit/module"
	metahttp "auracast/internal/services/api/meta/http"
)

// ServiceName is reported by /meta/health, /meta/service and /meta/version
const ServiceName = "auracast-api"

// New mounts the meta routes at /meta
func New(deps modkit.Deps, opts ...modkit.Option) module.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}, opts...)...)

	md := metahttp.Deps{ServiceName: ServiceName, StartedAt: time.Now()}
	// typed nils would defeat the skipped checks
	if deps.Engine != nil {
		md.Model = deps.Engine
	}
	if deps.PG != nil {
		md.PG = deps.PG
	}
	if deps.CH != nil {
		md.CH = deps.CH
	}
	return modkit.NewRoutes(b, nil, func(r httpkit.Router) { metahttp.Register(r, md) })
}
