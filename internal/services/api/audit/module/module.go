// Package module mounts the audit trail read API
package module

import (
	"auracast/internal/modkit"
	"auracast/internal/modkit/httpkit"
	"auracast/internal/modkit/module"
	audithttp "auracast/internal/services/api/audit/http"
	auditdom "auracast/internal/services/audit/domain"
)

// Ports declares the injected query port (from services/audit)
type Ports struct {
	Query auditdom.QueryPort
}

// New mounts /audit; without a query port every route answers 503
func New(_ modkit.Deps, opts ...modkit.Option) module.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("audit-api"), modkit.WithPrefix("/audit")}, opts...)...)
	q := modkit.Injected[Ports](b).Query
	return modkit.NewRoutes(b, nil, func(r httpkit.Router) { audithttp.Register(r, q) })
}
