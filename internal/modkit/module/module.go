// Package module is the contract every API and worker module satisfies
package module

import (
	phttp "auracast/internal/platform/net/http"
)

// Module mounts its routes, if any, and exposes a ports value other modules consume
type Module interface {
	Name() string
	Ports() any
	MountRoutes(r phttp.Router)
}
