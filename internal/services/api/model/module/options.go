package module

import (
	"auracast/internal/platform/config"
	infmod "auracast/internal/services/api/inference/module"
)

// Options holds the model admin settings
type Options struct {
	// AdminToken guards reload; empty disables the route
	AdminToken string
	ModelPath  string
}

// FromConfig reads CORE_API_ADMIN_TOKEN and the engine model path
func FromConfig(cfg config.Conf) Options {
	return Options{
		AdminToken: cfg.Prefix("CORE_API_").MayString("ADMIN_TOKEN", ""),
		ModelPath:  infmod.FromConfig(cfg).ModelPath,
	}
}
