package module

import (
	"time"

	"auracast/internal/platform/config"
)

// Options holds configuration settings for the audit module
type Options struct {
	Enabled          bool
	Timeout          time.Duration
	StatementTimeout time.Duration
	MaxRecent        int
	EnsureSchema     bool
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	af := cfg.Prefix("CORE_AUDIT_")
	return Options{
		Enabled:          af.MayBool("ENABLED", true),
		Timeout:          af.MayDuration("TIMEOUT", 2*time.Second),
		StatementTimeout: af.MayDuration("STATEMENT_TIMEOUT", time.Second),
		MaxRecent:        af.MayInt("MAX_RECENT", 200),
		EnsureSchema:     af.MayBool("ENSURE_SCHEMA", true),
	}
}
