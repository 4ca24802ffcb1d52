package module

import (
	"time"

	"auracast/internal/platform/config"
)

// Options holds configuration settings for the score module
type Options struct {
	Workers   int
	KeepGoing bool
	// K is zero for the engine default
	K       int
	Timeout time.Duration
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("CORE_SCORE_")
	return Options{
		Workers:   sc.MayInt("WORKERS", 4),
		KeepGoing: sc.MayBool("KEEP_GOING", false),
		K:         sc.MayInt("K", 0),
		Timeout:   sc.MayDuration("TIMEOUT", 0),
	}
}
