// Package version reports which build is running
package version

import (
	"cmp"
	"runtime"
	"runtime/debug"
)

// stamped with -ldflags "-X auracast/internal/core/version.version=v0.1.0 -X auracast/internal/core/version.commit=abc1234"
// commit and date fall back to the vcs settings go build embeds
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo identifies a running binary
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

var readBuildInfo = debug.ReadBuildInfo

// Info describes the current binary as service
func Info(service string) BuildInfo {
	b := BuildInfo{Service: service, Version: version, Commit: commit, Date: date, Go: runtime.Version()}
	if bi, ok := readBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				b.Commit = cmp.Or(b.Commit, shortSHA(s.Value))
			case "vcs.time":
				b.Date = cmp.Or(b.Date, s.Value)
			}
		}
	}
	b.Commit = cmp.Or(b.Commit, "unknown")
	b.Date = cmp.Or(b.Date, "unknown")
	return b
}

// String is the one-line banner used in logs and -version output
func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ", " + b.Go + ")"
}

func shortSHA(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
