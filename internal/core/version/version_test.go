package version

import (
	"runtime/debug"
	"strings"
	"testing"

	"auracast/internal/platform/testkit"
)

func TestInfo_VCSFallback(t *testing.T) {
	testkit.Swap(t, &readBuildInfo, func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
		}}, true
	})

	b := Info("auracast-api")
	if b.Commit != "0123456" || b.Date != "2026-10-01T12:00:00Z" || b.Go == "" {
		t.Fatalf("info = %+v", b)
	}
	if !strings.HasPrefix(b.String(), "auracast-api dev (0123456, ") {
		t.Fatalf("banner = %q", b.String())
	}
}

func TestInfo_LinkStampWins(t *testing.T) {
	testkit.Swap(t, &commit, "feedbee")
	testkit.Swap(t, &readBuildInfo, func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789"}}}, true
	})
	if got := Info("x").Commit; got != "feedbee" {
		t.Fatalf("commit = %q", got)
	}
}

func TestInfo_NoBuildInfo(t *testing.T) {
	testkit.Swap(t, &readBuildInfo, func() (*debug.BuildInfo, bool) { return nil, false })
	b := Info("x")
	if b.Commit != "unknown" || b.Date != "unknown" {
		t.Fatalf("info = %+v", b)
	}
}
