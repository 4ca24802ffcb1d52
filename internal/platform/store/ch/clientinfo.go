package ch

import (
	"os"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"

	"auracast/internal/core/version"
)

// ClientInfo tags the connection so system.query_log shows who issued each query
// products are ordered: tag, role, go, commit, host
func ClientInfo(role, tag string) clickhouse.ClientInfo {
	b := version.Info(role)
	host, _ := os.Hostname()

	info := clickhouse.ClientInfo{}
	for _, p := range [][2]string{
		{"auracast", tag},
		{"role", role},
		{"go", b.Go},
		{"commit", b.Commit},
		{"host", host},
	} {
		info.Products = append(info.Products, struct{ Name, Version string }{p[0], orUnknown(p[1])})
	}
	return info
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return "unknown"
}
