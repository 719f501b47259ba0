package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo describes this process in system.query_log
// role is the binary role such as "api" or "sync"
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	type product = struct{ Name, Version string }
	var ps []product
	for _, p := range []product{
		{"ringroster", tag},
		{"role", role},
		{"go", runtime.Version()},
		{"commit", vcsRevision()},
		{"host", host},
	} {
		if v := strings.TrimSpace(p.Version); v != "" {
			ps = append(ps, product{p.Name, v})
		}
	}
	return clickhouse.ClientInfo{Products: ps}
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
