// Package config reads ringroster settings from environment variables
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"ringroster/internal/platform/logger"
)

// Conf is a namespaced view over environment variables, e.g. New().Prefix("CORE_API_")
type Conf struct{ prefix string }

// New creates a root Conf with no prefix
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

// lookup returns the trimmed value of key, empty when unset
func (c Conf) lookup(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

// must returns the parsed value of key and panics when it is missing or does not parse
func must[T any](c Conf, key, what string, parse func(string) (T, bool)) T {
	s := c.lookup(key)
	if s == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	v, ok := parse(s)
	if !ok {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid " + what)
	}
	return v
}

// may returns the parsed value of key, def when missing; an unparsable value logs and yields def
func may[T any](c Conf, key, what string, def T, parse func(string) (T, bool)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, ok := parse(s)
	if !ok {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Msg("invalid " + what + "; using default")
		return def
	}
	return v
}

func parseString(s string) (string, bool) { return s, true }

func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func parseBool(s string) (bool, bool) {
	v, err := strconv.ParseBool(s)
	return v, err == nil
}

func parseDuration(s string) (time.Duration, bool) {
	v, err := time.ParseDuration(s)
	return v, err == nil
}

func parseURL(s string) (*url.URL, bool) {
	u, err := url.Parse(s)
	return u, err == nil && u.IsAbs()
}

// parsePort accepts "4000" or ":4000" and returns ":4000"
func parsePort(s string) (string, bool) {
	p, err := strconv.Atoi(strings.TrimPrefix(s, ":"))
	if err != nil || p < 1 || p > 65535 {
		return "", false
	}
	return ":" + strconv.Itoa(p), true
}

// MustString panics if key is missing or empty
func (c Conf) MustString(key string) string { return must(c, key, "string", parseString) }

// MustInt panics if key is missing or not an int
func (c Conf) MustInt(key string) int { return must(c, key, "int value", parseInt) }

// MustBool panics if key is missing or not a bool
func (c Conf) MustBool(key string) bool { return must(c, key, "bool value", parseBool) }

// MustDuration panics if key is missing or not a duration like 250ms or 2s
func (c Conf) MustDuration(key string) time.Duration {
	return must(c, key, "duration (e.g., 250ms, 2s, 1h)", parseDuration)
}

// MustURL panics if key is missing or not an absolute URL
func (c Conf) MustURL(key string) *url.URL { return must(c, key, "absolute URL", parseURL) }

// MustPort returns a listen addr like ":4000"; the port must be in 1..65535
func (c Conf) MustPort(key string) string {
	return must(c, key, "TCP port; expected 1..65535", parsePort)
}

// Require panics on the first key that is missing
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if c.lookup(k) == "" {
			logger.Get().Panic().Str("key", c.key(k)).Msg("missing required env")
		}
	}
}

// MayString returns the value or def
func (c Conf) MayString(key, def string) string { return may(c, key, "string", def, parseString) }

// MayInt returns the value or def
func (c Conf) MayInt(key string, def int) int { return may(c, key, "int", def, parseInt) }

// MayBool returns the value or def
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, "bool", def, parseBool) }

// MayDuration returns the value or def
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, "duration", def, parseDuration)
}

// MayPort returns a listen addr like ":4000" or def
func (c Conf) MayPort(key, def string) string { return may(c, key, "port", def, parsePort) }

// MayCSV splits a comma separated value, dropping blanks; def when nothing is left
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.lookup(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayPairs reads "k1=v1,k2=v2" into a map; entries without '=' or with an empty side are
// skipped with a warning
func (c Conf) MayPairs(key string) map[string]string {
	out := map[string]string{}
	for _, p := range c.MayCSV(key, nil) {
		k, v, ok := strings.Cut(p, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			logger.Get().Warn().Str("key", c.key(key)).Msg("skipping malformed pair")
			continue
		}
		out[k] = v
	}
	return out
}

// MayEnum returns the value when it is one of allowed (case-insensitive), def when missing,
// and panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(v)
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
