// Package config reads settings from namespaced environment variables.
// Invalid optional values log a warning and fall back to the default so a
// typo in one knob never keeps the agent from starting
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"lifesync/internal/platform/logger"
)

// Conf is a namespaced view over environment variables, e.g. Prefix("CORE_SYNC_")
type Conf struct{ prefix string }

// New creates a root Conf with no prefix
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Key returns the fully qualified variable name for key
func (c Conf) Key(key string) string { return c.prefix + key }

func (c Conf) lookup(key string) string { return strings.TrimSpace(os.Getenv(c.Key(key))) }

// may parses the value of key or returns def when it is unset. A value that
// does not parse is logged with why and def is used instead
func may[T any](c Conf, key string, def T, want string, parse func(string) (T, bool)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, ok := parse(s); ok {
		return v
	}
	logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Interface("default", def).
		Msgf("invalid %s; using default", want)
	return def
}

// MustString panics if key is missing or blank
func (c Conf) MustString(key string) string {
	v := c.lookup(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.Key(key)).Msg("missing required env")
	}
	return v
}

// MayString returns the value or def if missing
func (c Conf) MayString(key, def string) string {
	return may(c, key, def, "string", func(s string) (string, bool) { return s, true })
}

// MayInt returns the value or def if missing or invalid
func (c Conf) MayInt(key string, def int) int {
	return may(c, key, def, "int", func(s string) (int, bool) {
		v, err := strconv.Atoi(s)
		return v, err == nil
	})
}

// MayFloat64 returns the value or def if missing or invalid
func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, def, "float", func(s string) (float64, bool) {
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	})
}

// MayBool returns the value or def if missing or invalid
func (c Conf) MayBool(key string, def bool) bool {
	return may(c, key, def, "bool", func(s string) (bool, bool) {
		v, err := strconv.ParseBool(s)
		return v, err == nil
	})
}

// MayDuration returns the value or def if missing or invalid. "0" is a valid
// zero duration and disables interval based timers
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, "duration (e.g. 30s, 6h)", func(s string) (time.Duration, bool) {
		v, err := time.ParseDuration(s)
		return v, err == nil
	})
}

// MayURL returns an absolute URL without its trailing slash, or def
func (c Conf) MayURL(key, def string) string {
	return may(c, key, def, "absolute URL", func(s string) (string, bool) {
		u, err := url.Parse(s)
		return strings.TrimRight(s, "/"), err == nil && u.IsAbs()
	})
}

// MayDate returns a YYYY-MM-DD value as UTC midnight, or def
func (c Conf) MayDate(key string, def time.Time) time.Time {
	return may(c, key, def, "date (want YYYY-MM-DD)", func(s string) (time.Time, bool) {
		v, err := time.Parse(time.DateOnly, s)
		return v, err == nil
	})
}

// MayLocation returns the named IANA zone, "Local" and "UTC" included, or def
func (c Conf) MayLocation(key string, def *time.Location) *time.Location {
	return may(c, key, def, "time zone", func(s string) (*time.Location, bool) {
		v, err := time.LoadLocation(s)
		return v, err == nil
	})
}

// MayCSV splits a comma separated value, dropping blanks, or returns def
func (c Conf) MayCSV(key string, def []string) []string {
	return may(c, key, def, "list", func(s string) ([]string, bool) {
		var out []string
		for _, p := range strings.Split(s, ",") {
			if v := strings.TrimSpace(p); v != "" {
				out = append(out, v)
			}
		}
		return out, len(out) > 0
	})
}

// MayEnum returns the value lower cased if it is one of allowed, otherwise def
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	return may(c, key, def, "choice ("+strings.Join(allowed, "|")+")", func(s string) (string, bool) {
		for _, a := range allowed {
			if strings.EqualFold(s, a) {
				return a, true
			}
		}
		return "", false
	})
}
