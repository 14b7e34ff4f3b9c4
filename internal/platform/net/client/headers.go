package client

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// parseRateHeaders reads Retry-After (seconds or HTTP-date) and the
// X-RateLimit-Remaining / X-RateLimit-Reset pair some APIs send alongside it
func parseRateHeaders(h http.Header, now time.Time) (retryAfter time.Duration, remaining int, reset time.Time) {
	remaining = -1
	if s := strings.TrimSpace(h.Get("X-RateLimit-Remaining")); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			remaining = n
		}
	}
	if s := strings.TrimSpace(h.Get("X-RateLimit-Reset")); s != "" {
		if sec, err := strconv.ParseInt(s, 10, 64); err == nil && sec > 0 {
			reset = time.Unix(sec, 0).UTC()
		}
	}

	ra := strings.TrimSpace(h.Get("Retry-After"))
	if ra == "" {
		return
	}
	if sec, err := strconv.Atoi(ra); err == nil {
		if sec > 0 {
			retryAfter = time.Duration(sec) * time.Second
		}
		return
	}
	if at, err := http.ParseTime(ra); err == nil && at.After(now) {
		retryAfter = at.Sub(now)
	}
	return
}

// computeWait decides how long to wait based on headers, 0 when they say nothing useful
func computeWait(h http.Header, now time.Time) time.Duration {
	retryAfter, remaining, reset := parseRateHeaders(h, now)
	if retryAfter > 0 {
		return retryAfter
	}
	if remaining == 0 && reset.After(now) {
		return reset.Sub(now)
	}
	return 0
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
