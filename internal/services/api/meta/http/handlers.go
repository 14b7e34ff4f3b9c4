// Package http serves the unauthenticated meta endpoints
package http

import (
	"context"
	"net/http"
	"time"

	"lifesync/internal/core/version"
	"lifesync/internal/modkit/httpkit"
)

// Probe is one readiness check, e.g. the output directory or postgres
type Probe struct {
	Name  string
	Check func(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	Service   string
	StartedAt time.Time
	Probes    []Probe
	// Timeout bounds the whole /ready pass, default 2s
	Timeout time.Duration
	Now     func() time.Time
}

// Health is the /health payload
type Health struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Check is the outcome of one probe
type Check struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Readiness is the /ready payload
type Readiness struct {
	Ready  bool    `json:"ready"`
	Checks []Check `json:"checks"`
}

// Register mounts /health, /ready and /version
func Register(r httpkit.Router, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Timeout <= 0 {
		d.Timeout = 2 * time.Second
	}
	h := &handlers{deps: d}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.readiness)
	httpkit.Get(r, "/version", h.buildInfo)
}

type handlers struct{ deps Deps }

// @Summary Liveness and uptime
// @Tags    Meta
// @Produce json
// @Success 200 {object} Health
// @Router  /meta/health [get]
func (h *handlers) health(*http.Request) (any, error) {
	return Health{
		Service: h.deps.Service,
		Version: version.Info().Version,
		Uptime:  h.deps.Now().Sub(h.deps.StartedAt).Truncate(time.Second).String(),
	}, nil
}

// @Summary Readiness with per probe detail
// @Tags    Meta
// @Produce json
// @Success 200 {object} Readiness
// @Failure 503 {object} Readiness
// @Router  /meta/ready [get]
func (h *handlers) readiness(req *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(req.Context(), h.deps.Timeout)
	defer cancel()
	return h.deps.ready(ctx)
}

// @Summary Build information
// @Tags    Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router  /meta/version [get]
func (h *handlers) buildInfo(*http.Request) (any, error) {
	return version.Info(), nil
}

// ready runs every probe. Any failure turns the reply into a 503 that still
// carries the per probe detail
func (d Deps) ready(ctx context.Context) (any, error) {
	out := Readiness{Ready: true, Checks: make([]Check, 0, len(d.Probes))}
	for _, p := range d.Probes {
		c := Check{Name: p.Name, OK: true}
		if err := p.Check(ctx); err != nil {
			c.OK, c.Error = false, err.Error()
			out.Ready = false
		}
		out.Checks = append(out.Checks, c)
	}
	if !out.Ready {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
	}
	return out, nil
}
