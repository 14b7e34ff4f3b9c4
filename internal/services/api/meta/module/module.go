// Package module mounts the meta endpoints under /meta. They stay outside
// operator auth so supervisors can probe the daemon
package module

import (
	"net/http"
	"time"

	modkit "lifesync/internal/modkit"
	"lifesync/internal/modkit/httpkit"
	str "lifesync/internal/platform/strings"

	metahttp "lifesync/internal/services/api/meta/http"
)

// Module serves health, readiness and version
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	deps   metahttp.Deps
	extra  func(httpkit.Router)
}

// New constructs the meta module. probes back /meta/ready
func New(_ modkit.Deps, probes []metahttp.Probe, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		extra:  b.Register,
		deps: metahttp.Deps{
			Service:   "lifesync",
			StartedAt: time.Now(),
			Probes:    probes,
		},
	}
}

// MountRoutes mounts the meta routes under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, func(r httpkit.Router) {
		metahttp.Register(r, m.deps)
		m.extra(r)
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Ports is nil, nothing wires against meta
func (m *Module) Ports() any { return nil }
