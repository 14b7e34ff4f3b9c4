// Package module wires operator controls that span the sync and summary modules
package module

import (
	"net/http"

	"lifesync/internal/modkit"
	"lifesync/internal/modkit/httpkit"
	str "lifesync/internal/platform/strings"
	controlhttp "lifesync/internal/services/api/control/http"
)

// Ports are the cross module ports this module consumes
type Ports = controlhttp.Deps

// Module implements the control module
type Module struct {
	name     string
	mws      []func(http.Handler) http.Handler
	register func(httpkit.Router)
}

// New constructs the control module. Lifelog and LLM checkers are required
// and come from the sync and summarize modules
func New(_ modkit.Deps, p Ports, opts ...modkit.Option) modkit.Module {
	if p.Lifelog == nil || p.LLM == nil {
		panic("control module requires lifelog and llm checkers")
	}
	b := modkit.Build(append([]modkit.Option{modkit.WithName("control")}, opts...)...)

	m := &Module{name: b.Name, mws: b.Mw}
	external := b.Register
	m.register = func(r httpkit.Router) {
		controlhttp.Register(r, p)
		external(r)
	}
	return m
}

// MountRoutes mounts the routes at the API root
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Group(func(g httpkit.Router) {
		if len(m.mws) > 0 {
			g.Use(m.mws...)
		}
		m.register(g)
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Ports returns nil, nothing depends on control
func (m *Module) Ports() any { return nil }
