// Package module wires the sync state backend
package module

import (
	"context"
	"strings"

	"lifesync/internal/modkit"
	"lifesync/internal/modkit/httpkit"
	"lifesync/internal/modkit/repokit"
	perr "lifesync/internal/platform/errors"
	"lifesync/internal/services/state/domain"
	"lifesync/internal/services/state/repo"
)

// Ports exposes the state store to other modules
type Ports struct {
	Store domain.Store
}

// Module implements the state module
type Module struct {
	ports   Ports
	backend string
}

// New opens the configured backend. The pg backend needs deps.PG and
// creates its tables on first use
func New(ctx context.Context, deps modkit.Deps, opts Options) (*Module, error) {
	m := &Module{backend: strings.ToLower(opts.Backend)}
	switch m.backend {
	case BackendPG:
		if deps.PG == nil {
			return nil, perr.InvalidArgf("state backend pg requires SERVICE_PGSQL_DBURL")
		}
		if err := repo.EnsureSchema(ctx, deps.PG); err != nil {
			return nil, err
		}
		m.ports.Store = repokit.MustBind(repo.NewPG(), deps.PG)
	default:
		m.backend = BackendFile
		m.ports.Store = repo.NewFile(deps.DocStore(), opts.Dir)
	}
	deps.Log.Info().Str("backend", m.backend).Msg("state store ready")
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string { return "state" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Store returns the opened store
func (m *Module) Store() domain.Store { return m.ports.Store }

// Backend reports which backend was opened
func (m *Module) Backend() string { return m.backend }

// MountRoutes is a no-op, state has no routes
func (m *Module) MountRoutes(httpkit.Router) {}
