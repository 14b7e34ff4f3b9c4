// Package module wires the lifelog sync engine and its routes
package module

import (
	"net/http"

	"lifesync/internal/adapters/lifelog"
	"lifesync/internal/modkit"
	"lifesync/internal/modkit/httpkit"
	str "lifesync/internal/platform/strings"
	"lifesync/internal/services/sync/domain"
	synchttp "lifesync/internal/services/sync/http"
	"lifesync/internal/services/sync/service"
)

// Ports exposes the sync runner to other modules
type Ports struct {
	Runner domain.Runner
}

// Module implements the sync module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	register func(httpkit.Router)

	opts  Options
	svc   *service.Service
	ports Ports
}

// New validates opts and builds the client, aggregator, writer and scheduler
func New(deps modkit.Deps, opts Options, st domain.State, extra ...modkit.Option) (*Module, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := modkit.Build(append([]modkit.Option{modkit.WithName("sync"), modkit.WithPrefix("/sync")}, extra...)...)

	api := lifelog.NewClient(lifelog.Options{
		BaseURL:          opts.Lifelog.URL,
		APIKey:           opts.Lifelog.Key,
		PageSize:         opts.Lifelog.PageSize,
		Timeout:          opts.Lifelog.Timeout,
		MaxRetries:       opts.Lifelog.Retries,
		RetryBase:        opts.Lifelog.RetryBase,
		RateLimitRetries: opts.Lifelog.RateRetries,
	})

	agg := service.NewAggregator(api)
	agg.Timezone = opts.Timezone
	agg.Descending = opts.Order == OrderDesc

	w := &service.Writer{
		Docs:   deps.DocStore(),
		Dir:    opts.OutputDir,
		Render: service.Renderer{Loc: opts.Location, Debug: opts.Debug},
	}

	svc := service.New(api, agg, w, st, deps.Notifier(), service.Config{
		Workers:    opts.Workers,
		Delay:      opts.Delay,
		DayRetries: opts.DayRetries,
		Overwrite:  opts.Overwrite,
		StartDate:  opts.StartDate,
		Location:   opts.Location,
	})

	m := &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		opts:   opts,
		svc:    svc,
		ports:  Ports{Runner: svc},
	}
	external := b.Register
	m.register = func(r httpkit.Router) {
		synchttp.Register(r, m.svc)
		external(r)
	}

	deps.Log.Info().
		Str("output", opts.OutputDir).
		Str("zone", opts.Location.String()).
		Int("workers", opts.Workers).
		Bool("api_key", api.HasKey()).
		Msg("sync module ready")
	return m, nil
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, m.register)
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Runner returns the sync runner
func (m *Module) Runner() domain.Runner { return m.svc }

// Options returns the options the module was built with
func (m *Module) Options() Options { return m.opts }
