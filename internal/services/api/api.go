// Package api composes the lifesync modules and mounts the control API
package api

import (
	"context"

	"lifesync/internal/adapters/docstore"
	"lifesync/internal/modkit"
	"lifesync/internal/modkit/httpkit"
	"lifesync/internal/modkit/module"
	"lifesync/internal/modkit/swaggerkit"
	"lifesync/internal/platform/config"
	"lifesync/internal/platform/logger"
	phttp "lifesync/internal/platform/net/http"
	"lifesync/internal/platform/notify"
	"lifesync/internal/platform/store"

	controlmod "lifesync/internal/services/api/control/module"
	metahttp "lifesync/internal/services/api/meta/http"
	metamod "lifesync/internal/services/api/meta/module"
	statemod "lifesync/internal/services/state/module"
	summod "lifesync/internal/services/summarize/module"
	syncmod "lifesync/internal/services/sync/module"
)

// Options are the composition options
type Options struct {
	// Config is the root config, modules read their own prefixes from it
	Config config.Conf
	// Store carries the optional postgres backend, nil runs file state only
	Store          *store.Store
	Logger         *logger.Logger
	Docs           *docstore.FS
	EnableProfiler bool
	// EnableSwagger serves the OpenAPI document and UI under /api/docs
	EnableSwagger bool
	// FeedSize bounds the in-memory notification feed
	FeedSize int
}

// App holds the composed modules. The CLI drives the runners directly and
// the daemon mounts the same modules under /api/v1
type App struct {
	State     *statemod.Module
	Sync      *syncmod.Module
	Summarize *summod.Module
	Feed      *notify.Feed

	mods     []module.Module
	tokens   *httpkit.TokenPort
	profiler bool
	swagger  bool
}

// Build opens the state store and constructs every module
func Build(ctx context.Context, opt Options) (*App, error) {
	if opt.Logger == nil {
		opt.Logger = logger.Get()
	}
	feed := notify.NewFeed(opt.FeedSize, notify.Log{})
	deps := modkit.Deps{
		Log:    *opt.Logger,
		Cfg:    opt.Config,
		Docs:   opt.Docs,
		Notify: feed,
	}
	if opt.Store != nil && opt.Store.PG != nil {
		deps.PG = opt.Store.PG
	}

	st, err := statemod.New(ctx, deps, statemod.FromConfig(opt.Config))
	if err != nil {
		return nil, err
	}
	sm, err := syncmod.New(deps, syncmod.FromConfig(opt.Config), st.Store())
	if err != nil {
		return nil, err
	}
	sum, err := summod.New(deps, summod.FromConfig(opt.Config, sm.Options().OutputDir), st.Store())
	if err != nil {
		return nil, err
	}
	ctl := controlmod.New(deps, controlmod.Ports{
		Lifelog: module.MustPortsOf[syncmod.Ports](sm).Runner,
		LLM:     module.MustPortsOf[summod.Ports](sum).Runner,
		Feed:    feed,
	})

	probes := []metahttp.Probe{{
		Name:  "docs",
		Check: func(ctx context.Context) error { return deps.DocStore().EnsureDir(ctx, sm.Options().OutputDir) },
	}}
	if p, ok := deps.PG.(store.Pinger); ok {
		probes = append(probes, metahttp.Probe{Name: "pg", Check: p.Ping})
	}

	apiCfg := opt.Config.Prefix("CORE_API_")
	return &App{
		State:     st,
		Sync:      sm,
		Summarize: sum,
		Feed:      feed,
		mods:      []module.Module{metamod.New(deps, probes), st, sm, sum, ctl},
		tokens:    httpkit.NewTokenPort(apiCfg.MayCSV("TOKENS", nil)...),
		profiler:  opt.EnableProfiler,
		swagger:   opt.EnableSwagger,
	}, nil
}

// Mount mounts every module under /api/v1. Routes other than /meta sit
// behind the operator tokens when any are configured
func (a *App) Mount(r phttp.Router) {
	swaggerkit.Mount(r, a.swagger, swaggerkit.Secured(a.tokens != nil))
	phttp.MountProfiler(r, "/debug", a.profiler)
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		for _, m := range a.mods {
			if m.Name() == "meta" {
				m.MountRoutes(api)
				continue
			}
			httpkit.Protected(api, a.tokens, m.MountRoutes)
		}
	})
	if a.tokens == nil {
		logger.Named("api").Warn().Msg("CORE_API_TOKENS not set, control routes are open")
	}
}

// Shutdown cancels active runs so they stop at their next checkpoint
func (a *App) Shutdown() {
	a.Sync.Runner().Cancel()
	a.Summarize.Runner().Cancel()
}
