// Package module wires the summarization pipeline and its routes
package module

import (
	"net/http"

	"lifesync/internal/adapters/llm"
	"lifesync/internal/modkit"
	"lifesync/internal/modkit/httpkit"
	str "lifesync/internal/platform/strings"
	"lifesync/internal/services/summarize/domain"
	sumhttp "lifesync/internal/services/summarize/http"
	"lifesync/internal/services/summarize/service"
)

// Ports exposes the summary runner to other modules
type Ports struct {
	Runner domain.Runner
}

// Module implements the summarize module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	register func(httpkit.Router)

	opts  Options
	svc   *service.Service
	ports Ports
}

// New validates opts and builds the LLM client, hash tracker and pipeline
func New(deps modkit.Deps, opts Options, hashes domain.Hashes, extra ...modkit.Option) (*Module, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := modkit.Build(append([]modkit.Option{modkit.WithName("summarize"), modkit.WithPrefix("/summaries")}, extra...)...)

	client := llm.NewClient(llm.Options{
		BaseURL:          opts.LLM.URL,
		APIKey:           opts.LLM.Key,
		Model:            opts.LLM.Model,
		Temperature:      opts.LLM.Temperature,
		MaxTokens:        opts.LLM.MaxTokens,
		Timeout:          opts.LLM.Timeout,
		MaxRetries:       opts.LLM.Retries,
		RetryBase:        opts.LLM.RetryBase,
		RateLimitRetries: opts.LLM.RateRetries,
	})
	docs := deps.DocStore()
	tr := &service.Tracker{Docs: docs, Hashes: hashes, Dir: opts.SourceDir, SummaryDir: opts.SummaryDir}
	svc := service.New(client, docs, tr, deps.Notifier(), service.Config{
		Enabled:    opts.Enabled,
		SummaryDir: opts.SummaryDir,
		Prompt:     opts.Prompt,
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
		sumhttp.Register(r, m.svc)
		external(r)
	}

	deps.Log.Info().
		Bool("enabled", opts.Enabled).
		Str("model", opts.LLM.Model).
		Str("dir", opts.SummaryDir).
		Bool("api_key", client.HasKey()).
		Msg("summarize module ready")
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

// Runner returns the summary runner
func (m *Module) Runner() domain.Runner { return m.svc }

// Options returns the options the module was built with
func (m *Module) Options() Options { return m.opts }
