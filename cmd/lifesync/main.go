// @title                      lifesync API
// @version                    0.1.0
// @description                Control endpoints for lifelog sync and summaries
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization

// Command lifesync pulls lifelog entries into per-day markdown documents and
// summarizes them
package main

import (
	"context"
	"fmt"
	"os"

	"lifesync/internal/core/version"
	"lifesync/internal/platform/config"
	"lifesync/internal/platform/logger"
	"lifesync/internal/platform/store"
	"lifesync/internal/services/api"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lifesync",
		Short:         "Sync lifelog entries into daily markdown documents",
		Version:       version.Info().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.Init(logger.FromEnv())
		},
	}

	root.AddCommand(syncCmd())
	root.AddCommand(summarizeCmd())
	root.AddCommand(cursorCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	return root
}

// env is what every command needs: the composed app and the optional store
type env struct {
	cfg   config.Conf
	app   *api.App
	store *store.Store
}

// open composes the app. serving enables the daemon only surfaces, the
// profiler and the API docs, when CORE_API_ turns them on
func open(ctx context.Context, serving bool) (*env, error) {
	cfg := config.New()
	apiCfg := cfg.Prefix("CORE_API_")
	l := logger.Get()

	st, err := store.Open(ctx, store.Config{AppName: "lifesync", PG: store.PGFromConfig(cfg)}, store.WithLogger(*l))
	if err != nil {
		return nil, err
	}
	if err := st.Guard(ctx); err != nil {
		_ = st.Close(ctx)
		return nil, err
	}
	app, err := api.Build(ctx, api.Options{
		Config:         cfg,
		Store:          st,
		Logger:         l,
		EnableProfiler: serving && apiCfg.MayBool("PROFILER", false),
		EnableSwagger:  serving && apiCfg.MayBool("SWAGGER", true),
	})
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}
	return &env{cfg: cfg, app: app, store: st}, nil
}

func (e *env) close() {
	if err := e.store.Close(context.Background()); err != nil {
		logger.Get().Error().Err(err).Msg("failed to close store")
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info().String())
		},
	}
}
