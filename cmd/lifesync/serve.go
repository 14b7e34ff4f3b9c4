package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifesync/internal/platform/logger"
	phttp "lifesync/internal/platform/net/http"
	"lifesync/internal/services/autorun"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var noTimers bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the timers and the control API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log := logger.Named("serve")

			e, err := open(ctx, true)
			if err != nil {
				return err
			}
			defer e.close()

			srv := phttp.NewServer(e.cfg.Prefix("CORE_"))
			e.app.Mount(srv.Router())

			errc := make(chan error, 2)
			go func() { errc <- srv.Run(ctx) }()
			if !noTimers {
				timers := autorun.New(e.app.Sync.Runner(), e.app.Summarize.Runner(), autorun.FromConfig(
					e.cfg,
					e.app.Sync.Options().Interval,
					e.app.Summarize.Options().Interval,
				))
				go func() { errc <- timers.Run(ctx) }()
			}

			select {
			case <-ctx.Done():
			case err := <-errc:
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("component stopped")
				}
			}

			log.Info().Msg("shutting down")
			e.app.Shutdown()
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		},
	}
	cmd.Flags().BoolVar(&noTimers, "no-timers", false, "serve the control API without automatic runs")
	return cmd
}
