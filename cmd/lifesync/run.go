package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lifesync/internal/core/runstate"
	syncdom "lifesync/internal/services/sync/domain"

	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	var (
		full  bool
		start string
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch lifelogs and write daily documents",
		Long: `Fetch lifelogs and write daily documents.

An incremental run starts at the stored cursor and advances it. A full run
starts at the configured date, rewrites every document and leaves the cursor.

Examples:
  lifesync sync
  lifesync sync --full --start 2024-01-01
  lifesync sync --start "2 weeks ago"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := open(ctx, false)
			if err != nil {
				return err
			}
			defer e.close()

			req := syncdom.Request{Mode: syncdom.Incremental, Start: start}
			if full {
				req.Mode = syncdom.Full
			}
			r := e.app.Sync.Runner()
			out, err := foreground(ctx, cmd.ErrOrStderr(), r.Snapshot, r.Cancel, func(ctx context.Context) (runstate.Outcome, error) {
				return r.Start(ctx, req)
			})
			return report(cmd.OutOrStdout(), out, err)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "resync from the start date and overwrite documents")
	cmd.Flags().StringVar(&start, "start", "", "start date override, YYYY-MM-DD or a phrase like \"last monday\"")
	return cmd
}

func summarizeCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize changed daily documents with the configured LLM",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := open(ctx, false)
			if err != nil {
				return err
			}
			defer e.close()

			r := e.app.Summarize.Runner()
			out, err := foreground(ctx, cmd.ErrOrStderr(), r.Snapshot, r.Cancel, func(ctx context.Context) (runstate.Outcome, error) {
				return r.SummarizeAll(ctx, force)
			})
			return report(cmd.OutOrStdout(), out, err)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "summarize every document, changed or not")
	return cmd
}

// foreground runs fn while redrawing a progress line on w. When ctx ends the
// run is asked to cancel and foreground waits for it to drain
func foreground(
	ctx context.Context,
	w io.Writer,
	snap func() runstate.Snapshot,
	cancel func() bool,
	fn func(context.Context) (runstate.Outcome, error),
) (runstate.Outcome, error) {
	type result struct {
		out runstate.Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := fn(ctx)
		done <- result{out, err}
	}()

	t := time.NewTicker(250 * time.Millisecond)
	defer t.Stop()
	stopping := ctx.Done()
	last := ""
	for {
		select {
		case res := <-done:
			if last != "" {
				fmt.Fprintln(w)
			}
			return res.out, res.err
		case <-stopping:
			stopping = nil
			if cancel() {
				fmt.Fprint(w, "\ncancelling...")
			}
		case <-t.C:
			if line := progressLine(snap()); line != "" && line != last {
				fmt.Fprintf(w, "\r%-72s", line)
				last = line
			}
		}
	}
}

func progressLine(s runstate.Snapshot) string {
	if !s.Active {
		return ""
	}
	if s.Total == 0 {
		return s.Status
	}
	width := 24
	filled := width * s.Percent / 100
	return fmt.Sprintf("[%s%s] %3d%% %s", strings.Repeat("#", filled), strings.Repeat(".", width-filled), s.Percent, s.Status)
}

func report(w io.Writer, out runstate.Outcome, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out.Message)
	if out.Phase == runstate.Completed && out.Failed > 0 {
		return fmt.Errorf("%d of %d failed", out.Failed, out.Units)
	}
	return nil
}
