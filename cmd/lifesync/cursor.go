package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func cursorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cursor",
		Short: "Show or reset the incremental sync cursor",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored cursor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			cur, err := e.app.Sync.Runner().Cursor(cmd.Context())
			if err != nil {
				return err
			}
			if cur.IsZero() {
				fmt.Fprintln(cmd.OutOrStdout(), "no cursor, the next incremental sync starts at the configured date")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cur.Format(time.RFC3339))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the cursor so the next incremental sync starts at the configured date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.app.Sync.Runner().ResetCursor(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cursor reset")
			return nil
		},
	})
	return cmd
}
