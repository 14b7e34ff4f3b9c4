package main

import (
	"fmt"
	"strings"

	"lifesync/internal/adapters/lifelog"

	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test the configured API credentials",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "lifelog",
		Short: "Test the lifelog API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			chk := e.app.Sync.Runner().CheckCredential(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "lifelog: %s\n", chk.Status)
			if chk.Status != lifelog.CheckOK {
				return fmt.Errorf("lifelog credential %s: %s", chk.Status, chk.Detail)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "llm",
		Short: "Test the LLM API key and list usable chat models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			chk := e.app.Summarize.Runner().ValidateCredential(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "llm: %s\n", chk.Status)
			if !chk.Usable() {
				return fmt.Errorf("llm credential %s: %s", chk.Status, chk.Detail)
			}
			if len(chk.Models) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "models: %s\n", strings.Join(chk.Models, ", "))
			}
			return nil
		},
	})
	return cmd
}
