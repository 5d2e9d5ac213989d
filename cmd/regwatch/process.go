package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psxom3/genai-regwatch/internal/app"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one processing pass over NEW documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app.Application) error {
			report, err := a.Process(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: selected=%d processed=%d failed=%d exhausted=%d elapsed=%s\n",
				report.RunID, report.Selected, report.Processed, report.Failed, report.Exhausted, report.Elapsed)
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run processing passes on the configured interval until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app.Application) error {
			return a.Watch(cmd.Context())
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only documents API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app.Application) error {
			return a.Serve(cmd.Context())
		})
	},
}

func init() {
	rootCmd.AddCommand(processCmd, watchCmd, serveCmd)
}
