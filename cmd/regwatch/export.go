package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/psxom3/genai-regwatch/internal/app"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every extracted action item to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app.Application) error {
			data, err := a.ExportActions(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", exportOutput, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", exportOutput, len(data))
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "actions.xlsx", "Output workbook path")
	rootCmd.AddCommand(exportCmd)
}
