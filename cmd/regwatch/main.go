// Package main provides the regwatch CLI for processing regulatory notifications.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/psxom3/genai-regwatch/internal/app"
	"github.com/psxom3/genai-regwatch/internal/config"
	"github.com/psxom3/genai-regwatch/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "regwatch",
	Short:         "Regulatory notification processing pipeline",
	Long:          "regwatch extracts text from registered regulatory documents, asks a language model for compliance actions and an executive summary, and stores the results.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp loads configuration, builds the application and closes it after fn.
func withApp(ctx context.Context, fn func(*app.Application) error) error {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := application.Close(); cerr != nil {
			logger.Warn("close application", "error", cerr)
		}
	}()

	return fn(application)
}
