package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/psxom3/genai-regwatch/internal/app"
	"github.com/psxom3/genai-regwatch/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Register a downloaded document for processing",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

var (
	ingestRegulator string
	ingestTitle     string
	ingestURL       string
	ingestPubDate   string
	ingestForce     bool
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestRegulator, "regulator", "r", "", "Issuing regulator (required)")
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "Document title (required)")
	ingestCmd.Flags().StringVarP(&ingestURL, "url", "u", "", "Source URL")
	ingestCmd.Flags().StringVar(&ingestPubDate, "pub-date", "", "Publication date (YYYY-MM-DD)")
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "Requeue the document even if its content is already known")
	_ = ingestCmd.MarkFlagRequired("regulator")
	_ = ingestCmd.MarkFlagRequired("title")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	pubDate, err := parsePubDate(ingestPubDate)
	if err != nil {
		return err
	}

	sub := usecase.Submission{
		Regulator: strings.TrimSpace(ingestRegulator),
		Title:     strings.TrimSpace(ingestTitle),
		URL:       strings.TrimSpace(ingestURL),
		PubDate:   pubDate,
	}

	return withApp(cmd.Context(), func(a *app.Application) error {
		result, err := a.Ingest(cmd.Context(), args[0], sub, ingestForce)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: id=%d hash=%s\n", result.Status, result.Document.ID, result.Document.Hash)
		return nil
	})
}

func parsePubDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --pub-date %q: %w", raw, err)
	}
	return t, nil
}
