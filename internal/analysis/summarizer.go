// Package analysis turns document text into an executive summary and action items.
package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/psxom3/genai-regwatch/internal/infrastructure/llm"
	"github.com/psxom3/genai-regwatch/internal/jsonrepair"
	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
	"github.com/psxom3/genai-regwatch/internal/textproc"
)

// Summarizer produces a partial-then-combined executive summary.
type Summarizer struct {
	completer  ports.Completer
	chunkWords int
	logger     *slog.Logger
}

// NewSummarizer builds a Summarizer. chunkWords <= 0 uses the default window.
func NewSummarizer(completer ports.Completer, chunkWords int, logger *slog.Logger) *Summarizer {
	return &Summarizer{completer: completer, chunkWords: chunkWords, logger: logging.OrDiscard(logger)}
}

// Summarize always returns a non-empty summary. actionsJSON selects the
// synthesis prompt: a non-empty action list asks for a compliance focus.
func (s *Summarizer) Summarize(ctx context.Context, text, title, actionsJSON string) string {
	chunks := textproc.Prepare(text, s.chunkWords)

	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out := s.completer.Complete(ctx, chunkSummaryPrompt(i+1, title, chunk), chunkSummaryTokens)
		if llm.IsFailure(out) {
			s.logger.Debug("chunk summary failed", "title", title, "part", i+1)
			out = NoMaterialContent
		}
		partials = append(partials, out)
	}
	combined := strings.Join(partials, "\n")

	var prompt string
	if HasActions(actionsJSON) {
		prompt = complianceSynthesisPrompt(title, combined)
	} else {
		prompt = administrativeSynthesisPrompt(title, combined)
	}

	final := s.completer.Complete(ctx, prompt, finalSummaryTokens)
	if llm.IsFailure(final) {
		s.logger.Warn("final summary failed", "title", title, "parts", len(chunks))
		return NoSummaryAvailable
	}
	return final
}

// HasActions reports whether actionsJSON holds a non-empty JSON array.
func HasActions(actionsJSON string) bool {
	if strings.TrimSpace(actionsJSON) == "" {
		return false
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(jsonrepair.Repair(actionsJSON)), &items); err != nil {
		return false
	}
	return len(items) > 0
}
