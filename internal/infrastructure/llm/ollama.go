package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/psxom3/genai-regwatch/internal/config"
)

// OllamaStreamer reads the NDJSON stream of /api/generate.
type OllamaStreamer struct {
	url        string
	model      string
	httpClient *http.Client
}

var _ Streamer = (*OllamaStreamer)(nil)

// NewOllamaStreamer builds a streamer from configuration.
func NewOllamaStreamer(cfg config.CompletionConfig) *OllamaStreamer {
	return &OllamaStreamer{
		url:        strings.TrimRight(cfg.Endpoint, "/") + "/api/generate",
		model:      cfg.Model,
		httpClient: &http.Client{},
	}
}

type ollamaFragment struct {
	Response *string `json:"response"`
	Output   *string `json:"output"`
}

// Stream accumulates "response" (or "output") fields; unparseable lines are skipped.
func (o *OllamaStreamer) Stream(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body := map[string]any{
		"model":      o.model,
		"prompt":     prompt,
		"max_tokens": maxTokens,
		"options":    map[string]int{"num_predict": maxTokens},
	}

	var out strings.Builder
	err := postStream(ctx, o.httpClient, o.url, nil, body, func(line []byte) bool {
		var frag ollamaFragment
		if err := json.Unmarshal(line, &frag); err != nil {
			return true
		}
		switch {
		case frag.Response != nil:
			out.WriteString(*frag.Response)
		case frag.Output != nil:
			out.WriteString(*frag.Output)
		}
		return true
	})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
