package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/psxom3/genai-regwatch/internal/config"
)

// OpenAIStreamer reads server-sent events from an OpenAI-compatible chat completions API.
type OpenAIStreamer struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ Streamer = (*OpenAIStreamer)(nil)

// NewOpenAIStreamer builds a streamer from configuration.
func NewOpenAIStreamer(cfg config.CompletionConfig) *OpenAIStreamer {
	return &OpenAIStreamer{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{},
	}
}

type openAIChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

var (
	dataPrefix = []byte("data:")
	doneMarker = []byte("[DONE]")
)

// Stream posts the prompt as a user message and concatenates delta contents.
func (c *OpenAIStreamer) Stream(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", errors.New("openai client misconfigured")
	}

	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": prompt},
		},
		"max_tokens": maxTokens,
		"stream":     true,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Accept":        "text/event-stream",
	}

	var out strings.Builder
	err := postStream(ctx, c.httpClient, c.endpoint, headers, body, func(line []byte) bool {
		if !bytes.HasPrefix(line, dataPrefix) {
			return true
		}
		data := bytes.TrimSpace(line[len(dataPrefix):])
		if bytes.Equal(data, doneMarker) {
			return false
		}
		var chunk openAIChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return true
		}
		for _, choice := range chunk.Choices {
			out.WriteString(choice.Delta.Content)
		}
		return true
	})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a compliance assistant for regulatory notifications."
	}
	return prompt
}
