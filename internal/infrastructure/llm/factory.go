package llm

import (
	"fmt"
	"log/slog"

	"github.com/psxom3/genai-regwatch/internal/config"
)

// NewFromConfig selects the provider named in cfg and wraps it in a Client.
func NewFromConfig(cfg config.CompletionConfig, logger *slog.Logger) (*Client, error) {
	var streamer Streamer
	switch cfg.Provider {
	case config.ProviderOllama, "":
		streamer = NewOllamaStreamer(cfg)
	case config.ProviderOpenAI:
		streamer = NewOpenAIStreamer(cfg)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}

	return NewClient(streamer, Options{
		Retries:           cfg.Retries,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	}), nil
}
