// Package llm reaches the text-completion endpoint.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

// FailureSentinel is returned instead of model output when every attempt fails.
const FailureSentinel = "LLM_CALL_FAILED"

// IsFailure reports whether out must be replaced by a caller fallback.
func IsFailure(out string) bool {
	return strings.TrimSpace(out) == "" || strings.Contains(out, FailureSentinel)
}

// Streamer performs one streaming completion request and returns the
// accumulated fragments in arrival order.
type Streamer interface {
	Stream(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Options tune retry and pacing behaviour.
type Options struct {
	Retries           int
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// Client wraps a Streamer with per-attempt timeout, retry and the failure sentinel.
type Client struct {
	streamer Streamer
	retries  int
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
}

var _ ports.Completer = (*Client)(nil)

// NewClient builds a Client. Retries below one are treated as one attempt.
func NewClient(streamer Streamer, opts Options) *Client {
	c := &Client{
		streamer: streamer,
		retries:  max(opts.Retries, 1),
		timeout:  opts.Timeout,
		logger:   logging.OrDiscard(opts.Logger),
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// Complete returns trimmed model output, or FailureSentinel after the retry
// budget is spent. An empty but successful stream is not retried.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) string {
	reqID := uuid.New().String()

	for attempt := 1; attempt <= c.retries; attempt++ {
		start := time.Now()
		out, err := c.attempt(ctx, prompt, maxTokens)
		if err == nil {
			out = strings.TrimSpace(out)
			c.logger.Debug("llm.complete.response",
				"req_id", reqID,
				"attempt", attempt,
				"elapsed_ms", time.Since(start).Milliseconds(),
				"prompt_bytes", len(prompt),
				"output_bytes", len(out),
			)
			if out == "" {
				return FailureSentinel
			}
			return out
		}

		c.logger.Warn("llm.complete.attempt_failed",
			"req_id", reqID,
			"attempt", attempt,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		if errors.Is(ctx.Err(), context.Canceled) {
			break
		}
	}

	c.logger.Error("llm.complete.failed", "req_id", reqID, "attempts", c.retries)
	return FailureSentinel
}

func (c *Client) attempt(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.streamer.Stream(ctx, prompt, maxTokens)
}
