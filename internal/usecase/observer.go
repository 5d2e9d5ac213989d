package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/extract"
	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

// OutcomeObserver consumes worker outcomes.
type OutcomeObserver interface {
	Observe(ctx context.Context, outcome domain.Outcome)
}

// Observer logs outcomes and fans successful ones out to notifiers.
type Observer struct {
	notifiers []ports.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

var _ OutcomeObserver = (*Observer)(nil)

// NewObserver builds an Observer; nil notifiers are ignored.
func NewObserver(logger *slog.Logger, notifiers ...ports.Notifier) *Observer {
	active := make([]ports.Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &Observer{notifiers: active, logger: logging.OrDiscard(logger), now: time.Now}
}

// Observe never fails: notification errors are logged only.
func (o *Observer) Observe(ctx context.Context, out domain.Outcome) {
	doc := out.Document
	if !out.Succeeded() {
		level := slog.LevelWarn
		if out.FailedState == domain.StateFailed {
			level = slog.LevelError
		}
		o.logger.Log(ctx, level, "document failed",
			"document_id", doc.ID,
			"title", doc.Title,
			"format", out.Format,
			"stage", out.Stage,
			"state", out.FailedState,
			"unsupported", errors.Is(out.Err, extract.ErrUnsupportedFormat),
			"elapsed_ms", out.Elapsed.Milliseconds(),
			"error", out.Err,
		)
		return
	}

	o.logger.Info("document processed",
		"document_id", doc.ID,
		"title", doc.Title,
		"format", out.Format,
		"actions", len(out.Actions),
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)

	alert := domain.AlertFromOutcome(out, o.now().UTC())
	for _, n := range o.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			o.logger.Warn("notification failed", "notifier", n.Name(), "document_id", doc.ID, "error", err)
		}
	}
}
