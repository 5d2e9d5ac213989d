package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/extract"
	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

// TextExtractor turns raw bytes into plain text.
type TextExtractor interface {
	Extract(data []byte, filename string) (string, error)
}

// ActionFinder extracts compliance action items from text.
type ActionFinder interface {
	Extract(ctx context.Context, text, title string) ([]domain.ActionItem, string)
}

// SummaryWriter produces an executive summary.
type SummaryWriter interface {
	Summarize(ctx context.Context, text, title, actionsJSON string) string
}

// WorkerDeps wires the collaborators of one processing attempt.
type WorkerDeps struct {
	Repository  ports.DocumentRepository
	Blobs       ports.BlobStore
	Extractor   TextExtractor
	Actions     ActionFinder
	Summarizer  SummaryWriter
	MaxAttempts int
	Logger      *slog.Logger
}

// Worker drives one document through extraction, analysis and persistence.
type Worker struct {
	repository  ports.DocumentRepository
	blobs       ports.BlobStore
	extractor   TextExtractor
	actions     ActionFinder
	summarizer  SummaryWriter
	maxAttempts int
	logger      *slog.Logger
}

// NewWorker constructs a Worker. MaxAttempts <= 0 means a single attempt.
func NewWorker(deps WorkerDeps) *Worker {
	return &Worker{
		repository:  deps.Repository,
		blobs:       deps.Blobs,
		extractor:   deps.Extractor,
		actions:     deps.Actions,
		summarizer:  deps.Summarizer,
		maxAttempts: max(deps.MaxAttempts, 1),
		logger:      logging.OrDiscard(deps.Logger),
	}
}

// Process runs one attempt and returns its outcome. Failures are recorded
// against the document and never escape as errors or panics.
func (w *Worker) Process(ctx context.Context, doc domain.Document) (out domain.Outcome) {
	start := time.Now()
	format := extract.DetectFormat(doc.Path)
	out = domain.Outcome{Document: doc, Format: format.String(), Stage: domain.StageSelected}

	defer func() {
		if r := recover(); r != nil {
			w.fail(ctx, &out, fmt.Errorf("panic: %v", r))
		}
		out.Elapsed = time.Since(start)
	}()

	out.Stage = domain.StageExtracting
	if format == extract.FormatUnsupported {
		w.fail(ctx, &out, fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, doc.Path))
		return out
	}
	data, err := w.blobs.Read(doc.Path)
	if err != nil {
		w.fail(ctx, &out, err)
		return out
	}
	text, err := w.extractor.Extract(data, doc.Path)
	if err != nil {
		w.fail(ctx, &out, err)
		return out
	}
	w.logger.Debug("text extracted", "document_id", doc.ID, "format", out.Format, "chars", len(text))

	// The summary prompt depends on whether actions were found.
	out.Stage = domain.StageActions
	out.Actions, out.ActionsJSON = w.actions.Extract(ctx, text, doc.Title)

	out.Stage = domain.StageSummary
	out.Summary = w.summarizer.Summarize(ctx, text, doc.Title, out.ActionsJSON)

	out.Stage = domain.StagePersisting
	if err := w.repository.InsertSummary(ctx, doc.ID, out.Summary); err != nil {
		w.fail(ctx, &out, err)
		return out
	}
	if err := w.repository.InsertActions(ctx, doc.ID, out.ActionsJSON); err != nil {
		w.fail(ctx, &out, err)
		return out
	}
	if err := w.repository.MarkProcessed(ctx, doc.ID); err != nil {
		w.fail(ctx, &out, err)
		return out
	}

	out.Stage = domain.StageProcessed
	out.Document.State = domain.StateProcessed
	return out
}

func (w *Worker) fail(ctx context.Context, out *domain.Outcome, err error) {
	out.Err = fmt.Errorf("%s: %w", out.Stage, err)
	out.FailedState = domain.StateNew

	state, rerr := w.repository.RecordFailure(ctx, out.Document.ID, out.Err.Error(), w.maxAttempts)
	if rerr != nil {
		w.logger.Error("record failure", "document_id", out.Document.ID, "error", rerr)
		return
	}
	out.FailedState = state
	out.Document.State = state
	out.Document.Attempts++
	out.Document.LastError = out.Err.Error()
}
