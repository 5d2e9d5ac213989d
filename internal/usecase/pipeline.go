package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

// DefaultMaxWorkers bounds concurrent documents when none is configured.
const DefaultMaxWorkers = 3

// DocumentProcessor runs one processing attempt.
type DocumentProcessor interface {
	Process(ctx context.Context, doc domain.Document) domain.Outcome
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Repository ports.DocumentRepository
	Processor  DocumentProcessor
	Observer   OutcomeObserver
	MaxWorkers int
	Logger     *slog.Logger
}

// Pipeline processes every NEW document with a bounded worker set.
type Pipeline struct {
	repository ports.DocumentRepository
	processor  DocumentProcessor
	observer   OutcomeObserver
	maxWorkers int
	logger     *slog.Logger
}

// Report aggregates one pipeline pass.
type Report struct {
	RunID     string
	Selected  int
	Processed int
	Failed    int
	// Exhausted counts failures that moved a document to FAILED.
	Exhausted int
	Elapsed   time.Duration
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.MaxWorkers
	if workers <= 0 {
		workers = DefaultMaxWorkers
	}
	return &Pipeline{
		repository: deps.Repository,
		processor:  deps.Processor,
		observer:   deps.Observer,
		maxWorkers: workers,
		logger:     logging.OrDiscard(deps.Logger),
	}
}

// Run selects NEW documents once and waits for every attempt to finish.
// Only the initial selection can fail the run.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", report.RunID)

	docs, err := p.repository.FetchNew(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch new documents: %w", err)
	}
	report.Selected = len(docs)
	if len(docs) == 0 {
		logger.Info("no new documents to process")
		return report, nil
	}
	logger.Info("processing new documents", "count", len(docs), "workers", p.maxWorkers)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(p.maxWorkers)

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			out := p.processor.Process(ctx, doc)
			// Notify from the final outcome, after the worker has already marked the document PROCESSED.
			if p.observer != nil {
				p.observer.Observe(ctx, out)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case out.Succeeded():
				report.Processed++
			case out.FailedState == domain.StateFailed:
				report.Failed++
				report.Exhausted++
			default:
				report.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Elapsed = time.Since(start)
	logger.Info("document processing complete",
		"selected", report.Selected,
		"processed", report.Processed,
		"failed", report.Failed,
		"exhausted", report.Exhausted,
		"elapsed_ms", report.Elapsed.Milliseconds(),
	)
	return report, nil
}
