package ports

import (
	"context"
	"time"

	"github.com/psxom3/genai-regwatch/internal/domain"
)

// DocumentRepository is the persistence surface the processing pipeline needs.
// Every method is a single atomic statement.
type DocumentRepository interface {
	FetchNew(ctx context.Context) ([]domain.Document, error)
	InsertSummary(ctx context.Context, documentID int64, text string) error
	InsertActions(ctx context.Context, documentID int64, actionsJSON string) error
	MarkProcessed(ctx context.Context, documentID int64) error
	// RecordFailure bumps the attempt counter and returns the resulting state.
	RecordFailure(ctx context.Context, documentID int64, reason string, maxAttempts int) (domain.State, error)
}

// IntakeRepository registers newly fetched documents.
type IntakeRepository interface {
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	Create(ctx context.Context, doc domain.Document) (domain.Document, error)
	Requeue(ctx context.Context, hash string) (domain.Document, error)
}

// ListFilter narrows read-side document listings.
type ListFilter struct {
	State     domain.State
	Regulator string
	Limit     int
}

// ReadRepository backs the read-only API and exports.
type ReadRepository interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Document, error)
	Get(ctx context.Context, id int64) (domain.DocumentView, error)
	ListActionRows(ctx context.Context) ([]domain.ExportRow, error)
	Ping(ctx context.Context) error
}

// BlobStore keeps raw document bytes addressed by a local reference.
type BlobStore interface {
	Save(name string, content []byte) (string, error)
	Read(ref string) ([]byte, error)
}

// Completer issues one text completion. Failures come back as the
// failure sentinel rather than an error.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) string
}

// Notifier delivers a processed-document alert to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, alert domain.Alert) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
