package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/extract"
	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

// Submission is a freshly fetched document handed over by a producer.
type Submission struct {
	Regulator string
	Title     string
	URL       string
	PubDate   time.Time
	Filename  string
	Content   []byte
}

// IntakeStatus tells what Register did with a submission.
type IntakeStatus string

const (
	IntakeCreated  IntakeStatus = "created"
	IntakeSkipped  IntakeStatus = "skipped"
	IntakeRequeued IntakeStatus = "requeued"
)

// IntakeResult is the registered (or already known) document.
type IntakeResult struct {
	Document domain.Document
	Status   IntakeStatus
}

// Registrar deduplicates submissions by content hash and stores new ones.
type Registrar struct {
	repository ports.IntakeRepository
	blobs      ports.BlobStore
	logger     *slog.Logger
}

// NewRegistrar builds a Registrar.
func NewRegistrar(repository ports.IntakeRepository, blobs ports.BlobStore, logger *slog.Logger) *Registrar {
	return &Registrar{repository: repository, blobs: blobs, logger: logging.OrDiscard(logger)}
}

// ContentHash is the dedup key of raw document bytes.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Register stores a new document in state NEW. A known hash is skipped
// untouched unless force is set, in which case the existing document is
// requeued with a fresh attempt budget.
func (r *Registrar) Register(ctx context.Context, sub Submission, force bool) (IntakeResult, error) {
	ext := strings.ToLower(filepath.Ext(sub.Filename))
	if extract.DetectFormat(sub.Filename) == extract.FormatUnsupported {
		return IntakeResult{}, fmt.Errorf("%w: %q", extract.ErrUnsupportedFormat, sub.Filename)
	}

	hash := ContentHash(sub.Content)
	exists, err := r.repository.ExistsByHash(ctx, hash)
	if err != nil {
		return IntakeResult{}, fmt.Errorf("check hash: %w", err)
	}

	if exists && !force {
		r.logger.Info("skipping known document", "hash", hash, "title", sub.Title)
		return IntakeResult{Document: domain.Document{Hash: hash}, Status: IntakeSkipped}, nil
	}

	path, err := r.blobs.Save(hash+ext, sub.Content)
	if err != nil {
		return IntakeResult{}, fmt.Errorf("save raw document: %w", err)
	}

	if exists {
		doc, err := r.repository.Requeue(ctx, hash)
		if err != nil {
			return IntakeResult{}, fmt.Errorf("requeue document: %w", err)
		}
		r.logger.Info("requeued document", "document_id", doc.ID, "hash", hash)
		return IntakeResult{Document: doc, Status: IntakeRequeued}, nil
	}

	doc, err := r.repository.Create(ctx, domain.Document{
		Regulator: sub.Regulator,
		Title:     sub.Title,
		URL:       sub.URL,
		PubDate:   sub.PubDate,
		Hash:      hash,
		Path:      path,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		r.logger.Info("document registered concurrently", "hash", hash)
		return IntakeResult{Document: domain.Document{Hash: hash}, Status: IntakeSkipped}, nil
	}
	if err != nil {
		return IntakeResult{}, fmt.Errorf("create document: %w", err)
	}

	r.logger.Info("registered document", "document_id", doc.ID, "hash", hash, "title", doc.Title)
	return IntakeResult{Document: doc, Status: IntakeCreated}, nil
}
