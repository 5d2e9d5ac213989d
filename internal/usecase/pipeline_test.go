package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psxom3/genai-regwatch/internal/config"
	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/blob"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/storage"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

func TestPipelineRespectsConcurrencyBound(t *testing.T) {
	t.Parallel()

	const (
		docs        = 8
		concurrency = 3
	)

	repo, blobs := newMemoryRepo(), newMemoryBlobs()
	for i := 0; i < docs; i++ {
		seedDoc(t, repo, blobs, fmt.Sprintf("doc-%d.csv", i), circularCSV)
	}
	c := &scriptedCompleter{actionReply: "[]", summaryReply: "summary", delay: 5 * time.Millisecond}
	notifier := &recordingNotifier{}

	p := NewPipeline(PipelineDeps{
		Repository: repo,
		Processor:  newTestWorker(repo, blobs, c, 3),
		Observer:   NewObserver(nil, notifier),
		MaxWorkers: concurrency,
	})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, docs, report.Selected)
	assert.Equal(t, docs, report.Processed)
	assert.Zero(t, report.Failed)
	assert.LessOrEqual(t, c.peak.Load(), int32(concurrency))
	assert.Equal(t, docs, notifier.count())

	remaining, err := repo.FetchNew(context.Background())
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPipelineIsolatesFailures(t *testing.T) {
	t.Parallel()

	repo, blobs := newMemoryRepo(), newMemoryBlobs()
	seedDoc(t, repo, blobs, "ok.csv", circularCSV)
	repo.add(domain.Document{Title: "gone", Hash: "gone", Path: "/raw/gone.pdf"})
	repo.add(domain.Document{Title: "last try", Hash: "last", Path: "/raw/last.pdf", Attempts: 2})
	notifier := &recordingNotifier{}

	p := NewPipeline(PipelineDeps{
		Repository: repo,
		Processor:  newTestWorker(repo, blobs, &scriptedCompleter{actionReply: "[]", summaryReply: "s"}, 3),
		Observer:   NewObserver(nil, notifier),
	})

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Selected)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.Exhausted)
	assert.Equal(t, 1, notifier.count())

	remaining, err := repo.FetchNew(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "gone", remaining[0].Title)
}

func TestPipelineFetchErrorAbortsRun(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	repo.failOn["fetch"] = errors.New("db down")

	_, err := NewPipeline(PipelineDeps{Repository: repo}).Run(context.Background())
	assert.Error(t, err)
}

func TestPipelineEmptyRun(t *testing.T) {
	t.Parallel()

	report, err := NewPipeline(PipelineDeps{Repository: newMemoryRepo()}).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Selected)
}

func TestPipelineEndToEndWithSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	repo, err := storage.Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, DSN: filepath.Join(dir, "regwatch.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	blobs, err := blob.NewLocalStore(filepath.Join(dir, "raw"))
	require.NoError(t, err)

	registrar := NewRegistrar(repo, blobs, nil)
	res, err := registrar.Register(ctx, Submission{
		Regulator: "RBI",
		Title:     "Master Direction on KYC",
		URL:       "https://rbi.org.in/kyc",
		Filename:  "kyc.html",
		Content:   []byte("<html><body><p>RESERVE BANK OF INDIA\n</p><p>Regulated entities shall update KYC records by 31 December.</p></body></html>"),
	}, false)
	require.NoError(t, err)
	require.Equal(t, IntakeCreated, res.Status)

	c := &scriptedCompleter{
		actionReply:  "```json\n[{\"function\":\"KYC\",\"task\":\"Update KYC records\",\"due_by\":\"31 December\",\"references\":\"\"}]\n```",
		summaryReply: "Regulated entities must update KYC records by 31 December.",
	}
	notifier := &recordingNotifier{}
	p := NewPipeline(PipelineDeps{
		Repository: repo,
		Processor:  newTestWorker(repo, blobs, c, 3),
		Observer:   NewObserver(nil, notifier),
		MaxWorkers: 2,
	})

	report, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)

	view, err := repo.Get(ctx, res.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateProcessed, view.Document.State)
	require.NotNil(t, view.Summary)
	assert.Equal(t, "Regulated entities must update KYC records by 31 December.", view.Summary.Text)
	require.NotNil(t, view.Actions)
	assert.JSONEq(t, `[{"function":"KYC","task":"Update KYC records","due_by":"31 December","references":""}]`, view.Actions.JSON)

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "Master Direction on KYC", notifier.alerts[0].Title)

	docs, err := repo.List(ctx, ports.ListFilter{State: domain.StateNew})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
