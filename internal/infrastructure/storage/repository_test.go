package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psxom3/genai-regwatch/internal/config"
	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

func TestNewPicksDialectPlaceholders(t *testing.T) {
	t.Parallel()

	query := func(d Dialect) string {
		sql, _, err := New(nil, d).sb.Select("id").From("reg_updates").Where(sq.Eq{"hash": "h"}).ToSql()
		require.NoError(t, err)
		return sql
	}

	assert.Equal(t, "SELECT id FROM reg_updates WHERE hash = $1", query(DialectPostgres))
	assert.Equal(t, "SELECT id FROM reg_updates WHERE hash = ?", query(DialectSQLite))
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := Open(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "regwatch.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func createDoc(t *testing.T, repo *Repository, hash string) domain.Document {
	t.Helper()

	doc, err := repo.Create(context.Background(), domain.Document{
		Regulator: "RBI",
		Title:     "Circular " + hash,
		URL:       "https://rbi.org.in/" + hash,
		PubDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Hash:      hash,
		Path:      "/raw/" + hash + ".pdf",
	})
	require.NoError(t, err)
	return doc
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	require.NoError(t, repo.Migrate(context.Background()))
	require.NoError(t, repo.Ping(context.Background()))
}

func TestCreateAndDedupByHash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepo(t)

	exists, err := repo.ExistsByHash(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, exists)

	doc := createDoc(t, repo, "h1")
	assert.NotZero(t, doc.ID)
	assert.Equal(t, domain.StateNew, doc.State)

	exists, err = repo.ExistsByHash(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.Create(ctx, domain.Document{Regulator: "RBI", Title: "dup", Hash: "h1", Path: "/raw/x"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFetchNewOnlyReturnsNewInIDOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepo(t)

	a := createDoc(t, repo, "a")
	b := createDoc(t, repo, "b")
	c := createDoc(t, repo, "c")
	require.NoError(t, repo.MarkProcessed(ctx, b.ID))

	docs, err := repo.FetchNew(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, a.ID, docs[0].ID)
	assert.Equal(t, c.ID, docs[1].ID)
	assert.Equal(t, "RBI", docs[0].Regulator)
	assert.Equal(t, "/raw/a.pdf", docs[0].Path)
	assert.True(t, docs[0].PubDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRecordFailureReachesFailedState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepo(t)
	doc := createDoc(t, repo, "f")

	state, err := repo.RecordFailure(ctx, doc.ID, "extract: boom", 2)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNew, state)

	state, err = repo.RecordFailure(ctx, doc.ID, "extract: boom again", 2)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, state)

	view, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Document.Attempts)
	assert.Equal(t, "extract: boom again", view.Document.LastError)

	docs, err := repo.FetchNew(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = repo.RecordFailure(ctx, 9999, "x", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequeueResetsAttempts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepo(t)
	doc := createDoc(t, repo, "r")
	_, err := repo.RecordFailure(ctx, doc.ID, "boom", 1)
	require.NoError(t, err)

	requeued, err := repo.Requeue(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, requeued.ID)
	assert.Equal(t, domain.StateNew, requeued.State)
	assert.Zero(t, requeued.Attempts)
	assert.Empty(t, requeued.LastError)

	_, err = repo.Requeue(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReturnsLatestResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepo(t)
	doc := createDoc(t, repo, "g")

	view, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Summary)
	assert.Nil(t, view.Actions)

	require.NoError(t, repo.InsertSummary(ctx, doc.ID, "first"))
	require.NoError(t, repo.InsertSummary(ctx, doc.ID, "second"))
	require.NoError(t, repo.InsertActions(ctx, doc.ID, `[]`))
	require.NoError(t, repo.MarkProcessed(ctx, doc.ID))

	view, err = repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Summary)
	assert.Equal(t, "second", view.Summary.Text)
	require.NotNil(t, view.Actions)
	assert.Equal(t, "[]", view.Actions.JSON)
	assert.Equal(t, domain.StateProcessed, view.Document.State)

	_, err = repo.Get(ctx, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.MarkProcessed(ctx, 4242), ErrNotFound)
}

func TestListFiltersAndActionRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepo(t)
	a := createDoc(t, repo, "la")
	_, err := repo.Create(ctx, domain.Document{Regulator: "SEBI", Title: "sebi", Hash: "lb", Path: "/raw/lb.html"})
	require.NoError(t, err)

	require.NoError(t, repo.InsertActions(ctx, a.ID,
		`[{"function":"Compliance","task":"File return","due_by":"30 June","references":"Para 3"},{"function":"Risk","task":"Review","due_by":"","references":""}]`))
	require.NoError(t, repo.InsertActions(ctx, a.ID, `not json`))

	docs, err := repo.List(ctx, ports.ListFilter{Regulator: "SEBI"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "sebi", docs[0].Title)

	docs, err = repo.List(ctx, ports.ListFilter{State: domain.StateNew, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	rows, err := repo.ListActionRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "RBI", rows[0].Regulator)
	assert.Equal(t, "File return", rows[0].Item.Task)
	assert.Equal(t, "Risk", rows[1].Item.Function)
	assert.False(t, rows[0].ProcessedAt.IsZero())
}
