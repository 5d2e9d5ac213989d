// Package storage persists documents, summaries and actions in SQL.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

var (
	ErrNotFound  = domain.ErrNotFound
	ErrDuplicate = domain.ErrDuplicate
)

// Dialect names the SQL flavour a Repository speaks.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const (
	tableUpdates   = "reg_updates"
	tableSummaries = "reg_summaries"
	tableActions   = "reg_actions"
)

var documentColumns = []string{
	"id", "regulator", "title", "url", "pub_date", "hash",
	"raw_file_path", "status", "attempts", "last_error", "inserted_at",
}

// Repository implements the document ports over database/sql.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
	closer  func()
	now     func() time.Time
}

var (
	_ ports.DocumentRepository = (*Repository)(nil)
	_ ports.IntakeRepository   = (*Repository)(nil)
	_ ports.ReadRepository     = (*Repository)(nil)
)

// New wraps an open database. Postgres uses $n placeholders, SQLite uses ?.
func New(db *sql.DB, dialect Dialect) *Repository {
	var format sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		format = sq.Dollar
	}
	return &Repository{
		db:      db,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(format),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Close releases the database handle and any underlying pool.
func (r *Repository) Close() error {
	err := r.db.Close()
	if r.closer != nil {
		r.closer()
	}
	return err
}

// Ping checks connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FetchNew returns every document currently in state NEW, oldest first.
func (r *Repository) FetchNew(ctx context.Context) ([]domain.Document, error) {
	return r.listDocuments(ctx, ports.ListFilter{State: domain.StateNew}, "id ASC")
}

// InsertSummary appends a summary row for the document.
func (r *Repository) InsertSummary(ctx context.Context, documentID int64, text string) error {
	query, args, err := r.sb.Insert(tableSummaries).
		Columns("update_id", "exec_summary", "created_at").
		Values(documentID, text, r.now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert summary: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// InsertActions appends an actions row for the document.
func (r *Repository) InsertActions(ctx context.Context, documentID int64, actionsJSON string) error {
	query, args, err := r.sb.Insert(tableActions).
		Columns("update_id", "actions_json", "created_at").
		Values(documentID, actionsJSON, r.now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert actions: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert actions: %w", err)
	}
	return nil
}

// MarkProcessed advances the document to PROCESSED.
func (r *Repository) MarkProcessed(ctx context.Context, documentID int64) error {
	query, args, err := r.sb.Update(tableUpdates).
		Set("status", string(domain.StateProcessed)).
		Set("last_error", "").
		Where(sq.Eq{"id": documentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark processed: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return expectOne(res)
}

// RecordFailure counts a failed attempt and moves the document to FAILED
// once maxAttempts is reached.
func (r *Repository) RecordFailure(ctx context.Context, documentID int64, reason string, maxAttempts int) (domain.State, error) {
	query, args, err := r.sb.Update(tableUpdates).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", reason).
		Set("status", sq.Expr("CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END",
			maxAttempts, string(domain.StateFailed), string(domain.StateNew))).
		Where(sq.Eq{"id": documentID}).
		Suffix("RETURNING status").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build record failure: %w", err)
	}

	var state string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("record failure: %w", err)
	}
	return domain.State(state), nil
}

// ExistsByHash reports whether a document with the content hash is registered.
func (r *Repository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	query, args, err := r.sb.Select("1").From(tableUpdates).Where(sq.Eq{"hash": hash}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}
	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("exists by hash: %w", err)
	}
	return true, nil
}

// Create inserts a NEW document and returns it with its id.
func (r *Repository) Create(ctx context.Context, doc domain.Document) (domain.Document, error) {
	if doc.DiscoveredAt.IsZero() {
		doc.DiscoveredAt = r.now()
	}
	doc.State = domain.StateNew
	doc.Attempts = 0
	doc.LastError = ""

	query, args, err := r.sb.Insert(tableUpdates).
		Columns("regulator", "title", "url", "pub_date", "hash", "raw_file_path", "status", "attempts", "last_error", "inserted_at").
		Values(doc.Regulator, doc.Title, doc.URL, nullTime(doc.PubDate), doc.Hash, doc.Path, string(doc.State), 0, "", doc.DiscoveredAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Document{}, fmt.Errorf("build create: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&doc.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.Document{}, ErrDuplicate
		}
		return domain.Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// Requeue resets the document with the hash to NEW with a fresh attempt budget.
func (r *Repository) Requeue(ctx context.Context, hash string) (domain.Document, error) {
	query, args, err := r.sb.Update(tableUpdates).
		Set("status", string(domain.StateNew)).
		Set("attempts", 0).
		Set("last_error", "").
		Where(sq.Eq{"hash": hash}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Document{}, fmt.Errorf("build requeue: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, ErrNotFound
		}
		return domain.Document{}, fmt.Errorf("requeue: %w", err)
	}
	return r.getDocument(ctx, id)
}

// List returns documents matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Document, error) {
	return r.listDocuments(ctx, filter, "inserted_at DESC", "id DESC")
}

func (r *Repository) listDocuments(ctx context.Context, filter ports.ListFilter, orderBy ...string) ([]domain.Document, error) {
	q := r.sb.Select(documentColumns...).From(tableUpdates)
	if filter.State != "" {
		q = q.Where(sq.Eq{"status": string(filter.State)})
	}
	if filter.Regulator != "" {
		q = q.Where(sq.Eq{"regulator": filter.Regulator})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	q = q.OrderBy(orderBy...)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return docs, nil
}

// Get returns the document with its latest summary and actions, if any.
func (r *Repository) Get(ctx context.Context, id int64) (domain.DocumentView, error) {
	doc, err := r.getDocument(ctx, id)
	if err != nil {
		return domain.DocumentView{}, err
	}
	view := domain.DocumentView{Document: doc}

	query, args, err := r.sb.Select("id", "exec_summary", "created_at").From(tableSummaries).
		Where(sq.Eq{"update_id": id}).OrderBy("id DESC").Limit(1).ToSql()
	if err != nil {
		return domain.DocumentView{}, fmt.Errorf("build summary lookup: %w", err)
	}
	var summary domain.Summary
	var created sql.NullTime
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&summary.ID, &summary.Text, &created)
	switch {
	case err == nil:
		summary.DocumentID, summary.CreatedAt = id, created.Time
		view.Summary = &summary
	case !errors.Is(err, sql.ErrNoRows):
		return domain.DocumentView{}, fmt.Errorf("summary lookup: %w", err)
	}

	query, args, err = r.sb.Select("id", "actions_json", "created_at").From(tableActions).
		Where(sq.Eq{"update_id": id}).OrderBy("id DESC").Limit(1).ToSql()
	if err != nil {
		return domain.DocumentView{}, fmt.Errorf("build actions lookup: %w", err)
	}
	var actions domain.Actions
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&actions.ID, &actions.JSON, &created)
	switch {
	case err == nil:
		actions.DocumentID, actions.CreatedAt = id, created.Time
		view.Actions = &actions
	case !errors.Is(err, sql.ErrNoRows):
		return domain.DocumentView{}, fmt.Errorf("actions lookup: %w", err)
	}

	return view, nil
}

// ListActionRows flattens every stored action item with its document.
func (r *Repository) ListActionRows(ctx context.Context) ([]domain.ExportRow, error) {
	query, args, err := r.sb.Select("u.regulator", "u.title", "u.url", "a.actions_json", "a.created_at").
		From(tableActions + " a").
		Join(tableUpdates + " u ON u.id = a.update_id").
		OrderBy("a.created_at ASC", "a.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build action rows: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list action rows: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ExportRow, 0)
	for rows.Next() {
		var (
			regulator, title, url, raw string
			created                    sql.NullTime
		)
		if err := rows.Scan(&regulator, &title, &url, &raw, &created); err != nil {
			return nil, fmt.Errorf("scan action row: %w", err)
		}
		var items []domain.ActionItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			continue
		}
		for _, item := range items {
			out = append(out, domain.ExportRow{
				Regulator:   regulator,
				Title:       title,
				URL:         url,
				Item:        item,
				ProcessedAt: created.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (r *Repository) getDocument(ctx context.Context, id int64) (domain.Document, error) {
	query, args, err := r.sb.Select(documentColumns...).From(tableUpdates).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Document{}, fmt.Errorf("build get: %w", err)
	}
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, ErrNotFound
	}
	return doc, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var (
		doc              domain.Document
		state            string
		pubDate, created sql.NullTime
	)
	err := row.Scan(&doc.ID, &doc.Regulator, &doc.Title, &doc.URL, &pubDate, &doc.Hash,
		&doc.Path, &state, &doc.Attempts, &doc.LastError, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, err
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("scan document: %w", err)
	}
	doc.State = domain.State(state)
	doc.PubDate = pubDate.Time
	doc.DiscoveredAt = created.Time
	return doc, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
