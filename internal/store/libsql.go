package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/homeroomhq/homeroom/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Ping verifies the database is reachable.
func (s *LibSQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Documents ---

func (s *LibSQLStore) CreateDocument(ctx context.Context, doc *Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, file_name, file_path, mime_type, file_size, summary, processed, uploaded_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.FileName, doc.FilePath, doc.MimeType, doc.FileSize,
		nullableString(doc.Summary), doc.Processed, nullableString(doc.UploadedBy),
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "create document %s: %v", doc.ID, err).WithCause(err)
	}
	return nil
}

func (s *LibSQLStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	var summary, uploadedBy sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, file_path, mime_type, file_size, summary, processed, uploaded_by, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.FileName, &doc.FilePath, &doc.MimeType, &doc.FileSize,
		&summary, &doc.Processed, &uploadedBy, &doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("document", id)
	}
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "get document %s: %v", id, err).WithCause(err)
	}
	doc.Summary = summary.String
	doc.UploadedBy = uploadedBy.String
	return doc, nil
}

func (s *LibSQLStore) ListDocuments(ctx context.Context, limit int) ([]*Document, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_name, file_path, mime_type, file_size, summary, processed, uploaded_by, created_at, updated_at
		 FROM documents ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "list documents: %v", err).WithCause(err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc := &Document{}
		var summary, uploadedBy sql.NullString
		if err := rows.Scan(&doc.ID, &doc.FileName, &doc.FilePath, &doc.MimeType, &doc.FileSize,
			&summary, &doc.Processed, &uploadedBy, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeStore, "scan document: %v", err).WithCause(err)
		}
		doc.Summary = summary.String
		doc.UploadedBy = uploadedBy.String
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *LibSQLStore) SetDocumentAnalysis(ctx context.Context, id, summary string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET summary = ?, processed = 1, updated_at = ? WHERE id = ?`,
		summary, time.Now().UTC(), id)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "update document %s: %v", id, err).WithCause(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return storeNotFound("document", id)
	}
	return nil
}

func (s *LibSQLStore) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, schema.NewErrorf(schema.ErrCodeStore, "count documents: %v", err).WithCause(err)
	}
	return n, nil
}

// --- Content blobs ---

func (s *LibSQLStore) UploadContent(ctx context.Context, path string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO document_contents (path, data, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET data = excluded.data`,
		path, data, time.Now().UTC())
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "upload content %s: %v", path, err).WithCause(err)
	}
	return nil
}

func (s *LibSQLStore) DownloadContent(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM document_contents WHERE path = ?`, path).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("content", path)
	}
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "download content %s: %v", path, err).WithCause(err)
	}
	return data, nil
}

// --- Dispatch audit log ---

func (s *LibSQLStore) AppendDispatch(ctx context.Context, rec *DispatchRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatch_log (id, agent_id, provider, action, success, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AgentID, rec.Provider, rec.Action, rec.Success,
		nullableString(rec.Error), rec.DurationMs, rec.CreatedAt)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "append dispatch: %v", err).WithCause(err)
	}
	return nil
}

func (s *LibSQLStore) ListDispatches(ctx context.Context, filter DispatchFilter) ([]*DispatchRecord, error) {
	query := `SELECT id, agent_id, provider, action, success, error, duration_ms, created_at FROM dispatch_log WHERE 1=1`
	var args []any
	if filter.AgentID != "" {
		query += ` AND agent_id = ?`
		args = append(args, filter.AgentID)
	}
	if filter.Provider != "" {
		query += ` AND provider = ?`
		args = append(args, filter.Provider)
	}
	if filter.Success != nil {
		query += ` AND success = ?`
		args = append(args, *filter.Success)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "list dispatches: %v", err).WithCause(err)
	}
	defer rows.Close()

	var recs []*DispatchRecord
	for rows.Next() {
		rec := &DispatchRecord{}
		var errMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.AgentID, &rec.Provider, &rec.Action,
			&rec.Success, &errMsg, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeStore, "scan dispatch: %v", err).WithCause(err)
		}
		rec.Error = errMsg.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *LibSQLStore) PruneDispatches(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dispatch_log WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, schema.NewErrorf(schema.ErrCodeStore, "prune dispatches: %v", err).WithCause(err)
	}
	return res.RowsAffected()
}

// --- Secrets ---

func (s *LibSQLStore) StoreSecret(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO secrets (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "store secret %s: %v", key, err).WithCause(err)
	}
	return nil
}

func (s *LibSQLStore) GetSecret(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("secret", key)
	}
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "get secret %s: %v", key, err).WithCause(err)
	}
	return value, nil
}

func (s *LibSQLStore) DeleteSecret(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM secrets WHERE key = ?`, key)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "delete secret %s: %v", key, err).WithCause(err)
	}
	return nil
}

func (s *LibSQLStore) ListSecrets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM secrets ORDER BY key`)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "list secrets: %v", err).WithCause(err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeStore, "scan secret key: %v", err).WithCause(err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// --- helpers ---

func storeNotFound(kind, id string) *schema.GatewayError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", kind, id)
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
