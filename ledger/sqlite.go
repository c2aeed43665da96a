package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	agent "github.com/armatrix/cursor-agent-sdk-go"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore persists batch items in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the ledger database at path and
// ensures its schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	ddl := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS batch_items (
			batch_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			total INTEGER NOT NULL,
			file_path TEXT NOT NULL,
			prompt TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY(batch_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_batch_items_status ON batch_items(batch_id, status);`,
	}

	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record upserts the latest state of item.
func (s *SQLiteStore) Record(ctx context.Context, item agent.BatchItem) error {
	if item.BatchID == "" {
		return fmt.Errorf("batch id is empty")
	}
	now := s.now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_items (batch_id, idx, total, file_path, prompt, status, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(batch_id, idx) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		item.BatchID,
		item.Index,
		item.Total,
		item.FilePath,
		item.Prompt,
		string(item.Status),
		nullString(item.Error),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("record batch item %s/%d: %w", item.BatchID, item.Index, err)
	}
	return nil
}

// Items returns the items of a batch ordered by index.
// Returns an error if the batch is not found.
func (s *SQLiteStore) Items(ctx context.Context, batchID string) ([]agent.BatchItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, total, file_path, prompt, status, error
		FROM batch_items WHERE batch_id = ? ORDER BY idx`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []agent.BatchItem
	for rows.Next() {
		item := agent.BatchItem{BatchID: batchID}
		var status string
		var errText sql.NullString
		if err := rows.Scan(&item.Index, &item.Total, &item.FilePath, &item.Prompt, &status, &errText); err != nil {
			return nil, err
		}
		item.Status = agent.ItemStatus(status)
		item.Error = errText.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("batch not found: %s", batchID)
	}
	return items, nil
}

// Batches returns batch ids in the order they were first recorded.
func (s *SQLiteStore) Batches(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id FROM batch_items
		GROUP BY batch_id ORDER BY MIN(created_at), MIN(rowid)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
