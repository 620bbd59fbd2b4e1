package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/qbitlm/qbit/internal/notebook"
)

// SQLiteStore implements Store over a single key/value table.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// NewSQLiteStore opens (creating if needed) the notebooks database.
func NewSQLiteStore(cfg Config, log *zap.Logger) (*SQLiteStore, error) {
	dbPath, err := GetDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("get db path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &SQLiteStore{db: db, log: log}, nil
}

// Load reads the notebook array. Absence and parse failure both fall
// back to the empty list; a parse failure is logged, never fatal.
func (s *SQLiteStore) Load(ctx context.Context) ([]notebook.Notebook, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, notebooksKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return []notebook.Notebook{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", notebooksKey, err)
	}

	var notebooks []notebook.Notebook
	if err := json.Unmarshal([]byte(raw), &notebooks); err != nil {
		s.log.Warn("discarding unreadable notebook record",
			zap.String("key", notebooksKey), zap.Error(err))
		return []notebook.Notebook{}, nil
	}
	if notebooks == nil {
		notebooks = []notebook.Notebook{}
	}
	return notebooks, nil
}

// Save serializes the notebooks with media content stripped and
// replaces the stored record.
func (s *SQLiteStore) Save(ctx context.Context, notebooks []notebook.Notebook) error {
	data, err := json.Marshal(stripMedia(notebooks))
	if err != nil {
		return fmt.Errorf("serialize notebooks: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, notebooksKey, string(data))
	if err != nil {
		return fmt.Errorf("write %s: %w", notebooksKey, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
