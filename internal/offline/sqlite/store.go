package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"b2g-quiz/internal/offline"
)

var errInvalidJSON = errors.New("value is not valid JSON")

// Store is the client's durable cache on a local SQLite file.
type Store struct {
	db *sql.DB
}

var _ offline.Store = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "offline.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, storageErr("open", "", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, storageErr("open", "", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, storageErr("migrate", "", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		// AUTOINCREMENT keeps local ids from being reused after purges.
		`CREATE TABLE IF NOT EXISTS pending_attempts (
			local_id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_key TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL,
			answers_json TEXT NOT NULL,
			client_score INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			completed_at_unix INTEGER NOT NULL,
			synced INTEGER NOT NULL DEFAULT 0,
			result_id TEXT,
			synced_at_unix INTEGER,
			graded_json TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_pending_attempts_synced ON pending_attempts(synced, local_id);`,
		`CREATE TABLE IF NOT EXISTS quizzes (
			quiz_id TEXT PRIMARY KEY,
			payload_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS plans (
			plan_id TEXT PRIMARY KEY,
			payload_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS progress (
			key TEXT PRIMARY KEY,
			value_json TEXT NOT NULL,
			updated_at_unix INTEGER NOT NULL
		);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func storageErr(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	return &offline.StorageError{Op: op, Collection: collection, Err: err}
}

// readErr maps a missing row to offline.ErrNotFound and anything else to a
// storage error.
func readErr(op, collection string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return offline.ErrNotFound
	}
	return storageErr(op, collection, err)
}
