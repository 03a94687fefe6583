package state

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"agent-blueprint/internal/llm"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite state store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "sqlite state store: ensure dir")
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS agent_state (
		user_id TEXT NOT NULL PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);`)
	return errors.Wrap(err, "sqlite state store: migrate")
}

func (s *SQLiteStore) Restore(ctx context.Context, userID string) ([]llm.Message, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM agent_state WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []llm.Message{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlite state store: select")
	}
	return DecodeTranscript(payload)
}

func (s *SQLiteStore) Save(ctx context.Context, userID string, transcript []llm.Message) error {
	payload, err := EncodeTranscript(transcript)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO agent_state (user_id, state, updated_at_ms)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET state = excluded.state, updated_at_ms = excluded.updated_at_ms`,
		userID, payload, time.Now().UnixMilli())
	return errors.Wrap(err, "sqlite state store: upsert")
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
