package state

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"agent-blueprint/internal/llm"
)

// FileStore keeps all users' states in a single JSON document mapping
// user_id to the encoded transcript. The document is rewritten on every
// save, which is fine for a single instance with a handful of users.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "ensure state dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "touch state file")
	}
	_ = f.Close()
	return &FileStore{path: path}, nil
}

func (s *FileStore) Restore(_ context.Context, userID string) ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	states, err := s.loadUnlocked()
	if err != nil {
		return nil, err
	}
	payload, ok := states[userID]
	if !ok {
		return []llm.Message{}, nil
	}
	return DecodeTranscript(payload)
}

func (s *FileStore) Save(_ context.Context, userID string, transcript []llm.Message) error {
	payload, err := EncodeTranscript(transcript)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	states, err := s.loadUnlocked()
	if err != nil {
		return err
	}
	states[userID] = payload
	return s.saveUnlocked(states)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) loadUnlocked() (map[string]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "open state file")
	}
	defer func() { _ = f.Close() }()

	states := make(map[string]string)
	if err := json.NewDecoder(f).Decode(&states); err != nil {
		if errors.Is(err, io.EOF) {
			return states, nil
		}
		return nil, errors.Wrapf(ErrCorruptState, "decode state file: %v", err)
	}
	return states, nil
}

func (s *FileStore) saveUnlocked(states map[string]string) error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open state file for write")
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(states); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "encode state file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close state file")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "replace state file")
}
