package state

import (
	"context"
	"sync"

	"agent-blueprint/internal/llm"
)

// MemoryStore keeps encoded transcripts in process memory. Useful for local
// runs and tests; state is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]string)}
}

func (m *MemoryStore) Restore(_ context.Context, userID string) ([]llm.Message, error) {
	m.mu.RLock()
	payload, ok := m.states[userID]
	m.mu.RUnlock()
	if !ok {
		return []llm.Message{}, nil
	}
	return DecodeTranscript(payload)
}

func (m *MemoryStore) Save(_ context.Context, userID string, transcript []llm.Message) error {
	payload, err := EncodeTranscript(transcript)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = payload
	return nil
}

func (m *MemoryStore) Close() error { return nil }
