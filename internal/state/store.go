// Package state persists one conversation transcript per user.
//
// Every backend stores the same opaque blob produced by EncodeTranscript
// under the user id, overwriting whatever was there. Message contents are
// not validated: a stored message in a shape this service would not write
// itself is restored and saved again byte for byte. There is no merge and
// no version check: concurrent saves for one user are last-write-wins.
package state

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"agent-blueprint/internal/llm"
)

// ErrCorruptState is wrapped by Restore when a stored payload cannot be
// decoded.
var ErrCorruptState = errors.New("corrupt conversation state")

type Store interface {
	// Restore returns the transcript last saved for userID, or an empty
	// transcript when nothing was saved yet.
	Restore(ctx context.Context, userID string) ([]llm.Message, error)
	// Save replaces the stored transcript for userID.
	Save(ctx context.Context, userID string, transcript []llm.Message) error
}

// ClosableStore is a Store that owns a connection or file handle.
type ClosableStore interface {
	Store
	Close() error
}

func EncodeTranscript(transcript []llm.Message) (string, error) {
	if transcript == nil {
		transcript = []llm.Message{}
	}
	b, err := llm.EncodeJSON(transcript)
	if err != nil {
		return "", errors.Wrap(err, "encode transcript")
	}
	return string(b), nil
}

// DecodeTranscript only requires payload to be a JSON array.
func DecodeTranscript(payload string) ([]llm.Message, error) {
	var transcript []llm.Message
	if err := json.Unmarshal([]byte(payload), &transcript); err != nil {
		return nil, errors.Wrapf(ErrCorruptState, "decode transcript: %v", err)
	}
	if transcript == nil {
		transcript = []llm.Message{}
	}
	return transcript, nil
}
