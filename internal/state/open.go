package state

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agent-blueprint/internal/config"
	"agent-blueprint/internal/llm"
)

// Open builds the backend selected by cfg.StateBackend, wrapped with
// logging.
func Open(ctx context.Context, cfg *config.Config) (ClosableStore, error) {
	if err := cfg.ValidateState(); err != nil {
		return nil, err
	}
	var (
		s   ClosableStore
		err error
	)
	switch cfg.StateBackend {
	case config.BackendDynamoDB:
		log.Info().Str("region", cfg.AWSRegion).Str("endpoint_url", cfg.AWSEndpointURL).
			Str("table", cfg.DynamoDBTable).Msg("connecting to dynamodb")
		client, cerr := NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.AWSEndpointURL)
		if cerr != nil {
			return nil, cerr
		}
		s = NewDynamoDBStore(client, cfg.DynamoDBTable)
	case config.BackendRedis:
		s, err = DialRedis(ctx, cfg.RedisAddr, cfg.RedisKeyPrefix)
	case config.BackendSQLite:
		s, err = NewSQLiteStore(cfg.SQLitePath)
	case config.BackendFile:
		s, err = NewFileStore(cfg.StateFilePath)
	case config.BackendMemory:
		s = NewMemoryStore()
	default:
		return nil, errors.Errorf("unknown state backend: %s", cfg.StateBackend)
	}
	if err != nil {
		return nil, err
	}
	return WithLogging(s, string(cfg.StateBackend)), nil
}

type loggingStore struct {
	ClosableStore
	backend string
}

// WithLogging logs every restore and save at info level.
func WithLogging(s ClosableStore, backend string) ClosableStore {
	return &loggingStore{ClosableStore: s, backend: backend}
}

func (l *loggingStore) Restore(ctx context.Context, userID string) ([]llm.Message, error) {
	log.Info().Str("user_id", userID).Str("backend", l.backend).Msg("restoring agent state")
	transcript, err := l.ClosableStore.Restore(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("user_id", userID).Int("messages", len(transcript)).Msg("agent state restored")
	return transcript, nil
}

func (l *loggingStore) Save(ctx context.Context, userID string, transcript []llm.Message) error {
	log.Info().Str("user_id", userID).Str("backend", l.backend).Int("messages", len(transcript)).Msg("saving agent state")
	return l.ClosableStore.Save(ctx, userID, transcript)
}
