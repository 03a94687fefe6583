package state

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"agent-blueprint/internal/llm"
)

// RedisAPI is the subset of the go-redis client used by RedisStore.
type RedisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps each transcript as a plain string value under
// prefix+userID, without expiry.
type RedisStore struct {
	api    RedisAPI
	prefix string
	closer func() error
}

func NewRedisStore(api RedisAPI, prefix string) *RedisStore {
	return &RedisStore{api: api, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis ping %s", addr)
	}
	s := NewRedisStore(client, prefix)
	s.closer = client.Close
	return s, nil
}

func (s *RedisStore) Restore(ctx context.Context, userID string) ([]llm.Message, error) {
	payload, err := s.api.Get(ctx, s.prefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return []llm.Message{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	return DecodeTranscript(payload)
}

func (s *RedisStore) Save(ctx context.Context, userID string, transcript []llm.Message) error {
	payload, err := EncodeTranscript(transcript)
	if err != nil {
		return err
	}
	return errors.Wrap(s.api.Set(ctx, s.prefix+userID, payload, 0).Err(), "redis set")
}

func (s *RedisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
