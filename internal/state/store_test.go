package state

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"agent-blueprint/internal/config"
	"agent-blueprint/internal/llm"
)

type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := in.Key[attrUserID].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[aws.ToString(in.TableName)+"/"+key]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := in.Item[attrUserID].(*types.AttributeValueMemberS).Value
	f.items[aws.ToString(in.TableName)+"/"+key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "state", "agent_state.json"))
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "agent_state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"memory":   NewMemoryStore(),
		"file":     fileStore,
		"sqlite":   sqliteStore,
		"dynamodb": NewDynamoDBStore(newFakeDynamo(), "agent-state"),
		"redis":    NewRedisStore(&fakeRedis{values: map[string]string{}}, "agent_state:"),
	}
}

func TestStore_RestoreUnknownUserIsEmpty(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			transcript, err := s.Restore(context.Background(), "nobody")
			require.NoError(t, err)
			require.NotNil(t, transcript)
			require.Empty(t, transcript)
		})
	}
}

func TestStore_SaveRestoreRoundTrip(t *testing.T) {
	in := []llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
	}
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, "alice", in))

			out, err := s.Restore(ctx, "alice")
			require.NoError(t, err)
			require.Equal(t, in, out)

			want, err := EncodeTranscript(in)
			require.NoError(t, err)
			got, err := EncodeTranscript(out)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

const structuredPayload = `[{"role":"user","content":[{"text":"Weather in Seattle?"}],"metadata":{"k":1}},` +
	`{"role":"assistant","content":[{"toolUse":{"toolUseId":"t1","name":"get_forecast","input":{"city":"Seattle"}}}]},` +
	`{"role":"user","content":[{"toolResult":{"toolUseId":"t1","content":[{"text":"rain"}]}}]},` +
	`{"role":"assistant","content":[{"text":"It will rain <today>."}]}]`

func TestStore_StructuredMessagesPassThrough(t *testing.T) {
	in, err := DecodeTranscript(structuredPayload)
	require.NoError(t, err)
	require.Len(t, in, 4)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, "alice", in))

			out, err := s.Restore(ctx, "alice")
			require.NoError(t, err)
			require.Equal(t, "Weather in Seattle?", out[0].Content)

			got, err := EncodeTranscript(out)
			require.NoError(t, err)
			require.Equal(t, structuredPayload, got)
		})
	}
}

func TestDynamoDBStore_RestoresStructuredContent(t *testing.T) {
	api := newFakeDynamo()
	api.items["agent-state/alice"] = map[string]types.AttributeValue{
		attrUserID: &types.AttributeValueMemberS{Value: "alice"},
		attrState:  &types.AttributeValueMemberS{Value: structuredPayload},
	}
	s := NewDynamoDBStore(api, "agent-state")

	out, err := s.Restore(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, out, 4)

	out = append(out, llm.UserMessage("and tomorrow?"))
	require.NoError(t, s.Save(context.Background(), "alice", out))
	stored := api.items["agent-state/alice"][attrState].(*types.AttributeValueMemberS).Value
	require.Equal(t, structuredPayload[:len(structuredPayload)-1]+`,{"role":"user","content":"and tomorrow?"}]`, stored)
}

func TestStore_SaveOverwritesAndKeepsUsersApart(t *testing.T) {
	first := []llm.Message{{Role: llm.RoleUser, Content: "one"}}
	second := []llm.Message{
		{Role: llm.RoleUser, Content: "two"},
		{Role: llm.RoleAssistant, Content: "calling", ToolCalls: []llm.ToolCall{{ID: "c1", Name: "get_forecast", Arguments: `{"city":"Seattle"}`}}},
		{Role: llm.RoleTool, Content: "rain", ToolCallID: "c1", Name: "get_forecast"},
		{Role: llm.RoleAssistant, Content: "It will rain."},
	}
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, "alice", first))
			require.NoError(t, s.Save(ctx, "bob", first))
			require.NoError(t, s.Save(ctx, "alice", second))

			alice, err := s.Restore(ctx, "alice")
			require.NoError(t, err)
			require.Equal(t, second, alice)

			bob, err := s.Restore(ctx, "bob")
			require.NoError(t, err)
			require.Equal(t, first, bob)
		})
	}
}

func TestStore_SaveEmptyTranscript(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, "alice", []llm.Message{{Role: llm.RoleUser, Content: "x"}}))
			require.NoError(t, s.Save(ctx, "alice", nil))

			out, err := s.Restore(ctx, "alice")
			require.NoError(t, err)
			require.Empty(t, out)
		})
	}
}

func TestDynamoDBStore_CorruptPayload(t *testing.T) {
	api := newFakeDynamo()
	api.items["agent-state/alice"] = map[string]types.AttributeValue{
		attrUserID: &types.AttributeValueMemberS{Value: "alice"},
		attrState:  &types.AttributeValueMemberS{Value: "{oops"},
	}
	api.items["agent-state/bob"] = map[string]types.AttributeValue{
		attrUserID: &types.AttributeValueMemberS{Value: "bob"},
	}
	s := NewDynamoDBStore(api, "agent-state")

	_, err := s.Restore(context.Background(), "alice")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCorruptState))

	_, err = s.Restore(context.Background(), "bob")
	require.True(t, errors.Is(err, ErrCorruptState))
}

func TestDynamoDBStore_ServiceErrorsPropagate(t *testing.T) {
	api := newFakeDynamo()
	api.err = errors.New("service unavailable")
	s := NewDynamoDBStore(api, "agent-state")

	_, err := s.Restore(context.Background(), "alice")
	require.ErrorContains(t, err, "service unavailable")
	require.ErrorContains(t, s.Save(context.Background(), "alice", nil), "service unavailable")
}

func TestDynamoDBStore_ItemLayout(t *testing.T) {
	api := newFakeDynamo()
	s := NewDynamoDBStore(api, "agent-state")
	require.NoError(t, s.Save(context.Background(), "alice", []llm.Message{{Role: llm.RoleUser, Content: "hi"}}))

	item := api.items["agent-state/alice"]
	require.Len(t, item, 2)
	require.Equal(t, "alice", item[attrUserID].(*types.AttributeValueMemberS).Value)
	require.Equal(t, `[{"role":"user","content":"hi"}]`, item[attrState].(*types.AttributeValueMemberS).Value)
}

func TestRedisStore_UsesPrefix(t *testing.T) {
	api := &fakeRedis{values: map[string]string{}}
	s := NewRedisStore(api, "agent_state:")
	require.NoError(t, s.Save(context.Background(), "alice", []llm.Message{{Role: llm.RoleUser, Content: "hi"}}))
	require.Contains(t, api.values, "agent_state:alice")

	api.values["agent_state:bob"] = "not json"
	_, err := s.Restore(context.Background(), "bob")
	require.True(t, errors.Is(err, ErrCorruptState))
}

func TestOpen_ValidatesBackendSettings(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StateBackend: config.BackendDynamoDB})
	require.ErrorContains(t, err, "DYNAMODB_AGENT_STATE_TABLE_NAME")

	s, err := Open(context.Background(), &config.Config{StateBackend: config.BackendMemory})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestDecodeTranscript(t *testing.T) {
	out, err := DecodeTranscript("null")
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)

	_, err = DecodeTranscript("{")
	require.True(t, errors.Is(err, ErrCorruptState))

	_, err = DecodeTranscript(`{"role":"user"}`)
	require.True(t, errors.Is(err, ErrCorruptState))

	encoded, err := EncodeTranscript(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", encoded)
}
