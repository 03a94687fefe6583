package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_PlainRoundTrip(t *testing.T) {
	in := []Message{
		UserMessage("a < b & c"),
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "get_forecast", Arguments: `{"city":"Seattle"}`}}},
		{Role: RoleTool, Content: "rain", ToolCallID: "c1", Name: "get_forecast"},
	}
	b, err := EncodeJSON(in)
	require.NoError(t, err)
	require.Contains(t, string(b), "a < b & c")

	var out []Message
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, in, out)
}

func TestMessage_ContentBlocksAreKept(t *testing.T) {
	payload := `[{"role":"user","content":[{"text":"hi"},{"text":"there"}],"metadata":{"k":1}},` +
		`{"role":"assistant","content":[{"toolUse":{"name":"get_forecast","input":{}}}]},` +
		`{"role":"user","content":"plain","tool_calls":"not a list"},42]`

	var out []Message
	require.NoError(t, json.Unmarshal([]byte(payload), &out))
	require.Len(t, out, 4)
	require.Equal(t, RoleUser, out[0].Role)
	require.Equal(t, "hi\nthere", out[0].Content)
	require.Equal(t, RoleAssistant, out[1].Role)
	require.Empty(t, out[1].Content)
	require.Equal(t, "plain", out[2].Content)
	require.Empty(t, out[2].ToolCalls)
	require.Empty(t, out[3].Role)

	b, err := EncodeJSON(out)
	require.NoError(t, err)
	require.Equal(t, payload, string(b))
}

func TestMessage_KeyOrderAndWhitespaceKept(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{ "content": "hi", "role": "user" }`), &m))
	require.Equal(t, "hi", m.Content)

	b, err := EncodeJSON(m)
	require.NoError(t, err)
	require.Equal(t, `{"content":"hi","role":"user"}`, string(b))
}
