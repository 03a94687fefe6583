package mcpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"agent-blueprint/internal/llm"
)

type stubRunner struct {
	err     error
	history [][]llm.Message
}

func (s *stubRunner) Run(_ context.Context, history []llm.Message, prompt string) ([]llm.Message, error) {
	s.history = append(s.history, history)
	if s.err != nil {
		return nil, s.err
	}
	return []llm.Message{llm.UserMessage(prompt), llm.AssistantMessage("sunny in " + prompt)}, nil
}

func call(t *testing.T, s *Server, query string) *mcp.CallToolResultFor[any] {
	t.Helper()
	res, err := s.Ask(context.Background(), nil, &mcp.CallToolParamsFor[QueryParams]{
		Name:      s.name,
		Arguments: QueryParams{Query: query},
	})
	require.NoError(t, err)
	return res
}

func text(res *mcp.CallToolResultFor[any]) string {
	return res.Content[0].(*mcp.TextContent).Text
}

func TestToolName(t *testing.T) {
	cases := map[string]string{
		"Weather Assistant":     "weather_assistant",
		"  Citymapper-Agent v2": "citymapper_agent_v2",
		"Ünïcode!!":             "n_code",
		"???":                   "agent",
		"":                      "agent",
	}
	for in, want := range cases {
		require.Equal(t, want, ToolName(in), in)
	}
}

func TestAsk_IsStateless(t *testing.T) {
	runner := &stubRunner{}
	s := New("Weather Assistant", "forecasts", runner)

	res := call(t, s, "Seattle")
	require.False(t, res.IsError)
	require.Equal(t, "sunny in Seattle", text(res))

	call(t, s, "Boston")
	require.Len(t, runner.history, 2)
	require.Empty(t, runner.history[0])
	require.Empty(t, runner.history[1])
}

func TestAsk_Errors(t *testing.T) {
	runner := &stubRunner{}
	s := New("Weather Assistant", "forecasts", runner)

	res := call(t, s, "   ")
	require.True(t, res.IsError)
	require.Empty(t, runner.history)

	runner.err = errors.New("model down")
	res = call(t, s, "Seattle")
	require.True(t, res.IsError)
	require.Contains(t, text(res), "model down")
}

func TestHandler_Health(t *testing.T) {
	s := New("Weather Assistant", "forecasts", &stubRunner{})
	rr := httptest.NewRecorder()
	s.Handler(TransportStreamableHTTP).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
}

func TestRun_UnknownTransport(t *testing.T) {
	s := New("Weather Assistant", "forecasts", &stubRunner{})
	require.ErrorContains(t, s.Run(context.Background(), "carrier-pigeon", ""), "unknown MCP transport")
}
