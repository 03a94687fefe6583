package llm

import (
	"context"
	"encoding/json"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single conversation turn. It is the unit persisted in the
// conversation state, so field names are part of the stored format.
//
// Stored messages are not validated. A message decoded from a payload that
// would not encode back byte for byte (content blocks, extra fields, another
// key order) keeps that payload and encodes to it unchanged; Content then
// holds the text found in the blocks.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`

	raw json.RawMessage
}

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool describes a function the model may call. Parameters holds a JSON
// schema and is passed to the provider as is.
type Tool struct {
	Name        string
	Description string
	Parameters  any
}

type Response struct {
	Content          string
	ToolCalls        []ToolCall
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// ToolClient is implemented by providers that support function calling.
type ToolClient interface {
	Client
	GenerateWithTools(ctx context.Context, messages []Message, tools []Tool) (Response, error)
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
