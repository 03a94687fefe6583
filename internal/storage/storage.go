package storage

import "time"

// Event is one completed conversation turn. A record combines the user's
// message, the assistant's response and the tools the agent called.
// Events are appended in chronological order.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	UserID            string    `json:"user_id"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	ToolCalls         []string  `json:"tool_calls,omitempty"`
}

// Recorder abstracts persistence of interaction events.
// LoadInteractions returns events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
