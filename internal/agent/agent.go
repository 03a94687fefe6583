// Package agent runs one conversational turn of the configured agent: the
// model is called with the transcript and the available tools until it
// produces a plain answer.
package agent

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agent-blueprint/internal/agentcfg"
	"agent-blueprint/internal/llm"
)

const DefaultMaxToolRounds = 8

// Toolbox is the set of tools the agent may call.
type Toolbox interface {
	Definitions() []llm.Tool
	Call(ctx context.Context, name, arguments string) (string, error)
}

type Agent struct {
	cfg       agentcfg.Config
	client    llm.Client
	tools     Toolbox
	maxRounds int
}

type Option func(*Agent)

func WithTools(t Toolbox) Option {
	return func(a *Agent) { a.tools = t }
}

func WithMaxToolRounds(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

func New(cfg agentcfg.Config, client llm.Client, opts ...Option) *Agent {
	a := &Agent{cfg: cfg, client: client, maxRounds: DefaultMaxToolRounds}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Name() string        { return a.cfg.Name }
func (a *Agent) Description() string { return a.cfg.Description }

// Run executes one turn on top of history and returns the messages the turn
// added: the user prompt first and the final assistant reply last. history
// is not modified.
func (a *Agent) Run(ctx context.Context, history []llm.Message, prompt string) ([]llm.Message, error) {
	added := []llm.Message{llm.UserMessage(prompt)}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: a.cfg.SystemPrompt})
	for _, m := range history {
		// stored entries without a role are kept in state but not sent
		if m.Role != "" {
			msgs = append(msgs, m)
		}
	}
	msgs = append(msgs, added[0])

	defs := a.definitions()
	tc, canCallTools := a.client.(llm.ToolClient)
	if !canCallTools {
		defs = nil
	}

	for round := 0; ; round++ {
		var (
			resp llm.Response
			err  error
		)
		switch {
		case len(defs) == 0:
			resp, err = a.client.Generate(ctx, msgs)
		case round >= a.maxRounds:
			log.Warn().Str("agent", a.cfg.Name).Int("rounds", round).Msg("tool round limit reached, asking for a final answer")
			resp, err = tc.GenerateWithTools(ctx, msgs, nil)
		default:
			resp, err = tc.GenerateWithTools(ctx, msgs, defs)
		}
		if err != nil {
			return nil, errors.Wrap(err, "generate")
		}

		if len(resp.ToolCalls) == 0 || len(defs) == 0 || round >= a.maxRounds {
			added = append(added, llm.AssistantMessage(resp.Content))
			return added, nil
		}

		call := llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls}
		msgs = append(msgs, call)
		added = append(added, call)
		for _, c := range resp.ToolCalls {
			result := a.callTool(ctx, c)
			msgs = append(msgs, result)
			added = append(added, result)
		}
	}
}

func (a *Agent) definitions() []llm.Tool {
	if a.tools == nil {
		return nil
	}
	return a.tools.Definitions()
}

func (a *Agent) callTool(ctx context.Context, c llm.ToolCall) llm.Message {
	log.Info().Str("tool", c.Name).Msg("calling tool")
	out, err := a.tools.Call(ctx, c.Name, c.Arguments)
	if err != nil {
		log.Error().Err(err).Str("tool", c.Name).Msg("tool call failed")
		out = "error: " + err.Error()
	}
	return llm.Message{Role: llm.RoleTool, Content: out, ToolCallID: c.ID, Name: c.Name}
}

// Reply returns the text of the last assistant message in msgs.
func Reply(msgs []llm.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleAssistant && len(msgs[i].ToolCalls) == 0 {
			return msgs[i].Content
		}
	}
	return ""
}
