// Package tools connects to the MCP servers listed in mcp.json and exposes
// their tools to the agent.
//
// The Set is built once at process start and shared by every request; it
// owns the client sessions and must be closed on shutdown.
package tools

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agent-blueprint/internal/llm"
)

var ErrUnknownTool = errors.New("unknown tool")

// ErrToolFailed is returned when a tool reports an error result.
var ErrToolFailed = errors.New("tool returned an error")

type session interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Close() error
}

type Set struct {
	mu       sync.RWMutex
	defs     []llm.Tool
	owners   map[string]session
	sessions []session
}

func NewSet() *Set {
	return &Set{owners: make(map[string]session)}
}

// Load connects every enabled server in the config file at path. Servers
// that fail to connect are logged and skipped.
func Load(ctx context.Context, path string) (*Set, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	set := NewSet()
	client := mcp.NewClient(&mcp.Implementation{Name: "agent-blueprint", Version: "1.0.0"}, nil)

	for _, name := range cfg.Names() {
		sc := cfg.MCPServers[name]
		if sc.Disabled {
			log.Info().Str("server", name).Msg("skipping disabled MCP server")
			continue
		}
		if err := sc.Validate(name); err != nil {
			log.Error().Err(err).Str("server", name).Msg("skipping MCP server")
			continue
		}
		cs, err := client.Connect(ctx, transportFor(sc))
		if err != nil {
			log.Error().Err(err).Str("server", name).Msg("error connecting to MCP server")
			continue
		}
		n, err := set.Attach(ctx, name, cs)
		if err != nil {
			log.Error().Err(err).Str("server", name).Msg("error loading tools from MCP server")
			_ = cs.Close()
			continue
		}
		log.Info().Str("server", name).Int("tools", n).Msg("loaded tools from MCP server")
	}
	log.Info().Int("tools", len(set.Definitions())).Msg("total tools loaded")
	return set, nil
}

func transportFor(sc ServerConfig) mcp.Transport {
	if sc.URL != "" {
		return mcp.NewStreamableClientTransport(sc.URL, nil)
	}
	cmd := exec.Command(sc.Command, sc.Args...)
	cmd.Env = os.Environ()
	for k, v := range sc.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	return mcp.NewCommandTransport(cmd)
}

// Attach lists the tools of an already connected session and takes
// ownership of it. Tool names already provided by another server are
// ignored.
func (s *Set) Attach(ctx context.Context, server string, cs session) (int, error) {
	var (
		listed []*mcp.Tool
		cursor string
	)
	for {
		res, err := cs.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return 0, errors.Wrap(err, "list tools")
		}
		listed = append(listed, res.Tools...)
		if res.NextCursor == "" {
			break
		}
		cursor = res.NextCursor
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, t := range listed {
		if _, dup := s.owners[t.Name]; dup {
			log.Warn().Str("server", server).Str("tool", t.Name).Msg("duplicate tool name, keeping the first one")
			continue
		}
		var params any = map[string]any{"type": "object", "properties": map[string]any{}}
		if t.InputSchema != nil {
			params = t.InputSchema
		}
		s.defs = append(s.defs, llm.Tool{Name: t.Name, Description: t.Description, Parameters: params})
		s.owners[t.Name] = cs
		added++
	}
	s.sessions = append(s.sessions, cs)
	return added, nil
}

func (s *Set) Definitions() []llm.Tool {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]llm.Tool(nil), s.defs...)
}

// Call invokes a tool with JSON-encoded arguments and returns the
// concatenated text content of the result.
func (s *Set) Call(ctx context.Context, name, arguments string) (string, error) {
	if s == nil {
		return "", errors.Wrap(ErrUnknownTool, name)
	}
	s.mu.RLock()
	cs, ok := s.owners[name]
	s.mu.RUnlock()
	if !ok {
		return "", errors.Wrap(ErrUnknownTool, name)
	}

	args := map[string]any{}
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", errors.Wrapf(err, "decode arguments for %s", name)
		}
	}

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", errors.Wrapf(err, "call tool %s", name)
	}
	var b strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	if res.IsError {
		return b.String(), errors.Wrapf(ErrToolFailed, "%s: %s", name, b.String())
	}
	return b.String(), nil
}

func (s *Set) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, cs := range s.sessions {
		if err := cs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.sessions = nil
	s.owners = make(map[string]session)
	s.defs = nil
	return firstErr
}
