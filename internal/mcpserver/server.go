// Package mcpserver publishes the agent as a single MCP tool so other agents
// and MCP clients can call it. Every call is an independent one-shot
// conversation.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agent-blueprint/internal/agent"
	"agent-blueprint/internal/conversation"
	"agent-blueprint/internal/server"
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
	TransportSSE            = "sse"
)

type QueryParams struct {
	Query string `json:"query" mcp:"the request for the agent in natural language"`
}

type Server struct {
	name        string
	description string
	runner      conversation.Runner
	mcp         *mcp.Server
}

func New(name, description string, runner conversation.Runner) *Server {
	s := &Server{
		name:        ToolName(name),
		description: description,
		runner:      runner,
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: s.name, Version: "1.0.0"}, nil)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: s.name, Description: description}, s.Ask)
	return s
}

// ToolName turns an agent name into a tool identifier made of [a-z0-9_].
func ToolName(agentName string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(agentName)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	name := strings.TrimRight(b.String(), "_")
	if name == "" {
		return "agent"
	}
	return name
}

func (s *Server) Ask(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[QueryParams]) (*mcp.CallToolResultFor[any], error) {
	query := strings.TrimSpace(params.Arguments.Query)
	if query == "" {
		return textResult("query is required", true), nil
	}

	added, err := s.runner.Run(ctx, nil, query)
	if err != nil {
		log.Error().Err(err).Str("tool", s.name).Msg("agent call failed")
		return textResult(fmt.Sprintf("agent failed: %v", err), true), nil
	}
	return textResult(agent.Reply(added), false), nil
}

func textResult(text string, isError bool) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: isError,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// Handler serves the MCP endpoint at /mcp and a health probe at /health.
func (s *Server) Handler(transport string) http.Handler {
	return NewHandler(s.mcp, transport)
}

// Run serves the tool over the given transport until ctx is done.
func (s *Server) Run(ctx context.Context, transport, addr string) error {
	log.Info().Str("tool", s.name).Str("transport", transport).Msg("serving agent over MCP")
	return Serve(ctx, s.mcp, transport, addr)
}

// NewHandler exposes srv over HTTP at /mcp, with a health probe at /health.
func NewHandler(srv *mcp.Server, transport string) http.Handler {
	getServer := func(*http.Request) *mcp.Server { return srv }

	mux := http.NewServeMux()
	if transport == TransportSSE {
		mux.Handle("/mcp", mcp.NewSSEHandler(getServer))
	} else {
		mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(getServer, nil))
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	return mux
}

// Serve runs srv over stdio or HTTP until ctx is done. addr is ignored for
// stdio.
func Serve(ctx context.Context, srv *mcp.Server, transport, addr string) error {
	switch transport {
	case TransportStdio:
		if err := srv.Run(ctx, mcp.NewStdioTransport()); err != nil && !errors.Is(err, context.Canceled) {
			return errors.Wrap(err, "mcp stdio server")
		}
		return nil
	case TransportStreamableHTTP, TransportSSE:
		httpSrv := &http.Server{
			Addr:              addr,
			Handler:           NewHandler(srv, transport),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		return server.Serve(ctx, httpSrv, "mcp")
	default:
		return errors.Errorf("unknown MCP transport %q", transport)
	}
}
