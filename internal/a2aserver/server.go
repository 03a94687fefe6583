// Package a2aserver serves the agent over the Agent2Agent protocol: an agent
// card for discovery and JSON-RPC message/send. Conversations are not
// remembered between calls.
package a2aserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/a2aproject/a2a-go/a2asrv/eventqueue"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agent-blueprint/internal/agent"
	"agent-blueprint/internal/conversation"
	"agent-blueprint/internal/mcpserver"
	"agent-blueprint/internal/server"
)

const (
	ProtocolVersion = "0.3.0"

	// legacyAgentCardPath is still probed by older A2A clients.
	legacyAgentCardPath = "/.well-known/agent.json"
)

type Server struct {
	card    *a2a.AgentCard
	handler a2asrv.RequestHandler
}

func New(name, description, publicURL string, runner conversation.Runner) *Server {
	card := &a2a.AgentCard{
		Name:               name,
		Description:        description,
		URL:                publicURL,
		Version:            "1.0.0",
		ProtocolVersion:    ProtocolVersion,
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []a2a.AgentSkill{{
			ID:          mcpserver.ToolName(name),
			Name:        name,
			Description: description,
			Tags:        []string{"agent"},
		}},
	}
	return &Server{
		card:    card,
		handler: a2asrv.NewHandler(&executor{runner: runner}),
	}
}

func (s *Server) Card() *a2a.AgentCard { return s.card }

func (s *Server) Handler() http.Handler {
	cards := a2asrv.NewStaticAgentCardHandler(s.card)
	rpc := a2asrv.NewJSONRPCHandler(s.handler)

	mux := http.NewServeMux()
	mux.Handle(a2asrv.WellKnownAgentCardPath, cards)
	mux.Handle(legacyAgentCardPath, cards)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		rpc.ServeHTTP(w, r)
	})
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server.Serve(ctx, srv, "a2a")
}

// executor answers every message with an empty history and keeps nothing
// afterwards.
type executor struct {
	runner conversation.Runner
}

func (e *executor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, q eventqueue.Queue) error {
	prompt := strings.TrimSpace(textOf(reqCtx.Message))
	if prompt == "" {
		return errors.Wrap(a2a.ErrInvalidParams, "message must contain a text part")
	}

	added, err := e.runner.Run(context.WithoutCancel(ctx), nil, prompt)
	if err != nil {
		log.Error().Err(err).Str("component", "a2a").Msg("message/send failed")
		return errors.Wrap(err, "run agent")
	}

	reply := a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: agent.Reply(added)})
	reply.ContextID = reqCtx.ContextID
	return q.Write(ctx, reply)
}

func (e *executor) Cancel(context.Context, *a2asrv.RequestContext, eventqueue.Queue) error {
	return a2a.ErrUnsupportedOperation
}

func textOf(msg *a2a.Message) string {
	if msg == nil {
		return ""
	}
	var texts []string
	for _, p := range msg.Parts {
		switch part := p.(type) {
		case a2a.TextPart:
			texts = append(texts, part.Text)
		case *a2a.TextPart:
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}
