package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agent-blueprint/internal/a2aserver"
	"agent-blueprint/internal/agent"
	"agent-blueprint/internal/agentcfg"
	"agent-blueprint/internal/analytics"
	"agent-blueprint/internal/auth"
	"agent-blueprint/internal/config"
	"agent-blueprint/internal/conversation"
	"agent-blueprint/internal/llm"
	"agent-blueprint/internal/mcpserver"
	"agent-blueprint/internal/scheduler"
	"agent-blueprint/internal/server"
	"agent-blueprint/internal/state"
	"agent-blueprint/internal/storage"
	"agent-blueprint/internal/telegram"
	"agent-blueprint/internal/tools"
)

// app holds what every front-end shares: the agent definition, the model
// client and the MCP tool set. It is built once per process.
type app struct {
	cfg   *config.Config
	def   agentcfg.Config
	agent *agent.Agent
	tools *tools.Set

	mu       sync.Mutex
	store    state.ClosableStore
	recorder storage.Recorder
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	def, err := agentcfg.Load(cfg.AgentConfigFile)
	if err != nil {
		return nil, err
	}
	log.Info().Str("agent", def.Name).Msg("loaded agent configuration")

	client, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		return nil, err
	}
	set, err := tools.Load(ctx, cfg.MCPConfigFile)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:   cfg,
		def:   def,
		tools: set,
		agent: agent.New(def, client,
			agent.WithTools(set),
			agent.WithMaxToolRounds(cfg.MaxToolRounds)),
	}, nil
}

func (a *app) Close() {
	if err := a.tools.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close MCP sessions")
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close state store")
		}
	}
}

// conversations opens the state store and the interaction log on first use.
func (a *app) conversations(ctx context.Context) (*conversation.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		store, err := state.Open(ctx, a.cfg)
		if err != nil {
			return nil, errors.Wrap(err, "open state store")
		}
		a.store = store
	}
	svc := conversation.NewService(a.store, a.agent)

	if a.cfg.LogFilePath != "" && a.recorder == nil {
		rec, err := storage.NewFileRecorder(a.cfg.LogFilePath)
		if err != nil {
			log.Warn().Err(err).Msg("failed to init interaction log")
		} else {
			a.recorder = rec
		}
	}
	if a.recorder != nil {
		svc.WithRecorder(a.recorder)
	}
	return svc, nil
}

func (a *app) runREST(ctx context.Context) error {
	svc, err := a.conversations(ctx)
	if err != nil {
		return err
	}
	resolver, err := auth.NewResolver(ctx, a.cfg.CognitoJWKSURL, a.cfg.DisableAuth)
	if err != nil {
		return err
	}

	if rec := a.currentRecorder(); rec != nil {
		sched := scheduler.New(a.cfg.ReportCron)
		sched.SetReportFunction(a.report)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	log.Info().Bool("auth_enforced", a.cfg.AuthEnforced()).Msg("starting REST front-end")
	srv := server.New(svc, resolver, server.Options{AgentName: a.def.Name, Debug: a.cfg.DebugEnabled()})
	return srv.ListenAndServe(ctx, net.JoinHostPort(a.cfg.Host, strconv.Itoa(a.cfg.Port)))
}

func (a *app) runMCP(ctx context.Context, transport string) error {
	s := mcpserver.New(a.def.Name, a.def.Description, a.agent)
	return s.Run(ctx, transport, fmt.Sprintf(":%d", a.cfg.MCPPort))
}

func (a *app) runA2A(ctx context.Context) error {
	addr := net.JoinHostPort(a.cfg.A2AHost, strconv.Itoa(a.cfg.A2APort))
	publicURL := a.cfg.A2APublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://%s/", addr)
	}
	return a2aserver.New(a.def.Name, a.def.Description, publicURL, a.agent).ListenAndServe(ctx, addr)
}

func (a *app) runTelegram(ctx context.Context) error {
	if a.cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	svc, err := a.conversations(ctx)
	if err != nil {
		return err
	}
	bot, err := telegram.New(a.cfg.TelegramBotToken, auth.NewAllowlist(a.cfg.AllowedUsers), svc, a.def.Name)
	if err != nil {
		return err
	}
	return bot.Start(ctx)
}

func (a *app) currentRecorder() storage.Recorder {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recorder
}

// report logs usage statistics for the previous UTC day.
func (a *app) report(context.Context) error {
	events, err := a.currentRecorder().LoadInteractions()
	if err != nil {
		return errors.Wrap(err, "load interactions")
	}
	stats := analytics.AnalyzeDailyLogs(events, time.Now().UTC().AddDate(0, 0, -1))
	log.Info().
		Str("date", stats.Date).
		Int("messages", stats.TotalMessages).
		Int("users", stats.UniqueUsers).
		Int("tool_calls", stats.ToolCallsTotal).
		Msg(stats.GenerateReportSummary())
	return nil
}
