package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"agent-blueprint/internal/interactive"
	"agent-blueprint/internal/mcpserver"
)

// withApp builds the shared runtime for a command and tears it down after.
func withApp(run func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a)
	}
}

func newRESTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rest",
		Short: "Serve the REST API with persisted per-user conversations",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			return a.runREST(cmd.Context())
		}),
	}
}

func newMCPCmd() *cobra.Command {
	var transport string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Expose the agent as an MCP tool",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			return a.runMCP(cmd.Context(), transport)
		}),
	}
	cmd.Flags().StringVar(&transport, "transport", mcpserver.TransportStreamableHTTP, "stdio, streamable-http or sse")
	return cmd
}

func newA2ACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "a2a",
		Short: "Serve the agent over the Agent2Agent protocol",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			return a.runA2A(cmd.Context())
		}),
	}
}

func newChatCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agent in the terminal",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			chat := interactive.New(a.def.Name, a.agent, os.Stdin, os.Stdout)
			if plain {
				chat.PlainText()
			}
			return chat.Run(cmd.Context())
		}),
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print replies without Markdown rendering")
	return cmd
}

func newTelegramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram bot",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			return a.runTelegram(cmd.Context())
		}),
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run REST, MCP and A2A servers together, plus Telegram when configured",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return a.runREST(ctx) })
			g.Go(func() error { return a.runMCP(ctx, mcpserver.TransportStreamableHTTP) })
			g.Go(func() error { return a.runA2A(ctx) })
			if a.cfg.TelegramBotToken != "" {
				g.Go(func() error { return a.runTelegram(ctx) })
			}
			return g.Wait()
		}),
	}
}
