// Command activities-mcp-server serves a static travel activities catalog
// as MCP tools for agents configured through mcp.json.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"agent-blueprint/internal/activities"
	"agent-blueprint/internal/mcpserver"
)

type serverConfig struct {
	Host string `env:"MCP_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"MCP_PORT" envDefault:"8080"`
}

func newRootCmd() *cobra.Command {
	var transport string
	cmd := &cobra.Command{
		Use:           "activities-mcp-server",
		Short:         "Serve travel destinations and activities as MCP tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg serverConfig
			if err := env.Parse(&cfg); err != nil {
				return errors.Wrap(err, "failed to parse config")
			}
			catalog, err := activities.Default()
			if err != nil {
				return err
			}

			srv := mcp.NewServer(&mcp.Implementation{Name: "activities", Version: "1.0.0"}, nil)
			activities.NewTools(catalog).Register(srv)

			log.Info().Str("transport", transport).Int("destinations", len(catalog.Destinations())).
				Msg("starting activities MCP server")
			return mcpserver.Serve(cmd.Context(), srv, transport, net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
		},
	}
	cmd.Flags().StringVar(&transport, "transport", mcpserver.TransportStreamableHTTP, "stdio, streamable-http or sse")
	return cmd
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("activities server exited with error")
		os.Exit(1)
	}
}
