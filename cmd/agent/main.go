package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"agent-blueprint/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "agent",
	Short:         "Run a configurable LLM agent over REST, MCP, A2A, Telegram or the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(".env"); err != nil {
			log.Debug().Err(err).Msg(".env file not loaded")
		}
		c, err := config.New()
		if err != nil {
			return err
		}
		setupLogging(c.DebugEnabled())
		cfg = c
		return nil
	},
}

func setupLogging(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	// stdout is reserved for the MCP stdio transport and the chat UI
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func main() {
	rootCmd.AddCommand(
		newRESTCmd(),
		newMCPCmd(),
		newA2ACmd(),
		newChatCmd(),
		newTelegramCmd(),
		newServeCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("agent exited with error")
		os.Exit(1)
	}
}
