// Package interactive runs the agent as a terminal chat. The transcript
// lives only for the duration of the session.
package interactive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agent-blueprint/internal/agent"
	"agent-blueprint/internal/conversation"
	"agent-blueprint/internal/llm"
)

const (
	quitCommand = "/quit"

	welcomePrompt = "Introduce yourself in two or three sentences and list what you can help with."
)

type Chat struct {
	name     string
	runner   conversation.Runner
	in       io.Reader
	out      io.Writer
	markdown bool

	history []llm.Message
}

func New(name string, runner conversation.Runner, in io.Reader, out io.Writer) *Chat {
	return &Chat{name: name, runner: runner, in: in, out: out, markdown: true}
}

// PlainText disables Markdown rendering.
func (c *Chat) PlainText() *Chat {
	c.markdown = false
	return c
}

func (c *Chat) Run(ctx context.Context) error {
	c.print(c.welcome(ctx))
	fmt.Fprintf(c.out, "Type %s to exit.\n", quitCommand)

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == quitCommand {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		added, err := c.runner.Run(ctx, c.history, line)
		if err != nil {
			log.Error().Err(err).Msg("agent turn failed")
			fmt.Fprintf(c.out, "Error: %v\n", err)
			continue
		}
		c.history = append(c.history, added...)
		c.print(agent.Reply(added))
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read input")
	}
	return nil
}

// welcome asks the agent to introduce itself without keeping the exchange
// in the session history.
func (c *Chat) welcome(ctx context.Context) string {
	added, err := c.runner.Run(ctx, nil, welcomePrompt)
	if err == nil {
		if reply := strings.TrimSpace(agent.Reply(added)); reply != "" {
			return reply
		}
	} else {
		log.Warn().Err(err).Msg("failed to generate welcome message")
	}
	return fmt.Sprintf("Hello! I'm %s. How can I help you today?", c.name)
}

func (c *Chat) print(text string) {
	if c.markdown {
		if rendered, err := glamour.Render(text, "dark"); err == nil {
			fmt.Fprint(c.out, rendered)
			return
		}
	}
	fmt.Fprintln(c.out, text)
}
