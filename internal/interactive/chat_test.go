package interactive

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"agent-blueprint/internal/llm"
)

type recordingRunner struct {
	failWelcome bool
	prompts     []string
	histories   []int
}

func (r *recordingRunner) Run(_ context.Context, history []llm.Message, prompt string) ([]llm.Message, error) {
	r.prompts = append(r.prompts, prompt)
	r.histories = append(r.histories, len(history))
	if prompt == welcomePrompt && r.failWelcome {
		return nil, errors.New("offline")
	}
	return []llm.Message{llm.UserMessage(prompt), llm.AssistantMessage("answer to " + prompt)}, nil
}

func TestChat_KeepsSessionHistory(t *testing.T) {
	runner := &recordingRunner{}
	var out bytes.Buffer
	in := strings.NewReader("hello\n\n   \nweather?\n/quit\nnever sent\n")

	require.NoError(t, New("Weather Assistant", runner, in, &out).PlainText().Run(context.Background()))

	require.Equal(t, []string{welcomePrompt, "hello", "weather?"}, runner.prompts)
	require.Equal(t, []int{0, 0, 2}, runner.histories)
	require.Contains(t, out.String(), "answer to weather?")
	require.Contains(t, out.String(), "Goodbye!")
}

func TestChat_WelcomeFallback(t *testing.T) {
	var out bytes.Buffer
	runner := &recordingRunner{failWelcome: true}

	require.NoError(t, New("Weather Assistant", runner, strings.NewReader(""), &out).PlainText().Run(context.Background()))
	require.Contains(t, out.String(), "Hello! I'm Weather Assistant.")
}

func TestChat_MarkdownRendering(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, New("Weather Assistant", &recordingRunner{}, strings.NewReader("/quit\n"), &out).Run(context.Background()))
	require.Contains(t, out.String(), "Goodbye!")
	require.Greater(t, len(out.String()), len("Goodbye!"))
}
