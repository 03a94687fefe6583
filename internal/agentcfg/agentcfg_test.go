package agentcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const weatherAgent = `# Weather Agent

## Agent Name
Weather Assistant

## Agent Description
Weather Assistant that provides weather forecasts (US City, State) and alerts (US State).

## System Prompt
You are Weather Assistant that helps the user with forecasts or alerts:
- Provide weather forecasts for US cities for the next 3 days if no specific period is mentioned
- When returning forecasts, always include whether the weather is good for outdoor activities

` + "```" + `
## Not a heading
` + "```" + `

### Examples
What's the weather in Seattle?
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(weatherAgent))
	require.NoError(t, err)
	require.Equal(t, "Weather Assistant", cfg.Name)
	require.Equal(t, "Weather Assistant that provides weather forecasts (US City, State) and alerts (US State).", cfg.Description)
	require.Contains(t, cfg.SystemPrompt, "You are Weather Assistant")
	require.Contains(t, cfg.SystemPrompt, "good for outdoor activities")
	require.Contains(t, cfg.SystemPrompt, "## Not a heading")
	require.NotContains(t, cfg.SystemPrompt, "Examples")
}

func TestParse_CaseInsensitiveHeaders(t *testing.T) {
	src := "## agent name\nbot\n## AGENT DESCRIPTION\ndesc\n## system prompt\nbe nice\n"
	cfg, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Equal(t, Config{Name: "bot", Description: "desc", SystemPrompt: "be nice"}, cfg)
}

func TestParse_SetextHeading(t *testing.T) {
	src := "Agent Name\n----------\nbot\n\n## Agent Description\ndesc\n\n## System Prompt\nprompt"
	cfg, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Equal(t, "bot", cfg.Name)
	require.Equal(t, "prompt", cfg.SystemPrompt)
}

func TestParse_MissingSections(t *testing.T) {
	_, err := Parse([]byte("## Agent Name\nbot\n\n## System Prompt\n\n"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingSections))
	require.ErrorContains(t, err, SectionDescription)
	require.ErrorContains(t, err, SectionSystemPrompt)
	require.NotContains(t, err.Error(), SectionName+",")
}

func TestLoad_FallbackToCloudbot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cloudbot.md"), []byte(weatherAgent), 0o644))

	cfg, err := Load(filepath.Join(dir, "agent.md"))
	require.NoError(t, err)
	require.Equal(t, "Weather Assistant", cfg.Name)
}

func TestLoad_NoFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "agent.md"))
	require.ErrorContains(t, err, "no agent configuration file found")
}
