// Package agentcfg loads the agent definition from a Markdown file with
// "## Agent Name", "## Agent Description" and "## System Prompt" sections.
package agentcfg

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	SectionName         = "Agent Name"
	SectionDescription  = "Agent Description"
	SectionSystemPrompt = "System Prompt"

	fallbackFile = "cloudbot.md"
)

var ErrMissingSections = errors.New("agent configuration is missing required sections")

type Config struct {
	Name         string
	Description  string
	SystemPrompt string
}

// Load reads the agent definition from path. When path does not exist a
// cloudbot.md next to it is used instead.
func Load(path string) (Config, error) {
	resolved, err := resolve(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read agent config %s", resolved)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "agent config %s", resolved)
	}
	return cfg, nil
}

func resolve(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	fallback := filepath.Join(filepath.Dir(path), fallbackFile)
	if _, err := os.Stat(fallback); err == nil {
		return fallback, nil
	}
	return "", errors.Errorf("no agent configuration file found: provide %s or set AGENT_CONFIG_FILE", path)
}

// Parse extracts the three required sections. Header matching ignores case;
// a section runs until the next heading of level two or deeper.
func Parse(source []byte) (Config, error) {
	sections := extractSections(source)

	cfg := Config{
		Name:         sections[strings.ToLower(SectionName)],
		Description:  sections[strings.ToLower(SectionDescription)],
		SystemPrompt: sections[strings.ToLower(SectionSystemPrompt)],
	}

	var missing []string
	if cfg.Name == "" {
		missing = append(missing, SectionName)
	}
	if cfg.Description == "" {
		missing = append(missing, SectionDescription)
	}
	if cfg.SystemPrompt == "" {
		missing = append(missing, SectionSystemPrompt)
	}
	if len(missing) > 0 {
		return Config{}, errors.Wrap(ErrMissingSections, strings.Join(missing, ", "))
	}
	return cfg, nil
}

type headingSpan struct {
	title        string
	start, after int
}

// extractSections maps lower-cased heading titles to the trimmed text below
// them. The first occurrence of a title wins.
func extractSections(source []byte) map[string]string {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var spans []headingSpan
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level < 2 || h.Lines().Len() == 0 {
			continue
		}
		spans = append(spans, headingSpan{
			title: headingTitle(h, source),
			start: lineStart(source, h.Lines().At(0).Start),
			after: headingEnd(source, h),
		})
	}

	out := make(map[string]string, len(spans))
	for i, sp := range spans {
		end := len(source)
		if i+1 < len(spans) {
			end = spans[i+1].start
		}
		key := strings.ToLower(sp.title)
		if _, seen := out[key]; seen {
			continue
		}
		if sp.after > end {
			sp.after = end
		}
		out[key] = strings.TrimSpace(string(source[sp.after:end]))
	}
	return out
}

func headingTitle(h *ast.Heading, source []byte) string {
	var b strings.Builder
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimSpace(b.String())
}

func lineStart(source []byte, pos int) int {
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}

func lineEnd(source []byte, pos int) int {
	for pos < len(source) && source[pos] != '\n' {
		pos++
	}
	if pos < len(source) {
		pos++
	}
	return pos
}

// headingEnd returns the offset just past the heading block, including the
// underline of a setext heading.
func headingEnd(source []byte, h *ast.Heading) int {
	lines := h.Lines()
	end := lineEnd(source, lines.At(lines.Len()-1).Stop)
	next := lineEnd(source, end)
	underline := strings.TrimSpace(string(source[end:next]))
	if underline != "" && strings.Trim(underline, "-=") == "" {
		return next
	}
	return end
}
