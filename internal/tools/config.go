package tools

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// ServerConfig is one entry of the "mcpServers" object in mcp.json. A server
// is either remote (URL, streamable HTTP) or a local command spoken to over
// stdio.
type ServerConfig struct {
	URL      string            `json:"url,omitempty"`
	Command  string            `json:"command,omitempty"`
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Disabled bool              `json:"disabled,omitempty"`
}

type FileConfig struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

var ErrInvalidServer = errors.New("invalid MCP server configuration")

// ReadConfig parses mcp.json. A missing file is not an error and yields an
// empty configuration.
func ReadConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return FileConfig{}, nil
	}
	if err != nil {
		return FileConfig{}, errors.Wrap(err, "read mcp config")
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, errors.Wrap(err, "parse mcp config")
	}
	return cfg, nil
}

// Names returns server names in a stable order.
func (c FileConfig) Names() []string {
	names := make([]string, 0, len(c.MCPServers))
	for name := range c.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c ServerConfig) Validate(name string) error {
	if c.URL != "" {
		return nil
	}
	if c.Command != "" && c.Args != nil {
		return nil
	}
	return errors.Wrapf(ErrInvalidServer, "%s: must have either 'url' or both 'command' and 'args'", name)
}
