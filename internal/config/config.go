package config

import (
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type StateBackend string

const (
	BackendDynamoDB StateBackend = "dynamodb"
	BackendRedis    StateBackend = "redis"
	BackendSQLite   StateBackend = "sqlite"
	BackendFile     StateBackend = "file"
	BackendMemory   StateBackend = "memory"
)

type Config struct {
	// REST front-end
	Host  string `env:"FASTAPI_HOST" envDefault:"0.0.0.0"`
	Port  int    `env:"FASTAPI_PORT" envDefault:"3000"`
	Debug string `env:"DEBUG"`

	// Identity
	DisableAuth    bool   `env:"DISABLE_AUTH"`
	CognitoJWKSURL string `env:"COGNITO_JWKS_URL"`

	// Conversation state
	StateBackend   StateBackend `env:"STATE_BACKEND" envDefault:"dynamodb"`
	DynamoDBTable  string       `env:"DYNAMODB_AGENT_STATE_TABLE_NAME"`
	AWSRegion      string       `env:"AWS_REGION" envDefault:"us-west-2"`
	AWSEndpointURL string       `env:"AWS_ENDPOINT_URL"`
	RedisAddr      string       `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisKeyPrefix string       `env:"REDIS_KEY_PREFIX" envDefault:"agent_state:"`
	SQLitePath     string       `env:"SQLITE_PATH" envDefault:"data/agent_state.db"`
	StateFilePath  string       `env:"STATE_FILE_PATH" envDefault:"data/agent_state.json"`

	// LLM settings
	LLMProvider        LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey       string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string      `env:"OPENAI_BASE_URL"`
	OpenAIModel        string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenRouterReferrer string      `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string      `env:"OPENROUTER_TITLE"`
	YandexOAuthToken   string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID     string      `env:"YANDEX_FOLDER_ID"`
	MaxToolRounds      int         `env:"MAX_TOOL_ROUNDS" envDefault:"8"`

	// Agent definition
	AgentConfigFile string `env:"AGENT_CONFIG_FILE" envDefault:"agent.md"`
	MCPConfigFile   string `env:"MCP_CONFIG_FILE" envDefault:"mcp.json"`

	// Other front-ends
	MCPPort      int    `env:"MCP_PORT" envDefault:"8080"`
	A2AHost      string `env:"A2A_HOST" envDefault:"0.0.0.0"`
	A2APort      int    `env:"A2A_PORT" envDefault:"9000"`
	A2APublicURL string `env:"A2A_PUBLIC_URL"`

	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`

	// Usage reporting
	LogFilePath string `env:"LOG_FILE_PATH" envDefault:"logs/log.jsonl"`
	ReportCron  string `env:"REPORT_CRON" envDefault:"0 21 * * *"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	return cfg, nil
}

// DebugEnabled mirrors the DEBUG convention of the deployment scripts:
// "1", "true" and "yes" turn it on.
func (c *Config) DebugEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(c.Debug)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// AuthEnforced reports whether bearer tokens are validated. Without a JWKS
// URL, or with one pointing at localhost, requests run as a test user.
func (c *Config) AuthEnforced() bool {
	if c.DisableAuth || c.CognitoJWKSURL == "" {
		return false
	}
	return !strings.Contains(c.CognitoJWKSURL, "localhost")
}

// Validate checks what every front-end needs: the model provider and the
// agent loop settings.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderYandex:
	default:
		return errors.Errorf("unknown llm provider: %s", c.LLMProvider)
	}
	if c.MaxToolRounds < 1 {
		return errors.New("MAX_TOOL_ROUNDS must be at least 1")
	}
	return nil
}

// ValidateState checks the settings of the selected state backend. Only
// front-ends that persist conversations call it.
func (c *Config) ValidateState() error {
	switch c.StateBackend {
	case BackendDynamoDB:
		if c.DynamoDBTable == "" {
			return errors.New("DYNAMODB_AGENT_STATE_TABLE_NAME is required for the dynamodb state backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis state backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite state backend")
		}
	case BackendFile:
		if c.StateFilePath == "" {
			return errors.New("STATE_FILE_PATH is required for the file state backend")
		}
	case BackendMemory:
	default:
		return errors.Errorf("unknown state backend: %s", c.StateBackend)
	}
	return nil
}
