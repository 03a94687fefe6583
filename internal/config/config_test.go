package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DYNAMODB_AGENT_STATE_TABLE_NAME", "agent-state")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Host)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, BackendDynamoDB, cfg.StateBackend)
	require.Equal(t, "us-west-2", cfg.AWSRegion)
	require.Equal(t, 8080, cfg.MCPPort)
	require.Equal(t, 9000, cfg.A2APort)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.ValidateState())
}

func TestValidate_StatelessFrontEndsNeedNoTable(t *testing.T) {
	for _, key := range []string{"STATE_BACKEND", "DYNAMODB_AGENT_STATE_TABLE_NAME"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, BackendDynamoDB, cfg.StateBackend)
	require.Empty(t, cfg.DynamoDBTable)

	require.NoError(t, cfg.Validate())
	require.ErrorContains(t, cfg.ValidateState(), "DYNAMODB_AGENT_STATE_TABLE_NAME")
}

func TestNew_AllowedUsers(t *testing.T) {
	t.Setenv("ALLOWED_USERS", "10:20")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20}, cfg.AllowedUsers)
}

func TestDebugEnabled(t *testing.T) {
	for _, v := range []string{"1", "true", "YES"} {
		require.True(t, (&Config{Debug: v}).DebugEnabled(), v)
	}
	for _, v := range []string{"", "0", "no", "off"} {
		require.False(t, (&Config{Debug: v}).DebugEnabled(), v)
	}
}

func TestAuthEnforced(t *testing.T) {
	require.False(t, (&Config{}).AuthEnforced())
	require.False(t, (&Config{CognitoJWKSURL: "http://localhost:9229/jwks.json"}).AuthEnforced())
	require.False(t, (&Config{CognitoJWKSURL: "https://cognito.example/jwks.json", DisableAuth: true}).AuthEnforced())
	require.True(t, (&Config{CognitoJWKSURL: "https://cognito.example/jwks.json"}).AuthEnforced())
}

func TestValidate(t *testing.T) {
	cfg := Config{LLMProvider: ProviderOpenAI, MaxToolRounds: 1}
	require.NoError(t, cfg.Validate())

	cfg.MaxToolRounds = 0
	require.Error(t, cfg.Validate())

	cfg.MaxToolRounds = 1
	cfg.LLMProvider = "bard"
	require.Error(t, cfg.Validate())
}

func TestValidateState(t *testing.T) {
	cfg := Config{StateBackend: BackendDynamoDB}
	require.Error(t, cfg.ValidateState())

	cfg.DynamoDBTable = "agent-state"
	require.NoError(t, cfg.ValidateState())

	cfg.StateBackend = BackendMemory
	require.NoError(t, cfg.ValidateState())

	cfg.StateBackend = "etcd"
	require.Error(t, cfg.ValidateState())
}
