package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "azure-key")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4.1")
	t.Setenv("AZURE_OPENAI_REASONING_DEPLOYMENT_NAME", "o3")
	t.Setenv("PERPLEXITY_API_KEY", "pplx-key")
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROJECT_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ToolBackendMCP, cfg.ToolBackend)
	assert.Equal(t, "npx", cfg.MCPCommand)
	assert.Equal(t, []string{"-y", "chand45-perplexity-ask@latest"}, cfg.MCPArgs)
	assert.Equal(t, 16, cfg.MaxToolIterations)
	assert.Equal(t, DecisionPolicyStrict, cfg.DecisionPolicy)
	assert.Equal(t, 3*time.Minute, cfg.ModelTimeout)
	assert.Equal(t, filepath.Join(dir, "results"), cfg.ResultsDir)
	assert.Equal(t, filepath.Join(dir, "data", "stockpilot.db"), cfg.DBPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROJECT_DIR", t.TempDir())
	t.Setenv("TOOL_BACKEND", "http")
	t.Setenv("MAX_TOOL_ITERATIONS", "4")
	t.Setenv("MCP_ARGS", "perplexity-mcp,--stdio")
	t.Setenv("TOOL_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ToolBackendHTTP, cfg.ToolBackend)
	assert.Equal(t, 4, cfg.MaxToolIterations)
	assert.Equal(t, []string{"perplexity-mcp", "--stdio"}, cfg.MCPArgs)
	assert.Equal(t, 45*time.Second, cfg.ToolTimeout)
}

func TestValidate(t *testing.T) {
	t.Setenv("PROJECT_DIR", t.TempDir())
	setValidEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	t.Run("missing keys are listed", func(t *testing.T) {
		c := *cfg
		c.AzureAPIKey = ""
		c.PerplexityAPIKey = " "
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AZURE_OPENAI_API_KEY")
		assert.Contains(t, err.Error(), "PERPLEXITY_API_KEY")
	})

	t.Run("deepseek needs its key", func(t *testing.T) {
		c := *cfg
		c.ReasoningProvider = ProviderDeepSeek
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DEEPSEEK_API_KEY")
	})

	t.Run("unknown backend", func(t *testing.T) {
		c := *cfg
		c.ToolBackend = "grpc"
		assert.ErrorContains(t, c.Validate(), "unsupported tool backend")
	})

	t.Run("unknown policy", func(t *testing.T) {
		c := *cfg
		c.DecisionPolicy = "vibes"
		assert.ErrorContains(t, c.Validate(), "unsupported decision policy")
	})
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		ProjectDir: dir,
		ResultsDir: filepath.Join(dir, "out"),
		DBPath:     filepath.Join(dir, "db", "runs.db"),
	}
	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.ResultsDir)
	assert.DirExists(t, filepath.Join(dir, "db"))
}
