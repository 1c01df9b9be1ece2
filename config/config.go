package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ToolBackendMCP  = "mcp"
	ToolBackendHTTP = "http"

	ProviderAzure    = "azure"
	ProviderDeepSeek = "deepseek"

	DecisionPolicyStrict  = "strict"
	DecisionPolicyLenient = "lenient"
)

type Config struct {
	ProjectDir string `json:"project_dir" envconfig:"PROJECT_DIR"`
	ResultsDir string `json:"results_dir" envconfig:"RESULTS_DIR"`
	DBPath     string `json:"db_path" envconfig:"DB_PATH"`

	AppEnv   string `json:"app_env" envconfig:"APP_ENV" default:"development"`
	LogLevel string `json:"log_level" envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `json:"debug" envconfig:"STOCKPILOT_DEBUG" default:"false"`

	// General-purpose model, bound with tools.
	AzureEndpoint       string `json:"azure_endpoint" envconfig:"AZURE_OPENAI_ENDPOINT"`
	AzureAPIKey         string `json:"-" envconfig:"AZURE_OPENAI_API_KEY"`
	AzureAPIVersion     string `json:"azure_api_version" envconfig:"OPENAI_API_VERSION" default:"2025-01-01-preview"`
	DeploymentName      string `json:"deployment_name" envconfig:"AZURE_OPENAI_DEPLOYMENT_NAME"`
	ReasoningDeployment string `json:"reasoning_deployment" envconfig:"AZURE_OPENAI_REASONING_DEPLOYMENT_NAME"`

	// Reasoning model used only for the decision step.
	ReasoningProvider string        `json:"reasoning_provider" envconfig:"REASONING_PROVIDER" default:"azure"`
	DeepSeekAPIKey    string        `json:"-" envconfig:"DEEPSEEK_API_KEY"`
	DeepSeekModel     string        `json:"deepseek_model" envconfig:"DEEPSEEK_MODEL" default:"deepseek-reasoner"`
	ModelTimeout      time.Duration `json:"model_timeout" envconfig:"MODEL_TIMEOUT" default:"3m"`

	// Research tool backend.
	ToolBackend       string        `json:"tool_backend" envconfig:"TOOL_BACKEND" default:"mcp"`
	PerplexityAPIKey  string        `json:"-" envconfig:"PERPLEXITY_API_KEY"`
	PerplexityBaseURL string        `json:"perplexity_base_url" envconfig:"PERPLEXITY_BASE_URL" default:"https://api.perplexity.ai"`
	MCPCommand        string        `json:"mcp_command" envconfig:"MCP_COMMAND" default:"npx"`
	MCPArgs           []string      `json:"mcp_args" envconfig:"MCP_ARGS" default:"-y,chand45-perplexity-ask@latest"`
	ToolTimeout       time.Duration `json:"tool_timeout" envconfig:"TOOL_TIMEOUT" default:"5m"`

	MaxToolIterations   int    `json:"max_tool_iterations" envconfig:"MAX_TOOL_ITERATIONS" default:"16"`
	DecisionPolicy      string `json:"decision_policy" envconfig:"DECISION_POLICY" default:"strict"`
	DecisionMaxAttempts int    `json:"decision_max_attempts" envconfig:"DECISION_MAX_ATTEMPTS" default:"2"`
	MaxRecurLimit       int    `json:"max_recursion_limit" envconfig:"MAX_RECURSION_LIMIT" default:"32"`

	EinoDebugEnabled bool `json:"eino_debug_enabled" envconfig:"EINO_DEBUG_ENABLED" default:"false"`
	EinoDebugPort    int  `json:"eino_debug_port" envconfig:"EINO_DEBUG_PORT" default:"52538"`
}

// Load reads .env (if present) and the process environment once.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.fillDirs()
	return cfg, nil
}

// DefaultConfig returns the environment-derived config, falling back to
// built-in defaults when the environment cannot be parsed.
func DefaultConfig() *Config {
	cfg, err := Load()
	if err == nil {
		return cfg
	}

	cfg = &Config{
		AppEnv:              "development",
		LogLevel:            "info",
		AzureAPIVersion:     "2025-01-01-preview",
		ReasoningProvider:   ProviderAzure,
		DeepSeekModel:       "deepseek-reasoner",
		ModelTimeout:        3 * time.Minute,
		ToolBackend:         ToolBackendMCP,
		PerplexityBaseURL:   "https://api.perplexity.ai",
		MCPCommand:          "npx",
		MCPArgs:             []string{"-y", "chand45-perplexity-ask@latest"},
		ToolTimeout:         5 * time.Minute,
		MaxToolIterations:   16,
		DecisionPolicy:      DecisionPolicyStrict,
		DecisionMaxAttempts: 2,
		MaxRecurLimit:       32,
		EinoDebugPort:       52538,
	}
	cfg.fillDirs()
	return cfg
}

func (c *Config) fillDirs() {
	if c.ProjectDir == "" {
		c.ProjectDir, _ = os.Getwd()
	}
	if c.ResultsDir == "" {
		c.ResultsDir = filepath.Join(c.ProjectDir, "results")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.ProjectDir, "data", "stockpilot.db")
	}
}

// Validate checks that the keys required by the selected providers are set.
func (c *Config) Validate() error {
	var missing []string
	require := func(name, val string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, name)
		}
	}

	require("AZURE_OPENAI_ENDPOINT", c.AzureEndpoint)
	require("AZURE_OPENAI_API_KEY", c.AzureAPIKey)
	require("AZURE_OPENAI_DEPLOYMENT_NAME", c.DeploymentName)
	require("PERPLEXITY_API_KEY", c.PerplexityAPIKey)

	switch c.ReasoningProvider {
	case ProviderAzure:
		require("AZURE_OPENAI_REASONING_DEPLOYMENT_NAME", c.ReasoningDeployment)
	case ProviderDeepSeek:
		require("DEEPSEEK_API_KEY", c.DeepSeekAPIKey)
	default:
		return fmt.Errorf("unsupported reasoning provider %q", c.ReasoningProvider)
	}

	switch c.ToolBackend {
	case ToolBackendMCP:
		require("MCP_COMMAND", c.MCPCommand)
	case ToolBackendHTTP:
		require("PERPLEXITY_BASE_URL", c.PerplexityBaseURL)
	default:
		return fmt.Errorf("unsupported tool backend %q", c.ToolBackend)
	}

	switch c.DecisionPolicy {
	case DecisionPolicyStrict, DecisionPolicyLenient:
	default:
		return fmt.Errorf("unsupported decision policy %q", c.DecisionPolicy)
	}
	if c.DecisionMaxAttempts < 1 {
		return fmt.Errorf("DECISION_MAX_ATTEMPTS must be at least 1, got %d", c.DecisionMaxAttempts)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, filepath.Dir(c.DBPath)}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
