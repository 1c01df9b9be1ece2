package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/consts"
	"github.com/dyike/StockPilot/models"
	"github.com/go-resty/resty/v2"
)

type PerplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PerplexityInput struct {
	Messages []PerplexityMessage `json:"messages"`
}

type perplexityRequest struct {
	Model    string              `json:"model"`
	Messages []PerplexityMessage `json:"messages"`
}

type perplexityResponse struct {
	Choices []struct {
		Message PerplexityMessage `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

type perplexityError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// PerplexityClient talks to the Sonar chat completions API directly, for
// environments where spawning the MCP server is not an option.
type PerplexityClient struct {
	client *resty.Client
	apiKey string
}

func NewPerplexityClient(baseURL, apiKey string, timeout time.Duration) *PerplexityClient {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	client.SetHeader("Content-Type", "application/json")

	return &PerplexityClient{
		client: client,
		apiKey: apiKey,
	}
}

// Complete sends one chat completion and returns the answer with its citations.
func (pc *PerplexityClient) Complete(ctx context.Context, model string, messages []PerplexityMessage) (string, error) {
	if pc.apiKey == "" {
		return "", fmt.Errorf("%w: perplexity API key not configured", models.ErrToolBackend)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("messages parameter is required")
	}

	var result perplexityResponse
	var apiErr perplexityError
	resp, err := pc.client.R().
		SetContext(ctx).
		SetAuthToken(pc.apiKey).
		SetBody(&perplexityRequest{Model: model, Messages: messages}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: perplexity request: %w", models.ErrToolBackend, err)
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		return "", fmt.Errorf("%w: perplexity status %d: %s", models.ErrToolBackend, resp.StatusCode(), msg)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: perplexity returned no choices", models.ErrToolBackend)
	}

	var sb strings.Builder
	sb.WriteString(result.Choices[0].Message.Content)
	if len(result.Citations) > 0 {
		sb.WriteString("\n\nCitations:\n")
		for i, c := range result.Citations {
			fmt.Fprintf(&sb, "[%d] %s\n", i+1, c)
		}
	}
	return sb.String(), nil
}

var perplexityModes = []struct {
	name  string
	model string
	desc  string
}{
	{
		name:  consts.ToolPerplexityAsk,
		model: "sonar-pro",
		desc:  "Engages in a conversation using the Sonar API. Accepts an array of messages (each with a role and content) and returns an ask completion response from the Perplexity model.",
	},
	{
		name:  consts.ToolPerplexityResearch,
		model: "sonar-deep-research",
		desc:  "Performs deep research using the Perplexity API. Accepts an array of messages (each with a role and content) and returns a comprehensive research response with citations.",
	},
	{
		name:  consts.ToolPerplexityReason,
		model: "sonar-reasoning-pro",
		desc:  "Performs reasoning tasks using the Perplexity API. Accepts an array of messages (each with a role and content) and returns a well-reasoned response using the sonar-reasoning-pro model.",
	},
}

// Tools exposes the ask, research and reason modes under the same names and
// argument shape as the MCP server.
func (pc *PerplexityClient) Tools() []tool.InvokableTool {
	out := make([]tool.InvokableTool, 0, len(perplexityModes))
	for _, mode := range perplexityModes {
		model := mode.model
		out = append(out, t_utils.NewTool(
			&schema.ToolInfo{
				Name: mode.name,
				Desc: mode.desc,
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"messages": {
						Type:     schema.Array,
						Desc:     "Array of conversation messages",
						Required: true,
						ElemInfo: &schema.ParameterInfo{
							Type: schema.Object,
							SubParams: map[string]*schema.ParameterInfo{
								"role": {
									Type:     schema.String,
									Desc:     "Role of the message (e.g., system, user, assistant)",
									Required: true,
								},
								"content": {
									Type:     schema.String,
									Desc:     "The content of the message",
									Required: true,
								},
							},
						},
					},
				}),
			},
			func(ctx context.Context, input PerplexityInput) (string, error) {
				return pc.Complete(ctx, model, input.Messages)
			},
		))
	}
	return out
}
