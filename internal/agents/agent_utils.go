package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/dyike/StockPilot/config"
)

// NewToolCallingModel builds the general-purpose Azure OpenAI model used by
// name resolution and both analyses.
func NewToolCallingModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	maxTokens := 8192
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		ByAzure:    true,
		BaseURL:    cfg.AzureEndpoint,
		APIVersion: cfg.AzureAPIVersion,
		APIKey:     cfg.AzureAPIKey,
		Model:      cfg.DeploymentName,
		MaxTokens:  &maxTokens,
		Timeout:    cfg.ModelTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model %s: %w", cfg.DeploymentName, err)
	}
	return chatModel, nil
}

// NewReasoningModel builds the model used only for the final decision. It is
// never bound with tools.
func NewReasoningModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	switch cfg.ReasoningProvider {
	case config.ProviderDeepSeek:
		chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:  cfg.DeepSeekAPIKey,
			Model:   cfg.DeepSeekModel,
			Timeout: cfg.ModelTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init deepseek model %s: %w", cfg.DeepSeekModel, err)
		}
		return chatModel, nil

	case config.ProviderAzure, "":
		// Reasoning deployments reject max_tokens; leave the limit to the service.
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			ByAzure:    true,
			BaseURL:    cfg.AzureEndpoint,
			APIVersion: cfg.AzureAPIVersion,
			APIKey:     cfg.AzureAPIKey,
			Model:      cfg.ReasoningDeployment,
			Timeout:    cfg.ModelTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init reasoning model %s: %w", cfg.ReasoningDeployment, err)
		}
		return chatModel, nil

	default:
		return nil, fmt.Errorf("unsupported reasoning provider %q", cfg.ReasoningProvider)
	}
}
