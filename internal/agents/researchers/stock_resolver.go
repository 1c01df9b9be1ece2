package researchers

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/consts"
	"github.com/dyike/StockPilot/internal/agents"
	"github.com/dyike/StockPilot/internal/utils"
	"github.com/dyike/StockPilot/models"
)

// StockResolver turns an informal request ("Analyze Reliance") into a
// canonical "Company Name (EXCHANGE:TICKER)" identifier.
type StockResolver struct {
	loop *agents.ToolLoop
}

func NewStockResolver(cm model.ToolCallingChatModel, tools agents.ToolExecutor, maxIterations int) (*StockResolver, error) {
	systemPrompt, err := utils.LoadPrompt("researchers/stock_resolver")
	if err != nil {
		return nil, err
	}
	loop, err := agents.NewToolLoop(consts.StockResolver, systemPrompt, cm, tools, maxIterations)
	if err != nil {
		return nil, err
	}
	return &StockResolver{loop: loop}, nil
}

// Resolve runs the loop seeded with history. The returned conversation holds
// history followed by every message the loop produced.
func (r *StockResolver) Resolve(ctx context.Context, history []*schema.Message) (*models.Conversation, string, error) {
	conv := models.NewConversation("", history...)
	out, err := r.loop.Run(ctx, conv)
	if err != nil {
		return nil, "", err
	}

	name := strings.Trim(strings.TrimSpace(out), `"'`)
	if name == "" {
		return nil, "", fmt.Errorf("%s: model returned an empty stock name", consts.StockResolver)
	}
	return conv, name, nil
}
