package analysts

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/dyike/StockPilot/internal/agents"
	"github.com/dyike/StockPilot/internal/utils"
	"github.com/dyike/StockPilot/models"
)

// Analyst is one analysis sub-workflow: a tool loop that starts from an
// empty conversation about an already resolved stock.
type Analyst struct {
	// Field names the state field the output lands in.
	Field string
	loop  *agents.ToolLoop
}

func newAnalyst(name, promptPath, field string, cm model.ToolCallingChatModel, tools agents.ToolExecutor, maxIterations int) (*Analyst, error) {
	systemPrompt, err := utils.LoadPrompt(promptPath)
	if err != nil {
		return nil, err
	}
	loop, err := agents.NewToolLoop(name, systemPrompt, cm, tools, maxIterations)
	if err != nil {
		return nil, err
	}
	return &Analyst{Field: field, loop: loop}, nil
}

func (a *Analyst) Name() string { return a.loop.Name() }

// Analyze runs the loop to completion. The returned conversation holds only
// the messages this analysis produced.
func (a *Analyst) Analyze(ctx context.Context, stockName string) (*models.Conversation, error) {
	if stockName == "" {
		return nil, fmt.Errorf("%s: stock name not resolved", a.Name())
	}
	conv := models.NewConversation(stockName)
	if _, err := a.loop.Run(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}
