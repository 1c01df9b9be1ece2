package analysts

import (
	"github.com/cloudwego/eino/components/model"
	"github.com/dyike/StockPilot/consts"
	"github.com/dyike/StockPilot/internal/agents"
)

func NewTechnicalAnalyst(cm model.ToolCallingChatModel, tools agents.ToolExecutor, maxIterations int) (*Analyst, error) {
	return newAnalyst(consts.TechnicalAnalyst, "analysts/technical_analyst", "technical_analysis", cm, tools, maxIterations)
}
