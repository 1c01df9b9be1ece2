package analysts

import (
	"github.com/cloudwego/eino/components/model"
	"github.com/dyike/StockPilot/consts"
	"github.com/dyike/StockPilot/internal/agents"
)

func NewFundamentalAnalyst(cm model.ToolCallingChatModel, tools agents.ToolExecutor, maxIterations int) (*Analyst, error) {
	return newAnalyst(consts.FundamentalAnalyst, "analysts/fundamental_analyst", "fundamental_analysis", cm, tools, maxIterations)
}
