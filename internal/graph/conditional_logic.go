package graph

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/dyike/StockPilot/consts"
	"github.com/dyike/StockPilot/models"
)

// ConditionalLogic decides whether the decision step runs again.
type ConditionalLogic struct {
	MaxDecisionAttempts int
}

func NewConditionalLogic(maxDecisionAttempts int) *ConditionalLogic {
	if maxDecisionAttempts < 1 {
		maxDecisionAttempts = 1
	}
	return &ConditionalLogic{MaxDecisionAttempts: maxDecisionAttempts}
}

// ShouldRetryDecision reports whether a rejected decision may be asked again.
func (cl *ConditionalLogic) ShouldRetryDecision(state *models.AnalysisState) bool {
	return !state.DecisionDone && state.DecisionAttempts < cl.MaxDecisionAttempts
}

func (cl *ConditionalLogic) decisionHandOff(_ context.Context, state *models.AnalysisState) (string, error) {
	if cl.ShouldRetryDecision(state) {
		return consts.MakeDecision, nil
	}
	return compose.END, nil
}
