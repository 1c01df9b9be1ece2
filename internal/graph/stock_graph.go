package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/agents"
	"github.com/dyike/StockPilot/internal/agents/analysts"
	"github.com/dyike/StockPilot/internal/agents/managers"
	"github.com/dyike/StockPilot/internal/agents/researchers"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dependencies are the collaborators a StockGraph is built from. The caller
// owns their lifetime.
type Dependencies struct {
	ChatModel      model.ToolCallingChatModel
	ReasoningModel model.BaseChatModel
	Tools          agents.ToolExecutor
}

type StockGraph struct {
	orchestrator compose.Runnable[*models.AnalysisState, *models.AnalysisState]
	maxSteps     int
	log          *zap.SugaredLogger
}

func NewStockGraph(ctx context.Context, cfg *config.Config, deps Dependencies) (*StockGraph, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.ChatModel == nil || deps.ReasoningModel == nil || deps.Tools == nil {
		return nil, errors.New("stock graph: chat model, reasoning model and tools are required")
	}

	resolver, err := researchers.NewStockResolver(deps.ChatModel, deps.Tools, cfg.MaxToolIterations)
	if err != nil {
		return nil, err
	}
	fundamental, err := analysts.NewFundamentalAnalyst(deps.ChatModel, deps.Tools, cfg.MaxToolIterations)
	if err != nil {
		return nil, err
	}
	technical, err := analysts.NewTechnicalAnalyst(deps.ChatModel, deps.Tools, cfg.MaxToolIterations)
	if err != nil {
		return nil, err
	}
	decider, err := managers.NewDecisionMaker(deps.ReasoningModel, cfg.DecisionPolicy, cfg.DecisionMaxAttempts)
	if err != nil {
		return nil, err
	}

	orchestrator, err := NewStockOrchestrator(ctx, Nodes{
		Resolver:   resolver,
		Aggregator: NewAggregator(fundamental, technical),
		Decider:    decider,
		Logic:      NewConditionalLogic(decider.MaxAttempts()),
	})
	if err != nil {
		return nil, err
	}

	// three fixed nodes plus one step per decision retry
	maxSteps := cfg.MaxRecurLimit
	if need := 3 + decider.MaxAttempts(); maxSteps < need {
		maxSteps = need
	}

	return &StockGraph{
		orchestrator: orchestrator,
		maxSteps:     maxSteps,
		log:          logger.Named("graph"),
	}, nil
}

// Propagate runs one analysis seeded with messages and returns its record.
func (g *StockGraph) Propagate(ctx context.Context, messages []*schema.Message, handlers ...callbacks.Handler) (*models.DecisionRecord, error) {
	if len(messages) == 0 {
		return nil, errors.New("propagate: at least one seed message is required")
	}

	runID := uuid.NewString()
	state := models.NewAnalysisState(runID, messages)
	g.log.Infow("analysis started", "run_id", runID, "request", state.Request)

	opts := []compose.Option{compose.WithRuntimeMaxSteps(g.maxSteps)}
	if len(handlers) > 0 {
		opts = append(opts, compose.WithCallbacks(handlers...))
	}

	start := time.Now()
	result, err := g.orchestrator.Invoke(ctx, state, opts...)
	if err != nil {
		g.log.Errorw("analysis failed", "run_id", runID, "error", err)
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	record := models.NewDecisionRecord(result, time.Now())
	g.log.Infow("analysis completed", "run_id", runID,
		"stock", record.StockName,
		"action", record.Action,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return record, nil
}
