package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/dyike/StockPilot/consts"
	"github.com/dyike/StockPilot/internal/agents/managers"
	"github.com/dyike/StockPilot/internal/agents/researchers"
	"github.com/dyike/StockPilot/models"
)

type Nodes struct {
	Resolver   *researchers.StockResolver
	Aggregator *Aggregator
	Decider    *managers.DecisionMaker
	Logic      *ConditionalLogic
}

// NewStockOrchestrator wires stock_name -> continue_to_analyses -> make_decision,
// with make_decision looping on itself only while a strict decision is retried.
func NewStockOrchestrator(ctx context.Context, n Nodes) (compose.Runnable[*models.AnalysisState, *models.AnalysisState], error) {
	g := compose.NewGraph[*models.AnalysisState, *models.AnalysisState]()

	resolveStockName := func(ctx context.Context, state *models.AnalysisState) (*models.AnalysisState, error) {
		conv, name, err := n.Resolver.Resolve(ctx, state.Messages)
		if err != nil {
			return nil, err
		}
		state.Messages = conv.Messages
		state.StockName = name
		return state, nil
	}

	makeDecision := func(ctx context.Context, state *models.AnalysisState) (*models.AnalysisState, error) {
		if err := n.Decider.Decide(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}

	_ = g.AddLambdaNode(consts.StockName, compose.InvokableLambda(resolveStockName), compose.WithNodeName(consts.StockName))
	_ = g.AddLambdaNode(consts.Analyses, compose.InvokableLambda(n.Aggregator.Run), compose.WithNodeName(consts.Analyses))
	_ = g.AddLambdaNode(consts.MakeDecision, compose.InvokableLambda(makeDecision), compose.WithNodeName(consts.MakeDecision))

	_ = g.AddEdge(compose.START, consts.StockName)
	_ = g.AddEdge(consts.StockName, consts.Analyses)
	_ = g.AddEdge(consts.Analyses, consts.MakeDecision)
	_ = g.AddBranch(consts.MakeDecision, compose.NewGraphBranch(n.Logic.decisionHandOff, map[string]bool{
		consts.MakeDecision: true,
		compose.END:         true,
	}))

	r, err := g.Compile(ctx,
		compose.WithGraphName("StockPilot"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator: %w", err)
	}
	return r, nil
}
