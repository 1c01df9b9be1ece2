package graph

import (
	"context"
	"fmt"

	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type analyst interface {
	Name() string
	Analyze(ctx context.Context, stockName string) (*models.Conversation, error)
}

// Aggregator runs the fundamental and technical analyses concurrently and
// joins them. The first failure cancels the sibling and fails the step.
type Aggregator struct {
	fundamental analyst
	technical   analyst
	log         *zap.SugaredLogger
}

func NewAggregator(fundamental, technical analyst) *Aggregator {
	return &Aggregator{
		fundamental: fundamental,
		technical:   technical,
		log:         logger.Named("aggregator"),
	}
}

func (a *Aggregator) Run(ctx context.Context, state *models.AnalysisState) (*models.AnalysisState, error) {
	var fundamental, technical *models.Conversation

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		conv, err := a.fundamental.Analyze(gctx, state.StockName)
		if err != nil {
			return fmt.Errorf("fundamental analysis: %w", err)
		}
		fundamental = conv
		return nil
	})
	g.Go(func() error {
		conv, err := a.technical.Analyze(gctx, state.StockName)
		if err != nil {
			return fmt.Errorf("technical analysis: %w", err)
		}
		technical = conv
		return nil
	})
	if err := g.Wait(); err != nil {
		a.log.Errorw("analyses failed", "stock", state.StockName, "error", err)
		return nil, err
	}

	state.FundamentalAnalysis, _ = fundamental.Output()
	state.TechnicalAnalysis, _ = technical.Output()

	// Fixed merge order, independent of which branch finished first.
	state.Messages = append(state.Messages, fundamental.Messages...)
	state.Messages = append(state.Messages, technical.Messages...)

	a.log.Infow("analyses joined", "stock", state.StockName,
		"fundamental_messages", len(fundamental.Messages),
		"technical_messages", len(technical.Messages))
	return state, nil
}
