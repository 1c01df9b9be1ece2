package managers

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/consts"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/internal/utils"
	"github.com/dyike/StockPilot/models"
	"go.uber.org/zap"
)

// DecisionMaker asks the reasoning model for a buy, sell or hold call based on
// both analyses. Each Decide is exactly one model invocation with no tools.
type DecisionMaker struct {
	model       model.BaseChatModel
	policy      string
	maxAttempts int

	decisionTpl   prompt.ChatTemplate
	correctionTpl prompt.ChatTemplate
	log           *zap.SugaredLogger
}

func NewDecisionMaker(cm model.BaseChatModel, policy string, maxAttempts int) (*DecisionMaker, error) {
	decisionPrompt, err := utils.LoadPrompt("managers/decision_maker")
	if err != nil {
		return nil, err
	}
	correctionPrompt, err := utils.LoadPrompt("managers/decision_correction")
	if err != nil {
		return nil, err
	}
	if policy == "" {
		policy = config.DecisionPolicyStrict
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &DecisionMaker{
		model:         cm,
		policy:        policy,
		maxAttempts:   maxAttempts,
		decisionTpl:   prompt.FromMessages(schema.FString, schema.UserMessage(decisionPrompt)),
		correctionTpl: prompt.FromMessages(schema.FString, schema.UserMessage(correctionPrompt)),
		log:           logger.Named(consts.DecisionMaker),
	}, nil
}

func (d *DecisionMaker) MaxAttempts() int { return d.maxAttempts }

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// BuildPrompt renders the decision prompt for state. After a rejected
// answer the prompt carries that answer and a correction request.
func (d *DecisionMaker) BuildPrompt(ctx context.Context, state *models.AnalysisState) ([]*schema.Message, error) {
	vars := map[string]any{
		"fundamental_analysis": orDefault(state.FundamentalAnalysis, consts.DefaultAnalysis),
		"technical_analysis":   orDefault(state.TechnicalAnalysis, consts.DefaultAnalysis),
		"stock_name":           orDefault(state.StockName, consts.DefaultStockName),
	}

	msgs, err := d.decisionTpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("format decision prompt: %w", err)
	}
	if state.DecisionFeedback == "" {
		return msgs, nil
	}

	return append(msgs,
		schema.AssistantMessage(state.Decision, nil),
		schema.UserMessage(state.DecisionFeedback),
	), nil
}

// Decide performs one decision attempt and records it on state. Under the
// strict policy an answer without a recognisable action leaves DecisionDone
// false until attempts run out, then fails with ErrInvalidDecision.
func (d *DecisionMaker) Decide(ctx context.Context, state *models.AnalysisState) error {
	msgs, err := d.BuildPrompt(ctx, state)
	if err != nil {
		return err
	}

	state.DecisionAttempts++
	d.log.Infow("requesting decision", "stock", state.StockName, "attempt", state.DecisionAttempts)
	resp, err := d.generate(ctx, msgs)
	if err != nil {
		return fmt.Errorf("%s: model call: %w", consts.DecisionMaker, err)
	}
	state.Messages = append(state.Messages, resp)

	state.Decision = resp.Content
	state.Action = models.ParseAction(resp.Content)
	state.DecisionFeedback = ""

	switch {
	case state.Action.Valid(), d.policy == config.DecisionPolicyLenient:
		state.DecisionDone = true
	case state.DecisionAttempts >= d.maxAttempts:
		return fmt.Errorf("%s: %w after %d attempts: %q", consts.DecisionMaker, models.ErrInvalidDecision, state.DecisionAttempts, resp.Content)
	default:
		correction, err := d.correctionTpl.Format(ctx, map[string]any{
			"stock_name": orDefault(state.StockName, consts.DefaultStockName),
		})
		if err != nil {
			return fmt.Errorf("format correction prompt: %w", err)
		}
		state.DecisionFeedback = correction[0].Content
		d.log.Warnw("decision has no clear action, re-prompting", "attempt", state.DecisionAttempts)
	}
	return nil
}

func (d *DecisionMaker) generate(ctx context.Context, in []*schema.Message) (*schema.Message, error) {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      consts.DecisionMaker,
		Type:      "Decision",
		Component: components.ComponentOfChatModel,
	})
	if components.IsCallbacksEnabled(d.model) {
		return d.model.Generate(ctx, in)
	}

	ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: in})
	out, err := d.model.Generate(ctx, in)
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, err
	}
	callbacks.OnEnd(ctx, &model.CallbackOutput{Message: out})
	return out, nil
}
