package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/models"
	"go.uber.org/zap"
)

type LoopState string

const (
	StateAwaitingModel LoopState = "awaiting_model"
	StateAwaitingTools LoopState = "awaiting_tools"
	StateDone          LoopState = "done"
)

// Effect is the side effect the runner performs after a transition.
type Effect int

const (
	EffectNone Effect = iota
	EffectCallModel
	EffectExecuteTools
	EffectSetOutput
)

func (e Effect) String() string {
	switch e {
	case EffectCallModel:
		return "call_model"
	case EffectExecuteTools:
		return "execute_tools"
	case EffectSetOutput:
		return "set_output"
	default:
		return "none"
	}
}

// Transition is the pure step function of a tool loop. resp is the model
// response just received while awaiting the model, and nil otherwise.
func Transition(state LoopState, resp *schema.Message) (LoopState, Effect) {
	switch state {
	case StateAwaitingModel:
		if resp == nil {
			return StateAwaitingModel, EffectCallModel
		}
		if len(resp.ToolCalls) > 0 {
			return StateAwaitingTools, EffectExecuteTools
		}
		return StateDone, EffectSetOutput
	case StateAwaitingTools:
		return StateAwaitingModel, EffectCallModel
	default:
		return StateDone, EffectNone
	}
}

// ToolExecutor runs the tool calls of one assistant message.
type ToolExecutor interface {
	Infos() []*schema.ToolInfo
	Execute(ctx context.Context, msg *schema.Message) ([]*schema.Message, error)
}

const stockContextTpl = "The stock to analyze is {stock_name}"

// ToolLoop alternates model calls and tool execution until the model answers
// without requesting tools.
type ToolLoop struct {
	name          string
	model         model.ToolCallingChatModel
	tools         ToolExecutor
	infos         []*schema.ToolInfo
	maxIterations int

	bareTpl  prompt.ChatTemplate
	stockTpl prompt.ChatTemplate
	log      *zap.SugaredLogger
}

// NewToolLoop binds the executor's tools to cm. maxIterations <= 0 disables
// the model-call bound.
func NewToolLoop(name, systemPrompt string, cm model.ToolCallingChatModel, tools ToolExecutor, maxIterations int) (*ToolLoop, error) {
	infos := tools.Infos()
	bound, err := cm.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%s: bind tools: %w", name, err)
	}

	return &ToolLoop{
		name:          name,
		model:         bound,
		tools:         tools,
		infos:         infos,
		maxIterations: maxIterations,
		bareTpl: prompt.FromMessages(schema.FString,
			schema.SystemMessage(systemPrompt),
			schema.MessagesPlaceholder("messages", false),
		),
		stockTpl: prompt.FromMessages(schema.FString,
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(stockContextTpl),
			schema.MessagesPlaceholder("messages", false),
		),
		log: logger.Named(name),
	}, nil
}

func (l *ToolLoop) Name() string { return l.name }

// Run drives conv to completion and returns the loop output. Every model
// response and tool result is appended to conv.Messages.
func (l *ToolLoop) Run(ctx context.Context, conv *models.Conversation) (string, error) {
	var (
		resp  *schema.Message
		calls int
	)

	state, effect := Transition(StateAwaitingModel, nil)
	for {
		switch effect {
		case EffectCallModel:
			if l.maxIterations > 0 && calls >= l.maxIterations {
				return "", fmt.Errorf("%s: %w (%d)", l.name, models.ErrMaxIterations, l.maxIterations)
			}
			if err := ctx.Err(); err != nil {
				return "", fmt.Errorf("%s: %w", l.name, err)
			}

			in, err := l.input(ctx, conv)
			if err != nil {
				return "", err
			}
			calls++
			l.log.Debugw("calling model", "call", calls, "messages", len(in))
			resp, err = l.generate(ctx, in)
			if err != nil {
				return "", fmt.Errorf("%s: model call: %w", l.name, err)
			}
			conv.Append(resp)
			state, effect = Transition(state, resp)

		case EffectExecuteTools:
			l.log.Infow("executing tools", "count", len(resp.ToolCalls))
			results, err := l.tools.Execute(ctx, resp)
			if err != nil {
				return "", fmt.Errorf("%s: %w", l.name, err)
			}
			conv.Append(results...)
			state, effect = Transition(state, nil)

		case EffectSetOutput:
			if err := conv.SetOutput(resp.Content); err != nil {
				return "", fmt.Errorf("%s: %w", l.name, err)
			}
			l.log.Infow("loop finished", "model_calls", calls, "messages", len(conv.Messages))
			return resp.Content, nil

		default:
			return "", fmt.Errorf("%s: loop stalled in state %s", l.name, state)
		}
	}
}

func (l *ToolLoop) input(ctx context.Context, conv *models.Conversation) ([]*schema.Message, error) {
	tpl := l.bareTpl
	if conv.StockName != "" {
		tpl = l.stockTpl
	}
	in, err := tpl.Format(ctx, map[string]any{
		"stock_name": conv.StockName,
		"messages":   conv.Messages,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: format prompt: %w", l.name, err)
	}
	return in, nil
}

// generate reports the call to the callbacks in ctx under the loop's name,
// firing them here when the model does not do so itself.
func (l *ToolLoop) generate(ctx context.Context, in []*schema.Message) (*schema.Message, error) {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      l.name,
		Type:      "ToolLoop",
		Component: components.ComponentOfChatModel,
	})
	if components.IsCallbacksEnabled(l.model) {
		return l.model.Generate(ctx, in)
	}

	ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: in, Tools: l.infos})
	out, err := l.model.Generate(ctx, in)
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, err
	}
	callbacks.OnEnd(ctx, &model.CallbackOutput{Message: out})
	return out, nil
}
