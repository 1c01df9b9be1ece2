package graph

import (
	"context"
	"errors"
	"io"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	ecmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/models"
	"go.uber.org/zap"
)

// LoggerCallback logs graph, model and tool events, and forwards every model
// response and tool result to Out when it is set. Out must be drained by the
// caller for as long as the run lasts.
type LoggerCallback struct {
	Out chan<- *models.ChatResp

	log *zap.SugaredLogger
}

func NewLoggerCallback(out chan<- *models.ChatResp) *LoggerCallback {
	return &LoggerCallback{Out: out, log: logger.Named("callback")}
}

func (cb *LoggerCallback) push(ctx context.Context, data *models.ChatResp) {
	if cb.Out == nil || data == nil {
		return
	}
	select {
	case cb.Out <- data:
	case <-ctx.Done():
	}
}

func (cb *LoggerCallback) pushMsg(ctx context.Context, agent string, msg *schema.Message) {
	if msg == nil {
		return
	}
	if len(msg.ToolCalls) > 0 {
		names := make([]string, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			names = append(names, tc.Function.Name)
		}
		cb.log.Infow("model requested tools", "agent", agent, "tools", names)
	} else {
		cb.log.Infow("model answered", "agent", agent, "chars", len(msg.Content))
	}
	cb.push(ctx, models.NewChatResp("", agent, msg))
}

func (cb *LoggerCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if info == nil {
		return ctx
	}
	switch info.Component {
	case components.ComponentOfTool:
		if in := tool.ConvCallbackInput(input); in != nil {
			cb.log.Debugw("tool start", "tool", info.Name, "args", in.ArgumentsInJSON)
		}
	case components.ComponentOfChatModel:
		if in := ecmodel.ConvCallbackInput(input); in != nil {
			cb.log.Debugw("model start", "agent", info.Name, "messages", len(in.Messages))
		}
	default:
		cb.log.Debugw("node start", "name", info.Name, "component", info.Component)
	}
	return ctx
}

func (cb *LoggerCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	if info == nil {
		return ctx
	}
	switch info.Component {
	case components.ComponentOfChatModel:
		if out := ecmodel.ConvCallbackOutput(output); out != nil {
			cb.pushMsg(ctx, info.Name, out.Message)
		}
	case components.ComponentOfTool:
		if out := tool.ConvCallbackOutput(output); out != nil {
			cb.log.Infow("tool returned", "tool", info.Name, "chars", len(out.Response))
			cb.push(ctx, &models.ChatResp{
				Agent:    info.Name,
				Role:     string(schema.Tool),
				Content:  out.Response,
				ToolName: info.Name,
			})
		}
	default:
		cb.log.Debugw("node end", "name", info.Name, "component", info.Component)
	}
	return ctx
}

func (cb *LoggerCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	name := ""
	if info != nil {
		name = info.Name
	}
	cb.log.Errorw("run error", "name", name, "error", err)
	return ctx
}

func (cb *LoggerCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	name := ""
	if info != nil {
		name = info.Name
	}
	go func() {
		defer output.Close()
		defer func() {
			if err := recover(); err != nil {
				cb.log.Errorw("stream callback panic", "name", name, "panic", err)
			}
		}()
		for {
			frame, err := output.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				cb.log.Warnw("stream recv failed", "name", name, "error", err)
				return
			}

			switch v := frame.(type) {
			case *schema.Message:
				cb.pushMsg(ctx, name, v)
			case *ecmodel.CallbackOutput:
				cb.pushMsg(ctx, name, v.Message)
			}
		}
	}()
	return ctx
}

func (cb *LoggerCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	defer input.Close()
	return ctx
}
