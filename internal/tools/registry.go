package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/models"
	"go.uber.org/zap"
)

// Registry holds the tools a loop may call, keyed by name.
type Registry struct {
	tools map[string]tool.InvokableTool
	infos []*schema.ToolInfo
	log   *zap.SugaredLogger
}

func NewRegistry(ctx context.Context, ts ...tool.InvokableTool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]tool.InvokableTool, len(ts)),
		infos: make([]*schema.ToolInfo, 0, len(ts)),
		log:   logger.Named("tools"),
	}
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		if _, dup := r.tools[info.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", info.Name)
		}
		r.tools[info.Name] = t
		r.infos = append(r.infos, info)
	}
	return r, nil
}

// Infos returns the tool descriptions in registration order, for binding to a model.
func (r *Registry) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, len(r.infos))
	copy(out, r.infos)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs every tool call of msg sequentially, in the order issued, and
// returns one tool message per call. The first failure aborts the batch.
func (r *Registry) Execute(ctx context.Context, msg *schema.Message) ([]*schema.Message, error) {
	if msg == nil || len(msg.ToolCalls) == 0 {
		return nil, nil
	}

	results := make([]*schema.Message, 0, len(msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		name := call.Function.Name
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", models.ErrUnknownTool, name)
		}

		r.log.Debugw("invoking tool", "tool", name, "call_id", call.ID, "args", call.Function.Arguments)
		out, err := r.invoke(ctx, name, t, call.Function.Arguments)
		if err != nil {
			r.log.Errorw("tool failed", "tool", name, "call_id", call.ID, "error", err)
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}
		r.log.Debugw("tool completed", "tool", name, "call_id", call.ID, "bytes", len(out))

		result := schema.ToolMessage(out, call.ID)
		result.ToolName = name
		results = append(results, result)
	}
	return results, nil
}

// invoke reports the call to the callbacks in ctx, firing them here when the
// tool does not do so itself.
func (r *Registry) invoke(ctx context.Context, name string, t tool.InvokableTool, args string) (string, error) {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      name,
		Type:      "Tool",
		Component: components.ComponentOfTool,
	})
	if components.IsCallbacksEnabled(t) {
		return t.InvokableRun(ctx, args)
	}

	ctx = callbacks.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: args})
	out, err := t.InvokableRun(ctx, args)
	if err != nil {
		callbacks.OnError(ctx, err)
		return "", err
	}
	callbacks.OnEnd(ctx, &tool.CallbackOutput{Response: out})
	return out, nil
}
