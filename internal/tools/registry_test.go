package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTool struct {
	name  string
	calls *[]string
	err   error
}

func (t *echoTool) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: t.name, Desc: "echo"}, nil
}

func (t *echoTool) InvokableRun(_ context.Context, args string, _ ...tool.Option) (string, error) {
	if t.calls != nil {
		*t.calls = append(*t.calls, t.name)
	}
	if t.err != nil {
		return "", t.err
	}
	return t.name + ":" + args, nil
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Function: schema.FunctionCall{Name: name, Arguments: args}}
}

func TestRegistryExecuteKeepsIssueOrder(t *testing.T) {
	ctx := context.Background()
	var calls []string
	r, err := NewRegistry(ctx,
		&echoTool{name: "perplexity_ask", calls: &calls},
		&echoTool{name: "perplexity_reason", calls: &calls},
	)
	require.NoError(t, err)

	msg := schema.AssistantMessage("", []schema.ToolCall{
		toolCall("c1", "perplexity_reason", `{"q":1}`),
		toolCall("c2", "perplexity_ask", `{"q":2}`),
		toolCall("c3", "perplexity_reason", `{"q":3}`),
	})

	results, err := r.Execute(ctx, msg)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []string{"perplexity_reason", "perplexity_ask", "perplexity_reason"}, calls)
	for i, id := range []string{"c1", "c2", "c3"} {
		assert.Equal(t, schema.Tool, results[i].Role)
		assert.Equal(t, id, results[i].ToolCallID)
	}
	assert.Equal(t, `perplexity_ask:{"q":2}`, results[1].Content)
	assert.Equal(t, "perplexity_ask", results[1].ToolName)
}

func TestRegistryUnknownTool(t *testing.T) {
	ctx := context.Background()
	r, err := NewRegistry(ctx, &echoTool{name: "perplexity_ask"})
	require.NoError(t, err)

	_, err = r.Execute(ctx, schema.AssistantMessage("", []schema.ToolCall{toolCall("c1", "web_search", "{}")}))
	assert.ErrorIs(t, err, models.ErrUnknownTool)
}

func TestRegistryToolFailureAbortsBatch(t *testing.T) {
	ctx := context.Background()
	var calls []string
	boom := errors.New("upstream 502")
	r, err := NewRegistry(ctx,
		&echoTool{name: "perplexity_ask", calls: &calls, err: boom},
		&echoTool{name: "perplexity_reason", calls: &calls},
	)
	require.NoError(t, err)

	_, err = r.Execute(ctx, schema.AssistantMessage("", []schema.ToolCall{
		toolCall("c1", "perplexity_ask", "{}"),
		toolCall("c2", "perplexity_reason", "{}"),
	}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"perplexity_ask"}, calls)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(context.Background(), &echoTool{name: "a"}, &echoTool{name: "a"})
	assert.Error(t, err)
}

func TestRegistryInfosAndNames(t *testing.T) {
	r, err := NewRegistry(context.Background(), &echoTool{name: "b"}, &echoTool{name: "a"})
	require.NoError(t, err)

	infos := r.Infos()
	require.Len(t, infos, 2)
	assert.Equal(t, "b", infos[0].Name)
	assert.Equal(t, []string{"a", "b"}, r.Names())

	results, err := r.Execute(context.Background(), schema.AssistantMessage("done", nil))
	assert.NoError(t, err)
	assert.Empty(t, results)
}
