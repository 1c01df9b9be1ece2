package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// FakeTools answers every tool call with a canned result and records the
// calls it saw. Err, when set, fails the next batch.
type FakeTools struct {
	Err error

	mu    sync.Mutex
	calls []schema.ToolCall
}

func (f *FakeTools) Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{Name: "perplexity_ask", Desc: "ask"},
		{Name: "perplexity_research", Desc: "research"},
		{Name: "perplexity_reason", Desc: "reason"},
	}
}

func (f *FakeTools) Execute(_ context.Context, msg *schema.Message) ([]*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]*schema.Message, 0, len(msg.ToolCalls))
	for _, c := range msg.ToolCalls {
		f.calls = append(f.calls, c)
		res := schema.ToolMessage(fmt.Sprintf("result of %s", c.Function.Name), c.ID)
		res.ToolName = c.Function.Name
		out = append(out, res)
	}
	return out, nil
}

func (f *FakeTools) Calls() []schema.ToolCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]schema.ToolCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// FakeTool is a single named tool returning a canned answer.
type FakeTool struct {
	Name   string
	Answer string

	mu    sync.Mutex
	calls int
}

func NewFakeTool(name string) *FakeTool {
	return &FakeTool{Name: name, Answer: "result of " + name}
}

func (t *FakeTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: t.Name, Desc: t.Name}, nil
}

func (t *FakeTool) InvokableRun(_ context.Context, _ string, _ ...tool.Option) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return t.Answer, nil
}

func (t *FakeTool) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
