// Package testutil holds scripted collaborators for orchestration tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type FakeTurn struct {
	Message *schema.Message
	Error   error
	// Delay holds the response back, unless the context ends first.
	Delay time.Duration
}

type FakeCall struct {
	Route string
	Input []*schema.Message
}

// FakeChatModel replays scripted turns. Turns are queued per route so that
// concurrent callers (e.g. two analysis loops sharing one model) each get
// their own script; Route picks the queue for a given input.
type FakeChatModel struct {
	Route func(input []*schema.Message) string

	mu     sync.Mutex
	queues map[string][]FakeTurn
	calls  []FakeCall
	tools  []*schema.ToolInfo
}

func NewFakeChatModel(turns ...FakeTurn) *FakeChatModel {
	m := &FakeChatModel{queues: map[string][]FakeTurn{}}
	m.Script("", turns...)
	return m
}

func (m *FakeChatModel) Script(route string, turns ...FakeTurn) *FakeChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[route] = append(m.queues[route], turns...)
	return m
}

func (m *FakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	route := ""
	if m.Route != nil {
		route = m.Route(input)
	}

	m.mu.Lock()
	in := make([]*schema.Message, len(input))
	copy(in, input)
	m.calls = append(m.calls, FakeCall{Route: route, Input: in})
	queue := m.queues[route]
	if len(queue) == 0 {
		m.mu.Unlock()
		return nil, fmt.Errorf("fake model: no scripted turn left for route %q", route)
	}
	turn := queue[0]
	m.queues[route] = queue[1:]
	m.mu.Unlock()

	if turn.Delay > 0 {
		select {
		case <-time.After(turn.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if turn.Error != nil {
		return nil, turn.Error
	}
	msg := *turn.Message
	return &msg, nil
}

func (m *FakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools records the bound tools and returns the same model, so calls made
// through the bound instance stay visible to the test.
func (m *FakeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = tools
	return m, nil
}

func (m *FakeChatModel) Calls() []FakeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FakeCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *FakeChatModel) CallsFor(route string) []FakeCall {
	var out []FakeCall
	for _, c := range m.Calls() {
		if c.Route == route {
			out = append(out, c)
		}
	}
	return out
}

func (m *FakeChatModel) BoundTools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools
}

// RouteBySystemPrompt routes on the first key found in the leading system message.
func RouteBySystemPrompt(keys ...string) func([]*schema.Message) string {
	return func(input []*schema.Message) string {
		if len(input) == 0 || input[0].Role != schema.System {
			return ""
		}
		sys := strings.ToLower(input[0].Content)
		for _, k := range keys {
			if strings.Contains(sys, strings.ToLower(k)) {
				return k
			}
		}
		return ""
	}
}

func Text(content string) FakeTurn {
	return FakeTurn{Message: schema.AssistantMessage(content, nil)}
}

// ToolCalls scripts an assistant turn requesting the given tools, each with
// a generated call id.
func ToolCalls(names ...string) FakeTurn {
	calls := make([]schema.ToolCall, 0, len(names))
	for i, name := range names {
		calls = append(calls, schema.ToolCall{
			ID:   fmt.Sprintf("call_%s_%d", name, i),
			Type: "function",
			Function: schema.FunctionCall{
				Name:      name,
				Arguments: `{"messages":[{"role":"user","content":"search"}]}`,
			},
		})
	}
	return FakeTurn{Message: schema.AssistantMessage("", calls)}
}

func Fail(err error) FakeTurn {
	return FakeTurn{Error: err}
}
