package researchers

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSeedsFromHistory(t *testing.T) {
	cm := testutil.NewFakeChatModel(
		testutil.ToolCalls("perplexity_ask"),
		testutil.Text("  'Reliance Industries Ltd. (NSE:RELIANCE)'\n"),
	)
	r, err := NewStockResolver(cm, &testutil.FakeTools{}, 8)
	require.NoError(t, err)

	history := []*schema.Message{schema.UserMessage("Analyze Reliance Industries")}
	conv, name, err := r.Resolve(context.Background(), history)
	require.NoError(t, err)

	assert.Equal(t, "Reliance Industries Ltd. (NSE:RELIANCE)", name)
	// seed + tool request + tool result + answer
	require.Len(t, conv.Messages, 4)
	assert.Same(t, history[0], conv.Messages[0])
	assert.Equal(t, "  'Reliance Industries Ltd. (NSE:RELIANCE)'\n", conv.Messages[3].Content, "history keeps the raw answer")
	assert.Len(t, history, 1)

	first := cm.Calls()[0].Input
	require.Len(t, first, 2)
	assert.Contains(t, first[0].Content, "'Company Name (Ticker)'")
	assert.Equal(t, "Analyze Reliance Industries", first[1].Content)
}

func TestResolveRejectsEmptyName(t *testing.T) {
	r, err := NewStockResolver(testutil.NewFakeChatModel(testutil.Text("  ")), &testutil.FakeTools{}, 8)
	require.NoError(t, err)

	_, _, err = r.Resolve(context.Background(), []*schema.Message{schema.UserMessage("Analyze ???")})
	assert.Error(t, err)
}
