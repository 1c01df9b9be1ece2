package analysts

import (
	"context"
	"testing"

	"github.com/dyike/StockPilot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalystsStartFromEmptyConversation(t *testing.T) {
	ctx := context.Background()
	cm := testutil.NewFakeChatModel()
	cm.Route = testutil.RouteBySystemPrompt("fundamental", "technical")
	cm.Script("fundamental", testutil.ToolCalls("perplexity_ask"), testutil.Text("Strong revenue growth"))
	cm.Script("technical", testutil.Text("Bullish breakout"))
	tools := &testutil.FakeTools{}

	fundamental, err := NewFundamentalAnalyst(cm, tools, 8)
	require.NoError(t, err)
	technical, err := NewTechnicalAnalyst(cm, tools, 8)
	require.NoError(t, err)
	assert.Equal(t, "fundamental_analysis", fundamental.Field)
	assert.Equal(t, "technical_analysis", technical.Field)

	conv, err := fundamental.Analyze(ctx, "Tata Motors Ltd. (NSE:TATAMOTORS)")
	require.NoError(t, err)
	out, ok := conv.Output()
	require.True(t, ok)
	assert.Equal(t, "Strong revenue growth", out)
	assert.Len(t, conv.Messages, 3)

	conv, err = technical.Analyze(ctx, "Tata Motors Ltd. (NSE:TATAMOTORS)")
	require.NoError(t, err)
	out, _ = conv.Output()
	assert.Equal(t, "Bullish breakout", out)
	require.Len(t, conv.Messages, 1)

	first := cm.CallsFor("technical")[0].Input
	require.Len(t, first, 2)
	assert.Contains(t, first[0].Content, "Perform a technical analysis of the stock.")
	assert.Equal(t, "The stock to analyze is Tata Motors Ltd. (NSE:TATAMOTORS)", first[1].Content)
}

func TestAnalystNeedsStockName(t *testing.T) {
	a, err := NewFundamentalAnalyst(testutil.NewFakeChatModel(), &testutil.FakeTools{}, 8)
	require.NoError(t, err)
	_, err = a.Analyze(context.Background(), "")
	assert.Error(t, err)
}
