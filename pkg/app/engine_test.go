package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/graph"
	"github.com/dyike/StockPilot/internal/testutil"
	"github.com/dyike/StockPilot/internal/tools"
	"github.com/dyike/StockPilot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifications struct {
	mu     sync.Mutex
	topics []string
}

func (n *notifications) record(topic, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topic)
}

func (n *notifications) count(topic string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, t := range n.topics {
		if t == topic {
			c++
		}
	}
	return c
}

func testEngine(t *testing.T, reasoning *testutil.FakeChatModel, n *notifications) (*Engine, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		ProjectDir:          dir,
		ResultsDir:          filepath.Join(dir, "results"),
		DBPath:              filepath.Join(dir, "data", "runs.db"),
		MaxToolIterations:   8,
		DecisionPolicy:      config.DecisionPolicyStrict,
		DecisionMaxAttempts: 2,
		MaxRecurLimit:       32,
	}

	cm := testutil.NewFakeChatModel()
	cm.Route = testutil.RouteBySystemPrompt("name of the stock", "fundamental", "technical")
	cm.Script("name of the stock", testutil.ToolCalls("perplexity_ask"), testutil.Text("Reliance Industries Ltd. (NSE:RELIANCE)"))
	cm.Script("fundamental", testutil.Text("Strong balance sheet"))
	cm.Script("technical", testutil.Text("Uptrend intact"))

	registry, err := tools.NewRegistry(context.Background(),
		testutil.NewFakeTool("perplexity_ask"),
		testutil.NewFakeTool("perplexity_research"),
	)
	require.NoError(t, err)

	engine, err := BuildEngine(context.Background(), cfg,
		WithDependencies(graph.Dependencies{
			ChatModel:      cm,
			ReasoningModel: reasoning,
			Tools:          registry,
		}),
		WithNotifier(n.record),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine, cfg
}

func TestEngineAnalyzeStoresAndSaves(t *testing.T) {
	n := &notifications{}
	engine, cfg := testEngine(t, testutil.NewFakeChatModel(testutil.Text("Decision: buy")), n)
	ctx := context.Background()

	record, err := engine.Analyze(ctx, models.AnalyzeParams{Prompt: "Should I buy Reliance?", Save: true})
	require.NoError(t, err)
	assert.Equal(t, "Reliance Industries Ltd. (NSE:RELIANCE)", record.StockName)
	assert.Equal(t, models.ActionBuy, record.Action)

	stored, err := engine.Store().GetRecord(ctx, record.RunID)
	require.NoError(t, err)
	assert.Equal(t, record.Decision, stored.Decision)
	assert.Len(t, stored.Messages, len(record.Messages))

	reports, err := filepath.Glob(filepath.Join(cfg.ResultsDir, "*.md"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	body, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "Strong balance sheet")

	// resolver: 2 model answers + 1 tool result; analysts: 1 each; decision: 1
	assert.Equal(t, 6, n.count(topicEvent))
	assert.Equal(t, 1, n.count(topicCompleted))
}

func TestEngineAnalyzeNoStore(t *testing.T) {
	n := &notifications{}
	engine, _ := testEngine(t, testutil.NewFakeChatModel(testutil.Text("hold")), n)
	ctx := context.Background()

	record, err := engine.Analyze(ctx, models.AnalyzeParams{Prompt: "Reliance?", NoStore: true})
	require.NoError(t, err)

	runs, err := engine.Store().ListRecords(ctx, models.HistoryParams{})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Equal(t, models.ActionHold, record.Action)
}

func TestEngineAnalyzeFailure(t *testing.T) {
	n := &notifications{}
	engine, _ := testEngine(t, testutil.NewFakeChatModel(testutil.Fail(errors.New("503 overloaded"))), n)

	_, err := engine.Analyze(context.Background(), models.AnalyzeParams{Prompt: "Reliance?"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503 overloaded")
	assert.Equal(t, 1, n.count(topicFailed))

	_, err = engine.Analyze(context.Background(), models.AnalyzeParams{Prompt: "  "})
	assert.ErrorContains(t, err, "prompt is required")
}

func TestBuildEngineRejectsUnknownBackend(t *testing.T) {
	_, err := BuildEngine(context.Background(), &config.Config{ToolBackend: "grpc"})
	assert.ErrorContains(t, err, "unsupported tool backend")
}
