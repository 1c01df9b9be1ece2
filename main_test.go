package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/graph"
	"github.com/dyike/StockPilot/internal/testutil"
	"github.com/dyike/StockPilot/pkg/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runConfig() *config.Config {
	return &config.Config{
		MaxToolIterations:   8,
		DecisionPolicy:      config.DecisionPolicyStrict,
		DecisionMaxAttempts: 1,
		MaxRecurLimit:       32,
	}
}

func scriptedDeps(reasoning *testutil.FakeChatModel) app.Option {
	cm := testutil.NewFakeChatModel()
	cm.Route = testutil.RouteBySystemPrompt("name of the stock", "fundamental", "technical")
	cm.Script("name of the stock", testutil.Text("Reliance Industries Ltd. (NSE:RELIANCE)"))
	cm.Script("fundamental", testutil.Text("Strong balance sheet"))
	cm.Script("technical", testutil.Text("Uptrend intact"))
	return app.WithDependencies(graph.Dependencies{
		ChatModel:      cm,
		ReasoningModel: reasoning,
		Tools:          &testutil.FakeTools{},
	})
}

func TestRunPrintsRecord(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), runConfig(), "Reliance?", &out,
		scriptedDeps(testutil.NewFakeChatModel(testutil.Text("buy"))))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Reliance Industries Ltd. (NSE:RELIANCE)")
}

func TestRunReturnsAnalysisError(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), runConfig(), "Reliance?", &out,
		scriptedDeps(testutil.NewFakeChatModel(testutil.Fail(errors.New("503 overloaded")))))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503 overloaded")
	assert.Empty(t, out.String())
}
