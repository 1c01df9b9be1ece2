package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/internal/storage"
	"github.com/dyike/StockPilot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "runs.db")
	t.Setenv("PROJECT_DIR", dir)
	t.Setenv("DB_PATH", dbPath)

	store, err := storage.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveRecord(context.Background(), &models.DecisionRecord{
		RunID:               "5f0c2a9e-1111-4d6b-9a57-0c3f2b1e8d01",
		Request:             "Analyze Reliance",
		StockName:           "Reliance Industries Ltd. (NSE:RELIANCE)",
		FundamentalAnalysis: "Strong revenue growth",
		TechnicalAnalysis:   "Bullish breakout",
		Decision:            "buy",
		Action:              models.ActionBuy,
		CreatedAt:           time.Now(),
		Messages:            []*schema.Message{schema.UserMessage("Analyze Reliance")},
	}))
	return dbPath
}

func TestHistoryAndShow(t *testing.T) {
	seedStore(t)

	out, err := runCmd(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "5f0c2a9e")
	assert.Contains(t, out, "Reliance Industries Ltd. (NSE:RELIANCE)")

	out, err = runCmd(t, "show", "5f0c2a9e", "--transcript")
	require.NoError(t, err)
	assert.Contains(t, out, "Strong revenue growth")
	assert.Contains(t, out, "Bullish breakout")
	assert.Contains(t, out, "Transcript (1 messages)")

	_, err = runCmd(t, "show", "ffffffff")
	assert.ErrorContains(t, err, "no analysis with id")
}

func TestConfigValidateReportsMissingKeys(t *testing.T) {
	t.Setenv("PROJECT_DIR", t.TempDir())
	for _, key := range []string{"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_DEPLOYMENT_NAME", "PERPLEXITY_API_KEY"} {
		t.Setenv(key, "")
	}

	out, err := runCmd(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "PERPLEXITY_API_KEY")
}

func TestVersion(t *testing.T) {
	t.Setenv("PROJECT_DIR", t.TempDir())
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "StockPilot v"+Version)
}
