package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/display"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/models"
	"github.com/dyike/StockPilot/pkg/app"
)

// Runs one analysis for the request given as arguments. The full CLI lives
// in cmd/.
func main() {
	request := strings.Join(os.Args[1:], " ")
	if request == "" {
		request = "Should I invest in Reliance Industries?"
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Get().Errorw("invalid configuration", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, request, os.Stdout); err != nil {
		logger.Get().Errorw("analysis failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run builds an engine, analyses request and prints the record to w.
func run(ctx context.Context, cfg *config.Config, request string, w io.Writer, opts ...app.Option) error {
	engine, err := app.BuildEngine(ctx, cfg, opts...)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	record, err := engine.Analyze(ctx, models.AnalyzeParams{Prompt: request, NoStore: true})
	if err != nil {
		return err
	}
	display.RenderRecord(w, record, false)
	return nil
}
