package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/agents"
	"github.com/dyike/StockPilot/internal/display"
	"github.com/dyike/StockPilot/internal/graph"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/internal/storage"
	"github.com/dyike/StockPilot/internal/tools"
	"github.com/dyike/StockPilot/models"
	"github.com/dyike/StockPilot/pkg/utils"
	"go.uber.org/zap"
)

// Engine owns every process-wide collaborator of an analysis: the models,
// the tool backend, the compiled graph and the record store. Build it once
// per process and Close it on shutdown.
type Engine struct {
	cfg      *config.Config
	mcp      *tools.MCPServer
	registry *tools.Registry
	graph    *graph.StockGraph
	store    *storage.Store
	BuiltAt  time.Time

	deps   *graph.Dependencies
	notify func(topic, payload string)
	log    *zap.SugaredLogger
}

func BuildEngine(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	e := &Engine{
		cfg:     cfg,
		BuiltAt: time.Now(),
		log:     logger.Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.build(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) build(ctx context.Context) error {
	deps := e.deps
	if deps == nil {
		ts, err := e.connectTools(ctx)
		if err != nil {
			return err
		}
		registry, err := tools.NewRegistry(ctx, ts...)
		if err != nil {
			return err
		}
		e.registry = registry

		chatModel, err := agents.NewToolCallingModel(ctx, e.cfg)
		if err != nil {
			return err
		}
		reasoningModel, err := agents.NewReasoningModel(ctx, e.cfg)
		if err != nil {
			return err
		}
		deps = &graph.Dependencies{
			ChatModel:      chatModel,
			ReasoningModel: reasoningModel,
			Tools:          registry,
		}
	}

	g, err := graph.NewStockGraph(ctx, e.cfg, *deps)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	e.graph = g

	if e.store == nil && e.cfg.DBPath != "" {
		store, err := storage.NewStore(e.cfg.DBPath)
		if err != nil {
			return err
		}
		e.store = store
	}
	return nil
}

// connectTools returns the research tools of the configured backend. The
// MCP server is spawned and connected here and stays up until Close.
func (e *Engine) connectTools(ctx context.Context) ([]tool.InvokableTool, error) {
	switch e.cfg.ToolBackend {
	case config.ToolBackendMCP:
		srv := tools.NewMCPServerStdio(tools.MCPServerParams{
			Name:    "perplexity",
			Command: e.cfg.MCPCommand,
			Args:    e.cfg.MCPArgs,
			Env: []string{
				"PERPLEXITY_API_KEY=" + e.cfg.PerplexityAPIKey,
				fmt.Sprintf("PERPLEXITY_TIMEOUT_MS=%d", e.cfg.ToolTimeout.Milliseconds()),
			},
			Timeout: e.cfg.ToolTimeout,
		})
		if err := srv.Connect(ctx); err != nil {
			return nil, err
		}
		e.mcp = srv
		return srv.Tools(ctx)
	case config.ToolBackendHTTP:
		client := tools.NewPerplexityClient(e.cfg.PerplexityBaseURL, e.cfg.PerplexityAPIKey, e.cfg.ToolTimeout)
		return client.Tools(), nil
	default:
		return nil, fmt.Errorf("unsupported tool backend %q", e.cfg.ToolBackend)
	}
}

func (e *Engine) Config() *config.Config { return e.cfg }

func (e *Engine) Store() *storage.Store { return e.store }

// Tools lists the names of the research tools bound to the models.
func (e *Engine) Tools() []string {
	if e.registry == nil {
		return nil
	}
	return e.registry.Names()
}

// Analyze runs one request through the graph. The record is stored unless
// NoStore is set, and written as a markdown report under ResultsDir when Save
// is set.
func (e *Engine) Analyze(ctx context.Context, params models.AnalyzeParams) (*models.DecisionRecord, error) {
	prompt := strings.TrimSpace(params.Prompt)
	if prompt == "" {
		return nil, errors.New("analyze: prompt is required")
	}

	events, wait := e.streamEvents()
	record, err := e.graph.Propagate(ctx, []*schema.Message{schema.UserMessage(prompt)}, graph.NewLoggerCallback(events))
	close(events)
	wait()
	if err != nil {
		e.emit(topicFailed, map[string]string{"error": err.Error()})
		return nil, err
	}

	if !params.NoStore && e.store != nil {
		if err := e.store.SaveRecord(ctx, record); err != nil {
			return record, err
		}
	}
	if params.Save {
		name := fmt.Sprintf("%s_%s.md", record.CreatedAt.Format("20060102_150405"), shortID(record.RunID))
		if _, err := utils.WriteMarkdown(e.cfg.ResultsDir, name, display.RenderMarkdown(record)); err != nil {
			return record, err
		}
	}

	e.emit(topicCompleted, map[string]string{
		"run_id": record.RunID,
		"stock":  record.StockName,
		"action": string(record.Action),
	})
	return record, nil
}

func (e *Engine) Close() error {
	var errs []error
	if e.mcp != nil {
		errs = append(errs, e.mcp.Close())
		e.mcp = nil
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
		e.store = nil
	}
	return errors.Join(errs...)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
