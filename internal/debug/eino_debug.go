package debug

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/devops"
	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/logger"
)

// EinoDebugger starts the eino devops server so compiled graphs can be
// inspected from the visual debugger.
type EinoDebugger struct {
	config *config.Config
}

func NewEinoDebugger(cfg *config.Config) *EinoDebugger {
	return &EinoDebugger{config: cfg}
}

// Initialize must run before any graph is compiled. It is a no-op unless
// EINO_DEBUG_ENABLED is set.
func (d *EinoDebugger) Initialize(ctx context.Context) error {
	if !d.IsEnabled() {
		return nil
	}

	log := logger.Named("eino-debug")
	if err := devops.Init(ctx); err != nil {
		return fmt.Errorf("initialize eino debug server: %w", err)
	}
	log.Infow("debug server started", "url", d.GetDebugURL())
	return nil
}

func (d *EinoDebugger) IsEnabled() bool {
	return d.config != nil && d.config.EinoDebugEnabled
}

func (d *EinoDebugger) GetDebugURL() string {
	if !d.IsEnabled() {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", d.config.EinoDebugPort)
}
