// Package cli provides the command-line interface for StockPilot
package cli

import (
	"os"

	"github.com/dyike/StockPilot/internal/logger"
)

// Run starts the CLI application
func Run() {
	rootCmd := NewRootCmd()

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
