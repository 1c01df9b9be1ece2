package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyike/StockPilot/internal/logger"
)

// WriteMarkdown writes content to dir/fileName, creating dir when needed,
// and returns the written path.
func WriteMarkdown(dir, fileName, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write file %s: %w", path, err)
	}
	logger.Get().Infow("report written", "path", path)
	return path, nil
}
