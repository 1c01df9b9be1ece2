package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMarkdownCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results", "nested")

	path, err := WriteMarkdown(dir, "report.md", "# Decision\n\nbuy\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Decision\n\nbuy\n", string(data))
}
