package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partywatch/partycrawl/internal/logger"
)

func TestNewDefaultsToStdout(t *testing.T) {
	t.Parallel()

	log, err := logger.New(&logger.Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewWritesToConfiguredOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "crawl.log")
	log, err := logger.New(&logger.Config{
		Level:       logger.InfoLevel,
		Encoding:    "json",
		OutputPaths: []string{path},
	})
	require.NoError(t, err)

	log.Info("record created", "url", "https://example.org/view?id=1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "record created")
	assert.Contains(t, string(data), "https://example.org/view?id=1")
}

func TestNewRejectsUnopenableOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "crawl.log")
	_, err := logger.New(&logger.Config{OutputPaths: []string{path}})
	assert.Error(t, err)
}
