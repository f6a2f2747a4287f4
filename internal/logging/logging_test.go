package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew_FansOut(t *testing.T) {
	var text, js bytes.Buffer
	logger := New(&text, &js, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("Dataset ingested", "examples", 60)

	assert.Contains(t, text.String(), "Dataset ingested")
	assert.Contains(t, text.String(), "examples=60")
	assert.NotContains(t, text.String(), "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &rec))
	assert.Equal(t, "Dataset ingested", rec["msg"])
	assert.Equal(t, float64(60), rec["examples"])
}

func TestSetup_WritesJSONFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "slmgen.log")
	logger, closeFn, err := Setup(path, slog.LevelDebug)
	require.NoError(t, err)

	logger.Debug("Recommendation computed", "model", "phi-4-mini")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"model":"phi-4-mini"`)
}

func TestSetup_NoFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger, closeFn, err := Setup("", slog.LevelInfo)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closeFn())
}

func TestSetup_BadPathFallsBack(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger, closeFn, err := Setup(filepath.Join(t.TempDir(), "missing", "dir", "x.log"), slog.LevelInfo)
	assert.Error(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closeFn())
}
