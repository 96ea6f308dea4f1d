package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"analytics-query-service/internal/config"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.Config{LogLevel: "warn", LogFormat: "json", AppMode: "prod"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "kept", entry["msg"])
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "prod", entry["mode"])
}

func TestNewWithWriterErrors(t *testing.T) {
	var buf bytes.Buffer

	_, err := NewWithWriter(&config.Config{LogLevel: "loud", LogFormat: "json"}, zapcore.AddSync(&buf))
	require.ErrorContains(t, err, "parse log level")

	_, err = NewWithWriter(&config.Config{LogLevel: "info", LogFormat: "xml"}, zapcore.AddSync(&buf))
	require.EqualError(t, err, `unknown log format "xml"`)
}
