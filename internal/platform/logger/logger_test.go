package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "prod", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "request_id", "req-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "customer-api", line["service"])
	assert.Equal(t, "req-1", line["request_id"])
}

func TestNewWithWriterDev(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "dev", "debug")

	logger.Debug("customer created", "customer_id", "7")

	assert.Contains(t, buf.String(), "customer created")
	assert.Contains(t, buf.String(), "customer_id")
	assert.False(t, json.Valid(buf.Bytes()))
}
