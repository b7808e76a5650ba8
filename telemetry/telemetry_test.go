package telemetry

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(&buf, "warn", "json")
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept", slog.String("operation", "CreateAssistant"))

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Contains(t, buf.String(), `"operation":"CreateAssistant"`)

	buf.Reset()
	logger, err = NewLogger(&buf, "", "text")
	require.NoError(t, err)
	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger(io.Discard, "loud", "json")
	assert.Error(t, err)

	_, err = NewLogger(io.Discard, "info", "xml")
	assert.EqualError(t, err, `unknown log format "xml"`)
}

func TestInitTracer(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer("ai-client-test", &buf, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry_test").Start(context.Background(), "CreateAssistant")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name": "CreateAssistant"`)
	assert.Contains(t, buf.String(), "ai-client-test")
}
