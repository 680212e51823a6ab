package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/Amund211/stillhere/internal/logging"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingLogHandler(t *testing.T) {
	t.Parallel()

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	spanContext := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	logLine := func(t *testing.T, project string, withSpan bool) map[string]any {
		t.Helper()

		buf := &bytes.Buffer{}
		logger := slog.New(logging.NewTracingLogHandler(slog.NewJSONHandler(buf, nil), project)).With("component", "test")

		ctx := t.Context()
		if withSpan {
			ctx = trace.ContextWithSpanContext(ctx, spanContext)
		}
		logger.InfoContext(ctx, "hello")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		require.Equal(t, "test", entry["component"])
		return entry
	}

	t.Run("no span", func(t *testing.T) {
		t.Parallel()

		entry := logLine(t, "my-project", false)
		require.NotContains(t, entry, "traceId")
		require.NotContains(t, entry, "logging.googleapis.com/trace")
	})

	t.Run("without project", func(t *testing.T) {
		t.Parallel()

		entry := logLine(t, "", true)
		require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["traceId"])
		require.Equal(t, "00f067aa0ba902b7", entry["spanId"])
	})

	t.Run("with project", func(t *testing.T) {
		t.Parallel()

		entry := logLine(t, "my-project", true)
		require.Equal(t, "projects/my-project/traces/4bf92f3577b34da6a3ce929d0e0e4736", entry["logging.googleapis.com/trace"])
		require.Equal(t, "00f067aa0ba902b7", entry["logging.googleapis.com/spanId"])
		require.Equal(t, true, entry["logging.googleapis.com/trace_sampled"])
		require.NotContains(t, entry, "traceId")
	})
}
