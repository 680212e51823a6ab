package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Amund211/stillhere/internal/logging"
	"github.com/stretchr/testify/require"
)

// entries decodes every JSON line written to buf, without the time field
func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	result := []map[string]any{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		require.Contains(t, entry, "time")
		delete(entry, "time")
		result = append(result, entry)
	}
	buf.Reset()
	return result
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("stored logger", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
		ctx := logging.AddToContext(t.Context(), logger)

		require.Same(t, logger, logging.FromContext(ctx))
	})

	t.Run("fallback", func(t *testing.T) {
		t.Parallel()

		require.NotNil(t, logging.FromContext(t.Context()))
	})
}

func TestAddMetaToContext(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	root := slog.New(slog.NewJSONHandler(buf, nil)).With(slog.String("instanceID", "instance"))
	sweepCtx := logging.AddToContext(t.Context(), root)

	userCtx := logging.AddMetaToContext(sweepCtx, slog.String("userId", "user-1"))
	cycleCtx := logging.AddMetaToContext(userCtx, slog.String("localDate", "2025-06-02"), slog.String("userId", "user-2"))

	logging.FromContext(cycleCtx).Info("Processed user")
	require.Equal(t, []map[string]any{{
		"level":      "INFO",
		"msg":        "Processed user",
		"instanceID": "instance",
		"userId":     "user-2",
		"localDate":  "2025-06-02",
	}}, entries(t, buf))

	// Parent contexts are not affected
	logging.FromContext(userCtx).Warn("Missed check-in")
	logging.FromContext(sweepCtx).Info("Finished sweep")
	require.Equal(t, []map[string]any{
		{
			"level":      "WARN",
			"msg":        "Missed check-in",
			"instanceID": "instance",
			"userId":     "user-1",
		},
		{
			"level":      "INFO",
			"msg":        "Finished sweep",
			"instanceID": "instance",
		},
	}, entries(t, buf))
}
