package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReportingMeta(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()

		meta := MetaFromContext(t.Context())
		require.Empty(t, meta.tags)
		require.Empty(t, meta.extras)
		require.Empty(t, meta.userID)
		require.True(t, meta.startedAt.IsZero())
	})

	t.Run("values accumulate without leaking to parents", func(t *testing.T) {
		t.Parallel()

		startedAt := time.Date(2025, time.June, 2, 15, 0, 0, 0, time.UTC)

		parent := AddTagsToContext(t.Context(), map[string]string{"port": "check_missed"})
		parent = setStartedAtInContext(parent, startedAt)

		child := AddExtrasToContext(parent, map[string]string{"localDate": "2025-06-02"})
		child = SetUserIDInContext(child, "user-1")
		child = AddTagsToContext(child, map[string]string{"outcome": "error"})

		childMeta := MetaFromContext(child)
		require.Equal(t, map[string]string{"port": "check_missed", "outcome": "error"}, childMeta.tags)
		require.Equal(t, map[string]string{"localDate": "2025-06-02"}, childMeta.extras)
		require.Equal(t, "user-1", childMeta.userID)
		require.Equal(t, startedAt, childMeta.startedAt)

		parentMeta := MetaFromContext(parent)
		require.Equal(t, map[string]string{"port": "check_missed"}, parentMeta.tags)
		require.Empty(t, parentMeta.extras)
		require.Empty(t, parentMeta.userID)
	})
}
