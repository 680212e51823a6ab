package transport_test

import (
	"testing"
	"time"

	"github.com/Amund211/stillhere/internal/adapters/transport"
	"github.com/Amund211/stillhere/internal/domain"
	"github.com/stretchr/testify/require"
)

func newAlert() domain.MissedCheckInAlert {
	return domain.MissedCheckInAlert{
		UserID:          "0193a6f2-5c4e-7d2b-9a1f-3e8b6c0d4f21",
		UserDisplayName: "Alex",
		MissedDay:       domain.Date{Year: 2025, Month: time.June, Day: 2},
		ContactID:       "6f1c2e9a-8b3d-4c7e-a2f5-0d9b8e7c6a54",
		ContactName:     "Sam",
		Email:           "sam@example.com",
	}
}

func newRenderer(t *testing.T) *transport.MessageRenderer {
	t.Helper()
	renderer, err := transport.NewMessageRenderer("https://imstillhere.app")
	require.NoError(t, err)
	return renderer
}

func TestMessageRenderer(t *testing.T) {
	t.Parallel()

	t.Run("names the user and the contact", func(t *testing.T) {
		t.Parallel()

		message, err := newRenderer(t).Render(newAlert())
		require.NoError(t, err)

		require.Equal(t, "Alex missed their check-in — are they okay?", message.Subject)
		for _, body := range []string{message.HTML, message.Text, message.SMS} {
			require.Contains(t, body, "Alex")
			require.Contains(t, body, "2025-06-02")
			require.Contains(t, body, "https://imstillhere.app")
		}
		require.Contains(t, message.HTML, "Sam")
		require.Contains(t, message.Text, "Hey Sam,")
	})

	t.Run("display names are escaped in html", func(t *testing.T) {
		t.Parallel()

		alert := newAlert()
		alert.UserDisplayName = `<script>alert("x")</script>`

		message, err := newRenderer(t).Render(alert)
		require.NoError(t, err)

		require.NotContains(t, message.HTML, "<script>")
		require.Contains(t, message.HTML, "&lt;script&gt;")
	})

	t.Run("missing names", func(t *testing.T) {
		t.Parallel()

		alert := newAlert()
		alert.UserDisplayName = "  "
		alert.ContactName = ""

		message, err := newRenderer(t).Render(alert)
		require.NoError(t, err)

		require.Equal(t, "Someone missed their check-in — are they okay?", message.Subject)
		require.Contains(t, message.Text, "Hey there,")
	})
}
