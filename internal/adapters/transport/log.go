package transport

import (
	"context"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/logging"
)

// Log only logs the alert and reports it as delivered. For development without a mail server.
type Log struct {
	renderer *MessageRenderer
}

func NewLog(renderer *MessageRenderer) *Log {
	return &Log{renderer: renderer}
}

func (l *Log) Send(ctx context.Context, alert domain.MissedCheckInAlert) error {
	message, err := l.renderer.Render(alert)
	if err != nil {
		return err
	}

	logging.FromContext(ctx).InfoContext(ctx, "Would send missed check-in alert",
		"to", alert.Email+alert.Phone,
		"subject", message.Subject,
		"missedDay", alert.MissedDay.String(),
	)
	return nil
}
