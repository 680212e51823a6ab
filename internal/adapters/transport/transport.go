package transport

import (
	"context"

	"github.com/Amund211/stillhere/internal/domain"
)

// Transport delivers one missed check-in alert to one contact.
//
// Send returns an error wrapping domain.ErrTemporarilyUnavailable if the failure
// is believed to be intermittent and the send may be retried.
type Transport interface {
	Send(ctx context.Context, alert domain.MissedCheckInAlert) error
}
