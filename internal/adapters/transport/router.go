package transport

import (
	"context"
	"fmt"

	"github.com/Amund211/stillhere/internal/domain"
)

// Router sends to a contact's email address if it has one, otherwise by SMS
type Router struct {
	email Transport
	sms   Transport
}

// NewRouter creates a Router. sms may be nil if SMS is not configured.
func NewRouter(email Transport, sms Transport) *Router {
	return &Router{email: email, sms: sms}
}

func (r *Router) Send(ctx context.Context, alert domain.MissedCheckInAlert) error {
	switch {
	case alert.Email != "" && r.email != nil:
		return r.email.Send(ctx, alert)
	case alert.Phone != "" && r.sms != nil:
		return r.sms.Send(ctx, alert)
	case alert.Phone != "":
		return fmt.Errorf("%w: contact only has a phone number and sms is not configured", domain.ErrTransport)
	default:
		return fmt.Errorf("%w: contact has no address", domain.ErrTransport)
	}
}
