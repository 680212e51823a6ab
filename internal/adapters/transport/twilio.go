package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/stillhere/internal/config"
	"github.com/Amund211/stillhere/internal/domain"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const twilioRequestTimeout = 10 * time.Second

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Twilio texts alerts to contacts that only have a phone number
type Twilio struct {
	messages   messageCreator
	fromNumber string
	renderer   *MessageRenderer
	tracer     trace.Tracer
}

func NewTwilio(conf config.TwilioConfig, renderer *MessageRenderer) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: conf.AccountSID,
		Password: conf.AuthToken,
	})
	client.SetTimeout(twilioRequestTimeout)
	return newTwilio(client.Api, conf.FromNumber, renderer)
}

func newTwilio(messages messageCreator, fromNumber string, renderer *MessageRenderer) *Twilio {
	return &Twilio{
		messages:   messages,
		fromNumber: fromNumber,
		renderer:   renderer,
		tracer:     otel.Tracer("stillhere/transport/twilio"),
	}
}

func (t *Twilio) Send(ctx context.Context, alert domain.MissedCheckInAlert) error {
	ctx, span := t.tracer.Start(ctx, "Twilio.Send")
	defer span.End()

	if alert.Phone == "" {
		return fmt.Errorf("%w: contact has no phone number", domain.ErrTransport)
	}

	message, err := t.renderer.Render(alert)
	if err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(alert.Phone)
	params.SetFrom(t.fromNumber)
	params.SetBody(message.SMS)

	// A message Twilio has accepted cannot be recalled, so an in-flight request
	// is never abandoned. The client's own request timeout bounds the wait.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: twilio: not sent: %w", domain.ErrTransport, err)
	}

	_, err = t.messages.CreateMessage(params)
	if err == nil {
		return nil
	}

	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) && (restErr.Status == 429 || restErr.Status >= 500) {
		return fmt.Errorf("%w: twilio: %w", domain.ErrTemporarilyUnavailable, err)
	}
	// Without a response the message may still have been sent
	return fmt.Errorf("%w: twilio: %w", domain.ErrTransport, err)
}
