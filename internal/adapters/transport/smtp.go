package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/stillhere/internal/config"
	"github.com/Amund211/stillhere/internal/domain"
	"github.com/wneessen/go-mail"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const smtpTimeout = 15 * time.Second

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTP submits alerts to a mail server, one connection per alert
type SMTP struct {
	sender   mailSender
	from     string
	renderer *MessageRenderer
	tracer   trace.Tracer
}

func NewSMTP(conf config.SMTPConfig, renderer *MessageRenderer) (*SMTP, error) {
	options := []mail.Option{
		mail.WithPort(conf.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(smtpTimeout),
	}
	if conf.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(conf.Username),
			mail.WithPassword(conf.Password),
		)
	}

	client, err := mail.NewClient(conf.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create smtp client: %w", domain.ErrConfiguration, err)
	}

	return newSMTP(client, conf.From, renderer), nil
}

func newSMTP(sender mailSender, from string, renderer *MessageRenderer) *SMTP {
	return &SMTP{
		sender:   sender,
		from:     from,
		renderer: renderer,
		tracer:   otel.Tracer("stillhere/transport/smtp"),
	}
}

func (s *SMTP) Send(ctx context.Context, alert domain.MissedCheckInAlert) error {
	ctx, span := s.tracer.Start(ctx, "SMTP.Send")
	defer span.End()

	if alert.Email == "" {
		return fmt.Errorf("%w: contact has no email address", domain.ErrTransport)
	}

	message, err := s.renderer.Render(alert)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("%w: invalid sender address: %w", domain.ErrConfiguration, err)
	}
	if err := msg.To(alert.Email); err != nil {
		return fmt.Errorf("%w: invalid recipient address: %w", domain.ErrTransport, err)
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextPlain, message.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, message.HTML)

	err = s.sender.DialAndSendWithContext(ctx, msg)
	if err != nil {
		var sendErr *mail.SendError
		if errors.As(err, &sendErr) && sendErr.IsTemp() {
			return fmt.Errorf("%w: smtp: %w", domain.ErrTemporarilyUnavailable, err)
		}
		return fmt.Errorf("%w: smtp: %w", domain.ErrTransport, err)
	}

	return nil
}
