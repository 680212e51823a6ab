package transport

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Amund211/stillhere/internal/config"
	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/ratelimiting"
)

const maxSendTime = 5 * time.Second

// NewFromConfig picks the email transport in order of preference SMTP, Resend,
// then logging (development only), and adds SMS if Twilio is configured.
func NewFromConfig(conf config.Config, httpClient HttpClient, logger *slog.Logger) (Transport, error) {
	renderer, err := NewMessageRenderer(conf.AppURL())
	if err != nil {
		return nil, err
	}

	var email Transport
	switch {
	case conf.SMTP().Host != "":
		smtp, err := NewSMTP(conf.SMTP(), renderer)
		if err != nil {
			return nil, err
		}
		email = smtp
		logger.Info("Sending email over SMTP", "host", conf.SMTP().Host)
	case conf.ResendAPIKey() != "":
		// Resend allows 2 requests per second per team
		limiter := ratelimiting.NewWindowLimiter(2, time.Second, time.Now, time.After)
		email = NewPaced(NewResend(httpClient, conf.ResendAPIKey(), conf.ResendFrom(), renderer), limiter, maxSendTime)
		logger.Info("Sending email through Resend")
	case conf.IsDevelopment():
		email = NewLog(renderer)
		logger.Warn("No email transport configured, alerts will only be logged")
	default:
		return nil, fmt.Errorf("%w: no email transport configured", domain.ErrConfiguration)
	}

	var sms Transport
	if conf.Twilio().AccountSID != "" {
		// Twilio queues messages beyond 1 per second per long code number
		limiter := ratelimiting.NewWindowLimiter(1, time.Second, time.Now, time.After)
		sms = NewPaced(NewTwilio(conf.Twilio(), renderer), limiter, maxSendTime)
		logger.Info("Sending SMS through Twilio")
	} else if conf.IsDevelopment() {
		sms = NewLog(renderer)
	}

	return NewRouter(email, sms), nil
}
