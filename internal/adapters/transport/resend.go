package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Amund211/stillhere/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const resendURL = "https://api.resend.com/emails"

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// Resend sends alerts through the Resend email API
type Resend struct {
	httpClient HttpClient
	apiKey     string
	from       string
	renderer   *MessageRenderer
	tracer     trace.Tracer
}

func NewResend(httpClient HttpClient, apiKey, from string, renderer *MessageRenderer) *Resend {
	return &Resend{
		httpClient: httpClient,
		apiKey:     apiKey,
		from:       from,
		renderer:   renderer,
		tracer:     otel.Tracer("stillhere/transport/resend"),
	}
}

func (r *Resend) Send(ctx context.Context, alert domain.MissedCheckInAlert) error {
	ctx, span := r.tracer.Start(ctx, "Resend.Send")
	defer span.End()

	if alert.Email == "" {
		return fmt.Errorf("%w: contact has no email address", domain.ErrTransport)
	}

	message, err := r.renderer.Render(alert)
	if err != nil {
		return err
	}

	body, err := json.Marshal(resendRequest{
		From:    r.from,
		To:      []string{alert.Email},
		Subject: message.Subject,
		HTML:    message.HTML,
		Text:    message.Text,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to marshal resend request: %w", domain.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	// Resend delivers a request with a seen key at most once within 24 hours
	req.Header.Set("Idempotency-Key", alert.DeliveryKey())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		// The email may have been accepted, but the idempotency key makes another attempt safe
		return fmt.Errorf("%w: failed to send request: %w", domain.ErrTemporarilyUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	// The error body is short and helps tell a bad key from a bad address
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	statusErr := fmt.Errorf("resend returned status %s: %s", strconv.Itoa(resp.StatusCode), string(data))

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %w", domain.ErrTemporarilyUnavailable, statusErr)
	}
	return fmt.Errorf("%w: %w", domain.ErrTransport, statusErr)
}
