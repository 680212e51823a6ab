package transport

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/Amund211/stillhere/internal/domain"
)

type Message struct {
	Subject string
	HTML    string
	Text    string
	// SMS is short enough for a single segment in most cases
	SMS string
}

const htmlBody = `<div style="font-family: system-ui, sans-serif; max-width: 480px; margin: 0 auto; padding: 40px 24px; background-color: #0a0a0a; color: #ffffff;">
  <h1 style="font-size: 24px; color: #ffffff; text-align: center; margin-bottom: 8px; font-weight: 800;">
    {{.UserName}} didn&rsquo;t check in on {{.MissedDay}}.
  </h1>
  <p style="color: #a1a1aa; line-height: 1.6; text-align: center; margin-bottom: 24px;">
    Hey {{.ContactName}} &mdash; <strong style="color: #ffffff;">{{.UserName}}</strong> uses I&rsquo;m Still Here to prove they&rsquo;re alive every day. They missed their window. You might want to reach out.
  </p>
  <p style="color: #52525b; font-size: 12px; text-align: center;">
    This is an automated alert from <a href="{{.AppURL}}" style="color: #4ade80;">I&rsquo;m Still Here</a>.
    {{.UserName}} added you as an emergency contact.
  </p>
</div>
`

const textBody = `Hey {{.ContactName}},

{{.UserName}} uses I'm Still Here to prove they're alive every day. They missed their check-in window on {{.MissedDay}}. You might want to reach out.

This is an automated alert from I'm Still Here ({{.AppURL}}). {{.UserName}} added you as an emergency contact.
`

const smsBody = `I'm Still Here: {{.UserName}} missed their daily check-in on {{.MissedDay}}. You are their emergency contact, you might want to reach out. {{.AppURL}}`

type templateData struct {
	UserName    string
	ContactName string
	MissedDay   string
	AppURL      string
}

// MessageRenderer renders the alert sent to emergency contacts
type MessageRenderer struct {
	appURL string
	html   *htmltemplate.Template
	text   *texttemplate.Template
	sms    *texttemplate.Template
}

func NewMessageRenderer(appURL string) (*MessageRenderer, error) {
	html, err := htmltemplate.New("html").Parse(htmlBody)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template: %w", err)
	}
	text, err := texttemplate.New("text").Parse(textBody)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	sms, err := texttemplate.New("sms").Parse(smsBody)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sms template: %w", err)
	}

	return &MessageRenderer{
		appURL: appURL,
		html:   html,
		text:   text,
		sms:    sms,
	}, nil
}

func Subject(userName string) string {
	return fmt.Sprintf("%s missed their check-in — are they okay?", userName)
}

func (r *MessageRenderer) Render(alert domain.MissedCheckInAlert) (Message, error) {
	userName := strings.TrimSpace(alert.UserDisplayName)
	if userName == "" {
		userName = "Someone"
	}
	contactName := strings.TrimSpace(alert.ContactName)
	if contactName == "" {
		contactName = "there"
	}

	data := templateData{
		UserName:    userName,
		ContactName: contactName,
		MissedDay:   alert.MissedDay.String(),
		AppURL:      r.appURL,
	}

	var html, text, sms bytes.Buffer
	if err := r.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("%w: failed to render html body: %w", domain.ErrTransport, err)
	}
	if err := r.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("%w: failed to render text body: %w", domain.ErrTransport, err)
	}
	if err := r.sms.Execute(&sms, data); err != nil {
		return Message{}, fmt.Errorf("%w: failed to render sms body: %w", domain.ErrTransport, err)
	}

	return Message{
		Subject: Subject(userName),
		HTML:    html.String(),
		Text:    text.String(),
		SMS:     sms.String(),
	}, nil
}
