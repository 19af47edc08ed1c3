package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	texttemplate "text/template"

	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/queue"
)

//go:embed templates/*.html templates/*.txt
var templatesFS embed.FS

// Enqueuer hands rendered emails to the background worker.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

type emailTemplate struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

// Mailer renders the portal's transactional emails and queues them for delivery.
type Mailer struct {
	queue     Enqueuer
	baseURL   string
	templates map[string]emailTemplate
	logger    *zap.Logger
}

var subjects = map[string]string{
	models.EmailTypeVerification:             "Verify your email address",
	models.EmailTypePasswordReset:            "Reset your password",
	models.EmailTypeAdminPasswordReset:       "Reset your administrator password",
	models.EmailTypeRegistrationConfirmation: "Webinar registration confirmed",
	models.EmailTypeContactAcknowledgement:   "We received your message",
}

// NewMailer parses the embedded templates. baseURL is the public site root used in links.
func NewMailer(q Enqueuer, baseURL string, logger *zap.Logger) (*Mailer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mailer{queue: q, baseURL: baseURL, templates: make(map[string]emailTemplate), logger: logger}
	for emailType, subject := range subjects {
		html, err := htmltemplate.ParseFS(templatesFS, "templates/layout.html", "templates/"+emailType+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s html: %w", emailType, err)
		}
		text, err := texttemplate.ParseFS(templatesFS, "templates/"+emailType+".txt")
		if err != nil {
			return nil, fmt.Errorf("parse %s text: %w", emailType, err)
		}
		m.templates[emailType] = emailTemplate{subject: subject, html: html, text: text}
	}
	return m, nil
}

// Render produces the payload for emailType without queueing it.
func (m *Mailer) Render(emailType, to, name string, data map[string]any) (queue.EmailPayload, error) {
	tmpl, ok := m.templates[emailType]
	if !ok {
		return queue.EmailPayload{}, fmt.Errorf("unknown email type %q", emailType)
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Name"] = name

	var html, text bytes.Buffer
	if err := tmpl.html.ExecuteTemplate(&html, "layout", data); err != nil {
		return queue.EmailPayload{}, fmt.Errorf("render %s html: %w", emailType, err)
	}
	if err := tmpl.text.Execute(&text, data); err != nil {
		return queue.EmailPayload{}, fmt.Errorf("render %s text: %w", emailType, err)
	}
	return queue.EmailPayload{
		EmailType:      emailType,
		RecipientEmail: to,
		RecipientName:  name,
		Subject:        tmpl.subject,
		BodyHTML:       html.String(),
		BodyText:       text.String(),
	}, nil
}

func (m *Mailer) enqueue(ctx context.Context, emailType, to, name string, data map[string]any) error {
	payload, err := m.Render(emailType, to, name, data)
	if err != nil {
		return err
	}
	if err := m.queue.EnqueueEmail(ctx, payload); err != nil {
		return fmt.Errorf("enqueue %s: %w", emailType, err)
	}
	return nil
}

func (m *Mailer) link(path, token string) string {
	return m.baseURL + path + "?token=" + url.QueryEscape(token)
}

// SendVerification queues the email-verification link.
func (m *Mailer) SendVerification(ctx context.Context, to, name, token string) error {
	return m.enqueue(ctx, models.EmailTypeVerification, to, name, map[string]any{
		"Link": m.link("/verify-email", token),
	})
}

// SendPasswordReset queues the site password-reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return m.enqueue(ctx, models.EmailTypePasswordReset, to, name, map[string]any{
		"Link": m.link("/reset-password", token),
	})
}

// SendAdminPasswordReset queues the admin password-reset link.
func (m *Mailer) SendAdminPasswordReset(ctx context.Context, to, name, token string) error {
	return m.enqueue(ctx, models.EmailTypeAdminPasswordReset, to, name, map[string]any{
		"Link": m.link("/admin/reset-password", token),
	})
}

// SendRegistrationConfirmation queues the confirmation for a webinar registration.
func (m *Mailer) SendRegistrationConfirmation(ctx context.Context, to, name string, w *models.Webinar) error {
	return m.enqueue(ctx, models.EmailTypeRegistrationConfirmation, to, name, map[string]any{
		"WebinarTitle":  w.Title,
		"ScheduledDate": w.ScheduledDate.UTC().Format("Monday, 2 January 2006 15:04 MST"),
		"Duration":      w.DurationMinutes,
		"MeetingURL":    w.MeetingURL,
		"Link":          m.baseURL + "/webinars/" + url.PathEscape(w.Slug),
	})
}

// SendContactAcknowledgement queues the auto-reply to a contact form submission.
func (m *Mailer) SendContactAcknowledgement(ctx context.Context, to, name, subject string) error {
	return m.enqueue(ctx, models.EmailTypeContactAcknowledgement, to, name, map[string]any{
		"Subject": subject,
	})
}
