package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"go.uber.org/zap"
)

// MailSender sends a single email. Implemented by SMTPSender; tests use a
// fake.
type MailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Email delivers events as formatted alert mails. When no Sender is
// configured the notification degrades to a logged warning instead of an
// error: a dashboard without SMTP credentials is a supported setup.
type Email struct {
	To     string
	Sender MailSender
	AppURL string
	Log    *zap.Logger
}

// Notify formats and sends the alert mail.
func (e *Email) Notify(ctx context.Context, ev Event) error {
	if e.Sender == nil {
		e.Log.Warn("email notification skipped, no outbound mail configured",
			zap.String("to", e.To), zap.Int("monitor_id", ev.MonitorID))
		return nil
	}

	subject := fmt.Sprintf("[Pulseboard] %s is %s", ev.MonitorName, ev.Type)

	code := "none"
	if ev.Code != 0 {
		code = fmt.Sprintf("%d", ev.Code)
	}
	body := fmt.Sprintf(
		`<h2>%s is %s</h2>
<p>URL: %s<br>
Time: %s<br>
Response code: %s</p>
<p><a href="%s/monitors/%d">View monitor</a></p>`,
		ev.MonitorName, ev.Type,
		ev.MonitorURL,
		ev.Timestamp.Format(time.RFC3339),
		code,
		e.AppURL, ev.MonitorID,
	)

	return e.Sender.Send(ctx, e.To, subject, body)
}

// SMTPSender sends mail over plain SMTP with optional auth.
type SMTPSender struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

// NewSMTPSender creates an SMTPSender. Username and password may be empty
// for unauthenticated relays.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: auth,
	}
}

// Send sends one HTML email.
func (s *SMTPSender) Send(_ context.Context, to, subject, htmlBody string) error {
	msg := "From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		htmlBody + "\r\n"

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
