// Package notifier implements the outbound collaborators that act on a triage
// decision: SMTP email for MEDIUM events and Autotask tickets for HIGH ones.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/pkg/config"
)

const (
	msgEmailDisabled      = "Email disabled"
	msgEmailNotConfigured = "Email not configured"
	msgEmailSent          = "sent"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends plain-text mail through an SMTP relay, upgrading to TLS
// when the server offers STARTTLS.
type EmailNotifier struct {
	cfg    config.EmailConfig
	send   sendMailFunc
	now    func() time.Time
	logger *slog.Logger
}

// NewEmailNotifier creates a notifier that sends through cfg's SMTP relay.
func NewEmailNotifier(cfg config.EmailConfig, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		send:   smtp.SendMail,
		now:    time.Now,
		logger: logger.With("component", "email_notifier"),
	}
}

// SendEmail delivers subject and body to every configured recipient. Failures
// are reported in the returned status, never as a Go error.
func (n *EmailNotifier) SendEmail(ctx context.Context, subject, body string) domain.ActionStatus {
	if !n.cfg.Enabled {
		return domain.ActionStatus{OK: false, Message: msgEmailDisabled}
	}
	if n.cfg.SMTPHost == "" || n.cfg.From == "" || len(n.cfg.To) == 0 {
		return domain.ActionStatus{OK: false, Message: msgEmailNotConfigured}
	}

	var auth smtp.Auth
	if n.cfg.Username != "" && n.cfg.Password != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPHost)
	}
	addr := net.JoinHostPort(n.cfg.SMTPHost, strconv.Itoa(n.cfg.SMTPPort))
	msg := n.compose(subject, body)

	// net/smtp has no context support; give up waiting when ctx ends.
	done := make(chan error, 1)
	go func() {
		done <- n.send(addr, auth, n.cfg.From, n.cfg.To, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			n.logger.Error("failed to send email", "error", err, "smtp_host", n.cfg.SMTPHost)
			return domain.ActionStatus{OK: false, Message: err.Error()}
		}
	case <-ctx.Done():
		return domain.ActionStatus{OK: false, Message: fmt.Sprintf("email aborted: %v", ctx.Err())}
	}

	n.logger.Info("email sent", "recipients", len(n.cfg.To))
	return domain.ActionStatus{OK: true, Message: msgEmailSent}
}

func (n *EmailNotifier) compose(subject, body string) []byte {
	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	header("From", n.cfg.From)
	header("To", strings.Join(n.cfg.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", n.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	body = strings.ReplaceAll(body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}
