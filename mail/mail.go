// Package mail delivers verification messages.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/lborres/docauth/core"
)

const (
	subject  = "Sign in to your account"
	boundary = "==DocauthVerificationBoundary=="
)

// SMTPConfig holds SMTP settings. The env tags are read with
// github.com/caarlos0/env/v11.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT"      envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	FromName string `env:"SMTP_FROM_NAME"`
}

// Validate reports every missing required field.
func (cfg SMTPConfig) Validate() error {
	var missing []string
	if cfg.Host == "" {
		missing = append(missing, "Host")
	}
	if cfg.Port == 0 {
		missing = append(missing, "Port")
	}
	if cfg.From == "" {
		missing = append(missing, "From")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing SMTP configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends verification links as multipart text and HTML mail.
type SMTPSender struct {
	cfg  SMTPConfig
	send sendFunc
}

var _ core.VerificationSender = (*SMTPSender)(nil)

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

func (s *SMTPSender) SendVerificationRequest(ctx context.Context, msg core.VerificationMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := s.buildMessage(msg)
	if err != nil {
		return fmt.Errorf("build email: %w", err)
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.From, []string{msg.Identifier}, body); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) buildMessage(msg core.VerificationMessage) ([]byte, error) {
	html, err := htmlBody(msg)
	if err != nil {
		return nil, err
	}

	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.Identifier)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	writePart(&buf, "text/plain", textBody(msg))
	writePart(&buf, "text/html", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes(), nil
}

func writePart(buf *bytes.Buffer, contentType, body string) {
	fmt.Fprintf(buf, "--%s\r\n", boundary)
	fmt.Fprintf(buf, "Content-Type: %s; charset=\"UTF-8\"\r\n", contentType)
	buf.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")
}

func expiry(msg core.VerificationMessage) string {
	return msg.ExpiresAt.UTC().Format(time.RFC1123)
}

func textBody(msg core.VerificationMessage) string {
	return fmt.Sprintf(`%s

Open the link below to sign in. It expires %s.

%s

If you did not request this email, you can ignore it.
`, subject, expiry(msg), msg.URL)
}

var htmlTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Subject}}</title></head>
<body style="font-family: sans-serif; background-color: #f8fafc;">
  <h1 style="font-size: 20px;">{{.Subject}}</h1>
  <p>Click the button below to sign in. This link expires <strong>{{.Expires}}</strong>.</p>
  <p><a href="{{.URL}}" style="padding: 12px 24px; background-color: #3b82f6; color: #ffffff; text-decoration: none;">Sign in</a></p>
  <p style="font-size: 12px; color: #94a3b8;">If the button does not work, paste this link into your browser:<br>{{.URL}}</p>
  <p style="font-size: 12px; color: #94a3b8;">If you did not request this email, you can ignore it.</p>
</body>
</html>`))

func htmlBody(msg core.VerificationMessage) (string, error) {
	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, map[string]any{
		"Subject": subject,
		"Expires": expiry(msg),
		"URL":     msg.URL,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LogSender writes the verification link to a logger instead of sending it.
// The link carries the raw token, so it is meant for local development only.
type LogSender struct {
	logger *slog.Logger
}

var _ core.VerificationSender = (*LogSender)(nil)

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (l *LogSender) SendVerificationRequest(ctx context.Context, msg core.VerificationMessage) error {
	l.logger.InfoContext(ctx, "verification link",
		slog.String("identifier", msg.Identifier),
		slog.String("url", msg.URL),
		slog.Time("expires", msg.ExpiresAt),
	)
	return nil
}
