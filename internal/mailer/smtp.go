package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const sendTimeout = 10 * time.Second

// SMTPSender delivers mail over plain SMTP.
type SMTPSender struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

func NewSMTPSender(addr, from, username, password string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		auth = smtp.PlainAuth("", username, password, host)
	}

	return &SMTPSender{addr: addr, from: from, auth: auth}
}

func (s *SMTPSender) Send(_ context.Context, m Message) error {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + m.To + "\r\n")
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.Body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{m.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("mailer.SMTPSender.Send: %w", err)
	}

	return nil
}

// LogSender writes mail to the log instead of delivering it. Used when no
// SMTP host is configured, typically in development.
type LogSender struct{}

func (LogSender) Send(_ context.Context, m Message) error {
	log.Info().Str("to", m.To).Str("subject", m.Subject).Msg("mailer: delivery disabled, logging message")
	return nil
}
