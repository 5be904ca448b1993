// Package email sends the few transactional messages Argus needs (sign-in links).
package email

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Sender interface {
	Send(to, subject, html string) error
}

// StdoutSender logs messages instead of delivering them. Used when SMTP is not configured.
type StdoutSender struct {
	Log zerolog.Logger
}

func (s StdoutSender) Send(to, subject, html string) error {
	s.Log.Info().Str("to", to).Str("subject", subject).Msg(html)
	return nil
}

// SMTPSender delivers HTML mail through a plain SMTP relay (MailHog in development).
type SMTPSender struct {
	Addr string
	From string
	Auth smtp.Auth

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

func NewSMTPSender(addr, from string) *SMTPSender {
	if addr == "" {
		addr = "localhost:1025"
	}
	if from == "" {
		from = "no-reply@argus.local"
	}
	return &SMTPSender{Addr: addr, From: from, send: smtp.SendMail, now: time.Now}
}

var ErrNoRecipient = errors.New("email: recipient required")

func (s *SMTPSender) Send(to, subject, html string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrNoRecipient
	}
	if strings.ContainsAny(to+subject, "\r\n") {
		return errors.New("email: header values must not contain newlines")
	}
	if err := s.send(s.Addr, s.Auth, s.From, []string{to}, s.message(to, subject, html)); err != nil {
		return fmt.Errorf("email: send to %s: %w", to, err)
	}
	return nil
}

func (s *SMTPSender) message(to, subject, html string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
