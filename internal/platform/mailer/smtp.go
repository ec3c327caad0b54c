package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPMailer relays through an authenticated SMTP server. Port 465 uses
// implicit TLS, anything else STARTTLS when offered.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPMailer(host string, port int, user, pass, from, fromName string) *SMTPMailer {
	d := gomail.NewDialer(strings.TrimSpace(host), port, strings.TrimSpace(user), pass)
	d.SSL = port == 465
	d.TLSConfig = &tls.Config{ServerName: d.Host, MinVersion: tls.VersionTLS12}
	return &SMTPMailer{dialer: d, from: strings.TrimSpace(from), fromName: fromName}
}

func (s *SMTPMailer) Mode() string { return "client" }

func (s *SMTPMailer) Send(ctx context.Context, toEmail, toName, subject, text string) (string, error) {
	msg, id, err := newMessage(s.from, s.fromName, toEmail, toName, subject, text)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.dialer.DialAndSend(msg); err != nil {
		return "", fmt.Errorf("smtp send via %s: %w", s.dialer.Host, err)
	}
	return id, nil
}

// newMessage builds a plain-text message with its own Message-ID.
func newMessage(from, fromName, toEmail, toName, subject, text string) (*gomail.Message, string, error) {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return nil, "", fmt.Errorf("empty recipient email")
	}

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(from))

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, fromName)
	m.SetAddressHeader("To", toEmail, toName)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", id)
	m.SetDateHeader("Date", now())
	m.SetBody("text/plain", text)
	return m, id, nil
}

func domainOf(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 && i < len(email)-1 {
		return strings.ToLower(email[i+1:])
	}
	return "localhost"
}
