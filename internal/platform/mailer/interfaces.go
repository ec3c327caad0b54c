package mailer

import "context"

// Service delivers one plain-text email and returns the provider's message
// id when it reports one.
type Service interface {
	Send(ctx context.Context, toEmail, toName, subject, text string) (string, error)
	Mode() string
}
