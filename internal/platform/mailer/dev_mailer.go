package mailer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diagnosis/party-hub/pkg/logger"
)

// DevMailer prints mails instead of sending them.
type DevMailer struct {
	out io.Writer
}

func NewDevMailer() *DevMailer {
	return &DevMailer{out: os.Stdout}
}

func (d *DevMailer) Mode() string { return "dev" }

func (d *DevMailer) Send(ctx context.Context, toEmail, toName, subject, text string) (string, error) {
	logger.InfoContext(ctx, "📧 [DEV MAIL] Email",
		"to", toEmail,
		"name", toName,
		"subject", subject,
	)

	fmt.Fprintf(d.out, "\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 EMAIL (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s (%s)\n"+
		"Subject: %s\n"+
		"\n"+
		"%s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, toName, subject, text)

	return "", nil
}
