package mailer

import (
	"time"

	"github.com/diagnosis/party-hub/pkg/config"
	"github.com/diagnosis/party-hub/pkg/logger"
)

var now = time.Now

// New picks the delivery mode from the mail configuration. A forced mode
// is honoured even when incomplete; the warning tells operators why mails
// will fail.
func New(cfg config.EmailConfig) Service {
	mode := cfg.Mode()
	if cfg.SendType != "" && mode != cfg.SendType {
		logger.Warn("Unknown MAIL_SENDTYPE, using auto-detected mode", "requested", cfg.SendType, "using", mode)
	}
	if !configured(cfg, mode) {
		logger.Warn("Mail mode is not fully configured", "mode", mode)
	}

	switch mode {
	case config.MailClient:
		logger.Info("Email via SMTP relay", "server", cfg.SMTPServer, "port", cfg.SMTPPort, "from", cfg.SMTPFrom)
		return NewSMTPMailer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.FromName)
	case config.MailAPI:
		logger.Info("Email via MailerSend API", "from", cfg.SMTPFrom)
		return NewAPIMailer(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	case config.MailDirect:
		logger.Info("Email via direct MX delivery", "from", cfg.SMTPFrom)
		return NewDirectMailer(cfg.SMTPFrom, cfg.FromName)
	default:
		if cfg.SendType != config.MailDev {
			logger.Warn("Email is not configured, mails are only logged")
		}
		return NewDevMailer()
	}
}

func configured(cfg config.EmailConfig, mode string) bool {
	switch mode {
	case config.MailClient:
		return cfg.SMTPClientConfigured()
	case config.MailAPI:
		return cfg.APIConfigured()
	case config.MailDirect:
		return cfg.DirectConfigured()
	}
	return true
}
