package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/diagnosis/party-hub/pkg/logger"
)

// DirectMailer delivers straight to the recipient domain's MX hosts on port
// 25, trying them in preference order. STARTTLS is used when the server
// offers it.
type DirectMailer struct {
	from      string
	fromName  string
	localName string

	lookupMX func(ctx context.Context, domain string) ([]*net.MX, error)
	send     func(d *gomail.Dialer, m *gomail.Message) error
}

func NewDirectMailer(from, fromName string) *DirectMailer {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = domainOf(from)
	}
	return &DirectMailer{
		from:      strings.TrimSpace(from),
		fromName:  fromName,
		localName: host,
		lookupMX:  net.DefaultResolver.LookupMX,
		send: func(d *gomail.Dialer, m *gomail.Message) error {
			return d.DialAndSend(m)
		},
	}
}

func (d *DirectMailer) Mode() string { return "direct" }

func (d *DirectMailer) Send(ctx context.Context, toEmail, toName, subject, text string) (string, error) {
	msg, id, err := newMessage(d.from, d.fromName, toEmail, toName, subject, text)
	if err != nil {
		return "", err
	}

	rcptDomain := domainOf(strings.TrimSpace(toEmail))
	hosts, err := d.mxHosts(ctx, rcptDomain)
	if err != nil {
		return "", err
	}

	var errs []error
	for _, host := range hosts {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		dialer := &gomail.Dialer{
			Host:      host,
			Port:      25,
			LocalName: d.localName,
			TLSConfig: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12},
		}
		if err := d.send(dialer, msg); err != nil {
			logger.WarnContext(ctx, "MX delivery failed", "mx", host, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("direct delivery to %s failed: %w", rcptDomain, errors.Join(errs...))
}

// mxHosts returns MX targets by ascending preference. A domain without MX
// records is its own mail host.
func (d *DirectMailer) mxHosts(ctx context.Context, domain string) ([]string, error) {
	records, err := d.lookupMX(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return []string{domain}, nil
		}
		return nil, fmt.Errorf("lookup MX for %s: %w", domain, err)
	}
	if len(records) == 0 {
		return []string{domain}, nil
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })
	hosts := make([]string, 0, len(records))
	for _, mx := range records {
		hosts = append(hosts, strings.TrimSuffix(mx.Host, "."))
	}
	return hosts, nil
}
