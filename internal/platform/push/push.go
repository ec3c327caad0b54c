package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/pkg/config"
	"github.com/diagnosis/party-hub/pkg/logger"
)

var (
	// ErrNotConfigured is returned when no VAPID key pair is available.
	ErrNotConfigured = errors.New("web push is not configured")
	// ErrGone means the push service no longer knows the subscription.
	ErrGone = errors.New("push subscription expired")
)

// Payload is what the service worker receives.
type Payload struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

type Sender interface {
	PublicKey() string
	Send(ctx context.Context, target domain.PushTarget, payload Payload) error
}

type WebPushSender struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
	client     webpush.HTTPClient
}

// Keys resolves the VAPID pair from the environment values or, failing
// that, from the key files. Both hold URL-safe base64 keys.
func Keys(cfg config.PushConfig) (public, private string, err error) {
	public, private = strings.TrimSpace(cfg.PublicKey), strings.TrimSpace(cfg.PrivateKey)
	if public == "" && cfg.PublicKeyFile != "" {
		if public, err = readKey(cfg.PublicKeyFile); err != nil {
			return "", "", err
		}
	}
	if private == "" && cfg.PrivateKeyFile != "" {
		if private, err = readKey(cfg.PrivateKeyFile); err != nil {
			return "", "", err
		}
	}
	if public == "" || private == "" {
		return "", "", ErrNotConfigured
	}
	return public, private, nil
}

func readKey(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read VAPID key %s: %w", path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// New returns ErrNotConfigured when no key pair can be found.
func New(cfg config.PushConfig) (*WebPushSender, error) {
	public, private, err := Keys(cfg)
	if err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 86400
	}
	return &WebPushSender{
		publicKey:  public,
		privateKey: private,
		subject:    cfg.Subject,
		ttl:        ttl,
		client:     &http.Client{},
	}, nil
}

func (s *WebPushSender) PublicKey() string { return s.publicKey }

func (s *WebPushSender) Send(ctx context.Context, target domain.PushTarget, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	sub := &webpush.Subscription{
		Endpoint: target.Endpoint,
		Keys: webpush.Keys{
			P256dh: target.P256dh,
			Auth:   target.Auth,
		},
	}
	resp, err := webpush.SendNotificationWithContext(ctx, body, sub, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttl,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("web push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrGone
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("web push: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	logger.DebugContext(ctx, "Push delivered", "guest_id", target.GuestID, "status", resp.StatusCode)
	return nil
}

// GenerateKeys creates a VAPID pair as (public, private).
func GenerateKeys() (string, string, error) {
	private, public, err := webpush.GenerateVAPIDKeys()
	return public, private, err
}
