package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/platform/push"
	"github.com/diagnosis/party-hub/internal/repo/sqlite"
)

type NotificationService interface {
	// PublicKey returns push.ErrNotConfigured when web push is off.
	PublicKey() (string, error)
	Subscribe(ctx context.Context, guestID string, sub domain.PushSubscription) error
	Associate(ctx context.Context, guestID, endpoint string) error
}

type notificationService struct {
	guests sqlite.GuestRepo
	pushes sqlite.PushRepo
	sender push.Sender
}

// NewNotificationService accepts a nil sender when push is not configured.
func NewNotificationService(guests sqlite.GuestRepo, pushes sqlite.PushRepo, sender push.Sender) NotificationService {
	return &notificationService{guests: guests, pushes: pushes, sender: sender}
}

func (s *notificationService) PublicKey() (string, error) {
	if s.sender == nil {
		return "", push.ErrNotConfigured
	}
	return s.sender.PublicKey(), nil
}

func (s *notificationService) Subscribe(ctx context.Context, guestID string, sub domain.PushSubscription) error {
	sub.Endpoint = strings.TrimSpace(sub.Endpoint)
	if sub.Endpoint == "" || sub.P256dh == "" || sub.Auth == "" {
		return domain.Errorf(domain.ErrInvalidInput, "endpoint, p256dh and auth are required")
	}
	if err := s.guestExists(ctx, guestID); err != nil {
		return err
	}

	id, err := s.pushes.Upsert(ctx, sub.Endpoint, sub.P256dh, sub.Auth)
	if err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}
	if err := s.pushes.Link(ctx, guestID, id); err != nil {
		return fmt.Errorf("failed to link subscription: %w", err)
	}
	return nil
}

// Associate links a device that already subscribed for another guest.
func (s *notificationService) Associate(ctx context.Context, guestID, endpoint string) error {
	if err := s.guestExists(ctx, guestID); err != nil {
		return err
	}
	sub, err := s.pushes.FindByEndpoint(ctx, strings.TrimSpace(endpoint))
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return domain.Errorf(domain.ErrNotFound, "Subscription not found")
	}
	if err := s.pushes.Link(ctx, guestID, sub.ID); err != nil {
		return fmt.Errorf("failed to link subscription: %w", err)
	}
	return nil
}

func (s *notificationService) guestExists(ctx context.Context, guestID string) error {
	g, err := s.guests.Get(ctx, guestID)
	if err != nil {
		return fmt.Errorf("failed to load guest: %w", err)
	}
	if g == nil {
		return domain.Errorf(domain.ErrNotFound, "Guest not found")
	}
	return nil
}
