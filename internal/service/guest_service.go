package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/repo/sqlite"
	"github.com/diagnosis/party-hub/internal/utils"
	"github.com/diagnosis/party-hub/pkg/events"
	"github.com/diagnosis/party-hub/pkg/logger"
)

const msgGuestAccess = "Guest not found or access denied"

type GuestService interface {
	List(ctx context.Context, author string) ([]domain.Guest, error)
	Create(ctx context.Context, author string) (*domain.Guest, error)
	Get(ctx context.Context, id, author string) (*domain.Guest, error)
	Update(ctx context.Context, id, author string, u domain.GuestUpdate) (*domain.Guest, error)
	Delete(ctx context.Context, id, author string) error
	Register(ctx context.Context, partyID string, reg domain.PublicRegistration) (*domain.Invitation, error)
}

type guestService struct {
	guests   sqlite.GuestRepo
	parties  sqlite.PartyRepo
	eventBus events.EventBus
}

func NewGuestService(guests sqlite.GuestRepo, parties sqlite.PartyRepo, eventBus events.EventBus) GuestService {
	return &guestService{
		guests:   guests,
		parties:  parties,
		eventBus: eventBus,
	}
}

func (s *guestService) List(ctx context.Context, author string) ([]domain.Guest, error) {
	guests, err := s.guests.ListByAuthor(ctx, author)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	return guests, nil
}

func (s *guestService) Create(ctx context.Context, author string) (*domain.Guest, error) {
	g := domain.NewGuest(uuid.NewString(), author)
	if err := s.guests.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to create guest: %w", err)
	}
	return g, nil
}

func (s *guestService) Get(ctx context.Context, id, author string) (*domain.Guest, error) {
	g, err := s.guests.GetOwned(ctx, id, author)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}
	if g == nil {
		return nil, domain.Errorf(domain.ErrNotFound, msgGuestAccess)
	}
	return g, nil
}

func (s *guestService) Update(ctx context.Context, id, author string, u domain.GuestUpdate) (*domain.Guest, error) {
	email := utils.NormalizeEmail(u.Email)
	if email != "" && !utils.IsValidEmail(email) {
		return nil, domain.Errorf(domain.ErrInvalidInput, "Invalid email address")
	}

	g := &domain.Guest{
		ID:         id,
		Salutation: utils.NormalizeString(u.Salutation),
		First:      utils.NormalizeString(u.First),
		Last:       utils.NormalizeString(u.Last),
		Email:      email,
		Note:       u.Note,
		Author:     author,
	}
	ok, err := s.guests.Update(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("failed to update guest: %w", err)
	}
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, msgGuestAccess)
	}
	// Reload so fields the update does not touch (selfcreated) are current.
	return s.Get(ctx, id, author)
}

// Delete removes the guest with its invitations and device links.
func (s *guestService) Delete(ctx context.Context, id, author string) error {
	ok, err := s.guests.Delete(ctx, id, author)
	if err != nil {
		return fmt.Errorf("failed to delete guest: %w", err)
	}
	if !ok {
		return domain.Errorf(domain.ErrNotFound, msgGuestAccess)
	}
	return nil
}

// Register signs someone up for a public party. The new guest belongs to the
// party's author and is invited in the same transaction.
func (s *guestService) Register(ctx context.Context, partyID string, reg domain.PublicRegistration) (*domain.Invitation, error) {
	p, err := s.parties.Get(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load party: %w", err)
	}
	if p == nil || !p.Public {
		return nil, domain.Errorf(domain.ErrNotFound, "Party not found")
	}

	first, last := utils.NormalizeString(reg.First), utils.NormalizeString(reg.Last)
	if first == "" && last == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "First or last name is required")
	}
	email := utils.NormalizeEmail(reg.Email)
	if !utils.IsValidEmail(email) {
		return nil, domain.Errorf(domain.ErrInvalidInput, "Invalid email address")
	}

	g := &domain.Guest{
		ID:          uuid.NewString(),
		Salutation:  utils.NormalizeString(reg.Salutation),
		First:       first,
		Last:        last,
		Email:       email,
		Author:      p.Author,
		SelfCreated: true,
	}
	inv := &domain.Invitation{
		ID:      uuid.NewString(),
		GuestID: g.ID,
		PartyID: p.ID,
		Answers: "{}",
	}
	if err := s.guests.CreateWithInvitation(ctx, g, inv); err != nil {
		return nil, fmt.Errorf("failed to register guest: %w", err)
	}

	event := events.GuestRegisteredEvent{
		PartyID:      p.ID,
		GuestID:      g.ID,
		InvitationID: inv.ID,
		RegisteredAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.GuestRegistered, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish guest registered event", "error", err, "invitation_id", inv.ID)
	}
	return inv, nil
}
