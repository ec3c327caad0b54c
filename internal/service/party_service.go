package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/repo/sqlite"
	"github.com/diagnosis/party-hub/pkg/events"
	"github.com/diagnosis/party-hub/pkg/logger"
)

const (
	msgPartyAccess      = "Party not found or access denied"
	msgGuestNotYours    = "Guest not found or does not belong to you"
	msgAlreadyInvited   = "Guest is already invited to this party"
	msgInvitationAbsent = "Guest invitation not found"
)

type PartyService interface {
	Create(ctx context.Context, author string) (*domain.Party, error)
	List(ctx context.Context, author string) ([]domain.Party, error)
	Details(ctx context.Context, id, author string) (*domain.Party, []domain.PartyGuest, error)
	Update(ctx context.Context, id, author string, u domain.PartyUpdate) (*domain.Party, error)
	Delete(ctx context.Context, id, author string) error
	AddGuest(ctx context.Context, partyID, guestID, author string) (*domain.Invitation, error)
	RemoveGuest(ctx context.Context, partyID, guestID, author string) error
	SetOrganizer(ctx context.Context, partyID, guestID, author string, organizer bool) error
	PublicParty(ctx context.Context, id string) (*domain.Party, error)
}

type partyService struct {
	parties     sqlite.PartyRepo
	guests      sqlite.GuestRepo
	invitations sqlite.InvitationRepo
	eventBus    events.EventBus
}

func NewPartyService(
	parties sqlite.PartyRepo,
	guests sqlite.GuestRepo,
	invitations sqlite.InvitationRepo,
	eventBus events.EventBus,
) PartyService {
	return &partyService{
		parties:     parties,
		guests:      guests,
		invitations: invitations,
		eventBus:    eventBus,
	}
}

func (s *partyService) Create(ctx context.Context, author string) (*domain.Party, error) {
	p := domain.NewParty(uuid.NewString(), author)
	if err := s.parties.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create party: %w", err)
	}
	logger.InfoContext(ctx, "Party created", "party_id", p.ID)
	return p, nil
}

func (s *partyService) List(ctx context.Context, author string) ([]domain.Party, error) {
	parties, err := s.parties.ListByAuthor(ctx, author)
	if err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	return parties, nil
}

func (s *partyService) Details(ctx context.Context, id, author string) (*domain.Party, []domain.PartyGuest, error) {
	p, err := s.parties.GetOwned(ctx, id, author)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load party: %w", err)
	}
	if p == nil {
		return nil, nil, domain.Errorf(domain.ErrNotFound, msgPartyAccess)
	}
	guests, err := s.parties.Guests(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load party guests: %w", err)
	}
	return p, guests, nil
}

// Update applies the fields present in u. A non-empty changelog is
// broadcast to every invited guest once the row is saved.
func (s *partyService) Update(ctx context.Context, id, author string, u domain.PartyUpdate) (*domain.Party, error) {
	p, err := s.owned(ctx, id, author)
	if err != nil {
		return nil, err
	}

	if u.InvitationBlocks != nil {
		blocks, err := domain.ValidateBlocks(*u.InvitationBlocks)
		if err != nil {
			return nil, err
		}
		p.InvitationBlocks = domain.EncodeBlocks(blocks)
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		p.Name = name
	}
	if u.Date != nil {
		p.Date = strings.TrimSpace(*u.Date)
	}
	if u.Duration != nil {
		if *u.Duration < 0 {
			return nil, domain.Errorf(domain.ErrInvalidInput, "Duration must not be negative")
		}
		p.Duration = *u.Duration
	}
	if u.Location != nil {
		p.Location = strings.TrimSpace(*u.Location)
	}
	if u.RespondUntil != nil {
		p.RespondUntil = strings.TrimSpace(*u.RespondUntil)
	}
	if u.Frozen != nil {
		p.Frozen = *u.Frozen
	}
	if u.Public != nil {
		p.Public = *u.Public
	}
	if u.MaxGuests != nil {
		if *u.MaxGuests < 0 {
			return nil, domain.Errorf(domain.ErrInvalidInput, "max_guests must not be negative")
		}
		p.MaxGuests = *u.MaxGuests
	}
	p.HasRSVPBlock = domain.AttendanceBlockID(p.Blocks()) != ""

	ok, err := s.parties.Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to update party: %w", err)
	}
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "Party not found")
	}

	if changelog := u.TrimChangelog(); changelog != "" {
		event := events.PartyUpdatedEvent{
			PartyID:   p.ID,
			PartyName: p.Name,
			Changelog: changelog,
			UpdatedAt: time.Now(),
		}
		if err := s.eventBus.Publish(ctx, events.PartyUpdated, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish party updated event", "error", err, "party_id", p.ID)
		}
	}
	return p, nil
}

func (s *partyService) Delete(ctx context.Context, id, author string) error {
	ok, err := s.parties.Delete(ctx, id, author)
	if err != nil {
		return fmt.Errorf("failed to delete party: %w", err)
	}
	if !ok {
		return domain.Errorf(domain.ErrForbidden, msgPartyAccess)
	}
	logger.InfoContext(ctx, "Party deleted", "party_id", id)
	return nil
}

func (s *partyService) AddGuest(ctx context.Context, partyID, guestID, author string) (*domain.Invitation, error) {
	p, err := s.owned(ctx, partyID, author)
	if err != nil {
		return nil, err
	}
	g, err := s.guests.GetOwned(ctx, guestID, author)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}
	if g == nil {
		return nil, domain.Errorf(domain.ErrNotFound, msgGuestNotYours)
	}

	existing, err := s.invitations.FindByGuestAndParty(ctx, g.ID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}
	if existing != nil {
		return nil, domain.Errorf(domain.ErrAlreadyInvited, msgAlreadyInvited)
	}

	inv := &domain.Invitation{
		ID:      uuid.NewString(),
		GuestID: g.ID,
		PartyID: p.ID,
		Answers: "{}",
	}
	// The unique index still catches a concurrent add.
	if err := s.invitations.Create(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrAlreadyInvited) {
			return nil, domain.Errorf(domain.ErrAlreadyInvited, msgAlreadyInvited)
		}
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	event := events.GuestInvitedEvent{
		PartyID:      p.ID,
		PartyName:    p.Name,
		GuestID:      g.ID,
		InvitationID: inv.ID,
		InvitedAt:    time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.GuestInvited, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish guest invited event", "error", err, "invitation_id", inv.ID)
	}
	return inv, nil
}

func (s *partyService) RemoveGuest(ctx context.Context, partyID, guestID, author string) error {
	if err := s.checkOwner(ctx, partyID, author); err != nil {
		return err
	}
	ok, err := s.invitations.Remove(ctx, partyID, guestID)
	if err != nil {
		return fmt.Errorf("failed to remove invitation: %w", err)
	}
	if !ok {
		return domain.Errorf(domain.ErrNotFound, msgInvitationAbsent)
	}
	return nil
}

func (s *partyService) SetOrganizer(ctx context.Context, partyID, guestID, author string, organizer bool) error {
	if err := s.checkOwner(ctx, partyID, author); err != nil {
		return err
	}
	ok, err := s.invitations.SetOrganizer(ctx, partyID, guestID, organizer)
	if err != nil {
		return fmt.Errorf("failed to update organizer flag: %w", err)
	}
	if !ok {
		return domain.Errorf(domain.ErrNotFound, msgInvitationAbsent)
	}
	return nil
}

// PublicParty returns a party open for self-registration.
func (s *partyService) PublicParty(ctx context.Context, id string) (*domain.Party, error) {
	p, err := s.parties.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load party: %w", err)
	}
	if p == nil || !p.Public {
		return nil, domain.Errorf(domain.ErrNotFound, "Party not found")
	}
	return p, nil
}

// owned loads a party the author may modify. Foreign and missing parties are
// indistinguishable to the caller.
func (s *partyService) owned(ctx context.Context, id, author string) (*domain.Party, error) {
	p, err := s.parties.GetOwned(ctx, id, author)
	if err != nil {
		return nil, fmt.Errorf("failed to load party: %w", err)
	}
	if p == nil {
		return nil, domain.Errorf(domain.ErrForbidden, msgPartyAccess)
	}
	return p, nil
}

func (s *partyService) checkOwner(ctx context.Context, id, author string) error {
	ok, err := s.parties.IsOwner(ctx, id, author)
	if err != nil {
		return fmt.Errorf("failed to check party owner: %w", err)
	}
	if !ok {
		return domain.Errorf(domain.ErrForbidden, msgPartyAccess)
	}
	return nil
}
