package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/platform/calendar"
	"github.com/diagnosis/party-hub/internal/repo/sqlite"
	"github.com/diagnosis/party-hub/pkg/config"
	"github.com/diagnosis/party-hub/pkg/events"
	"github.com/diagnosis/party-hub/pkg/logger"
	"github.com/diagnosis/party-hub/pkg/metrics"
)

type InvitationService interface {
	Exists(ctx context.Context, id string) (bool, error)
	Details(ctx context.Context, id string) (*domain.InvitationDetails, error)
	SaveAnswers(ctx context.Context, id string, answers domain.Answers) error
	Calendar(ctx context.Context, id string) (string, error)
}

type invitationService struct {
	invitations sqlite.InvitationRepo
	guests      sqlite.GuestRepo
	parties     sqlite.PartyRepo
	eventBus    events.EventBus
	config      *config.Config
	now         func() time.Time
}

func NewInvitationService(
	invitations sqlite.InvitationRepo,
	guests sqlite.GuestRepo,
	parties sqlite.PartyRepo,
	eventBus events.EventBus,
	config *config.Config,
) InvitationService {
	return &invitationService{
		invitations: invitations,
		guests:      guests,
		parties:     parties,
		eventBus:    eventBus,
		config:      config,
		now:         time.Now,
	}
}

func (s *invitationService) Exists(ctx context.Context, id string) (bool, error) {
	inv, err := s.invitations.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to load invitation: %w", err)
	}
	return inv != nil, nil
}

func (s *invitationService) Details(ctx context.Context, id string) (*domain.InvitationDetails, error) {
	inv, p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := s.guests.Get(ctx, inv.GuestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}
	if g == nil {
		return nil, domain.Errorf(domain.ErrNotFound, "Invitation not found")
	}
	others, err := s.invitations.ListAnswers(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	blocks := p.Blocks()
	viewer := domain.Viewer{InvitationID: inv.ID, Organizer: inv.Organizer}
	return &domain.InvitationDetails{
		Invitation: *inv,
		Guest:      *g,
		Party:      *p,
		Blocks:     blocks,
		Answers:    domain.ParseAnswers(inv.Answers),
		Others:     domain.FilterOtherAnswers(viewer, blocks, others),
		Attending:  domain.CountAttending(others, domain.AttendanceBlockID(blocks), ""),
	}, nil
}

// SaveAnswers replaces the stored answers. Keys that are not blocks of the
// party are dropped. A yes on the attendance block is refused once the
// other confirmed guests fill max_guests.
func (s *invitationService) SaveAnswers(ctx context.Context, id string, answers domain.Answers) error {
	inv, p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if p.Frozen {
		metrics.RecordAnswers("frozen")
		return domain.Errorf(domain.ErrPartyFrozen, "This party is frozen, answers can no longer be changed")
	}
	if p.DeadlinePassed(s.now()) {
		metrics.RecordAnswers("deadline")
		return domain.Errorf(domain.ErrDeadlinePassed, "The response deadline has passed")
	}

	blocks := p.Blocks()
	kept := answers.Keep(domain.BlockIDs(blocks))
	attendanceID := domain.AttendanceBlockID(blocks)
	attending := attendanceID != "" && domain.IsAttending(kept[attendanceID])

	if attending && p.MaxGuests > 0 {
		others, err := s.invitations.ListAnswers(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to load answers: %w", err)
		}
		if domain.CountAttending(others, attendanceID, inv.ID) >= p.MaxGuests {
			metrics.RecordAnswers("full")
			return domain.Errorf(domain.ErrPartyFull, "The party has reached its maximum number of guests")
		}
	}

	ok, err := s.invitations.UpdateAnswers(ctx, inv.ID, kept.Encode())
	if err != nil {
		return fmt.Errorf("failed to save answers: %w", err)
	}
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "Invitation not found")
	}
	metrics.RecordAnswers("saved")

	event := events.InvitationAnsweredEvent{
		PartyID:      p.ID,
		InvitationID: inv.ID,
		Attending:    attending,
		AnsweredAt:   s.now(),
	}
	if err := s.eventBus.Publish(ctx, events.InvitationAnswered, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish invitation answered event", "error", err, "invitation_id", inv.ID)
	}
	return nil
}

// Calendar renders the party of an invitation as an iCalendar document.
// It returns calendar.ErrNoDate when the party date cannot be read.
func (s *invitationService) Calendar(ctx context.Context, id string) (string, error) {
	inv, p, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	return calendar.Event(p, s.config.Web.BaseURL+"/"+inv.ID, time.Local, s.now())
}

func (s *invitationService) load(ctx context.Context, id string) (*domain.Invitation, *domain.Party, error) {
	inv, err := s.invitations.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	if inv == nil {
		return nil, nil, domain.Errorf(domain.ErrNotFound, "Invitation not found")
	}
	p, err := s.parties.Get(ctx, inv.PartyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load party: %w", err)
	}
	if p == nil {
		return nil, nil, domain.Errorf(domain.ErrNotFound, "Invitation not found")
	}
	return inv, p, nil
}
