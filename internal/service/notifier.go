package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/platform/mailer"
	"github.com/diagnosis/party-hub/internal/platform/push"
	"github.com/diagnosis/party-hub/internal/repo/sqlite"
	"github.com/diagnosis/party-hub/pkg/events"
	"github.com/diagnosis/party-hub/pkg/logger"
	"github.com/diagnosis/party-hub/pkg/metrics"
)

const (
	notifierQueue   = "notifier"
	deliveryTimeout = 30 * time.Second
	maxDeliveries   = 8
)

// Notifier turns party events into web push messages and emails.
type Notifier struct {
	invitations sqlite.InvitationRepo
	pushes      sqlite.PushRepo
	sender      push.Sender
	mail        mailer.Service
	baseURL     string
}

// NewNotifier accepts a nil sender when push is not configured.
func NewNotifier(invitations sqlite.InvitationRepo, pushes sqlite.PushRepo, sender push.Sender, mail mailer.Service, baseURL string) *Notifier {
	return &Notifier{
		invitations: invitations,
		pushes:      pushes,
		sender:      sender,
		mail:        mail,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// Start subscribes the notifier. With NATS, instances share the queue so
// each event is delivered once.
func (n *Notifier) Start(bus events.Subscriber) error {
	subs := map[string]func(*events.Message){
		events.GuestInvited:       n.onGuestInvited,
		events.PartyUpdated:       n.onPartyUpdated,
		events.GuestRegistered:    n.onAudit,
		events.InvitationAnswered: n.onAudit,
	}
	for subject, h := range subs {
		if err := bus.QueueSubscribe(subject, notifierQueue, h); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

func (n *Notifier) onGuestInvited(msg *events.Message) {
	var e events.GuestInvitedEvent
	if err := msg.Decode(&e); err != nil {
		logger.Error("Dropping event", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := n.NotifyInvited(ctx, e); err != nil {
		logger.Error("Invitation notification incomplete", "error", err, "invitation_id", e.InvitationID)
	}
}

func (n *Notifier) onPartyUpdated(msg *events.Message) {
	var e events.PartyUpdatedEvent
	if err := msg.Decode(&e); err != nil {
		logger.Error("Dropping event", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := n.NotifyUpdated(ctx, e); err != nil {
		logger.Error("Update notification incomplete", "error", err, "party_id", e.PartyID)
	}
}

func (n *Notifier) onAudit(msg *events.Message) {
	logger.Info("Event received", "subject", msg.Subject, "id", msg.ID, "data", string(msg.Data))
}

// NotifyInvited tells a freshly invited guest about the party.
func (n *Notifier) NotifyInvited(ctx context.Context, e events.GuestInvitedEvent) error {
	recipients, err := n.invitations.Recipients(ctx, e.PartyID, e.GuestID)
	if err != nil {
		return fmt.Errorf("load recipients: %w", err)
	}
	return n.fanOut(ctx, recipients, func(r domain.Recipient) message {
		return message{
			push:    fmt.Sprintf("You've been invited to %s!", e.PartyName),
			subject: fmt.Sprintf("You've been invited to %s", e.PartyName),
			body: fmt.Sprintf("You've been invited to %s!\n\nView your invitation at: %s",
				e.PartyName, n.invitationURL(r.InvitationID)),
		}
	})
}

// NotifyUpdated sends the changelog to every invited guest.
func (n *Notifier) NotifyUpdated(ctx context.Context, e events.PartyUpdatedEvent) error {
	recipients, err := n.invitations.Recipients(ctx, e.PartyID)
	if err != nil {
		return fmt.Errorf("load recipients: %w", err)
	}
	return n.fanOut(ctx, recipients, func(r domain.Recipient) message {
		return message{
			push:    fmt.Sprintf("Update regarding %s: %s", e.PartyName, e.Changelog),
			subject: fmt.Sprintf("Party Update: %s", e.PartyName),
			body: fmt.Sprintf("%s\n\nView your invitation at: %s",
				e.Changelog, n.invitationURL(r.InvitationID)),
		}
	})
}

type message struct {
	push    string
	subject string
	body    string
}

// fanOut delivers to every device and mailbox of the recipients. A failed
// delivery does not stop the others; the joined errors are returned.
func (n *Notifier) fanOut(ctx context.Context, recipients []domain.Recipient, compose func(domain.Recipient) message) error {
	if len(recipients) == 0 {
		return nil
	}

	byGuest := make(map[string]domain.Recipient, len(recipients))
	ids := make([]string, 0, len(recipients))
	for _, r := range recipients {
		byGuest[r.GuestID] = r
		ids = append(ids, r.GuestID)
	}

	var targets []domain.PushTarget
	if n.sender != nil {
		var err error
		if targets, err = n.pushes.TargetsForGuests(ctx, ids); err != nil {
			logger.ErrorContext(ctx, "Failed to load push targets", "error", err)
		}
	}

	errs := make([]error, len(targets)+len(recipients))
	var g errgroup.Group
	g.SetLimit(maxDeliveries)

	for i, t := range targets {
		r := byGuest[t.GuestID]
		payload := push.Payload{Message: compose(r).push, URL: "/" + r.InvitationID}
		g.Go(func() error {
			errs[i] = n.sendPush(ctx, t, payload)
			return nil
		})
	}
	for i, r := range recipients {
		if strings.TrimSpace(r.Email) == "" {
			continue
		}
		m := compose(r)
		g.Go(func() error {
			errs[len(targets)+i] = n.sendMail(ctx, r, m)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (n *Notifier) sendPush(ctx context.Context, t domain.PushTarget, payload push.Payload) error {
	err := n.sender.Send(ctx, t, payload)
	metrics.RecordNotification("push", err)
	if errors.Is(err, push.ErrGone) {
		logger.InfoContext(ctx, "Removing expired push subscription", "guest_id", t.GuestID)
		if derr := n.pushes.DeleteByEndpoint(ctx, t.Endpoint); derr != nil {
			return fmt.Errorf("delete expired subscription: %w", derr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("push to guest %s: %w", t.GuestID, err)
	}
	return nil
}

func (n *Notifier) sendMail(ctx context.Context, r domain.Recipient, m message) error {
	id, err := n.mail.Send(ctx, r.Email, domain.FullName(r.First, r.Last), m.subject, m.body)
	metrics.RecordNotification("email", err)
	if err != nil {
		return fmt.Errorf("email to guest %s: %w", r.GuestID, err)
	}
	logger.DebugContext(ctx, "Email sent", "guest_id", r.GuestID, "message_id", id, "mode", n.mail.Mode())
	return nil
}

func (n *Notifier) invitationURL(invitationID string) string {
	return n.baseURL + "/" + invitationID
}
