package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/party-hub/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v interface{}) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s event: %w", m.Subject, err)
	}
	return nil
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("party-hub"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(wrap(msg.Subject, msg.Data))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(wrap(msg.Subject, msg.Data))
	})
	return err
}

// Close drains pending deliveries before closing the connection.
func (n *NATSEventBus) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

func wrap(subject string, data []byte) *Message {
	now := time.Now()
	return &Message{
		Subject:   subject,
		Data:      data,
		Timestamp: now,
		ID:        fmt.Sprintf("%d", now.UnixNano()),
	}
}

// Event subjects
const (
	GuestInvited       = "party.guest_invited"
	PartyUpdated       = "party.updated"
	GuestRegistered    = "party.guest_registered"
	InvitationAnswered = "invitation.answered"
)

// Event payloads
type GuestInvitedEvent struct {
	PartyID      string    `json:"party_id"`
	PartyName    string    `json:"party_name"`
	GuestID      string    `json:"guest_id"`
	InvitationID string    `json:"invitation_id"`
	InvitedAt    time.Time `json:"invited_at"`
}

type PartyUpdatedEvent struct {
	PartyID   string    `json:"party_id"`
	PartyName string    `json:"party_name"`
	Changelog string    `json:"changelog"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GuestRegisteredEvent struct {
	PartyID      string    `json:"party_id"`
	GuestID      string    `json:"guest_id"`
	InvitationID string    `json:"invitation_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

type InvitationAnsweredEvent struct {
	PartyID      string    `json:"party_id"`
	InvitationID string    `json:"invitation_id"`
	Attending    bool      `json:"attending"`
	AnsweredAt   time.Time `json:"answered_at"`
}
