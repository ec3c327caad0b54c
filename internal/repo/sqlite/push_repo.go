package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/diagnosis/party-hub/internal/domain"
)

type PushRepo interface {
	Upsert(ctx context.Context, endpoint, p256dh, auth string) (string, error)
	FindByEndpoint(ctx context.Context, endpoint string) (*domain.PushSubscription, error)
	Link(ctx context.Context, guestID, subscriptionID string) error
	TargetsForGuests(ctx context.Context, guestIDs []string) ([]domain.PushTarget, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

type PushRepoImpl struct{ db *sqlx.DB }

func NewPushRepo(db *sqlx.DB) *PushRepoImpl { return &PushRepoImpl{db: db} }

// Upsert stores a device subscription keyed by endpoint and returns its id.
// Re-subscribing a known endpoint refreshes its keys.
func (r *PushRepoImpl) Upsert(ctx context.Context, endpoint, p256dh, auth string) (string, error) {
	const q = `INSERT INTO web_push_subscriptions (id, endpoint, p256dh, auth)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(endpoint) DO UPDATE SET p256dh = excluded.p256dh, auth = excluded.auth`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, q, uuid.NewString(), endpoint, p256dh, auth); err != nil {
		return "", err
	}
	var id string
	if err := r.db.GetContext(ctx, &id, `SELECT id FROM web_push_subscriptions WHERE endpoint = ?`, endpoint); err != nil {
		return "", err
	}
	return id, nil
}

func (r *PushRepoImpl) FindByEndpoint(ctx context.Context, endpoint string) (*domain.PushSubscription, error) {
	const q = `SELECT id, endpoint, p256dh, auth FROM web_push_subscriptions WHERE endpoint = ?`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var s domain.PushSubscription
	err := r.db.GetContext(ctx, &s, q, endpoint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Link is idempotent; one device may serve several guests.
func (r *PushRepoImpl) Link(ctx context.Context, guestID, subscriptionID string) error {
	const q = `INSERT OR IGNORE INTO guest_subscriptions (guest_id, subscription_id) VALUES (?, ?)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, q, guestID, subscriptionID)
	return err
}

func (r *PushRepoImpl) TargetsForGuests(ctx context.Context, guestIDs []string) ([]domain.PushTarget, error) {
	out := []domain.PushTarget{}
	if len(guestIDs) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT DISTINCT gs.guest_id, ws.endpoint, ws.p256dh, ws.auth
	FROM guest_subscriptions gs
	JOIN web_push_subscriptions ws ON gs.subscription_id = ws.id
	WHERE gs.guest_id IN (?)`, guestIDs)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByEndpoint forgets a subscription the push service reported as gone.
func (r *PushRepoImpl) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM web_push_subscriptions WHERE endpoint = ?`, endpoint)
	return err
}
