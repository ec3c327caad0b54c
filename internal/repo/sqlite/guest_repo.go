package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/diagnosis/party-hub/internal/domain"
)

type GuestRepo interface {
	Create(ctx context.Context, g *domain.Guest) error
	CreateWithInvitation(ctx context.Context, g *domain.Guest, inv *domain.Invitation) error
	Get(ctx context.Context, id string) (*domain.Guest, error)
	GetOwned(ctx context.Context, id, author string) (*domain.Guest, error)
	ListByAuthor(ctx context.Context, author string) ([]domain.Guest, error)
	Update(ctx context.Context, g *domain.Guest) (bool, error)
	Delete(ctx context.Context, id, author string) (bool, error)
}

type GuestRepoImpl struct{ db *sqlx.DB }

func NewGuestRepo(db *sqlx.DB) *GuestRepoImpl { return &GuestRepoImpl{db: db} }

const guestCols = `id, salutation, first, last, email, note, author, selfcreated`

const insertGuest = `INSERT INTO guests (` + guestCols + `) VALUES (
	:id, :salutation, :first, :last, :email, :note, :author, :selfcreated)`

func (r *GuestRepoImpl) Create(ctx context.Context, g *domain.Guest) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.NamedExecContext(ctx, insertGuest, g)
	return err
}

// CreateWithInvitation stores a self-registered guest and their invitation atomically.
func (r *GuestRepoImpl) CreateWithInvitation(ctx context.Context, g *domain.Guest, inv *domain.Invitation) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertGuest, g); err != nil {
		return fmt.Errorf("insert guest: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, insertInvitation, inv); err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return tx.Commit()
}

func (r *GuestRepoImpl) Get(ctx context.Context, id string) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE id = ?`
	return r.get(ctx, q, id)
}

func (r *GuestRepoImpl) GetOwned(ctx context.Context, id, author string) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE id = ? AND author = ?`
	return r.get(ctx, q, id, author)
}

func (r *GuestRepoImpl) get(ctx context.Context, q string, args ...any) (*domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var g domain.Guest
	err := r.db.GetContext(ctx, &g, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GuestRepoImpl) ListByAuthor(ctx context.Context, author string) ([]domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE author = ? ORDER BY last, first`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	out := []domain.Guest{}
	if err := r.db.SelectContext(ctx, &out, q, author); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GuestRepoImpl) Update(ctx context.Context, g *domain.Guest) (bool, error) {
	const q = `UPDATE guests SET salutation = :salutation, first = :first, last = :last,
		email = :email, note = :note
	WHERE id = :id AND author = :author`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	res, err := r.db.NamedExecContext(ctx, q, g)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes a guest, their invitations and device links in one transaction.
func (r *GuestRepoImpl) Delete(ctx context.Context, id, author string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var owned int
	if err := tx.GetContext(ctx, &owned, `SELECT COUNT(*) FROM guests WHERE id = ? AND author = ?`, id, author); err != nil {
		return false, err
	}
	if owned == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM invitations WHERE guest_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete invitations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM guest_subscriptions WHERE guest_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete subscriptions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM guests WHERE id = ? AND author = ?`, id, author); err != nil {
		return false, fmt.Errorf("delete guest: %w", err)
	}
	return true, tx.Commit()
}
