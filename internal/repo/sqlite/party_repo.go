package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/diagnosis/party-hub/internal/domain"
)

type PartyRepo interface {
	Create(ctx context.Context, p *domain.Party) error
	Get(ctx context.Context, id string) (*domain.Party, error)
	GetOwned(ctx context.Context, id, author string) (*domain.Party, error)
	IsOwner(ctx context.Context, id, author string) (bool, error)
	ListByAuthor(ctx context.Context, author string) ([]domain.Party, error)
	Update(ctx context.Context, p *domain.Party) (bool, error)
	Delete(ctx context.Context, id, author string) (bool, error)
	Guests(ctx context.Context, partyID string) ([]domain.PartyGuest, error)
}

type PartyRepoImpl struct{ db *sqlx.DB }

func NewPartyRepo(db *sqlx.DB) *PartyRepoImpl { return &PartyRepoImpl{db: db} }

const partyCols = `id, name, author, invitation_blocks, date, duration, location,
respond_until, frozen, public, max_guests, has_rsvp_block`

func (r *PartyRepoImpl) Create(ctx context.Context, p *domain.Party) error {
	const q = `INSERT INTO parties (` + partyCols + `) VALUES (
		:id, :name, :author, :invitation_blocks, :date, :duration, :location,
		:respond_until, :frozen, :public, :max_guests, :has_rsvp_block)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.NamedExecContext(ctx, q, p)
	return err
}

func (r *PartyRepoImpl) Get(ctx context.Context, id string) (*domain.Party, error) {
	const q = `SELECT ` + partyCols + ` FROM parties WHERE id = ?`
	return r.get(ctx, q, id)
}

func (r *PartyRepoImpl) GetOwned(ctx context.Context, id, author string) (*domain.Party, error) {
	const q = `SELECT ` + partyCols + ` FROM parties WHERE id = ? AND author = ?`
	return r.get(ctx, q, id, author)
}

func (r *PartyRepoImpl) get(ctx context.Context, q string, args ...any) (*domain.Party, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var p domain.Party
	err := r.db.GetContext(ctx, &p, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartyRepoImpl) IsOwner(ctx context.Context, id, author string) (bool, error) {
	const q = `SELECT COUNT(*) FROM parties WHERE id = ? AND author = ?`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var n int
	if err := r.db.GetContext(ctx, &n, q, id, author); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PartyRepoImpl) ListByAuthor(ctx context.Context, author string) ([]domain.Party, error) {
	const q = `SELECT ` + partyCols + ` FROM parties WHERE author = ? ORDER BY date DESC, name`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	out := []domain.Party{}
	if err := r.db.SelectContext(ctx, &out, q, author); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PartyRepoImpl) Update(ctx context.Context, p *domain.Party) (bool, error) {
	const q = `UPDATE parties SET
		name = :name, invitation_blocks = :invitation_blocks, date = :date,
		duration = :duration, location = :location, respond_until = :respond_until,
		frozen = :frozen, public = :public, max_guests = :max_guests,
		has_rsvp_block = :has_rsvp_block
	WHERE id = :id AND author = :author`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	res, err := r.db.NamedExecContext(ctx, q, p)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes a party together with its invitations.
func (r *PartyRepoImpl) Delete(ctx context.Context, id, author string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM invitations WHERE party_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete invitations: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM parties WHERE id = ? AND author = ?`, id, author)
	if err != nil {
		return false, fmt.Errorf("delete party: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return true, tx.Commit()
}

func (r *PartyRepoImpl) Guests(ctx context.Context, partyID string) ([]domain.PartyGuest, error) {
	const q = `SELECT g.id, g.salutation, g.first, g.last, i.organizer, i.id AS invitation_id, g.selfcreated
	FROM guests g INNER JOIN invitations i ON g.id = i.guest_id
	WHERE i.party_id = ?
	ORDER BY g.last, g.first`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	out := []domain.PartyGuest{}
	if err := r.db.SelectContext(ctx, &out, q, partyID); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Name = domain.FullName(out[i].First, out[i].Last)
	}
	return out, nil
}
