package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/diagnosis/party-hub/internal/domain"
)

type InvitationRepo interface {
	Create(ctx context.Context, inv *domain.Invitation) error
	Get(ctx context.Context, id string) (*domain.Invitation, error)
	FindByGuestAndParty(ctx context.Context, guestID, partyID string) (*domain.Invitation, error)
	ListAnswers(ctx context.Context, partyID string) ([]domain.InvitationAnswers, error)
	UpdateAnswers(ctx context.Context, id, answers string) (bool, error)
	SetOrganizer(ctx context.Context, partyID, guestID string, organizer bool) (bool, error)
	Remove(ctx context.Context, partyID, guestID string) (bool, error)
	Recipients(ctx context.Context, partyID string, guestIDs ...string) ([]domain.Recipient, error)
}

type InvitationRepoImpl struct{ db *sqlx.DB }

func NewInvitationRepo(db *sqlx.DB) *InvitationRepoImpl { return &InvitationRepoImpl{db: db} }

const invitationCols = `id, guest_id, party_id, invitation_block_answers, organizer`

const insertInvitation = `INSERT INTO invitations (` + invitationCols + `) VALUES (
	:id, :guest_id, :party_id, :invitation_block_answers, :organizer)`

// Create returns domain.ErrAlreadyInvited when the guest already has an
// invitation to the party.
func (r *InvitationRepoImpl) Create(ctx context.Context, inv *domain.Invitation) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.NamedExecContext(ctx, insertInvitation, inv)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyInvited
	}
	return err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func (r *InvitationRepoImpl) Get(ctx context.Context, id string) (*domain.Invitation, error) {
	const q = `SELECT ` + invitationCols + ` FROM invitations WHERE id = ?`
	return r.get(ctx, q, id)
}

func (r *InvitationRepoImpl) FindByGuestAndParty(ctx context.Context, guestID, partyID string) (*domain.Invitation, error) {
	const q = `SELECT ` + invitationCols + ` FROM invitations WHERE guest_id = ? AND party_id = ?`
	return r.get(ctx, q, guestID, partyID)
}

func (r *InvitationRepoImpl) get(ctx context.Context, q string, args ...any) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var inv domain.Invitation
	err := r.db.GetContext(ctx, &inv, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListAnswers returns every invitation of a party with the guest's name.
func (r *InvitationRepoImpl) ListAnswers(ctx context.Context, partyID string) ([]domain.InvitationAnswers, error) {
	const q = `SELECT i.id, i.invitation_block_answers, g.first, g.last
	FROM invitations i JOIN guests g ON i.guest_id = g.id
	WHERE i.party_id = ?
	ORDER BY g.last, g.first, i.id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	out := []domain.InvitationAnswers{}
	if err := r.db.SelectContext(ctx, &out, q, partyID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *InvitationRepoImpl) UpdateAnswers(ctx context.Context, id, answers string) (bool, error) {
	const q = `UPDATE invitations SET invitation_block_answers = ? WHERE id = ?`
	return r.exec(ctx, q, answers, id)
}

func (r *InvitationRepoImpl) SetOrganizer(ctx context.Context, partyID, guestID string, organizer bool) (bool, error) {
	const q = `UPDATE invitations SET organizer = ? WHERE guest_id = ? AND party_id = ?`
	return r.exec(ctx, q, organizer, guestID, partyID)
}

func (r *InvitationRepoImpl) Remove(ctx context.Context, partyID, guestID string) (bool, error) {
	const q = `DELETE FROM invitations WHERE guest_id = ? AND party_id = ?`
	return r.exec(ctx, q, guestID, partyID)
}

func (r *InvitationRepoImpl) exec(ctx context.Context, q string, args ...any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Recipients lists invited guests of a party, optionally limited to guestIDs.
func (r *InvitationRepoImpl) Recipients(ctx context.Context, partyID string, guestIDs ...string) ([]domain.Recipient, error) {
	q := `SELECT g.id AS guest_id, i.id AS invitation_id, g.first, g.last, g.email
	FROM invitations i JOIN guests g ON i.guest_id = g.id
	WHERE i.party_id = ?`
	args := []any{partyID}
	if len(guestIDs) > 0 {
		in, inArgs, err := sqlx.In(` AND g.id IN (?)`, guestIDs)
		if err != nil {
			return nil, err
		}
		q += in
		args = append(args, inArgs...)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	out := []domain.Recipient{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}
