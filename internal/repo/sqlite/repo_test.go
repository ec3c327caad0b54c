package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/pkg/config"
	"github.com/diagnosis/party-hub/pkg/database"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	authors     *AuthorRepoImpl
	parties     *PartyRepoImpl
	guests      *GuestRepoImpl
	invitations *InvitationRepoImpl
	push        *PushRepoImpl
}

func newFixture(t *testing.T) fixture {
	db := openTestDB(t)
	f := fixture{
		authors:     NewAuthorRepo(db),
		parties:     NewPartyRepo(db),
		guests:      NewGuestRepo(db),
		invitations: NewInvitationRepo(db),
		push:        NewPushRepo(db),
	}
	ctx := context.Background()
	require.NoError(t, f.authors.Create(ctx, &domain.Author{ID: "a1", Name: "Alice", Secret: "s1"}))
	require.NoError(t, f.authors.Create(ctx, &domain.Author{ID: "a2", Name: "Bob", Secret: "s2"}))
	return f
}

func (f fixture) invite(t *testing.T, id, guestID, partyID, answers string) {
	t.Helper()
	require.NoError(t, f.invitations.Create(context.Background(), &domain.Invitation{
		ID: id, GuestID: guestID, PartyID: partyID, Answers: answers,
	}))
}

func TestAuthorLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.authors.FindBySecret(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "a1", a.ID)

	a, err = f.authors.FindBySecret(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = f.authors.FindBySecret(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = f.authors.FindByID(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "Bob", a.Name)

	all, err := f.authors.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPartyLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := domain.NewParty("p1", "a1")
	require.NoError(t, f.parties.Create(ctx, p))

	got, err := f.parties.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "New Party", got.Name)
	assert.Equal(t, "[]", got.InvitationBlocks)
	assert.Equal(t, 1.0, got.Duration)

	owned, err := f.parties.GetOwned(ctx, "p1", "a2")
	require.NoError(t, err)
	assert.Nil(t, owned)

	ok, err := f.parties.IsOwner(ctx, "p1", "a1")
	require.NoError(t, err)
	assert.True(t, ok)

	got.Name = "Summer"
	got.Frozen = true
	got.MaxGuests = 10
	updated, err := f.parties.Update(ctx, got)
	require.NoError(t, err)
	assert.True(t, updated)

	other := *got
	other.Author = "a2"
	updated, err = f.parties.Update(ctx, &other)
	require.NoError(t, err)
	assert.False(t, updated, "another author must not update the party")

	list, err := f.parties.ListByAuthor(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Frozen)
	assert.Equal(t, 10, list[0].MaxGuests)
}

func TestPartyDeleteRemovesInvitations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.parties.Create(ctx, domain.NewParty("p1", "a1")))
	require.NoError(t, f.guests.Create(ctx, domain.NewGuest("g1", "a1")))
	f.invite(t, "i1", "g1", "p1", "{}")

	deleted, err := f.parties.Delete(ctx, "p1", "a2")
	require.NoError(t, err)
	assert.False(t, deleted)
	inv, err := f.invitations.Get(ctx, "i1")
	require.NoError(t, err)
	assert.NotNil(t, inv, "failed delete must roll back")

	deleted, err = f.parties.Delete(ctx, "p1", "a1")
	require.NoError(t, err)
	assert.True(t, deleted)
	inv, err = f.invitations.Get(ctx, "i1")
	require.NoError(t, err)
	assert.Nil(t, inv)
}

func TestPartyGuestsSortedByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.parties.Create(ctx, domain.NewParty("p1", "a1")))
	require.NoError(t, f.guests.Create(ctx, &domain.Guest{ID: "g1", First: "Zoe", Last: "Young", Author: "a1"}))
	require.NoError(t, f.guests.Create(ctx, &domain.Guest{ID: "g2", First: "Adam", Last: "Baker", Author: "a1", SelfCreated: true}))
	f.invite(t, "i1", "g1", "p1", "{}")
	f.invite(t, "i2", "g2", "p1", "{}")
	_, err := f.invitations.SetOrganizer(ctx, "p1", "g1", true)
	require.NoError(t, err)

	guests, err := f.parties.Guests(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, guests, 2)
	assert.Equal(t, "Adam Baker", guests[0].Name)
	assert.True(t, guests[0].SelfCreated)
	assert.Equal(t, "i2", guests[0].InvitationID)
	assert.True(t, guests[1].Organizer)
}

func TestGuestCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := domain.NewGuest("g1", "a1")
	require.NoError(t, f.guests.Create(ctx, g))

	g.First, g.Email = "Carla", "carla@example.com"
	ok, err := f.guests.Update(ctx, g)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := f.guests.GetOwned(ctx, "g1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "Carla", got.First)

	got, err = f.guests.GetOwned(ctx, "g1", "a2")
	require.NoError(t, err)
	assert.Nil(t, got)

	list, err := f.guests.ListByAuthor(ctx, "a2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGuestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.parties.Create(ctx, domain.NewParty("p1", "a1")))
	require.NoError(t, f.guests.Create(ctx, domain.NewGuest("g1", "a1")))
	f.invite(t, "i1", "g1", "p1", "{}")
	subID, err := f.push.Upsert(ctx, "https://push.example/1", "k", "a")
	require.NoError(t, err)
	require.NoError(t, f.push.Link(ctx, "g1", subID))

	ok, err := f.guests.Delete(ctx, "g1", "a2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.guests.Delete(ctx, "g1", "a1")
	require.NoError(t, err)
	assert.True(t, ok)

	inv, err := f.invitations.Get(ctx, "i1")
	require.NoError(t, err)
	assert.Nil(t, inv)
	targets, err := f.push.TargetsForGuests(ctx, []string{"g1"})
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestCreateWithInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.parties.Create(ctx, domain.NewParty("p1", "a1")))

	g := &domain.Guest{ID: "g1", First: "Pia", Author: "a1", SelfCreated: true}
	err := f.guests.CreateWithInvitation(ctx, g, &domain.Invitation{ID: "i1", GuestID: "g1", PartyID: "p1", Answers: "{}"})
	require.NoError(t, err)

	bad := &domain.Guest{ID: "g2", First: "Max", Author: "a1", SelfCreated: true}
	err = f.guests.CreateWithInvitation(ctx, bad, &domain.Invitation{ID: "i2", GuestID: "g2", PartyID: "missing", Answers: "{}"})
	require.Error(t, err)
	got, err := f.guests.Get(ctx, "g2")
	require.NoError(t, err)
	assert.Nil(t, got, "guest insert must roll back with the invitation")
}

func TestInvitationDuplicateIsAlreadyInvited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.parties.Create(ctx, domain.NewParty("p1", "a1")))
	require.NoError(t, f.guests.Create(ctx, domain.NewGuest("g1", "a1")))
	f.invite(t, "i1", "g1", "p1", "{}")

	err := f.invitations.Create(ctx, &domain.Invitation{ID: "i2", GuestID: "g1", PartyID: "p1", Answers: "{}"})
	assert.ErrorIs(t, err, domain.ErrAlreadyInvited)
}

func TestInvitationFindByGuestAndParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.parties.Create(ctx, domain.NewParty("p1", "a1")))
	require.NoError(t, f.guests.Create(ctx, domain.NewGuest("g1", "a1")))

	got, err := f.invitations.FindByGuestAndParty(ctx, "g1", "p1")
	require.NoError(t, err)
	assert.Nil(t, got)

	f.invite(t, "i1", "g1", "p1", "{}")
	got, err = f.invitations.FindByGuestAndParty(ctx, "g1", "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "i1", got.ID)
}

func TestInvitationAnswersAndRecipients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.parties.Create(ctx, domain.NewParty("p1", "a1")))
	require.NoError(t, f.guests.Create(ctx, &domain.Guest{ID: "g1", First: "Ann", Last: "A", Email: "ann@example.com", Author: "a1"}))
	require.NoError(t, f.guests.Create(ctx, &domain.Guest{ID: "g2", First: "Ben", Last: "B", Author: "a1"}))
	f.invite(t, "i1", "g1", "p1", "{}")
	f.invite(t, "i2", "g2", "p1", "{}")

	ok, err := f.invitations.UpdateAnswers(ctx, "i1", `{"b1":0}`)
	require.NoError(t, err)
	assert.True(t, ok)

	answers, err := f.invitations.ListAnswers(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, `{"b1":0}`, answers[0].Answers)
	assert.Equal(t, "Ann A", answers[0].GuestName())

	all, err := f.invitations.Recipients(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := f.invitations.Recipients(ctx, "p1", "g1")
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "i1", some[0].InvitationID)
	assert.Equal(t, "ann@example.com", some[0].Email)

	removed, err := f.invitations.Remove(ctx, "p1", "g2")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = f.invitations.Remove(ctx, "p1", "g2")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPushUpsertAndLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.guests.Create(ctx, domain.NewGuest("g1", "a1")))
	require.NoError(t, f.guests.Create(ctx, domain.NewGuest("g2", "a1")))

	id1, err := f.push.Upsert(ctx, "https://push.example/x", "k1", "a1")
	require.NoError(t, err)
	id2, err := f.push.Upsert(ctx, "https://push.example/x", "k2", "a2")
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "same endpoint keeps its row")

	sub, err := f.push.FindByEndpoint(ctx, "https://push.example/x")
	require.NoError(t, err)
	assert.Equal(t, "k2", sub.P256dh)

	require.NoError(t, f.push.Link(ctx, "g1", id1))
	require.NoError(t, f.push.Link(ctx, "g1", id1))
	require.NoError(t, f.push.Link(ctx, "g2", id1))

	targets, err := f.push.TargetsForGuests(ctx, []string{"g1", "g2"})
	require.NoError(t, err)
	assert.Len(t, targets, 2)

	require.NoError(t, f.push.DeleteByEndpoint(ctx, "https://push.example/x"))
	targets, err = f.push.TargetsForGuests(ctx, []string{"g1"})
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestPartyDeleteRollsBackOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := NewPartyRepo(sqlx.NewDb(mockDB, "sqlmock"))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM invitations WHERE party_id = \?`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM parties WHERE id = \? AND author = \?`).
		WithArgs("p1", "a1").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	ok, err := repo.Delete(context.Background(), "p1", "a1")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestDeleteRollsBackOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := NewGuestRepo(sqlx.NewDb(mockDB, "sqlmock"))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guests`).
		WithArgs("g1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM invitations WHERE guest_id = \?`).
		WithArgs("g1").
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	ok, err := repo.Delete(context.Background(), "g1", "a1")
	assert.ErrorContains(t, err, "delete invitations")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
