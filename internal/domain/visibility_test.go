package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

var (
	attendanceBlock = Block{ID: "a1", Template: TemplateAttendance, Content: `{"label":"Coming?","options":["yes","maybe","no"]}`}
	publicText      = Block{ID: "b1", Template: TemplateTextInput, Content: `{"public":true}`}
	privateText     = Block{ID: "c1", Template: TemplateTextInput, Content: `{"label":"Allergies","public":false}`}
)

func TestNotAttendingGuestShowsOnlyAttendance(t *testing.T) {
	blocks := []Block{
		{ID: "a1", Template: TemplateAttendance},
		{ID: "b1", Template: TemplateTextInput, Content: `{"public":true}`},
	}
	others := []InvitationAnswers{
		{InvitationID: "inv-x", Answers: `{"a1":2,"b1":"hi"}`, First: "Xena", Last: "X"},
	}

	got := FilterOtherAnswers(Viewer{InvitationID: "inv-me"}, blocks, others)

	assert.JSONEq(t, `[{"a1":{"answer":2,"guest_name":"Xena X"}}]`, mustJSON(t, got))
}

func TestAttendingGuestShowsPublicBlocks(t *testing.T) {
	blocks := []Block{attendanceBlock, publicText, privateText}
	others := []InvitationAnswers{
		{InvitationID: "inv-y", Answers: `{"a1":0,"b1":"pasta","c1":"nuts"}`, First: "Yann", Last: ""},
	}

	got := FilterOtherAnswers(Viewer{InvitationID: "inv-me"}, blocks, others)

	assert.JSONEq(t, `[{
		"a1":{"answer":0,"guest_name":"Yann"},
		"b1":{"answer":"pasta","guest_name":"Yann"}
	}]`, mustJSON(t, got))
}

func TestPrivateBlockNeverVisibleToGuests(t *testing.T) {
	blocks := []Block{attendanceBlock, publicText, privateText}
	answers := []string{`{"a1":0,"c1":"x"}`, `{"a1":1,"c1":"x"}`, `{"a1":2,"c1":"x"}`, `{"c1":"x"}`}

	for _, raw := range answers {
		got := FilterOtherAnswers(Viewer{InvitationID: "me"},
			blocks, []InvitationAnswers{{InvitationID: "o", Answers: raw, First: "O"}})
		for _, entry := range got {
			_, leaked := entry["c1"]
			assert.False(t, leaked, "private block leaked for answers %s", raw)
		}
	}
}

func TestAttendanceHiddenWithoutAnyPublicBlock(t *testing.T) {
	blocks := []Block{attendanceBlock, privateText}
	others := []InvitationAnswers{{InvitationID: "o", Answers: `{"a1":0,"c1":"x"}`, First: "O"}}

	got := FilterOtherAnswers(Viewer{InvitationID: "me"}, blocks, others)

	assert.Empty(t, got)
}

func TestPublicFlagOnBlockItself(t *testing.T) {
	yes := true
	blocks := []Block{{ID: "n1", Template: TemplateNumberInput, Content: "not json", Public: &yes}}
	others := []InvitationAnswers{{InvitationID: "o", Answers: `{"n1":3}`, First: "O"}}

	got := FilterOtherAnswers(Viewer{InvitationID: "me"}, blocks, others)

	assert.JSONEq(t, `[{"n1":{"answer":3,"guest_name":"O"}}]`, mustJSON(t, got))
}

func TestNoAttendanceBlockMeansNoGate(t *testing.T) {
	blocks := []Block{publicText, privateText}
	others := []InvitationAnswers{{InvitationID: "o", Answers: `{"b1":"hello","c1":"secret"}`, First: "Olga", Last: "O"}}

	got := FilterOtherAnswers(Viewer{InvitationID: "me"}, blocks, others)

	assert.JSONEq(t, `[{"b1":{"answer":"hello","guest_name":"Olga O"}}]`, mustJSON(t, got))
}

func TestOrganizerSeesEverything(t *testing.T) {
	blocks := []Block{attendanceBlock, publicText, privateText}
	others := []InvitationAnswers{
		{InvitationID: "yes", Answers: `{"a1":0,"c1":"nuts"}`, First: "Ada", Last: "A"},
		{InvitationID: "no", Answers: `{"a1":2,"c1":"none"}`, First: "Bob", Last: "B"},
		{InvitationID: "silent", Answers: `{}`, First: "Cy", Last: "C"},
	}

	got := FilterOtherAnswers(Viewer{InvitationID: "me", Organizer: true}, blocks, others)

	assert.JSONEq(t, `[
		{"a1":{"answer":0,"guest_name":"Ada A"},"c1":{"answer":"nuts","guest_name":"Ada A"}},
		{"a1":{"answer":2,"guest_name":"Bob B (?)"},"c1":{"answer":"none","guest_name":"Bob B (?)"}},
		{}
	]`, mustJSON(t, got))
}

func TestOrganizerWithoutAttendanceBlockGetsPlainNames(t *testing.T) {
	blocks := []Block{privateText}
	others := []InvitationAnswers{{InvitationID: "o", Answers: `{"c1":"x"}`, First: "Dan"}}

	got := FilterOtherAnswers(Viewer{InvitationID: "me", Organizer: true}, blocks, others)

	require.Len(t, got, 1)
	assert.Equal(t, "Dan", got[0]["c1"].GuestName)
}

func TestOwnInvitationExcluded(t *testing.T) {
	blocks := []Block{publicText}
	others := []InvitationAnswers{
		{InvitationID: "me", Answers: `{"b1":"mine"}`, First: "Me"},
		{InvitationID: "you", Answers: `{"b1":"yours"}`, First: "You"},
	}

	for _, organizer := range []bool{false, true} {
		got := FilterOtherAnswers(Viewer{InvitationID: "me", Organizer: organizer}, blocks, others)
		require.Len(t, got, 1)
		assert.Equal(t, "You", got[0]["b1"].GuestName)
	}
}

func TestMalformedInputDegrades(t *testing.T) {
	blocks := []Block{
		attendanceBlock,
		{ID: "b1", Template: TemplateTextInput, Content: `{"public":tru`},
		publicText,
	}
	// duplicate id b1 only matters for the public flag lookup: one copy is public
	others := []InvitationAnswers{
		{InvitationID: "broken", Answers: `{"a1":0,`, First: "Broken"},
		{InvitationID: "array", Answers: `[1,2]`, First: "Array"},
		{InvitationID: "ok", Answers: `{"a1":0,"b1":"fine"}`, First: "Ok"},
	}

	got := FilterOtherAnswers(Viewer{InvitationID: "me"}, blocks, others)

	assert.JSONEq(t, `[{"a1":{"answer":0,"guest_name":"Ok"},"b1":{"answer":"fine","guest_name":"Ok"}}]`, mustJSON(t, got))
}

func TestStringZeroCountsAsAttending(t *testing.T) {
	assert.True(t, IsAttending(json.RawMessage(`0`)))
	assert.True(t, IsAttending(json.RawMessage(` 0.0 `)))
	assert.True(t, IsAttending(json.RawMessage(`"0"`)))
	assert.False(t, IsAttending(json.RawMessage(`1`)))
	assert.False(t, IsAttending(json.RawMessage(`null`)))
	assert.False(t, IsAttending(nil))
	assert.False(t, IsAttending(json.RawMessage(`[0]`)))
}
