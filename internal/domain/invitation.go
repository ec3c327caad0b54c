package domain

import (
	"bytes"
	"encoding/json"
)

type Invitation struct {
	ID        string `db:"id"`
	GuestID   string `db:"guest_id"`
	PartyID   string `db:"party_id"`
	Answers   string `db:"invitation_block_answers"`
	Organizer bool   `db:"organizer"`
}

// Answers maps block ids to whatever the invitation page submitted.
type Answers map[string]json.RawMessage

// ParseAnswers decodes a stored answer object. Malformed or non-object input
// yields no answers.
func ParseAnswers(raw string) Answers {
	var a Answers
	if err := json.Unmarshal([]byte(raw), &a); err != nil || a == nil {
		return Answers{}
	}
	return a
}

// Keep drops every key that is not a block of the party.
func (a Answers) Keep(blockIDs map[string]bool) Answers {
	out := make(Answers, len(a))
	for id, v := range a {
		if blockIDs[id] {
			out[id] = v
		}
	}
	return out
}

func (a Answers) Encode() string {
	if len(a) == 0 {
		return "{}"
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// IsAttending reports an affirmative RSVP: the first attendance option, 0.
func IsAttending(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return false
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n == 0
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s == "0"
	}
	return false
}

// InvitationAnswers is another guest's invitation as seen from an invitation page.
type InvitationAnswers struct {
	InvitationID string `db:"id"`
	Answers      string `db:"invitation_block_answers"`
	First        string `db:"first"`
	Last         string `db:"last"`
}

func (i InvitationAnswers) GuestName() string {
	return FullName(i.First, i.Last)
}

// CountAttending counts invitations, other than exclude, answering yes on the
// attendance block.
func CountAttending(invitations []InvitationAnswers, attendanceID, exclude string) int {
	if attendanceID == "" {
		return 0
	}
	n := 0
	for _, inv := range invitations {
		if inv.InvitationID == exclude {
			continue
		}
		if IsAttending(ParseAnswers(inv.Answers)[attendanceID]) {
			n++
		}
	}
	return n
}

// InvitationDetails is everything the invitation page needs.
type InvitationDetails struct {
	Invitation Invitation
	Guest      Guest
	Party      Party
	Blocks     []Block
	Answers    Answers
	Others     []map[string]VisibleAnswer
	Attending  int
}

// Recipient is an invited guest reachable by notifications.
type Recipient struct {
	GuestID      string `db:"guest_id"`
	InvitationID string `db:"invitation_id"`
	First        string `db:"first"`
	Last         string `db:"last"`
	Email        string `db:"email"`
}
