package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type Party struct {
	ID               string  `db:"id"`
	Name             string  `db:"name"`
	Author           string  `db:"author"`
	InvitationBlocks string  `db:"invitation_blocks"`
	Date             string  `db:"date"`
	Duration         float64 `db:"duration"`
	Location         string  `db:"location"`
	RespondUntil     string  `db:"respond_until"`
	Frozen           bool    `db:"frozen"`
	Public           bool    `db:"public"`
	MaxGuests        int     `db:"max_guests"`
	HasRSVPBlock     bool    `db:"has_rsvp_block"`
}

func (p *Party) Blocks() []Block {
	return ParseBlocks(p.InvitationBlocks)
}

// NewParty returns the row inserted by "new party" before the author edits it.
func NewParty(id, author string) *Party {
	return &Party{
		ID:               id,
		Name:             "New Party",
		Author:           author,
		InvitationBlocks: "[]",
		Duration:         1.0,
	}
}

// PartyUpdate carries the editable fields of a party. InvitationBlocks is the
// raw JSON array string submitted by the dashboard.
type PartyUpdate struct {
	Name             string   `json:"name"`
	InvitationBlocks *string  `json:"invitation_blocks"`
	Date             *string  `json:"date"`
	Duration         *float64 `json:"duration"`
	Location         *string  `json:"location"`
	RespondUntil     *string  `json:"respond_until"`
	Frozen           *bool    `json:"frozen"`
	Public           *bool    `json:"public"`
	MaxGuests        *int     `json:"max_guests"`
	Changelog        *string  `json:"changelog"`
}

const MaxChangelogLength = 2000

// TrimChangelog returns the changelog to broadcast, or "" when there is none.
func (u PartyUpdate) TrimChangelog() string {
	if u.Changelog == nil {
		return ""
	}
	s := strings.TrimSpace(*u.Changelog)
	if utf8.RuneCountInString(s) > MaxChangelogLength {
		s = string([]rune(s)[:MaxChangelogLength])
	}
	return s
}

// PartyGuest is a guest as listed on the party management page.
type PartyGuest struct {
	ID           string `db:"id" json:"id"`
	Salutation   string `db:"salutation" json:"salutation"`
	First        string `db:"first" json:"first"`
	Last         string `db:"last" json:"last"`
	Name         string `db:"-" json:"name"`
	Organizer    bool   `db:"organizer" json:"organizer"`
	InvitationID string `db:"invitation_id" json:"invitation_id"`
	SelfCreated  bool   `db:"selfcreated" json:"selfcreated"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// ParsePartyTime understands the values the dashboard's date inputs produce.
// allDay is true for a bare date.
func ParsePartyTime(s string, loc *time.Location) (t time.Time, allDay bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, true
		}
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}

// DeadlinePassed reports whether answers are no longer accepted. A bare date
// stays open for the whole day; an empty or unreadable deadline never passes.
func (p *Party) DeadlinePassed(now time.Time) bool {
	t, allDay, ok := ParsePartyTime(p.RespondUntil, now.Location())
	if !ok {
		return false
	}
	if allDay {
		t = t.AddDate(0, 0, 1)
	}
	return !now.Before(t)
}
