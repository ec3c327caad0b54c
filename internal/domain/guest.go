package domain

import "strings"

type Author struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Secret string `db:"author_secret"`
}

type Guest struct {
	ID          string `db:"id" json:"id"`
	Salutation  string `db:"salutation" json:"salutation"`
	First       string `db:"first" json:"first"`
	Last        string `db:"last" json:"last"`
	Email       string `db:"email" json:"email"`
	Note        string `db:"note" json:"note"`
	Author      string `db:"author" json:"-"`
	SelfCreated bool   `db:"selfcreated" json:"selfcreated"`
}

// DisplayName is "first last" without dangling spaces.
func (g *Guest) DisplayName() string {
	return FullName(g.First, g.Last)
}

func FullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// NewGuest is what the dashboard's "add guest" button creates.
func NewGuest(id, author string) *Guest {
	return &Guest{ID: id, First: "New", Last: "Guest", Author: author}
}

type GuestUpdate struct {
	Salutation string `json:"salutation"`
	First      string `json:"first"`
	Last       string `json:"last"`
	Email      string `json:"email"`
	Note       string `json:"note"`
}

// PublicRegistration is submitted by someone signing up for a public party.
type PublicRegistration struct {
	Salutation string `json:"salutation"`
	First      string `json:"first"`
	Last       string `json:"last"`
	Email      string `json:"email"`
}

type PushSubscription struct {
	ID       string `db:"id"`
	Endpoint string `db:"endpoint"`
	P256dh   string `db:"p256dh"`
	Auth     string `db:"auth"`
}

// PushTarget is a device subscription reached through a guest.
type PushTarget struct {
	GuestID  string `db:"guest_id"`
	Endpoint string `db:"endpoint"`
	P256dh   string `db:"p256dh"`
	Auth     string `db:"auth"`
}
