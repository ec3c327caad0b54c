package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrAlreadyInvited = errors.New("guest is already invited to this party")
	ErrPartyFrozen    = errors.New("party is frozen")
	ErrDeadlinePassed = errors.New("response deadline has passed")
	ErrPartyFull      = errors.New("party has reached its guest limit")
)

// PublicError pairs a sentinel with a message safe to show to the client.
type PublicError struct {
	Err     error
	Message string
}

func (e *PublicError) Error() string { return e.Err.Error() + ": " + e.Message }

func (e *PublicError) Unwrap() error { return e.Err }

// Errorf builds a PublicError for sentinel.
func Errorf(sentinel error, format string, args ...any) error {
	return &PublicError{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}
