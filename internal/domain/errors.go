package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates no link exists for the short code.
	ErrNotFound = errors.New("link not found")

	// ErrDuplicateCode indicates the short code is already taken.
	ErrDuplicateCode = errors.New("short code already exists")

	// ErrInvalidTarget indicates the target URL could not be parsed
	// into a scheme and host.
	ErrInvalidTarget = errors.New("invalid target url")

	// ErrExpired indicates the link is past its expiry.
	ErrExpired = errors.New("link has expired")

	// ErrDeactivated indicates the owner disabled the link.
	ErrDeactivated = errors.New("link has been deactivated")

	// ErrPasswordRequired indicates the link is password protected and
	// no password was supplied.
	ErrPasswordRequired = errors.New("password required")

	// ErrPasswordIncorrect indicates the supplied password did not match.
	ErrPasswordIncorrect = errors.New("password incorrect")

	// ErrLocked indicates too many failed password attempts.
	ErrLocked = errors.New("too many failed attempts")
)

// LockedError carries the remaining lock duration so callers can render
// a countdown. It matches ErrLocked under errors.Is.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.Remaining.Round(time.Second))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}
