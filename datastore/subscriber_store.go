package datastore

import (
	"context"
	"errors"
	"strings"

	"github.com/vikiai/newsletter/models"
)

var (
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrSubscriberExists   = errors.New("subscriber already exists")
	ErrStoreUnavailable   = errors.New("subscriber store unavailable")
)

// SubscriberStore persists subscriber records keyed by normalized email.
// Implementations must enforce uniqueness of the email themselves; callers
// rely on Insert returning ErrSubscriberExists to settle concurrent inserts.
type SubscriberStore interface {
	// FindByEmail returns ErrSubscriberNotFound when no record matches.
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)

	// Insert creates a record, or returns ErrSubscriberExists.
	Insert(ctx context.Context, email string) (*models.Subscriber, error)

	// DeleteByEmail removes and returns the record in one store call, or
	// returns ErrSubscriberNotFound.
	DeleteByEmail(ctx context.Context, email string) (*models.Subscriber, error)

	Count(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close(ctx context.Context) error
}

// NormalizeEmail is applied by every store before reading or writing, which
// makes uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UnavailableError wraps a connectivity or storage fault. It matches both
// ErrStoreUnavailable and the underlying cause.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// Unavailable wraps err as an UnavailableError for operation op. A nil err
// stays nil and an already wrapped err is returned as is.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	return &UnavailableError{Op: op, Err: err}
}
