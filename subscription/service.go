package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vikiai/newsletter/datastore"
	"github.com/vikiai/newsletter/logging"
	"github.com/vikiai/newsletter/metrics"
	"github.com/vikiai/newsletter/models"
)

// SeedEmail is the fixed address inserted by Seed.
const SeedEmail = "test@example.com"

var (
	ErrInvalidInput      = errors.New("email is required")
	ErrAlreadySubscribed = errors.New("email is already subscribed")
	ErrNotFound          = errors.New("email not found in subscribers list")

	// ErrStoreUnavailable matches any storage fault returned by the service.
	ErrStoreUnavailable = datastore.ErrStoreUnavailable
)

const (
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
)

// Service applies the subscribe/unsubscribe rules on top of a
// SubscriberStore. It holds no state of its own.
type Service struct {
	store datastore.SubscriberStore
}

func NewService(store datastore.SubscriberStore) *Service {
	return &Service{store: store}
}

// Subscribe adds email to the list. It fails with ErrInvalidInput for a blank
// email and ErrAlreadySubscribed when the email is present, including when a
// concurrent request inserted it first.
func (s *Service) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		metrics.IncrementSubscriptionOutcome(opSubscribe, "invalid")
		return nil, ErrInvalidInput
	}

	log := logging.Ctx(ctx).With().Str("email_hash", logging.Fingerprint(email)).Logger()

	_, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		metrics.IncrementSubscriptionOutcome(opSubscribe, "duplicate")
		log.Info().Msg("Subscribe rejected, email already subscribed")
		return nil, ErrAlreadySubscribed
	case !errors.Is(err, datastore.ErrSubscriberNotFound):
		metrics.IncrementSubscriptionOutcome(opSubscribe, "error")
		log.Error().Err(err).Msg("Subscribe lookup failed")
		return nil, fmt.Errorf("failed to look up subscriber: %w", err)
	}

	sub, err := s.store.Insert(ctx, email)
	if err != nil {
		if errors.Is(err, datastore.ErrSubscriberExists) {
			metrics.IncrementSubscriptionOutcome(opSubscribe, "duplicate")
			log.Info().Msg("Subscribe lost insert race, email already subscribed")
			return nil, ErrAlreadySubscribed
		}
		metrics.IncrementSubscriptionOutcome(opSubscribe, "error")
		log.Error().Err(err).Msg("Subscribe insert failed")
		return nil, fmt.Errorf("failed to insert subscriber: %w", err)
	}

	metrics.IncrementSubscriptionOutcome(opSubscribe, "ok")
	log.Info().Str("subscriber_id", sub.ID).Msg("Subscribed")
	return sub, nil
}

// Unsubscribe removes email from the list and returns the removed record. A
// second call for the same email fails with ErrNotFound.
func (s *Service) Unsubscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		metrics.IncrementSubscriptionOutcome(opUnsubscribe, "invalid")
		return nil, ErrInvalidInput
	}

	log := logging.Ctx(ctx).With().Str("email_hash", logging.Fingerprint(email)).Logger()

	sub, err := s.store.DeleteByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, datastore.ErrSubscriberNotFound) {
			metrics.IncrementSubscriptionOutcome(opUnsubscribe, "not_found")
			log.Info().Msg("Unsubscribe for unknown email")
			return nil, ErrNotFound
		}
		metrics.IncrementSubscriptionOutcome(opUnsubscribe, "error")
		log.Error().Err(err).Msg("Unsubscribe delete failed")
		return nil, fmt.Errorf("failed to delete subscriber: %w", err)
	}

	metrics.IncrementSubscriptionOutcome(opUnsubscribe, "ok")
	log.Info().Str("subscriber_id", sub.ID).Msg("Unsubscribed and deleted")
	return sub, nil
}

// Seed inserts SeedEmail straight into the store. Unlike Subscribe it does not
// translate a duplicate into ErrAlreadySubscribed; it is a debugging aid.
func (s *Service) Seed(ctx context.Context) (*models.Subscriber, error) {
	sub, err := s.store.Insert(ctx, SeedEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to insert seed subscriber: %w", err)
	}
	logging.Ctx(ctx).Info().Str("subscriber_id", sub.ID).Msg("Seed subscriber inserted")
	return sub, nil
}

// Count returns the number of stored subscribers.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
