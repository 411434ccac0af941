package datastore

import (
	"context"
	"errors"
	"time"

	"github.com/vikiai/newsletter/metrics"
	"github.com/vikiai/newsletter/models"
)

type instrumentedStore struct {
	next SubscriberStore
}

// Instrument records latency and outcome of every call made to s.
func Instrument(s SubscriberStore) SubscriberStore {
	return &instrumentedStore{next: s}
}

func (s *instrumentedStore) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	start := time.Now()
	sub, err := s.next.FindByEmail(ctx, email)
	observe("find_by_email", start, err)
	return sub, err
}

func (s *instrumentedStore) Insert(ctx context.Context, email string) (*models.Subscriber, error) {
	start := time.Now()
	sub, err := s.next.Insert(ctx, email)
	observe("insert", start, err)
	return sub, err
}

func (s *instrumentedStore) DeleteByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	start := time.Now()
	sub, err := s.next.DeleteByEmail(ctx, email)
	observe("delete_by_email", start, err)
	return sub, err
}

func (s *instrumentedStore) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.next.Count(ctx)
	observe("count", start, err)
	return n, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	observe("ping", start, err)
	return err
}

func (s *instrumentedStore) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}

func observe(op string, start time.Time, err error) {
	metrics.RecordStoreOperation(op, outcomeOf(err), time.Since(start))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSubscriberNotFound):
		return "not_found"
	case errors.Is(err, ErrSubscriberExists):
		return "duplicate"
	default:
		return "error"
	}
}
