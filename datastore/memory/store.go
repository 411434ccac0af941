package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vikiai/newsletter/datastore"
	"github.com/vikiai/newsletter/models"
)

type store struct {
	mu      sync.RWMutex
	records map[string]*models.Subscriber
	now     func() time.Time
}

// New returns a SubscriberStore held entirely in process memory. It is used
// for local development and tests; nothing survives a restart.
func New() datastore.SubscriberStore {
	return &store{
		records: make(map[string]*models.Subscriber),
		now:     time.Now,
	}
}

func (s *store) reset() {
	s.mu.Lock()
	s.records = make(map[string]*models.Subscriber)
	s.mu.Unlock()
}

// FindByEmail implements datastore.SubscriberStore.FindByEmail
func (s *store) FindByEmail(_ context.Context, email string) (*models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.records[datastore.NormalizeEmail(email)]
	if !ok {
		return nil, datastore.ErrSubscriberNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// Insert implements datastore.SubscriberStore.Insert
func (s *store) Insert(_ context.Context, email string) (*models.Subscriber, error) {
	key := datastore.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; ok {
		return nil, datastore.ErrSubscriberExists
	}

	item := &models.Subscriber{
		ID:        uuid.NewString(),
		Email:     key,
		CreatedAt: s.now().UTC(),
	}
	s.records[key] = item

	cloned := item.Clone()
	return &cloned, nil
}

// DeleteByEmail implements datastore.SubscriberStore.DeleteByEmail
func (s *store) DeleteByEmail(_ context.Context, email string) (*models.Subscriber, error) {
	key := datastore.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.records[key]
	if !ok {
		return nil, datastore.ErrSubscriberNotFound
	}
	delete(s.records, key)

	return item, nil
}

// Count implements datastore.SubscriberStore.Count
func (s *store) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *store) Ping(_ context.Context) error {
	return nil
}

func (s *store) Close(_ context.Context) error {
	return nil
}
