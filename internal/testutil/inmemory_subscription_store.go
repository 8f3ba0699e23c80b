package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/pulsenote/billing/internal/domain/subscription"
	ierr "github.com/pulsenote/billing/internal/errors"
)

// InMemorySubscriptionStore implements subscription.Repository backed by a
// map. Updates go through RecordUpdate.Apply so tests exercise the same
// field-level merge semantics the document store implements.
type InMemorySubscriptionStore struct {
	mu      sync.RWMutex
	records map[string]*subscription.Record
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		records: make(map[string]*subscription.Record),
	}
}

func (s *InMemorySubscriptionStore) GetByUser(ctx context.Context, userID string) (*subscription.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, ierr.NewError("record not found").
			WithHintf("no billing record for user %s", userID).
			Mark(ierr.ErrNotFound)
	}
	return copyRecord(rec), nil
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, record *subscription.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.UserID]; ok {
		return ierr.NewError("record already exists").
			WithHintf("billing record for user %s already exists", record.UserID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.records[record.UserID] = copyRecord(record)
	return nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, userID string, update *subscription.RecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return ierr.NewError("record not found").
			WithHintf("no billing record for user %s", userID).
			Mark(ierr.ErrNotFound)
	}
	update.Apply(rec, time.Now().UTC())
	return nil
}

// Clear removes all records between tests.
func (s *InMemorySubscriptionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*subscription.Record)
}

func copyRecord(rec *subscription.Record) *subscription.Record {
	out := *rec
	if rec.Billing != nil {
		billing := *rec.Billing
		out.Billing = &billing
	}
	return &out
}
