package testutil

import (
	"context"
	"sync"

	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/storage"
	"github.com/mcoot/playeraccounts/internal/storage/memory"
)

// StubStore wraps an in-memory store, counting calls and optionally failing
// every operation. Use it to assert whether a code path touched the store.
type StubStore struct {
	inner *memory.Storage

	mu      sync.Mutex
	err     error
	finds   int
	upserts int
	saves   int
	gate    chan struct{}
}

// NewStubStore returns a stub backed by an empty in-memory store
func NewStubStore() *StubStore {
	return &StubStore{inner: memory.New()}
}

var _ storage.DocumentStore = (*StubStore)(nil)

// Seed writes doc straight into the backing store without counting a call
func (s *StubStore) Seed(ctx context.Context, doc model.Document) error {
	return s.inner.Save(ctx, doc)
}

// FailWith makes every following operation return err. Pass nil to recover.
func (s *StubStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Block holds every following UpsertField until the returned release is
// called, letting a test act while a write is in flight
func (s *StubStore) Block() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.gate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Finds returns the number of FindOne calls
func (s *StubStore) Finds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds
}

// Upserts returns the number of UpsertField calls
func (s *StubStore) Upserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

// Saves returns the number of Save calls
func (s *StubStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *StubStore) FindOne(ctx context.Context, filter storage.Filter) (model.Document, error) {
	s.mu.Lock()
	s.finds++
	err := s.err
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return s.inner.FindOne(ctx, filter)
}

func (s *StubStore) UpsertField(ctx context.Context, filter storage.Filter, field string, value any) error {
	s.mu.Lock()
	s.upserts++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.inner.UpsertField(ctx, filter, field, value)
}

func (s *StubStore) Save(ctx context.Context, doc model.Document) error {
	s.mu.Lock()
	s.saves++
	err := s.err
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return s.inner.Save(ctx, doc)
}

func (s *StubStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *StubStore) Close() error {
	return nil
}
