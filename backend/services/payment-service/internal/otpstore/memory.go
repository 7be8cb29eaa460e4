package otpstore

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	count     int64
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-process Store with real TTL semantics driven by an
// injectable clock. Used by tests and dev mode.
type MemoryStore struct {
	mu          sync.Mutex
	now         func() time.Time
	codes       map[int64]entry
	attempts    map[int64]entry
	resends     map[int64]entry
	lastResends map[int64]entry
}

// NewMemoryStore returns an initialized store. A nil now func defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:         now,
		codes:       make(map[int64]entry),
		attempts:    make(map[int64]entry),
		resends:     make(map[int64]entry),
		lastResends: make(map[int64]entry),
	}
}

func (s *MemoryStore) SetCode(ctx context.Context, txnID int64, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[txnID] = entry{value: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) GetCode(ctx context.Context, txnID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.codes[txnID]
	if !ok || e.expired(s.now()) {
		delete(s.codes, txnID)
		return "", ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) DeleteCode(ctx context.Context, txnID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, txnID)
	return nil
}

func (s *MemoryStore) IncrAttempts(ctx context.Context, txnID int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.attempts[txnID]
	if !ok || e.expired(s.now()) {
		e = entry{expiresAt: s.now().Add(ttl)}
	}
	e.count++
	s.attempts[txnID] = e
	return e.count, nil
}

func (s *MemoryStore) ResetAttempts(ctx context.Context, txnID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, txnID)
	return nil
}

func (s *MemoryStore) ResendCount(ctx context.Context, txnID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.resends[txnID]
	if !ok || e.expired(s.now()) {
		return 0, nil
	}
	return e.count, nil
}

func (s *MemoryStore) IncrResendCount(ctx context.Context, txnID int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.resends[txnID]
	if !ok || e.expired(s.now()) {
		e = entry{}
	}
	e.count++
	e.expiresAt = s.now().Add(ttl)
	s.resends[txnID] = e
	return e.count, nil
}

func (s *MemoryStore) LastResend(ctx context.Context, txnID int64) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lastResends[txnID]
	if !ok || e.expired(s.now()) {
		return time.Time{}, ErrNotFound
	}
	at, err := time.Parse(time.RFC3339Nano, e.value)
	if err != nil {
		return time.Time{}, ErrNotFound
	}
	return at, nil
}

func (s *MemoryStore) SetLastResend(ctx context.Context, txnID int64, at time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResends[txnID] = entry{value: at.UTC().Format(time.RFC3339Nano), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, txnID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, txnID)
	delete(s.attempts, txnID)
	delete(s.resends, txnID)
	delete(s.lastResends, txnID)
	return nil
}
