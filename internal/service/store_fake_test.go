package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Horanet/payment-payzen/internal/models"
	"github.com/Horanet/payment-payzen/internal/payzen"
)

var errKeyNotFound = errors.New("key not found")

// fakeStore is an in-memory TransactionStore for service tests. It mirrors
// the repository's single-match semantics, including duplicate references.
type fakeStore struct {
	mu           sync.Mutex
	transactions []*models.Transaction
}

func newFakeStore(transactions ...*models.Transaction) *fakeStore {
	return &fakeStore{transactions: transactions}
}

func (s *fakeStore) Create(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *tx
	s.transactions = append(s.transactions, &clone)
	return nil
}

func (s *fakeStore) matches(reference string) []*models.Transaction {
	var matches []*models.Transaction
	for _, tx := range s.transactions {
		if tx.Reference == reference {
			matches = append(matches, tx)
		}
	}
	return matches
}

func (s *fakeStore) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matches := s.matches(reference)
	if len(matches) != 1 {
		return nil, &payzen.LookupError{Reference: reference, Matches: len(matches)}
	}
	clone := *matches[0]
	return &clone, nil
}

func (s *fakeStore) FindCandidates(ctx context.Context, minAge, maxAge time.Duration) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var candidates []models.Transaction
	for _, tx := range s.transactions {
		if tx.State != models.TxStateDraft && tx.State != models.TxStatePending {
			continue
		}
		if tx.AcquirerReference != "" {
			continue
		}
		age := now.Sub(tx.CreatedAt)
		if age < minAge || age > maxAge {
			continue
		}
		candidates = append(candidates, *tx)
	}
	return candidates, nil
}

func (s *fakeStore) WithTransactionLock(ctx context.Context, reference string, fn func(tx *models.Transaction) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	matches := s.matches(reference)
	if len(matches) != 1 {
		return &payzen.LookupError{Reference: reference, Matches: len(matches)}
	}

	record := *matches[0]
	changed, err := fn(&record)
	if err != nil {
		return err
	}
	if changed {
		record.UpdatedAt = time.Now()
		*matches[0] = record
	}
	return nil
}

// fakeCache is an in-memory ReplayCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return "", errKeyNotFound
	}
	return value, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = "1"
	return nil
}
