package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"lendx/internal/core"
	"lendx/internal/ledger"
)

// Store keeps the ledger in process memory.
type Store struct {
	mu        sync.RWMutex
	borrowers map[string]core.Borrower
}

func New(seed ...core.Borrower) *Store {
	s := &Store{borrowers: make(map[string]core.Borrower, len(seed))}
	for _, b := range seed {
		s.borrowers[b.ID] = normalize(b)
	}
	return s
}

// NewFromFile seeds the store from a JSON array of borrowers. A missing file
// yields an empty store.
func NewFromFile(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return New(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed []core.Borrower
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for _, b := range seed {
		if b.ID == "" {
			return nil, fmt.Errorf("seed file %s: borrower %q has no id", path, b.Name)
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("seed file %s: borrower %s: %w", path, b.ID, err)
		}
	}
	return New(seed...), nil
}

func (s *Store) GetBorrower(_ context.Context, id string) (core.Borrower, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.borrowers[id]
	if !ok {
		return core.Borrower{}, fmt.Errorf("%w: %s", ledger.ErrNotFound, id)
	}
	return b.Clone(), nil
}

func (s *Store) ListBorrowers(_ context.Context) ([]core.Borrower, error) {
	s.mu.RLock()
	out := make([]core.Borrower, 0, len(s.borrowers))
	for _, b := range s.borrowers {
		out = append(out, b.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SaveBorrower(_ context.Context, b core.Borrower) error {
	if b.ID == "" {
		return fmt.Errorf("save borrower: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.borrowers[b.ID] = normalize(b)
	return nil
}

func (s *Store) DeleteBorrower(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.borrowers[id]; !ok {
		return fmt.Errorf("%w: %s", ledger.ErrNotFound, id)
	}
	delete(s.borrowers, id)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// normalize stores a private, date-sorted copy.
func normalize(b core.Borrower) core.Borrower {
	out := b.Clone()
	core.SortByDate(out.Transactions)
	return out
}
