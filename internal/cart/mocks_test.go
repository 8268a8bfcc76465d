package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manojvmehra/strob-store/internal/accountcart"
	"github.com/manojvmehra/strob-store/internal/domain"
)

// memGuestStore implements GuestStore for testing
type memGuestStore struct {
	mu    sync.Mutex
	carts map[string][]domain.LineItem
}

func newMemGuestStore() *memGuestStore {
	return &memGuestStore{carts: make(map[string][]domain.LineItem)}
}

func (s *memGuestStore) Read(_ context.Context, clientID string) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.LineItem, len(s.carts[clientID]))
	copy(items, s.carts[clientID])
	return items
}

func (s *memGuestStore) Write(_ context.Context, clientID string, items []domain.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[clientID] = append([]domain.LineItem(nil), items...)
	return nil
}

func (s *memGuestStore) Append(ctx context.Context, clientID string, snapshot domain.ProductSnapshot) ([]domain.LineItem, error) {
	items := s.Read(ctx, clientID)
	items = append(items, domain.LineItem{
		ID:       uuid.NewString(),
		Snapshot: snapshot,
		Quantity: 1,
		AddedAt:  time.Now().UTC(),
	})
	if err := s.Write(ctx, clientID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *memGuestStore) RemoveAt(ctx context.Context, clientID string, index int) ([]domain.LineItem, error) {
	items := s.Read(ctx, clientID)
	if index < 0 || index >= len(items) {
		return items, nil
	}
	items = append(items[:index], items[index+1:]...)
	if err := s.Write(ctx, clientID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *memGuestStore) RemoveByID(ctx context.Context, clientID string, itemID string) ([]domain.LineItem, error) {
	items := s.Read(ctx, clientID)
	for i, item := range items {
		if item.ID == itemID {
			return s.RemoveAt(ctx, clientID, i)
		}
	}
	return items, nil
}

func (s *memGuestStore) Clear(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, clientID)
	return nil
}

// memAccountStore implements AccountStore for testing. Appends of product ids
// listed in failProducts return an error, to exercise partial merge failures.
type memAccountStore struct {
	mu           sync.Mutex
	carts        map[string][]domain.LineItem
	failProducts map[int64]bool
	appendCalls  int
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{
		carts:        make(map[string][]domain.LineItem),
		failProducts: make(map[int64]bool),
	}
}

func (s *memAccountStore) Read(_ context.Context, userID string) ([]domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.LineItem, len(s.carts[userID]))
	copy(items, s.carts[userID])
	return items, nil
}

func (s *memAccountStore) Append(_ context.Context, userID string, snapshot domain.ProductSnapshot) ([]domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendCalls++
	if s.failProducts[snapshot.ProductID] {
		return nil, errors.New("insert cart item: connection refused")
	}

	s.carts[userID] = append(s.carts[userID], domain.LineItem{
		ID:       uuid.NewString(),
		Snapshot: snapshot,
		Quantity: 1,
		AddedAt:  time.Now().UTC(),
	})

	items := make([]domain.LineItem, len(s.carts[userID]))
	copy(items, s.carts[userID])
	return items, nil
}

func (s *memAccountStore) RemoveByID(_ context.Context, userID, itemID string) ([]domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i, item := range items {
		if item.ID == itemID {
			s.carts[userID] = append(items[:i], items[i+1:]...)
			out := make([]domain.LineItem, len(s.carts[userID]))
			copy(out, s.carts[userID])
			return out, nil
		}
	}
	return nil, accountcart.ErrItemNotFound
}

func (s *memAccountStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

func (s *memAccountStore) seed(userID string, item domain.LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = append(s.carts[userID], item)
}

// recordingNotifier captures merge outcomes
type mergeRecord struct {
	userID   string
	merged   int
	retained int
}

type recordingNotifier struct {
	mu      sync.Mutex
	records []mergeRecord
}

func (n *recordingNotifier) CartMerged(_ context.Context, userID string, merged, retained int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, mergeRecord{userID: userID, merged: merged, retained: retained})
}
