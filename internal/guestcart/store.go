package guestcart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/manojvmehra/strob-store/internal/domain"
)

// keyPrefix is the fixed namespace for guest carts, one JSON-encoded array per
// anonymous client.
const keyPrefix = "guest_cart:"

// Store keeps the cart of an unauthenticated visitor. A guest cart is
// disposable session state: reads never fail the caller — a missing key,
// an unreachable server or corrupt JSON all degrade to an empty cart.
type Store struct {
	client  *redis.Client
	logger  *zap.Logger
	baseTTL time.Duration
}

func NewStore(client *redis.Client, logger *zap.Logger) *Store {
	return &Store{
		client:  client,
		logger:  logger,
		baseTTL: 30 * 24 * time.Hour,
	}
}

// Read returns the guest cart contents, or an empty cart if the key is
// absent, unreadable or holds corrupt data.
func (s *Store) Read(ctx context.Context, clientID string) []domain.LineItem {
	key := cartKey(clientID)

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		s.logger.Warn("guest cart read failed, treating as empty",
			zap.String("client_id", clientID), zap.Error(err))
		return nil
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("guest cart holds corrupt data, treating as empty",
			zap.String("client_id", clientID), zap.Error(err))
		return nil
	}

	return items
}

// Write replaces the full stored sequence in a single SET.
func (s *Store) Write(ctx context.Context, clientID string, items []domain.LineItem) error {
	if items == nil {
		items = []domain.LineItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal guest cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(6)) * time.Hour
	ttl := s.baseTTL + jitter
	if err := s.client.Set(ctx, cartKey(clientID), data, ttl).Err(); err != nil {
		return fmt.Errorf("guest cart write failed: %w", err)
	}
	return nil
}

// Append adds a line item with a freshly generated id and returns the new
// full contents.
func (s *Store) Append(ctx context.Context, clientID string, snapshot domain.ProductSnapshot) ([]domain.LineItem, error) {
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

// RemoveAt removes the item at the given display position. An out-of-range
// index is a tolerated no-op, not an error.
func (s *Store) RemoveAt(ctx context.Context, clientID string, index int) ([]domain.LineItem, error) {
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

// RemoveByID removes the item with the given opaque id. An unknown id is a
// no-op, matching RemoveAt.
func (s *Store) RemoveByID(ctx context.Context, clientID string, itemID string) ([]domain.LineItem, error) {
	items := s.Read(ctx, clientID)
	for i, item := range items {
		if item.ID == itemID {
			return s.RemoveAt(ctx, clientID, i)
		}
	}
	return items, nil
}

// Clear deletes all stored contents.
func (s *Store) Clear(ctx context.Context, clientID string) error {
	if err := s.client.Del(ctx, cartKey(clientID)).Err(); err != nil {
		return fmt.Errorf("guest cart delete failed: %w", err)
	}
	return nil
}

func cartKey(clientID string) string {
	return keyPrefix + clientID
}
