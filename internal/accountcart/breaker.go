package accountcart

import (
	"context"
	"errors"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/manojvmehra/strob-store/internal/domain"
)

// BreakerStore wraps a Store with a circuit breaker so a dead database trips
// fast instead of hanging every caller. ErrItemNotFound is a caller mistake,
// not a backend failure, and does not count against the breaker.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker[[]domain.LineItem]
}

func NewBreakerStore(inner Store, logger *zap.Logger) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        "account-cart",
		MaxRequests: 3,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrItemNotFound)
		},
	}

	return &BreakerStore{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[[]domain.LineItem](settings),
	}
}

func (b *BreakerStore) Read(ctx context.Context, userID string) ([]domain.LineItem, error) {
	return b.cb.Execute(func() ([]domain.LineItem, error) {
		return b.inner.Read(ctx, userID)
	})
}

func (b *BreakerStore) Append(ctx context.Context, userID string, snapshot domain.ProductSnapshot) ([]domain.LineItem, error) {
	return b.cb.Execute(func() ([]domain.LineItem, error) {
		return b.inner.Append(ctx, userID, snapshot)
	})
}

func (b *BreakerStore) RemoveByID(ctx context.Context, userID, itemID string) ([]domain.LineItem, error) {
	return b.cb.Execute(func() ([]domain.LineItem, error) {
		return b.inner.RemoveByID(ctx, userID, itemID)
	})
}

func (b *BreakerStore) Clear(ctx context.Context, userID string) error {
	_, err := b.cb.Execute(func() ([]domain.LineItem, error) {
		return nil, b.inner.Clear(ctx, userID)
	})
	return err
}
