package cart

import (
	"context"

	"github.com/manojvmehra/strob-store/internal/domain"
)

// GuestStore is the local cart contract. Reads never fail; corruption and
// unavailability degrade to an empty cart at the store layer.
// Consumers define this interface, not the Redis implementation.
type GuestStore interface {
	Read(ctx context.Context, clientID string) []domain.LineItem
	Write(ctx context.Context, clientID string, items []domain.LineItem) error
	Append(ctx context.Context, clientID string, snapshot domain.ProductSnapshot) ([]domain.LineItem, error)
	RemoveAt(ctx context.Context, clientID string, index int) ([]domain.LineItem, error)
	RemoveByID(ctx context.Context, clientID string, itemID string) ([]domain.LineItem, error)
	Clear(ctx context.Context, clientID string) error
}

// AccountStore is the remote cart contract; every failure surfaces as a
// distinguishable error.
type AccountStore interface {
	Read(ctx context.Context, userID string) ([]domain.LineItem, error)
	Append(ctx context.Context, userID string, snapshot domain.ProductSnapshot) ([]domain.LineItem, error)
	RemoveByID(ctx context.Context, userID, itemID string) ([]domain.LineItem, error)
	Clear(ctx context.Context, userID string) error
}

// MergeNotifier receives the outcome of each guest-to-account merge. It must
// not fail the merge; implementations log or publish and swallow their own
// errors.
type MergeNotifier interface {
	CartMerged(ctx context.Context, userID string, merged, retained int)
}
