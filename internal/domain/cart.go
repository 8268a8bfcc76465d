package domain

import "time"

// LineItem is one entry in a cart. Every item, guest or account, carries a
// single opaque ID from creation: a client-generated UUID for guest items and
// the database row UUID for account items. Removal is always addressed by ID;
// position is display order only.
type LineItem struct {
	ID       string          `json:"cart_item_id"`
	Snapshot ProductSnapshot `json:"snapshot"`
	Quantity int             `json:"quantity"`
	AddedAt  time.Time       `json:"added_at"`
}

// Identity is either anonymous (zero value) or an authenticated user.
type Identity struct {
	UserID string
}

var Anonymous = Identity{}

func Authenticated(userID string) Identity {
	return Identity{UserID: userID}
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// Total is the sum of snapshot prices over all line items. Quantity is always
// 1 in the current storefront, so the total does not multiply by it.
func Total(items []LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Snapshot.Price
	}
	return sum
}
