package cart

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/manojvmehra/strob-store/internal/domain"
)

// reconciler performs the one-time drain of a guest cart into an account cart
// on login. Merge errors are absorbed, never propagated: the session must
// always make forward progress to the authenticated state. Items that fail to
// merge are written back to the guest store so a later login can retry them
// instead of silently dropping them.
type reconciler struct {
	guest    GuestStore
	account  AccountStore
	notifier MergeNotifier
	logger   *zap.Logger
	sfg      singleflight.Group
}

func newReconciler(guest GuestStore, account AccountStore, notifier MergeNotifier, logger *zap.Logger) *reconciler {
	return &reconciler{
		guest:    guest,
		account:  account,
		notifier: notifier,
		logger:   logger,
	}
}

// merge drains the guest cart for clientID into the account cart for userID.
// An empty guest cart is a no-op, which is what makes double invocation
// harmless. Concurrent merges for the same client/user pair (two tabs logging
// in at once) are collapsed into a single flight.
func (r *reconciler) merge(ctx context.Context, clientID, userID string) {
	key := clientID + ":" + userID
	r.sfg.Do(key, func() (interface{}, error) {
		local := r.guest.Read(ctx, clientID)
		if len(local) == 0 {
			return nil, nil
		}

		var retained []domain.LineItem
		merged := 0
		for _, item := range local {
			// Snapshots carry over unchanged: no re-pricing, no
			// catalog re-validation at merge time.
			if _, err := r.account.Append(ctx, userID, item.Snapshot); err != nil {
				r.logger.Warn("cart merge: item transfer failed, retaining locally",
					zap.String("user_id", userID),
					zap.String("item_id", item.ID),
					zap.Error(err))
				retained = append(retained, item)
				continue
			}
			merged++
		}

		if len(retained) == 0 {
			if err := r.guest.Clear(ctx, clientID); err != nil {
				r.logger.Warn("cart merge: guest cart clear failed",
					zap.String("client_id", clientID), zap.Error(err))
			}
		} else {
			// Keep only the unmerged remainder; merged items must
			// never be drained twice.
			if err := r.guest.Write(ctx, clientID, retained); err != nil {
				r.logger.Warn("cart merge: retaining remainder failed",
					zap.String("client_id", clientID), zap.Error(err))
			}
		}

		r.logger.Info("cart merge finished",
			zap.String("user_id", userID),
			zap.Int("merged", merged),
			zap.Int("retained", len(retained)))

		if r.notifier != nil {
			r.notifier.CartMerged(ctx, userID, merged, len(retained))
		}

		return nil, nil
	})
}
