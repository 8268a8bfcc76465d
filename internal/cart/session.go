package cart

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/manojvmehra/strob-store/internal/domain"
)

// State is the reconciliation engine's position in its lifecycle.
type State int

const (
	Uninitialized State = iota
	GuestActive
	Merging
	UserActive
)

func (s State) String() string {
	switch s {
	case GuestActive:
		return "guest_active"
	case Merging:
		return "merging"
	case UserActive:
		return "user_active"
	default:
		return "uninitialized"
	}
}

// Session is the cart facade for one browser client: the single object the
// UI layer depends on for every cart operation. It routes to the guest or
// account store on the current identity, so callers never branch on
// authentication state, and it always overwrites its working state with the
// store's confirmed response — no speculative updates.
type Session struct {
	clientID string

	guest   GuestStore
	account AccountStore
	rec     *reconciler
	logger  *zap.Logger

	mu       sync.Mutex
	state    State
	identity domain.Identity
	items    []domain.LineItem
	loading  bool
}

func newSession(clientID string, guest GuestStore, account AccountStore, rec *reconciler, logger *zap.Logger) *Session {
	return &Session{
		clientID: clientID,
		guest:    guest,
		account:  account,
		rec:      rec,
		logger:   logger,
		state:    Uninitialized,
		loading:  true,
	}
}

// Init loads the working state for the identity present at startup: guest
// contents when anonymous, merge-then-account contents when a session already
// exists. Only valid from Uninitialized; later calls are no-ops.
func (s *Session) Init(ctx context.Context, identity domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Uninitialized {
		return
	}

	if identity.IsAnonymous() {
		s.items = s.guest.Read(ctx, s.clientID)
		s.identity = domain.Anonymous
		s.state = GuestActive
		s.loading = false
		return
	}

	s.login(ctx, identity.UserID)
}

// Login performs the anonymous-to-authenticated transition: merge the guest
// cart into the account cart, then load the account cart as the working
// state. Once UserActive for this user the call is a no-op, so a duplicate
// sign-in event cannot re-trigger a merge.
func (s *Session) Login(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == UserActive && s.identity.UserID == userID {
		return
	}

	s.login(ctx, userID)
}

// login assumes s.mu is held.
func (s *Session) login(ctx context.Context, userID string) {
	s.state = Merging
	s.loading = true

	s.rec.merge(ctx, s.clientID, userID)

	items, err := s.account.Read(ctx, userID)
	if err != nil {
		// The merge already ran; an unreadable account cart must not
		// leave the session stuck mid-merge. Surface an empty working
		// state and let the next read refresh it.
		s.logger.Error("account cart load failed after merge",
			zap.String("user_id", userID), zap.Error(err))
		items = nil
	}

	s.items = items
	s.identity = domain.Authenticated(userID)
	s.state = UserActive
	s.loading = false
}

// Logout clears the working state in memory only. The account cart persists
// untouched for the next login; nothing is written back to the guest store.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.identity = domain.Anonymous
	s.state = GuestActive
	s.loading = false
}

// Add appends the product to whichever store is authoritative and replaces
// the working state with the returned contents.
func (s *Session) Add(ctx context.Context, product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []domain.LineItem
	var err error
	if s.identity.IsAnonymous() {
		items, err = s.guest.Append(ctx, s.clientID, product.Snapshot())
	} else {
		items, err = s.account.Append(ctx, s.identity.UserID, product.Snapshot())
	}
	if err != nil {
		return err
	}

	s.items = items
	return nil
}

// Remove deletes one line item. The reference is resolved against the
// current working state: an opaque item id matches directly; a purely
// numeric reference that matches no id falls back to display position.
// An unresolvable reference is a tolerated no-op.
func (s *Session) Remove(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemID, index := s.resolve(ref)

	var items []domain.LineItem
	var err error
	switch {
	case s.identity.IsAnonymous() && itemID != "":
		items, err = s.guest.RemoveByID(ctx, s.clientID, itemID)
	case s.identity.IsAnonymous() && index >= 0:
		items, err = s.guest.RemoveAt(ctx, s.clientID, index)
	case !s.identity.IsAnonymous() && itemID != "":
		items, err = s.account.RemoveByID(ctx, s.identity.UserID, itemID)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	s.items = items
	return nil
}

// resolve maps a caller-supplied reference to an item id, or to a display
// position when the reference is numeric and matches no id.
func (s *Session) resolve(ref string) (itemID string, index int) {
	for _, item := range s.items {
		if item.ID == ref {
			return item.ID, -1
		}
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 0 && n < len(s.items) {
			return s.items[n].ID, n
		}
		return "", n
	}

	return "", -1
}

// Items returns a copy of the working state in display order.
func (s *Session) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.LineItem, len(s.items))
	copy(items, s.items)
	return items
}

// Total is the sum of snapshot prices over the working state. Pure and
// synchronous; no store round trip.
func (s *Session) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Total(s.items)
}

// Clear empties the working state in memory.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Refresh reloads the working state from the authoritative store.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity.IsAnonymous() {
		s.items = s.guest.Read(ctx, s.clientID)
		return
	}

	items, err := s.account.Read(ctx, s.identity.UserID)
	if err != nil {
		s.logger.Warn("account cart refresh failed",
			zap.String("user_id", s.identity.UserID), zap.Error(err))
		return
	}
	s.items = items
}
