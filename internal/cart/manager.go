package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/manojvmehra/strob-store/internal/auth"
	"github.com/manojvmehra/strob-store/internal/domain"
)

// Manager owns one Session per browser client and is the only subscriber to
// identity transitions. Sessions are constructed explicitly here, once per
// client, and handed to callers by reference — there is no ambient global
// cart state.
type Manager struct {
	guest   GuestStore
	account AccountStore
	rec     *reconciler
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(guest GuestStore, account AccountStore, notifier MergeNotifier, logger *zap.Logger) *Manager {
	return &Manager{
		guest:    guest,
		account:  account,
		rec:      newReconciler(guest, account, notifier, logger),
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Attach subscribes the manager to the identity provider's session changes.
func (m *Manager) Attach(authManager *auth.Manager) {
	authManager.Subscribe(m.handleAuthEvent)
}

// Session returns the cart session for clientID, creating and initializing
// it from the given identity on first sight. If a live session is still
// anonymous but the client presents an authenticated identity (a login that
// happened outside this process), the login transition runs now; merging an
// already-drained guest cart is a safe no-op.
func (m *Manager) Session(ctx context.Context, clientID string, identity domain.Identity) *Session {
	m.mu.Lock()
	session, ok := m.sessions[clientID]
	if !ok {
		session = newSession(clientID, m.guest, m.account, m.rec, m.logger)
		m.sessions[clientID] = session
	}
	m.mu.Unlock()

	if !ok {
		session.Init(ctx, identity)
		return session
	}

	if !identity.IsAnonymous() && session.Identity().IsAnonymous() {
		session.Login(ctx, identity.UserID)
	}
	return session
}

// RefreshUser reloads the working state of every live session bound to the
// user, after their account cart changed outside the facade (checkout
// completion).
func (m *Manager) RefreshUser(ctx context.Context, userID string) {
	for _, session := range m.sessionsForUser(userID) {
		session.Refresh(ctx)
	}
}

func (m *Manager) sessionsForUser(userID string) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*Session
	for _, session := range m.sessions {
		if session.Identity().UserID == userID {
			matched = append(matched, session)
		}
	}
	return matched
}

func (m *Manager) handleAuthEvent(evt auth.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch evt.Type {
	case auth.SignedIn:
		if evt.User == nil {
			m.logger.Warn("signed-in event without user", zap.String("client_id", evt.ClientID))
			return
		}
		session := m.Session(ctx, evt.ClientID, domain.Anonymous)
		session.Login(ctx, evt.User.ID)
	case auth.SignedOut:
		m.mu.Lock()
		session, ok := m.sessions[evt.ClientID]
		m.mu.Unlock()
		if ok {
			session.Logout()
		}
	}
}
