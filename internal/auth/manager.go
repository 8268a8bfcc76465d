package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User is the opaque identity the rest of the application sees.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type EventType string

const (
	SignedIn  EventType = "SIGNED_IN"
	SignedOut EventType = "SIGNED_OUT"
)

// Event describes an identity transition for one browser client.
type Event struct {
	ClientID string
	Type     EventType
	User     *User
}

// UserRepository defines profile persistence. Consumers define this
// interface, not the Postgres implementation.
type UserRepository interface {
	Create(ctx context.Context, user *User, passwordHash []byte) error
	GetByEmail(ctx context.Context, email string) (*User, []byte, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// Manager is the identity provider boundary: get current session, subscribe
// to session changes, sign in, sign out.
type Manager struct {
	users    UserRepository
	sessions *SessionStore
	logger   *zap.Logger

	mu          sync.RWMutex
	subscribers []func(Event)
}

func NewManager(users UserRepository, sessions *SessionStore, logger *zap.Logger) *Manager {
	return &Manager{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// Subscribe registers a listener for identity transitions. Listeners are
// invoked synchronously, in registration order, on the caller's goroutine.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// SignUp registers a profile. The password is stored as a bcrypt hash; a
// duplicate email surfaces as ErrEmailTaken.
func (m *Manager) SignUp(ctx context.Context, email, password, fullName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if fullName == "" {
		fullName = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:       uuid.NewString(),
		Email:    email,
		FullName: fullName,
	}

	if err := m.users.Create(ctx, user, hash); err != nil {
		return nil, err
	}

	return user, nil
}

// SignIn validates credentials, mints a session, and notifies subscribers of
// the anonymous-to-authenticated transition for this client.
func (m *Manager) SignIn(ctx context.Context, clientID, email, password string, remember bool) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, hash, err := m.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := m.sessions.Create(ctx, *user, remember)
	if err != nil {
		return nil, err
	}

	m.notify(Event{ClientID: clientID, Type: SignedIn, User: user})
	return session, nil
}

// SignOut deletes the session and notifies subscribers. A missing session is
// not an error; the client ends up signed out either way.
func (m *Manager) SignOut(ctx context.Context, clientID, token string) error {
	session, err := m.sessions.Get(ctx, token)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}

	if session != nil {
		if err := m.sessions.Delete(ctx, token); err != nil {
			return err
		}
	}

	m.notify(Event{ClientID: clientID, Type: SignedOut})
	return nil
}

// Session resolves a token to its active session, or ErrSessionNotFound.
func (m *Manager) Session(ctx context.Context, token string) (*Session, error) {
	return m.sessions.Get(ctx, token)
}

func (m *Manager) notify(evt Event) {
	m.mu.RLock()
	subscribers := make([]func(Event), len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.mu.RUnlock()

	for _, fn := range subscribers {
		fn(evt)
	}
}
