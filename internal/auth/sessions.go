package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

type Session struct {
	Token      string    `json:"token"`
	User       User      `json:"user"`
	RememberMe bool      `json:"remember_me"`
	CreatedAt  time.Time `json:"created_at"`
}

// SessionStore keeps session tokens in Redis. Remember-me selects the long
// TTL; otherwise the session expires within a day.
type SessionStore struct {
	client   *redis.Client
	baseTTL  time.Duration
	shortTTL time.Duration
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{
		client:   client,
		baseTTL:  30 * 24 * time.Hour,
		shortTTL: 24 * time.Hour,
	}
}

func (s *SessionStore) Create(ctx context.Context, user User, remember bool) (*Session, error) {
	session := &Session{
		Token:      uuid.NewString(),
		User:       user,
		RememberMe: remember,
		CreatedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session failed: %w", err)
	}

	ttl := s.shortTTL
	if remember {
		ttl = s.baseTTL
	}

	if err := s.client.Set(ctx, sessionKey(session.Token), data, ttl).Err(); err != nil {
		return nil, fmt.Errorf("session write failed: %w", err)
	}

	return session, nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session read failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}

	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("session delete failed: %w", err)
	}
	return nil
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}
