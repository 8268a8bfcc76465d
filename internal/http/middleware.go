package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manojvmehra/strob-store/internal/auth"
)

const (
	clientIDCookie = "strob_client_id"
	sessionCookie  = "strob_session"
)

// ClientIDMiddleware gives every browser a stable anonymous identity. The
// client id keys the guest cart and the cart session; it survives login and
// logout.
func ClientIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := ""
		if c, err := r.Cookie(clientIDCookie); err == nil && c.Value != "" {
			clientID = c.Value
		}
		if clientID == "" {
			clientID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     clientIDCookie,
				Value:    clientID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			})
		}

		ctx := context.WithValue(r.Context(), "client_id", clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionMiddleware resolves the session token, when one is presented, into
// the authenticated user. A missing or expired token leaves the request
// anonymous; only handlers that require identity reject it.
func SessionMiddleware(manager *auth.Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(sessionCookie); err == nil {
					token = c.Value
				}
			}

			if token != "" {
				session, err := manager.Session(r.Context(), token)
				if err == nil {
					ctx := context.WithValue(r.Context(), "session", session)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				if !errors.Is(err, auth.ErrSessionNotFound) {
					logger.Warn("session lookup failed", zap.Error(err))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func getClientID(ctx context.Context) string {
	if clientID, ok := ctx.Value("client_id").(string); ok {
		return clientID
	}
	return ""
}

func getSession(ctx context.Context) *auth.Session {
	if session, ok := ctx.Value("session").(*auth.Session); ok {
		return session
	}
	return nil
}
