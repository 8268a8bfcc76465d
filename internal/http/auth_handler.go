package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/manojvmehra/strob-store/internal/auth"
)

type AuthHandler struct {
	manager *auth.Manager
	timeout time.Duration
}

func NewAuthHandler(manager *auth.Manager, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		manager: manager,
		timeout: timeout,
	}
}

type SignUpRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type SignInRequestDTO struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type SignInResponseDTO struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SignUpRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	user, err := h.manager.SignUp(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SignInRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	session, err := h.manager.SignIn(ctx, getClientID(r.Context()), req.Email, req.Password, req.RememberMe)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	maxAge := int((24 * time.Hour).Seconds())
	if req.RememberMe {
		maxAge = int((30 * 24 * time.Hour).Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})

	respondJSON(w, http.StatusOK, SignInResponseDTO{
		Token: session.Token,
		User:  session.User,
	})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token := ""
	if session := getSession(r.Context()); session != nil {
		token = session.Token
	}

	if err := h.manager.SignOut(ctx, getClientID(r.Context()), token); err != nil {
		handleStoreError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	respondJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := getSession(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no active session")
		return
	}

	respondJSON(w, http.StatusOK, session.User)
}
