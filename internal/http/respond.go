package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/manojvmehra/strob-store/internal/accountcart"
	"github.com/manojvmehra/strob-store/internal/auth"
	"github.com/manojvmehra/strob-store/internal/catalog"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleStoreError maps store and auth sentinels to HTTP status codes.
func handleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accountcart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", "cart item not found")
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, auth.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email_taken", "email already registered")
	case errors.Is(err, auth.ErrSessionNotFound):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "session expired or not found")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "cart storage temporarily unavailable")
	default:
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "storage failure")
	}
}
