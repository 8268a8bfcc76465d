package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/manojvmehra/strob-store/internal/cart"
	"github.com/manojvmehra/strob-store/internal/domain"
)

// ProductSource is the catalog slice the cart handler needs.
type ProductSource interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

type CartHandler struct {
	sessions *cart.Manager
	catalog  ProductSource
	timeout  time.Duration
}

func NewCartHandler(sessions *cart.Manager, catalog ProductSource, timeout time.Duration) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  catalog,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

// CartResponseDTO is the shape the rendering layer consumes.
type CartResponseDTO struct {
	Cart    []domain.LineItem `json:"cart"`
	Total   float64           `json:"total"`
	Loading bool              `json:"loading"`
}

func (h *CartHandler) session(ctx context.Context, r *http.Request) *cart.Session {
	identity := domain.Anonymous
	if s := getSession(r.Context()); s != nil {
		identity = domain.Authenticated(s.User.ID)
	}
	return h.sessions.Session(ctx, getClientID(r.Context()), identity)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := h.session(ctx, r)
	respondJSON(w, http.StatusOK, CartResponseDTO{
		Cart:    session.Items(),
		Total:   session.Total(),
		Loading: session.Loading(),
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, err := h.catalog.Get(ctx, req.ProductID)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	session := h.session(ctx, r)
	if err := session.Add(ctx, *product); err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CartResponseDTO{
		Cart:    session.Items(),
		Total:   session.Total(),
		Loading: session.Loading(),
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ref := chi.URLParam(r, "ref")
	if ref == "" {
		respondError(w, http.StatusBadRequest, "invalid_reference", "item reference required")
		return
	}

	session := h.session(ctx, r)
	if err := session.Remove(ctx, ref); err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{
		Cart:    session.Items(),
		Total:   session.Total(),
		Loading: session.Loading(),
	})
}
