package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/manojvmehra/strob-store/internal/auth"
	"github.com/manojvmehra/strob-store/internal/cart"
)

// NewRouter wires the storefront API: products, cart, and auth.
func NewRouter(
	sessions *cart.Manager,
	authManager *auth.Manager,
	catalog ProductCatalog,
	requestTimeout time.Duration,
	logger *zap.Logger,
) *chi.Mux {
	cartHandler := NewCartHandler(sessions, catalog, requestTimeout)
	productHandler := NewProductHandler(catalog, requestTimeout)
	authHandler := NewAuthHandler(authManager, requestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(ClientIDMiddleware)
	r.Use(SessionMiddleware(authManager, logger))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/{id}", productHandler.GetProduct)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{ref}", cartHandler.RemoveItem)
		})
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
			r.Post("/signout", authHandler.SignOut)
			r.Get("/me", authHandler.Me)
		})
	})

	return r
}
