package domain

// Product is a catalog entity.
type Product struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// ProductSnapshot is an immutable copy of a product's display attributes,
// embedded in a cart line item so historical cart views stay stable even
// if the catalog changes later.
type ProductSnapshot struct {
	ProductID   int64    `json:"product_id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// Snapshot freezes the product's current display attributes.
func (p Product) Snapshot() ProductSnapshot {
	features := make([]string, len(p.Features))
	copy(features, p.Features)

	return ProductSnapshot{
		ProductID:   p.ID,
		Title:       p.Title,
		Category:    p.Category,
		Price:       p.Price,
		Image:       p.Image,
		Description: p.Description,
		Features:    features,
	}
}
