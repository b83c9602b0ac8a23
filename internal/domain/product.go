package domain

// Product is the boundary contract with the inventory collaborator. Stock is
// shared with the storefront checkout path, so all mutations go through
// guarded bounded deltas, never overwrites.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int64  `json:"stock"`
}
