package domain

import "time"

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusRefunded  SaleStatus = "REFUNDED"
)

// Sale is the boundary contract with the order collaborator. The RMA engine
// only ever reads sales, marks one REFUNDED, or creates a zero-total
// replacement sale.
type Sale struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Status     SaleStatus `json:"status"`
	TotalCents int64      `json:"total_cents"`
	SaleTime   time.Time  `json:"sale_time"`
}

// SaleItem is one purchased line; PriceCents is the unit price at purchase.
type SaleItem struct {
	ID         int64 `json:"id"`
	SaleID     int64 `json:"sale_id"`
	ProductID  int64 `json:"product_id"`
	Quantity   int64 `json:"quantity"`
	PriceCents int64 `json:"price_cents"`
}
