package postgres

import (
	"context"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

type productRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT id, name, price_cents, stock FROM product WHERE id = $1`
	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &p, nil
}

// AdjustStock applies a bounded delta. Stock is shared with the checkout path,
// so the delta and the floor check happen in one statement; a zero-row result
// means the delta would have driven stock negative.
func (r *productRepository) AdjustStock(ctx context.Context, productID, delta int64) error {
	query := `UPDATE product SET stock = stock + $1 WHERE id = $2 AND stock + $1 >= 0`
	return guard(r.db.ExecContext(ctx, query, delta, productID))
}
