package postgres

import (
	"context"
	"time"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

type saleRepository struct {
	db DBTX
}

func NewSaleRepository(db DBTX) repository.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) GetByID(ctx context.Context, id int64) (*domain.Sale, error) {
	query := `SELECT id, user_id, status, total_cents, sale_time FROM sale WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *saleRepository) GetForUser(ctx context.Context, saleID, userID int64) (*domain.Sale, error) {
	query := `SELECT id, user_id, status, total_cents, sale_time FROM sale WHERE id = $1 AND user_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, saleID, userID))
}

func (r *saleRepository) scanOne(row rowScanner) (*domain.Sale, error) {
	var sale domain.Sale
	err := row.Scan(&sale.ID, &sale.UserID, &sale.Status, &sale.TotalCents, &sale.SaleTime)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &sale, nil
}

func (r *saleRepository) UpdateStatus(ctx context.Context, saleID int64, status domain.SaleStatus) error {
	query := `UPDATE sale SET status = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, saleID)
	return err
}

func (r *saleRepository) CreateWithItems(ctx context.Context, sale *domain.Sale, items []domain.SaleItem) error {
	query := `INSERT INTO sale (user_id, status, total_cents, sale_time) VALUES ($1, $2, $3, $4) RETURNING id`
	sale.SaleTime = time.Now()
	if err := r.db.QueryRowContext(ctx, query, sale.UserID, sale.Status, sale.TotalCents, sale.SaleTime).Scan(&sale.ID); err != nil {
		return err
	}
	itemQuery := `INSERT INTO sale_item (sale_id, product_id, quantity, price_cents) VALUES ($1, $2, $3, $4) RETURNING id`
	for i := range items {
		items[i].SaleID = sale.ID
		err := r.db.QueryRowContext(ctx, itemQuery,
			sale.ID, items[i].ProductID, items[i].Quantity, items[i].PriceCents,
		).Scan(&items[i].ID)
		if err != nil {
			return err
		}
	}
	return nil
}
