package postgres

import (
	"context"
	"time"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"

	"github.com/lib/pq"
)

type refundRepository struct {
	db DBTX
}

func NewRefundRepository(db DBTX) repository.RefundRepository {
	return &refundRepository{db: db}
}

const refundColumns = `id, rma_id, sale_id, amount_cents, method, status, reference, error_message, processed_at, completed_at, created_at`

func (r *refundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	query := `INSERT INTO refunds (rma_id, sale_id, amount_cents, method, status, reference, error_message, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	refund.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		refund.RmaID, refund.SaleID, refund.AmountCents, refund.Method, refund.Status,
		refund.Reference, refund.ErrorMessage, refund.CreatedAt,
	).Scan(&refund.ID)
	// The unique index on rma_id is the hard guarantee behind the zero-or-one
	// refund invariant; surface a violation as a conflict, not a driver error.
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return repository.ErrStatusConflict
	}
	return err
}

func (r *refundRepository) GetByID(ctx context.Context, id int64) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *refundRepository) GetByRmaID(ctx context.Context, rmaID int64) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE rma_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, rmaID))
}

func (r *refundRepository) scanOne(row rowScanner) (*domain.Refund, error) {
	var refund domain.Refund
	err := row.Scan(&refund.ID, &refund.RmaID, &refund.SaleID, &refund.AmountCents,
		&refund.Method, &refund.Status, &refund.Reference, &refund.ErrorMessage,
		&refund.ProcessedAt, &refund.CompletedAt, &refund.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &refund, nil
}

func (r *refundRepository) SaveResult(ctx context.Context, refund *domain.Refund) error {
	query := `UPDATE refunds
	          SET status=$1, reference=$2, error_message=$3, processed_at=$4, completed_at=$5
	          WHERE id=$6`
	_, err := r.db.ExecContext(ctx, query,
		refund.Status, refund.Reference, refund.ErrorMessage,
		refund.ProcessedAt, refund.CompletedAt, refund.ID)
	return err
}
