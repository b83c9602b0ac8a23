package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"

	"github.com/lib/pq"
)

type rmaRepository struct {
	db DBTX
}

func NewRMARepository(db DBTX) repository.RMARepository {
	return &rmaRepository{db: db}
}

const rmaColumns = `id, rma_number, sale_id, user_id, reason, description, photo_urls, status, disposition,
	is_eligible, warranty_valid, purchase_date_valid, validation_notes, validated_by, validated_at,
	shipping_carrier, tracking_number, shipped_at, received_at,
	inspection_result, inspection_notes, inspected_by, inspected_at,
	disposition_reason, disposition_by, disposition_at,
	refund_amount_cents, created_at, closed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRma(row rowScanner) (*domain.RmaRequest, error) {
	var (
		rma        domain.RmaRequest
		photoURLs  []byte
		dispo      sql.NullString
		inspResult sql.NullString
	)
	err := row.Scan(
		&rma.ID, &rma.RmaNumber, &rma.SaleID, &rma.UserID, &rma.Reason, &rma.Description, &photoURLs,
		&rma.Status, &dispo,
		&rma.IsEligible, &rma.WarrantyValid, &rma.PurchaseDateValid,
		&rma.ValidationNotes, &rma.ValidatedBy, &rma.ValidatedAt,
		&rma.ShippingCarrier, &rma.TrackingNumber, &rma.ShippedAt, &rma.ReceivedAt,
		&inspResult, &rma.InspectionNotes, &rma.InspectedBy, &rma.InspectedAt,
		&rma.DispositionReason, &rma.DispositionBy, &rma.DispositionAt,
		&rma.RefundAmountCents, &rma.CreatedAt, &rma.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	if dispo.Valid {
		d := domain.Disposition(dispo.String)
		rma.Disposition = &d
	}
	if inspResult.Valid {
		r := domain.InspectionResult(inspResult.String)
		rma.InspectionResult = &r
	}
	if len(photoURLs) > 0 {
		if err := json.Unmarshal(photoURLs, &rma.PhotoURLs); err != nil {
			return nil, err
		}
	}
	return &rma, nil
}

func nullDisposition(d *domain.Disposition) any {
	if d == nil {
		return nil
	}
	return string(*d)
}

func nullInspectionResult(r *domain.InspectionResult) any {
	if r == nil {
		return nil
	}
	return string(*r)
}

func statusStrings(statuses []domain.RmaStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func mapNoRows(err error) error {
	if err == sql.ErrNoRows {
		return repository.ErrNotFound
	}
	return err
}

// guard checks the RowsAffected of a status-guarded UPDATE.
func guard(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

func (r *rmaRepository) Create(ctx context.Context, rma *domain.RmaRequest) error {
	photos, err := json.Marshal(rma.PhotoURLs)
	if err != nil {
		return err
	}
	query := `INSERT INTO rma_requests (rma_number, sale_id, user_id, reason, description, photo_urls, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	rma.CreatedAt = time.Now()
	return r.db.QueryRowContext(ctx, query,
		rma.RmaNumber, rma.SaleID, rma.UserID, rma.Reason, rma.Description, photos, rma.Status, rma.CreatedAt,
	).Scan(&rma.ID)
}

func (r *rmaRepository) GetByID(ctx context.Context, id int64) (*domain.RmaRequest, error) {
	query := `SELECT ` + rmaColumns + ` FROM rma_requests WHERE id = $1`
	rma, err := scanRma(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return rma, nil
}

func (r *rmaRepository) GetByNumber(ctx context.Context, number string) (*domain.RmaRequest, error) {
	query := `SELECT ` + rmaColumns + ` FROM rma_requests WHERE rma_number = $1`
	rma, err := scanRma(r.db.QueryRowContext(ctx, query, number))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return rma, nil
}

func (r *rmaRepository) FindActiveBySale(ctx context.Context, saleID int64) (*domain.RmaRequest, error) {
	query := `SELECT ` + rmaColumns + ` FROM rma_requests
	          WHERE sale_id = $1 AND status NOT IN ('COMPLETED', 'REJECTED', 'CANCELLED')
	          ORDER BY id LIMIT 1`
	rma, err := scanRma(r.db.QueryRowContext(ctx, query, saleID))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return rma, nil
}

func (r *rmaRepository) ListByUser(ctx context.Context, userID int64, status domain.RmaStatus) ([]domain.RmaRequest, error) {
	query := `SELECT ` + rmaColumns + ` FROM rma_requests WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rmas []domain.RmaRequest
	for rows.Next() {
		rma, err := scanRma(rows)
		if err != nil {
			return nil, err
		}
		rmas = append(rmas, *rma)
	}
	return rmas, rows.Err()
}

func (r *rmaRepository) CountNumbersWithPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM rma_requests WHERE rma_number LIKE $1`
	err := r.db.QueryRowContext(ctx, query, prefix+"%").Scan(&count)
	return count, err
}

func (r *rmaRepository) CreateItems(ctx context.Context, rmaID int64, items []domain.RmaItem) error {
	query := `INSERT INTO rma_items (rma_id, sale_item_id, product_id, quantity, reason)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for i := range items {
		items[i].RmaID = rmaID
		err := r.db.QueryRowContext(ctx, query,
			rmaID, items[i].SaleItemID, items[i].ProductID, items[i].Quantity, items[i].Reason,
		).Scan(&items[i].ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *rmaRepository) ListItems(ctx context.Context, rmaID int64) ([]domain.RmaItem, error) {
	query := `SELECT id, rma_id, sale_item_id, product_id, quantity, reason FROM rma_items WHERE rma_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, rmaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.RmaItem
	for rows.Next() {
		var it domain.RmaItem
		if err := rows.Scan(&it.ID, &it.RmaID, &it.SaleItemID, &it.ProductID, &it.Quantity, &it.Reason); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *rmaRepository) ListItemViews(ctx context.Context, rmaID int64) ([]domain.RmaItemView, error) {
	query := `SELECT ri.id, ri.rma_id, ri.sale_item_id, ri.product_id, ri.quantity, ri.reason,
	                 p.name, si.price_cents
	          FROM rma_items ri
	          JOIN product p ON ri.product_id = p.id
	          JOIN sale_item si ON ri.sale_item_id = si.id
	          WHERE ri.rma_id = $1 ORDER BY ri.id`
	rows, err := r.db.QueryContext(ctx, query, rmaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.RmaItemView
	for rows.Next() {
		var it domain.RmaItemView
		if err := rows.Scan(&it.ID, &it.RmaID, &it.SaleItemID, &it.ProductID, &it.Quantity, &it.Reason,
			&it.ProductName, &it.PriceAtPurchaseCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *rmaRepository) SaveValidation(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error {
	query := `UPDATE rma_requests
	          SET status=$1, validation_notes=$2, validated_by=$3, validated_at=$4,
	              is_eligible=$5, warranty_valid=$6, purchase_date_valid=$7,
	              rma_number=COALESCE(rma_number, $8)
	          WHERE id=$9 AND status=$10`
	return guard(r.db.ExecContext(ctx, query,
		rma.Status, rma.ValidationNotes, rma.ValidatedBy, rma.ValidatedAt,
		rma.IsEligible, rma.WarrantyValid, rma.PurchaseDateValid,
		rma.RmaNumber, rma.ID, from))
}

func (r *rmaRepository) SaveShipping(ctx context.Context, rma *domain.RmaRequest, from []domain.RmaStatus) error {
	query := `UPDATE rma_requests
	          SET status=$1, shipping_carrier=$2, tracking_number=$3, shipped_at=$4
	          WHERE id=$5 AND status = ANY($6)`
	return guard(r.db.ExecContext(ctx, query,
		rma.Status, rma.ShippingCarrier, rma.TrackingNumber, rma.ShippedAt,
		rma.ID, pq.Array(statusStrings(from))))
}

func (r *rmaRepository) SaveReceived(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error {
	query := `UPDATE rma_requests SET status=$1, received_at=$2 WHERE id=$3 AND status=$4`
	return guard(r.db.ExecContext(ctx, query, rma.Status, rma.ReceivedAt, rma.ID, from))
}

func (r *rmaRepository) SaveInspectionStart(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error {
	query := `UPDATE rma_requests SET status=$1, inspected_by=$2 WHERE id=$3 AND status=$4`
	return guard(r.db.ExecContext(ctx, query, rma.Status, rma.InspectedBy, rma.ID, from))
}

func (r *rmaRepository) SaveInspectionResult(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error {
	query := `UPDATE rma_requests
	          SET status=$1, inspection_result=$2, inspection_notes=$3, inspected_by=$4, inspected_at=$5
	          WHERE id=$6 AND status=$7`
	return guard(r.db.ExecContext(ctx, query,
		rma.Status, nullInspectionResult(rma.InspectionResult), rma.InspectionNotes,
		rma.InspectedBy, rma.InspectedAt, rma.ID, from))
}

func (r *rmaRepository) SaveDisposition(ctx context.Context, rma *domain.RmaRequest, from []domain.RmaStatus) error {
	query := `UPDATE rma_requests
	          SET status=$1, disposition=$2, disposition_reason=$3, disposition_by=$4, disposition_at=$5
	          WHERE id=$6 AND status = ANY($7)`
	return guard(r.db.ExecContext(ctx, query,
		rma.Status, nullDisposition(rma.Disposition), rma.DispositionReason,
		rma.DispositionBy, rma.DispositionAt, rma.ID, pq.Array(statusStrings(from))))
}

func (r *rmaRepository) SaveRefundAmount(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error {
	query := `UPDATE rma_requests SET status=$1, refund_amount_cents=$2 WHERE id=$3 AND status=$4`
	return guard(r.db.ExecContext(ctx, query, rma.Status, rma.RefundAmountCents, rma.ID, from))
}

func (r *rmaRepository) SaveStatus(ctx context.Context, rma *domain.RmaRequest, from []domain.RmaStatus) error {
	query := `UPDATE rma_requests SET status=$1, closed_at=$2, refund_amount_cents=COALESCE($3, refund_amount_cents)
	          WHERE id=$4 AND status = ANY($5)`
	return guard(r.db.ExecContext(ctx, query,
		rma.Status, rma.ClosedAt, rma.RefundAmountCents, rma.ID, pq.Array(statusStrings(from))))
}
