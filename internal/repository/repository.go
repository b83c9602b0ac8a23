package repository

import (
	"context"
	"errors"

	"retail-rma-backend/internal/domain"
)

// ErrNotFound is returned whenever a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStatusConflict is returned by status-guarded updates when the guard
// matched zero rows: the aggregate moved under us between the precondition
// read and the write.
var ErrStatusConflict = errors.New("status changed concurrently")

type RMARepository interface {
	Create(ctx context.Context, rma *domain.RmaRequest) error
	GetByID(ctx context.Context, id int64) (*domain.RmaRequest, error)
	GetByNumber(ctx context.Context, number string) (*domain.RmaRequest, error)
	// FindActiveBySale returns the non-terminal RMA for a sale, or ErrNotFound.
	FindActiveBySale(ctx context.Context, saleID int64) (*domain.RmaRequest, error)
	ListByUser(ctx context.Context, userID int64, status domain.RmaStatus) ([]domain.RmaRequest, error)
	// CountNumbersWithPrefix counts issued RMA numbers for one day's prefix,
	// e.g. "RMA-20260826-". Used to scope the number sequence to the day.
	CountNumbersWithPrefix(ctx context.Context, prefix string) (int64, error)

	CreateItems(ctx context.Context, rmaID int64, items []domain.RmaItem) error
	ListItems(ctx context.Context, rmaID int64) ([]domain.RmaItem, error)
	ListItemViews(ctx context.Context, rmaID int64) ([]domain.RmaItemView, error)

	// Status-guarded writes. Each persists the fields its transition touches
	// and fails with ErrStatusConflict when the aggregate is no longer in the
	// expected status.
	SaveValidation(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error
	SaveShipping(ctx context.Context, rma *domain.RmaRequest, from []domain.RmaStatus) error
	SaveReceived(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error
	SaveInspectionStart(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error
	SaveInspectionResult(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error
	SaveDisposition(ctx context.Context, rma *domain.RmaRequest, from []domain.RmaStatus) error
	SaveRefundAmount(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error
	// SaveStatus persists status plus closed_at; used by cancel, close and
	// the disposition completion paths.
	SaveStatus(ctx context.Context, rma *domain.RmaRequest, from []domain.RmaStatus) error
}

type ActivityLogRepository interface {
	// Append writes one audit record; entries are never updated or deleted.
	Append(ctx context.Context, entry *domain.ActivityLogEntry) error
	ListByRMA(ctx context.Context, rmaID int64) ([]domain.ActivityLogEntry, error)
}

type RefundRepository interface {
	Create(ctx context.Context, refund *domain.Refund) error
	GetByID(ctx context.Context, id int64) (*domain.Refund, error)
	GetByRmaID(ctx context.Context, rmaID int64) (*domain.Refund, error)
	SaveResult(ctx context.Context, refund *domain.Refund) error
}

type SaleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Sale, error)
	GetForUser(ctx context.Context, saleID, userID int64) (*domain.Sale, error)
	UpdateStatus(ctx context.Context, saleID int64, status domain.SaleStatus) error
	// CreateWithItems inserts a replacement sale and its lines.
	CreateWithItems(ctx context.Context, sale *domain.Sale, items []domain.SaleItem) error
}

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// AdjustStock applies a bounded delta; it fails with ErrStatusConflict
	// when the delta would take stock below zero.
	AdjustStock(ctx context.Context, productID, delta int64) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, limit, offset int64) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type MetricsRepository interface {
	// IncrementClosed upserts the daily row for metricDate (YYYY-MM-DD).
	IncrementClosed(ctx context.Context, metricDate string) error
	ListRange(ctx context.Context, startDate, endDate string) ([]domain.DailyMetric, error)
}

// Repositories bundles every repository bound to one database handle, either
// the pooled connection or a single transaction.
type Repositories struct {
	RMAs          RMARepository
	Activities    ActivityLogRepository
	Refunds       RefundRepository
	Sales         SaleRepository
	Products      ProductRepository
	Notifications NotificationRepository
	Users         UserRepository
	Metrics       MetricsRepository
}

// Store is the persistence boundary the services depend on. WithTx runs fn
// against repositories bound to one transaction; returning an error rolls
// everything back.
type Store interface {
	Repos() *Repositories
	WithTx(ctx context.Context, fn func(*Repositories) error) error
}
