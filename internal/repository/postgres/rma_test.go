package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

var rmaColumnNames = []string{
	"id", "rma_number", "sale_id", "user_id", "reason", "description", "photo_urls", "status", "disposition",
	"is_eligible", "warranty_valid", "purchase_date_valid", "validation_notes", "validated_by", "validated_at",
	"shipping_carrier", "tracking_number", "shipped_at", "received_at",
	"inspection_result", "inspection_notes", "inspected_by", "inspected_at",
	"disposition_reason", "disposition_by", "disposition_at",
	"refund_amount_cents", "created_at", "closed_at",
}

func rmaRow(id int64, status string) *sqlmock.Rows {
	return sqlmock.NewRows(rmaColumnNames).
		AddRow(id, nil, 10, 20, "defective", "stopped working", []byte(`["http://img/1.jpg"]`), status, nil,
			nil, nil, nil, "", "", nil,
			"", "", nil, nil,
			nil, "", "", nil,
			"", "", nil,
			nil, time.Now(), nil)
}

func TestRMARepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRMARepository(db)
	ctx := context.Background()

	rma := &domain.RmaRequest{
		SaleID:      10,
		UserID:      20,
		Reason:      "defective",
		Description: "stopped working",
		PhotoURLs:   []string{"http://img/1.jpg"},
		Status:      domain.RmaStatusSubmitted,
	}

	mock.ExpectQuery("INSERT INTO rma_requests").
		WithArgs(rma.RmaNumber, rma.SaleID, rma.UserID, rma.Reason, rma.Description, sqlmock.AnyArg(), rma.Status, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	err = repo.Create(ctx, rma)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), rma.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRMARepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRMARepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rma_requests WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(rmaRow(1, "SUBMITTED"))

		rma, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rma.ID)
		assert.Equal(t, domain.RmaStatusSubmitted, rma.Status)
		assert.Nil(t, rma.Disposition)
		assert.Equal(t, []string{"http://img/1.jpg"}, rma.PhotoURLs)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rma_requests WHERE id = \\$1").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(rmaColumnNames))

		_, err := repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestRMARepository_FindActiveBySale(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRMARepository(db)
	ctx := context.Background()

	t.Run("ActiveExists", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rma_requests").
			WithArgs(int64(10)).
			WillReturnRows(rmaRow(3, "SHIPPING"))

		rma, err := repo.FindActiveBySale(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, domain.RmaStatusShipping, rma.Status)
	})

	t.Run("NoActive", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rma_requests").
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(rmaColumnNames))

		_, err := repo.FindActiveBySale(ctx, 10)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestRMARepository_SaveStatus_Guard(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRMARepository(db)
	ctx := context.Background()

	now := time.Now()
	rma := &domain.RmaRequest{
		ID:       5,
		Status:   domain.RmaStatusCompleted,
		ClosedAt: &now,
	}

	t.Run("GuardMatches", func(t *testing.T) {
		mock.ExpectExec("UPDATE rma_requests SET status").
			WithArgs(rma.Status, rma.ClosedAt, rma.RefundAmountCents, rma.ID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveStatus(ctx, rma, []domain.RmaStatus{domain.RmaStatusProcessing})
		assert.NoError(t, err)
	})

	t.Run("GuardMisses", func(t *testing.T) {
		mock.ExpectExec("UPDATE rma_requests SET status").
			WithArgs(rma.Status, rma.ClosedAt, rma.RefundAmountCents, rma.ID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveStatus(ctx, rma, []domain.RmaStatus{domain.RmaStatusProcessing})
		assert.ErrorIs(t, err, repository.ErrStatusConflict)
	})
}

func TestRMARepository_SaveValidation_KeepsExistingNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRMARepository(db)
	ctx := context.Background()

	now := time.Now()
	number := "RMA-20260826-0001"
	eligible := true
	rma := &domain.RmaRequest{
		ID:          5,
		Status:      domain.RmaStatusApproved,
		RmaNumber:   &number,
		IsEligible:  &eligible,
		ValidatedBy: "agent-1",
		ValidatedAt: &now,
	}

	mock.ExpectExec("UPDATE rma_requests").
		WithArgs(rma.Status, rma.ValidationNotes, rma.ValidatedBy, rma.ValidatedAt,
			rma.IsEligible, rma.WarrantyValid, rma.PurchaseDateValid,
			rma.RmaNumber, rma.ID, domain.RmaStatusSubmitted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.SaveValidation(ctx, rma, domain.RmaStatusSubmitted)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRMARepository_CountNumbersWithPrefix(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRMARepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM rma_requests WHERE rma_number LIKE \\$1").
		WithArgs("RMA-20260826-%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountNumbersWithPrefix(ctx, "RMA-20260826-")
	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
}
