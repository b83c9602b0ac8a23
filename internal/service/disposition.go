package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

// requireDisposition checks both the decided disposition and the current
// status before a sub-workflow step runs.
func requireDisposition(rma *domain.RmaRequest, want domain.Disposition, status domain.RmaStatus, step string) error {
	if rma.Disposition == nil || *rma.Disposition != want {
		return domain.Validationf("RMA %d disposition is not %s, cannot %s", rma.ID, want, step)
	}
	if rma.Status != status {
		return domain.TransitionErr(fmt.Sprintf("RMA must be %s to %s", status, step), rma.Status, status)
	}
	return nil
}

// joinNotes appends the inventory note to an operator's free-text notes for
// the completing ledger entry.
func joinNotes(notes, invNote string) string {
	if notes == "" {
		return invNote
	}
	return notes + ". " + invNote
}

// requestedTotalCents sums quantity times the unit price captured on the
// original sale lines.
func requestedTotalCents(ctx context.Context, r *repository.Repositories, rmaID int64) (int64, error) {
	items, err := r.RMAs.ListItemViews(ctx, rmaID)
	if err != nil {
		return 0, domain.Serverf(err, "load items for RMA %d", rmaID)
	}
	var total int64
	for _, it := range items {
		total += it.Quantity * it.PriceAtPurchaseCents
	}
	return total, nil
}

func (s *rmaService) ProcessRefund(ctx context.Context, rmaID, amountCents int64, method domain.RefundMethod, actor string) (*domain.Refund, error) {
	if amountCents < 0 {
		return nil, domain.Validationf("refund amount must not be negative")
	}
	if method == "" {
		method = domain.RefundMethodOriginalPayment
	}

	var refund *domain.Refund
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		rma, err := loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if err := requireDisposition(rma, domain.DispositionRefund, domain.RmaStatusProcessing, "initiate a refund"); err != nil {
			return err
		}
		if _, err := r.Refunds.GetByRmaID(ctx, rmaID); err == nil {
			return domain.Conflictf("RMA %d already has a refund", rmaID)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return domain.Serverf(err, "check refund for RMA %d", rmaID)
		}

		if amountCents == 0 {
			amountCents, err = requestedTotalCents(ctx, r, rmaID)
			if err != nil {
				return err
			}
		}

		now := s.now()
		refund = &domain.Refund{
			RmaID:       rmaID,
			SaleID:      rma.SaleID,
			AmountCents: amountCents,
			Method:      method,
			Status:      domain.RefundStatusPending,
			Reference:   uuid.NewString(),
			ProcessedAt: &now,
		}
		if err := r.Refunds.Create(ctx, refund); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				return domain.Conflictf("RMA %d already has a refund", rmaID)
			}
			return domain.Serverf(err, "create refund for RMA %d", rmaID)
		}

		rma.RefundAmountCents = &amountCents
		if err := guarded(r.RMAs.SaveRefundAmount(ctx, rma, domain.RmaStatusProcessing), rma.ID); err != nil {
			return err
		}
		return s.log(ctx, r, rma, domain.ActionRefundInitiated, rma.Status, rma.Status, actor, "", map[string]string{
			"amount_cents": fmt.Sprintf("%d", amountCents),
			"method":       string(method),
			"reference":    refund.Reference,
		})
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *rmaService) CompleteRefund(ctx context.Context, refundID int64, reference string, success bool, errorMessage string) (*domain.Refund, error) {
	var (
		refund *domain.Refund
		rma    *domain.RmaRequest
	)
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		refund, err = r.Refunds.GetByID(ctx, refundID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFoundf("refund %d not found", refundID)
			}
			return domain.Serverf(err, "load refund %d", refundID)
		}
		if refund.Status != domain.RefundStatusPending {
			return domain.Conflictf("refund %d already resolved (%s)", refundID, refund.Status)
		}

		rma, err = loadRMA(ctx, r, refund.RmaID)
		if err != nil {
			return err
		}

		now := s.now()
		if !success {
			refund.Status = domain.RefundStatusFailed
			refund.ErrorMessage = errorMessage
			if err := r.Refunds.SaveResult(ctx, refund); err != nil {
				return domain.Serverf(err, "save refund %d", refundID)
			}
			// RMA stays PROCESSING so the refund can be retried out of band.
			return s.log(ctx, r, rma, domain.ActionRefundFailed, rma.Status, rma.Status, "payment-gateway", errorMessage, nil)
		}

		refund.Status = domain.RefundStatusCompleted
		refund.CompletedAt = &now
		if reference != "" {
			refund.Reference = reference
		}
		if err := r.Refunds.SaveResult(ctx, refund); err != nil {
			return domain.Serverf(err, "save refund %d", refundID)
		}

		oldStatus := rma.Status
		rma.Status = domain.RmaStatusCompleted
		rma.ClosedAt = &now
		if err := guarded(r.RMAs.SaveStatus(ctx, rma, []domain.RmaStatus{domain.RmaStatusProcessing}), rma.ID); err != nil {
			return err
		}
		if err := r.Sales.UpdateStatus(ctx, refund.SaleID, domain.SaleStatusRefunded); err != nil {
			return domain.Serverf(err, "mark sale %d refunded", refund.SaleID)
		}
		invNote, err := s.applyDispositionInventory(ctx, r, rma)
		if err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionRefundCompleted, oldStatus, rma.Status, "payment-gateway", invNote, map[string]string{
			"amount_cents": fmt.Sprintf("%d", refund.AmountCents),
			"reference":    refund.Reference,
		}); err != nil {
			return err
		}
		s.notifier.RecordStatusChange(ctx, r, rma, oldStatus, rma.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if success {
		s.notifier.SendStatusEmail(ctx, rma, EmailEventCompletedRefund, fmt.Sprintf("%d", refund.AmountCents))
	}
	return refund, nil
}

func (s *rmaService) ProcessReplacement(ctx context.Context, rmaID int64, actor string) (int64, error) {
	var (
		rma    *domain.RmaRequest
		saleID int64
	)
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if err := requireDisposition(rma, domain.DispositionReplacement, domain.RmaStatusProcessing, "process a replacement"); err != nil {
			return err
		}

		items, err := r.RMAs.ListItems(ctx, rmaID)
		if err != nil {
			return domain.Serverf(err, "load items for RMA %d", rmaID)
		}

		// The replacement ships from sellable stock; the returned units do
		// not go back on the shelf. The new lines carry the product's current
		// price even though the sale total stays zero.
		saleItems := make([]domain.SaleItem, len(items))
		for i, it := range items {
			product, err := r.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.NotFoundf("product %d not found", it.ProductID)
				}
				return domain.Serverf(err, "load product %d", it.ProductID)
			}
			if err := r.Products.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
				if errors.Is(err, repository.ErrStatusConflict) {
					return domain.Conflictf("insufficient stock for product %d", it.ProductID)
				}
				return domain.Serverf(err, "adjust stock for product %d", it.ProductID)
			}
			saleItems[i] = domain.SaleItem{
				ProductID:  it.ProductID,
				Quantity:   it.Quantity,
				PriceCents: product.PriceCents,
			}
		}

		now := s.now()
		sale := &domain.Sale{
			UserID:     rma.UserID,
			Status:     domain.SaleStatusCompleted,
			TotalCents: 0,
			SaleTime:   now,
		}
		if err := r.Sales.CreateWithItems(ctx, sale, saleItems); err != nil {
			return domain.Serverf(err, "create replacement sale for RMA %d", rmaID)
		}
		saleID = sale.ID

		invNote, err := s.applyDispositionInventory(ctx, r, rma)
		if err != nil {
			return err
		}
		oldStatus := rma.Status
		rma.Status = domain.RmaStatusCompleted
		rma.ClosedAt = &now
		if err := guarded(r.RMAs.SaveStatus(ctx, rma, []domain.RmaStatus{domain.RmaStatusProcessing}), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionReplacementProcessed, oldStatus, rma.Status, actor, invNote, map[string]string{
			"replacement_sale_id": fmt.Sprintf("%d", saleID),
		}); err != nil {
			return err
		}
		s.notifier.RecordStatusChange(ctx, r, rma, oldStatus, rma.Status)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.notifier.SendStatusEmail(ctx, rma, EmailEventCompletedReplacement, fmt.Sprintf("%d", saleID))
	return saleID, nil
}

func (s *rmaService) ProcessStoreCredit(ctx context.Context, rmaID, amountCents int64, actor string) (*domain.RmaRequest, error) {
	if amountCents < 0 {
		return nil, domain.Validationf("credit amount must not be negative")
	}

	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if err := requireDisposition(rma, domain.DispositionStoreCredit, domain.RmaStatusProcessing, "issue store credit"); err != nil {
			return err
		}
		if _, err := r.Refunds.GetByRmaID(ctx, rmaID); err == nil {
			return domain.Conflictf("RMA %d already has a financial resolution", rmaID)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return domain.Serverf(err, "check refund for RMA %d", rmaID)
		}

		if amountCents == 0 {
			amountCents, err = requestedTotalCents(ctx, r, rmaID)
			if err != nil {
				return err
			}
		}

		now := s.now()
		credit := &domain.Refund{
			RmaID:       rmaID,
			SaleID:      rma.SaleID,
			AmountCents: amountCents,
			Method:      domain.RefundMethodStoreCredit,
			Status:      domain.RefundStatusCompleted,
			Reference:   uuid.NewString(),
			ProcessedAt: &now,
			CompletedAt: &now,
		}
		if err := r.Refunds.Create(ctx, credit); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				return domain.Conflictf("RMA %d already has a financial resolution", rmaID)
			}
			return domain.Serverf(err, "create store credit for RMA %d", rmaID)
		}

		invNote, err := s.applyDispositionInventory(ctx, r, rma)
		if err != nil {
			return err
		}

		oldStatus := rma.Status
		rma.Status = domain.RmaStatusCompleted
		rma.ClosedAt = &now
		rma.RefundAmountCents = &amountCents
		if err := guarded(r.RMAs.SaveStatus(ctx, rma, []domain.RmaStatus{domain.RmaStatusProcessing}), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionStoreCreditIssued, oldStatus, rma.Status, actor, invNote, map[string]string{
			"amount_cents": fmt.Sprintf("%d", amountCents),
			"reference":    credit.Reference,
		}); err != nil {
			return err
		}
		s.notifier.RecordStatusChange(ctx, r, rma, oldStatus, rma.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.SendStatusEmail(ctx, rma, EmailEventCompletedCredit, "")
	return rma, nil
}

func (s *rmaService) ProcessRepair(ctx context.Context, rmaID int64, actor, notes string) (*domain.RmaRequest, error) {
	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if err := requireDisposition(rma, domain.DispositionRepair, domain.RmaStatusDisposition, "start a repair"); err != nil {
			return err
		}

		oldStatus := rma.Status
		rma.Status = domain.RmaStatusProcessing
		if err := guarded(r.RMAs.SaveStatus(ctx, rma, []domain.RmaStatus{domain.RmaStatusDisposition}), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionRepairInitiated, oldStatus, rma.Status, actor, notes, nil); err != nil {
			return err
		}
		s.notifier.RecordStatusChange(ctx, r, rma, oldStatus, rma.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rma, nil
}

func (s *rmaService) CompleteRepair(ctx context.Context, rmaID int64, actor, notes string) (*domain.RmaRequest, error) {
	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if err := requireDisposition(rma, domain.DispositionRepair, domain.RmaStatusProcessing, "complete a repair"); err != nil {
			return err
		}

		invNote, err := s.applyDispositionInventory(ctx, r, rma)
		if err != nil {
			return err
		}
		now := s.now()
		oldStatus := rma.Status
		rma.Status = domain.RmaStatusCompleted
		rma.ClosedAt = &now
		if err := guarded(r.RMAs.SaveStatus(ctx, rma, []domain.RmaStatus{domain.RmaStatusProcessing}), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionRepairCompleted, oldStatus, rma.Status, actor, joinNotes(notes, invNote), nil); err != nil {
			return err
		}
		s.notifier.RecordStatusChange(ctx, r, rma, oldStatus, rma.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.SendStatusEmail(ctx, rma, EmailEventCompletedRepair, notes)
	return rma, nil
}

func (s *rmaService) ProcessRejection(ctx context.Context, rmaID int64, actor, notes string) (*domain.RmaRequest, error) {
	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if err := requireDisposition(rma, domain.DispositionReject, domain.RmaStatusDisposition, "reject the return"); err != nil {
			return err
		}

		// The customer keeps the item; stock is untouched and no money moves.
		invNote, err := s.applyDispositionInventory(ctx, r, rma)
		if err != nil {
			return err
		}
		now := s.now()
		oldStatus := rma.Status
		rma.Status = domain.RmaStatusCompleted
		rma.ClosedAt = &now
		if err := guarded(r.RMAs.SaveStatus(ctx, rma, []domain.RmaStatus{domain.RmaStatusDisposition}), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionReturnRejected, oldStatus, rma.Status, actor, joinNotes(notes, invNote), nil); err != nil {
			return err
		}
		s.notifier.RecordStatusChange(ctx, r, rma, oldStatus, rma.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.SendStatusEmail(ctx, rma, EmailEventRejected, notes)
	return rma, nil
}
