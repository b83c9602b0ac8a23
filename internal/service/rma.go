package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

// Email event types understood by the notifier.
const (
	EmailEventApproved             = "APPROVED"
	EmailEventRejected             = "REJECTED"
	EmailEventReceived             = "RECEIVED"
	EmailEventCancelled            = "CANCELLED"
	EmailEventCompletedRefund      = "COMPLETED_REFUND"
	EmailEventCompletedReplacement = "COMPLETED_REPLACEMENT"
	EmailEventCompletedRepair      = "COMPLETED_REPAIR"
	EmailEventCompletedCredit      = "COMPLETED_CREDIT"
)

type rmaService struct {
	store        repository.Store
	notifier     NotificationEmitter
	warrantyDays int
	now          func() time.Time
}

func NewRMAService(store repository.Store, notifier NotificationEmitter, warrantyDays int) RMAService {
	return &rmaService{
		store:        store,
		notifier:     notifier,
		warrantyDays: warrantyDays,
		now:          time.Now,
	}
}

// loadRMA fetches the aggregate inside fn's repositories, translating the
// storage sentinel into the typed not-found error.
func loadRMA(ctx context.Context, r *repository.Repositories, rmaID int64) (*domain.RmaRequest, error) {
	rma, err := r.RMAs.GetByID(ctx, rmaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("RMA %d not found", rmaID)
		}
		return nil, domain.Serverf(err, "load RMA %d", rmaID)
	}
	return rma, nil
}

// guarded translates a status-guarded write's outcome. A guard miss means the
// aggregate transitioned concurrently between our read and write.
func guarded(err error, rmaID int64) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStatusConflict) {
		return domain.Conflictf("RMA %d was modified concurrently, retry the operation", rmaID)
	}
	return domain.Serverf(err, "update RMA %d", rmaID)
}

func statusPtr(s domain.RmaStatus) *domain.RmaStatus { return &s }

func (s *rmaService) log(ctx context.Context, r *repository.Repositories, rma *domain.RmaRequest, action string, oldStatus, newStatus domain.RmaStatus, actor, notes string, meta map[string]string) error {
	entry := &domain.ActivityLogEntry{
		RmaID:    rma.ID,
		Action:   action,
		Actor:    actor,
		Notes:    notes,
		Metadata: meta,
	}
	if oldStatus != "" {
		entry.OldStatus = statusPtr(oldStatus)
	}
	if newStatus != "" {
		entry.NewStatus = statusPtr(newStatus)
	}
	if err := r.Activities.Append(ctx, entry); err != nil {
		return domain.Serverf(err, "append activity for RMA %d", rma.ID)
	}
	return nil
}

func (s *rmaService) Submit(ctx context.Context, in SubmitInput) (*domain.RmaRequest, error) {
	if in.Reason == "" {
		return nil, domain.Validationf("return reason is required")
	}
	if len(in.Items) == 0 {
		return nil, domain.Validationf("at least one item is required")
	}
	for i, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, domain.Validationf("item %d: quantity must be positive", i)
		}
		if it.SaleItemID <= 0 || it.ProductID <= 0 {
			return nil, domain.Validationf("item %d: sale_item_id and product_id are required", i)
		}
	}

	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		sale, err := r.Sales.GetForUser(ctx, in.SaleID, in.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFoundf("sale %d not found for user %d", in.SaleID, in.UserID)
			}
			return domain.Serverf(err, "load sale %d", in.SaleID)
		}
		if sale.Status != domain.SaleStatusCompleted {
			return domain.Validationf("sale %d is not eligible for return (status %s)", sale.ID, sale.Status)
		}

		if existing, err := r.RMAs.FindActiveBySale(ctx, in.SaleID); err == nil {
			return domain.Conflictf("sale %d already has an active return (RMA %d)", in.SaleID, existing.ID)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return domain.Serverf(err, "check active returns for sale %d", in.SaleID)
		}

		rma = &domain.RmaRequest{
			SaleID:      in.SaleID,
			UserID:      in.UserID,
			Reason:      in.Reason,
			Description: in.Description,
			PhotoURLs:   in.PhotoURLs,
			Status:      domain.RmaStatusSubmitted,
		}
		if err := r.RMAs.Create(ctx, rma); err != nil {
			return domain.Serverf(err, "create RMA for sale %d", in.SaleID)
		}

		items := make([]domain.RmaItem, len(in.Items))
		for i, it := range in.Items {
			items[i] = domain.RmaItem{
				SaleItemID: it.SaleItemID,
				ProductID:  it.ProductID,
				Quantity:   it.Quantity,
				Reason:     it.Reason,
			}
		}
		if err := r.RMAs.CreateItems(ctx, rma.ID, items); err != nil {
			return domain.Serverf(err, "create items for RMA %d", rma.ID)
		}

		if err := s.log(ctx, r, rma, domain.ActionSubmitted, "", domain.RmaStatusSubmitted, fmt.Sprintf("user:%d", in.UserID), in.Reason, nil); err != nil {
			return err
		}
		s.notifier.RecordStatusChange(ctx, r, rma, "", domain.RmaStatusSubmitted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rma, nil
}

func (s *rmaService) Validate(ctx context.Context, rmaID int64, in ValidateInput) (*domain.RmaRequest, error) {
	if in.ValidatedBy == "" {
		return nil, domain.Validationf("validated_by is required")
	}

	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if rma.Status != domain.RmaStatusSubmitted {
			return domain.TransitionErr("RMA must be SUBMITTED to validate", rma.Status, domain.RmaStatusSubmitted)
		}

		sale, err := r.Sales.GetByID(ctx, rma.SaleID)
		if err != nil {
			return domain.Serverf(err, "load sale %d", rma.SaleID)
		}

		now := s.now()
		eligible := true
		if !in.SkipWarrantyCheck {
			ok := now.Before(sale.SaleTime.AddDate(0, 0, s.warrantyDays))
			rma.WarrantyValid = &ok
			eligible = eligible && ok
		}
		if !in.SkipPurchaseDateCheck {
			ok := sale.SaleTime.Before(now)
			rma.PurchaseDateValid = &ok
			eligible = eligible && ok
		}
		rma.IsEligible = &eligible
		rma.ValidationNotes = in.Notes
		rma.ValidatedBy = in.ValidatedBy
		rma.ValidatedAt = &now

		approved := in.Approve && eligible
		oldStatus := rma.Status
		if approved {
			rma.Status = domain.RmaStatusApproved
			number, err := s.nextRmaNumber(ctx, r, now)
			if err != nil {
				return err
			}
			rma.RmaNumber = &number
		} else {
			rma.Status = domain.RmaStatusRejected
		}

		if err := guarded(r.RMAs.SaveValidation(ctx, rma, oldStatus), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionValidated, oldStatus, rma.Status, in.ValidatedBy, in.Notes, map[string]string{
			"eligible": fmt.Sprintf("%t", eligible),
		}); err != nil {
			return err
		}
		s.notifier.RecordStatusChange(ctx, r, rma, oldStatus, rma.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rma.Status == domain.RmaStatusApproved {
		s.notifier.SendStatusEmail(ctx, rma, EmailEventApproved, in.Notes)
	} else {
		s.notifier.SendStatusEmail(ctx, rma, EmailEventRejected, in.Notes)
	}
	return rma, nil
}

// nextRmaNumber issues a day-scoped sequential public number, e.g.
// RMA-20260826-0001. Concurrent approvals within the same day may contend;
// the unique index on rma_number rejects the loser, surfaced as a conflict.
func (s *rmaService) nextRmaNumber(ctx context.Context, r *repository.Repositories, now time.Time) (string, error) {
	prefix := "RMA-" + now.Format("20060102") + "-"
	count, err := r.RMAs.CountNumbersWithPrefix(ctx, prefix)
	if err != nil {
		return "", domain.Serverf(err, "count RMA numbers for %s", prefix)
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func (s *rmaService) UpdateShipping(ctx context.Context, rmaID int64, carrier, trackingNumber, actor string) (*domain.RmaRequest, error) {
	if carrier == "" || trackingNumber == "" {
		return nil, domain.Validationf("carrier and tracking number are required")
	}

	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		// SHIPPING is allowed as a source so the customer can correct a
		// mistyped tracking number before the package arrives.
		if rma.Status != domain.RmaStatusApproved && rma.Status != domain.RmaStatusShipping {
			return domain.TransitionErr("RMA must be APPROVED to record shipping", rma.Status,
				domain.RmaStatusApproved, domain.RmaStatusShipping)
		}

		now := s.now()
		oldStatus := rma.Status
		rma.Status = domain.RmaStatusShipping
		rma.ShippingCarrier = carrier
		rma.TrackingNumber = trackingNumber
		rma.ShippedAt = &now

		from := []domain.RmaStatus{domain.RmaStatusApproved, domain.RmaStatusShipping}
		if err := guarded(r.RMAs.SaveShipping(ctx, rma, from), rma.ID); err != nil {
			return err
		}
		return s.log(ctx, r, rma, domain.ActionShippingUpdated, oldStatus, rma.Status, actor, "", map[string]string{
			"carrier":         carrier,
			"tracking_number": trackingNumber,
		})
	})
	if err != nil {
		return nil, err
	}
	return rma, nil
}

func (s *rmaService) MarkReceived(ctx context.Context, rmaID int64, actor string) (*domain.RmaRequest, error) {
	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if rma.Status != domain.RmaStatusShipping {
			return domain.TransitionErr("RMA must be SHIPPING to mark received", rma.Status, domain.RmaStatusShipping)
		}

		now := s.now()
		oldStatus := rma.Status
		rma.Status = domain.RmaStatusReceived
		rma.ReceivedAt = &now

		if err := guarded(r.RMAs.SaveReceived(ctx, rma, oldStatus), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionReceived, oldStatus, rma.Status, actor, "", nil); err != nil {
			return err
		}
		s.notifier.RecordStatusChange(ctx, r, rma, oldStatus, rma.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.SendStatusEmail(ctx, rma, EmailEventReceived, "")
	return rma, nil
}

func (s *rmaService) StartInspection(ctx context.Context, rmaID int64, inspector string) (*domain.RmaRequest, error) {
	if inspector == "" {
		return nil, domain.Validationf("inspector is required")
	}

	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if rma.Status != domain.RmaStatusReceived {
			return domain.TransitionErr("RMA must be RECEIVED to start inspection", rma.Status, domain.RmaStatusReceived)
		}

		oldStatus := rma.Status
		rma.Status = domain.RmaStatusInspecting
		rma.InspectedBy = inspector

		if err := guarded(r.RMAs.SaveInspectionStart(ctx, rma, oldStatus), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionInspectionStarted, oldStatus, rma.Status, inspector, "", nil); err != nil {
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

func (s *rmaService) CompleteInspection(ctx context.Context, rmaID int64, result domain.InspectionResult, notes, inspector string) (*domain.RmaRequest, error) {
	if !result.Valid() {
		return nil, domain.Validationf("invalid inspection result %q", result)
	}

	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if rma.Status != domain.RmaStatusInspecting {
			return domain.TransitionErr("RMA must be INSPECTING to complete inspection", rma.Status, domain.RmaStatusInspecting)
		}

		now := s.now()
		oldStatus := rma.Status
		rma.Status = domain.RmaStatusInspected
		rma.InspectionResult = &result
		rma.InspectionNotes = notes
		if inspector != "" {
			rma.InspectedBy = inspector
		}
		rma.InspectedAt = &now

		if err := guarded(r.RMAs.SaveInspectionResult(ctx, rma, oldStatus), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionInspectionCompleted, oldStatus, rma.Status, rma.InspectedBy, notes, map[string]string{
			"result": string(result),
		}); err != nil {
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

func (s *rmaService) MakeDisposition(ctx context.Context, rmaID int64, disposition domain.Disposition, reason, decidedBy string) (*domain.RmaRequest, error) {
	if !disposition.Valid() {
		return nil, domain.Validationf("invalid disposition %q", disposition)
	}
	if decidedBy == "" {
		return nil, domain.Validationf("decided_by is required")
	}

	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		// DISPOSITION is a legal source so a parked case can be re-decided,
		// e.g. a repair deemed not viable becomes a refund.
		if rma.Status != domain.RmaStatusInspected && rma.Status != domain.RmaStatusDisposition {
			return domain.TransitionErr("RMA must be INSPECTED or DISPOSITION to decide disposition", rma.Status,
				domain.RmaStatusInspected, domain.RmaStatusDisposition)
		}

		now := s.now()
		oldStatus := rma.Status
		if disposition.RequiresProcessing() {
			rma.Status = domain.RmaStatusProcessing
		} else {
			rma.Status = domain.RmaStatusDisposition
		}
		rma.Disposition = &disposition
		rma.DispositionReason = reason
		rma.DispositionBy = decidedBy
		rma.DispositionAt = &now

		from := []domain.RmaStatus{domain.RmaStatusInspected, domain.RmaStatusDisposition}
		if err := guarded(r.RMAs.SaveDisposition(ctx, rma, from), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionDispositionDecided, oldStatus, rma.Status, decidedBy, reason, map[string]string{
			"disposition": string(disposition),
		}); err != nil {
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

func (s *rmaService) Cancel(ctx context.Context, rmaID int64, actor, reason string) (*domain.RmaRequest, error) {
	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		if rma.Status.Terminal() {
			return domain.TransitionErr("RMA is already closed", rma.Status, domain.NonTerminalStatuses()...)
		}

		now := s.now()
		oldStatus := rma.Status
		rma.Status = domain.RmaStatusCancelled
		rma.ClosedAt = &now

		if err := guarded(r.RMAs.SaveStatus(ctx, rma, domain.NonTerminalStatuses()), rma.ID); err != nil {
			return err
		}
		if err := s.log(ctx, r, rma, domain.ActionCancelled, oldStatus, rma.Status, actor, reason, nil); err != nil {
			return err
		}
		s.notifier.RecordStatusChange(ctx, r, rma, oldStatus, rma.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.SendStatusEmail(ctx, rma, EmailEventCancelled, reason)
	return rma, nil
}

func (s *rmaService) Close(ctx context.Context, rmaID int64, actor, notes string) (*domain.RmaRequest, error) {
	var rma *domain.RmaRequest
	err := s.store.WithTx(ctx, func(r *repository.Repositories) error {
		var err error
		rma, err = loadRMA(ctx, r, rmaID)
		if err != nil {
			return err
		}
		// Already closed: return the case unchanged, no second ledger entry
		// and no second metrics bump.
		if rma.Status == domain.RmaStatusCompleted {
			return nil
		}

		now := s.now()
		oldStatus := rma.Status
		rma.Status = domain.RmaStatusCompleted
		rma.ClosedAt = &now

		if err := guarded(r.RMAs.SaveStatus(ctx, rma, []domain.RmaStatus{oldStatus}), rma.ID); err != nil {
			return err
		}
		if err := r.Metrics.IncrementClosed(ctx, now.Format("2006-01-02")); err != nil {
			return domain.Serverf(err, "update metrics for RMA %d", rma.ID)
		}
		if err := s.log(ctx, r, rma, domain.ActionClosed, oldStatus, rma.Status, actor, notes, nil); err != nil {
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

func (s *rmaService) GetRMA(ctx context.Context, rmaID int64) (*domain.RmaView, error) {
	r := s.store.Repos()
	rma, err := loadRMA(ctx, r, rmaID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, r, rma)
}

func (s *rmaService) GetRMAByNumber(ctx context.Context, rmaNumber string) (*domain.RmaView, error) {
	if !rmaNumberPattern.MatchString(rmaNumber) {
		return nil, domain.Validationf("malformed RMA number %q", rmaNumber)
	}
	r := s.store.Repos()
	rma, err := r.RMAs.GetByNumber(ctx, rmaNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("RMA %s not found", rmaNumber)
		}
		return nil, domain.Serverf(err, "load RMA %s", rmaNumber)
	}
	return s.buildView(ctx, r, rma)
}

var rmaNumberPattern = regexp.MustCompile(`^RMA-\d{8}-\d{4}$`)

func (s *rmaService) buildView(ctx context.Context, r *repository.Repositories, rma *domain.RmaRequest) (*domain.RmaView, error) {
	items, err := r.RMAs.ListItemViews(ctx, rma.ID)
	if err != nil {
		return nil, domain.Serverf(err, "load items for RMA %d", rma.ID)
	}
	activities, err := r.Activities.ListByRMA(ctx, rma.ID)
	if err != nil {
		return nil, domain.Serverf(err, "load activity for RMA %d", rma.ID)
	}
	refund, err := r.Refunds.GetByRmaID(ctx, rma.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, domain.Serverf(err, "load refund for RMA %d", rma.ID)
	}

	view := &domain.RmaView{
		Rma:        rma,
		Items:      items,
		Activities: activities,
		Refund:     refund,
	}
	for _, it := range items {
		view.RequestedRefundAmountCents += it.Quantity * it.PriceAtPurchaseCents
	}
	return view, nil
}

func (s *rmaService) ListUserRMAs(ctx context.Context, userID int64, status domain.RmaStatus) ([]domain.RmaRequest, error) {
	rmas, err := s.store.Repos().RMAs.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, domain.Serverf(err, "list RMAs for user %d", userID)
	}
	return rmas, nil
}

var metricDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func (s *rmaService) GetMetrics(ctx context.Context, startDate, endDate string) ([]domain.DailyMetric, error) {
	for _, d := range []string{startDate, endDate} {
		if d != "" && !metricDatePattern.MatchString(d) {
			return nil, domain.Validationf("dates must be YYYY-MM-DD, got %q", d)
		}
	}
	metrics, err := s.store.Repos().Metrics.ListRange(ctx, startDate, endDate)
	if err != nil {
		return nil, domain.Serverf(err, "list metrics")
	}
	return metrics, nil
}
