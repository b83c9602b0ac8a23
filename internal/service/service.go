package service

import (
	"context"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

// SubmitItemInput is one line of a customer submission.
type SubmitItemInput struct {
	SaleItemID int64  `json:"sale_item_id"`
	ProductID  int64  `json:"product_id"`
	Quantity   int64  `json:"quantity"`
	Reason     string `json:"reason"`
}

type SubmitInput struct {
	SaleID      int64             `json:"sale_id"`
	UserID      int64             `json:"user_id"`
	Reason      string            `json:"reason"`
	Description string            `json:"description"`
	PhotoURLs   []string          `json:"photo_urls"`
	Items       []SubmitItemInput `json:"items"`
}

type ValidateInput struct {
	ValidatedBy string `json:"validated_by"`
	Approve     bool   `json:"approve"`
	Notes       string `json:"notes"`
	// Both eligibility checks run unless explicitly skipped, so a plain
	// approve request cannot sidestep them.
	SkipWarrantyCheck     bool `json:"skip_warranty_check"`
	SkipPurchaseDateCheck bool `json:"skip_purchase_date_check"`
}

// RMAService is the state machine plus its disposition sub-workflows and the
// composed read side. Every transition returns either the updated aggregate
// or a typed *domain.Error.
type RMAService interface {
	Submit(ctx context.Context, in SubmitInput) (*domain.RmaRequest, error)
	Validate(ctx context.Context, rmaID int64, in ValidateInput) (*domain.RmaRequest, error)
	UpdateShipping(ctx context.Context, rmaID int64, carrier, trackingNumber, actor string) (*domain.RmaRequest, error)
	MarkReceived(ctx context.Context, rmaID int64, actor string) (*domain.RmaRequest, error)
	StartInspection(ctx context.Context, rmaID int64, inspector string) (*domain.RmaRequest, error)
	CompleteInspection(ctx context.Context, rmaID int64, result domain.InspectionResult, notes, inspector string) (*domain.RmaRequest, error)
	MakeDisposition(ctx context.Context, rmaID int64, disposition domain.Disposition, reason, decidedBy string) (*domain.RmaRequest, error)
	Cancel(ctx context.Context, rmaID int64, actor, reason string) (*domain.RmaRequest, error)
	Close(ctx context.Context, rmaID int64, actor, notes string) (*domain.RmaRequest, error)

	ProcessRefund(ctx context.Context, rmaID, amountCents int64, method domain.RefundMethod, actor string) (*domain.Refund, error)
	CompleteRefund(ctx context.Context, refundID int64, reference string, success bool, errorMessage string) (*domain.Refund, error)
	ProcessReplacement(ctx context.Context, rmaID int64, actor string) (int64, error)
	ProcessStoreCredit(ctx context.Context, rmaID, amountCents int64, actor string) (*domain.RmaRequest, error)
	ProcessRepair(ctx context.Context, rmaID int64, actor, notes string) (*domain.RmaRequest, error)
	CompleteRepair(ctx context.Context, rmaID int64, actor, notes string) (*domain.RmaRequest, error)
	ProcessRejection(ctx context.Context, rmaID int64, actor, notes string) (*domain.RmaRequest, error)

	GetRMA(ctx context.Context, rmaID int64) (*domain.RmaView, error)
	GetRMAByNumber(ctx context.Context, rmaNumber string) (*domain.RmaView, error)
	ListUserRMAs(ctx context.Context, userID int64, status domain.RmaStatus) ([]domain.RmaRequest, error)
	GetMetrics(ctx context.Context, startDate, endDate string) ([]domain.DailyMetric, error)
}

// NotificationEmitter composes and records customer-facing messages for
// transitions. Both methods are best-effort: failures are logged, never
// returned, and never roll back the transition that produced them.
type NotificationEmitter interface {
	// RecordStatusChange writes the in-app notification row through the
	// caller's transaction-bound repositories.
	RecordStatusChange(ctx context.Context, repos *repository.Repositories, rma *domain.RmaRequest, oldStatus, newStatus domain.RmaStatus)
	// SendStatusEmail delivers the customer email for an event after the
	// transition has committed. Fire-and-forget.
	SendStatusEmail(ctx context.Context, rma *domain.RmaRequest, eventType, details string)
}

// EmailService is the outbound mail channel.
type EmailService interface {
	Send(ctx context.Context, toEmail, toName, subject, body string) error
}
