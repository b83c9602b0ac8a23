package domain

import "time"

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusCompleted RefundStatus = "COMPLETED"
	RefundStatusFailed    RefundStatus = "FAILED"
)

type RefundMethod string

const (
	RefundMethodOriginalPayment RefundMethod = "ORIGINAL_PAYMENT"
	RefundMethodStoreCredit     RefundMethod = "STORE_CREDIT"
	RefundMethodBankTransfer    RefundMethod = "BANK_TRANSFER"
)

// Refund is the single financial resolution of an RMA. At most one row exists
// per rma_id; it is owned by the RMA it resolves but persists independently
// for audit.
type Refund struct {
	ID           int64        `json:"id"`
	RmaID        int64        `json:"rma_id"`
	SaleID       int64        `json:"sale_id"`
	AmountCents  int64        `json:"amount_cents"`
	Method       RefundMethod `json:"method"`
	Status       RefundStatus `json:"status"`
	Reference    string       `json:"reference"`
	ErrorMessage string       `json:"error_message"`
	ProcessedAt  *time.Time   `json:"processed_at,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
