package domain

import "time"

type RmaStatus string

const (
	RmaStatusSubmitted   RmaStatus = "SUBMITTED"
	RmaStatusApproved    RmaStatus = "APPROVED"
	RmaStatusRejected    RmaStatus = "REJECTED"
	RmaStatusShipping    RmaStatus = "SHIPPING"
	RmaStatusReceived    RmaStatus = "RECEIVED"
	RmaStatusInspecting  RmaStatus = "INSPECTING"
	RmaStatusInspected   RmaStatus = "INSPECTED"
	RmaStatusDisposition RmaStatus = "DISPOSITION"
	RmaStatusProcessing  RmaStatus = "PROCESSING"
	RmaStatusCompleted   RmaStatus = "COMPLETED"
	RmaStatusCancelled   RmaStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are legal from s.
func (s RmaStatus) Terminal() bool {
	return s == RmaStatusCompleted || s == RmaStatusRejected || s == RmaStatusCancelled
}

// NonTerminalStatuses is the guard set for transitions legal from any live state.
func NonTerminalStatuses() []RmaStatus {
	return []RmaStatus{
		RmaStatusSubmitted, RmaStatusApproved, RmaStatusShipping, RmaStatusReceived,
		RmaStatusInspecting, RmaStatusInspected, RmaStatusDisposition, RmaStatusProcessing,
	}
}

type Disposition string

const (
	DispositionRefund      Disposition = "REFUND"
	DispositionReplacement Disposition = "REPLACEMENT"
	DispositionRepair      Disposition = "REPAIR"
	DispositionReject      Disposition = "REJECT"
	DispositionStoreCredit Disposition = "STORE_CREDIT"
)

func (d Disposition) Valid() bool {
	switch d {
	case DispositionRefund, DispositionReplacement, DispositionRepair, DispositionReject, DispositionStoreCredit:
		return true
	}
	return false
}

// RequiresProcessing reports whether the disposition needs an asynchronous
// completion step (money movement, new-order creation) before closure.
func (d Disposition) RequiresProcessing() bool {
	switch d {
	case DispositionRefund, DispositionReplacement, DispositionStoreCredit:
		return true
	}
	return false
}

type InspectionResult string

const (
	InspectionResultDefective   InspectionResult = "DEFECTIVE"
	InspectionResultMisuse      InspectionResult = "MISUSE"
	InspectionResultNormalWear  InspectionResult = "NORMAL_WEAR"
	InspectionResultAsDescribed InspectionResult = "AS_DESCRIBED"
)

func (r InspectionResult) Valid() bool {
	switch r {
	case InspectionResultDefective, InspectionResultMisuse, InspectionResultNormalWear, InspectionResultAsDescribed:
		return true
	}
	return false
}

// RmaRequest is one return case. It is mutated exclusively through the
// state machine's transition operations and never physically deleted.
type RmaRequest struct {
	ID        int64   `json:"id"`
	RmaNumber *string `json:"rma_number,omitempty"` // assigned at first approval, immutable thereafter
	SaleID    int64   `json:"sale_id"`
	UserID    int64   `json:"user_id"`
	Reason    string  `json:"reason"`
	Description string   `json:"description"`
	PhotoURLs   []string `json:"photo_urls"`

	Status      RmaStatus    `json:"status"`
	Disposition *Disposition `json:"disposition,omitempty"`

	// Eligibility flags are computed once at validation time and persisted so
	// later audits see the decision basis as of approval.
	IsEligible        *bool      `json:"is_eligible,omitempty"`
	WarrantyValid     *bool      `json:"warranty_valid,omitempty"`
	PurchaseDateValid *bool      `json:"purchase_date_valid,omitempty"`
	ValidationNotes   string     `json:"validation_notes"`
	ValidatedBy       string     `json:"validated_by"`
	ValidatedAt       *time.Time `json:"validated_at,omitempty"`

	ShippingCarrier string     `json:"shipping_carrier"`
	TrackingNumber  string     `json:"tracking_number"`
	ShippedAt       *time.Time `json:"shipped_at,omitempty"`
	ReceivedAt      *time.Time `json:"received_at,omitempty"`

	InspectionResult *InspectionResult `json:"inspection_result,omitempty"`
	InspectionNotes  string            `json:"inspection_notes"`
	InspectedBy      string            `json:"inspected_by"`
	InspectedAt      *time.Time        `json:"inspected_at,omitempty"`

	DispositionReason string     `json:"disposition_reason"`
	DispositionBy     string     `json:"disposition_by"`
	DispositionAt     *time.Time `json:"disposition_at,omitempty"`

	RefundAmountCents *int64     `json:"refund_amount_cents,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
}

// RmaItem is one returned line, owned by its RmaRequest and immutable after
// submission. SaleItemID fixes the unit price at purchase time.
type RmaItem struct {
	ID         int64  `json:"id"`
	RmaID      int64  `json:"rma_id"`
	SaleItemID int64  `json:"sale_item_id"`
	ProductID  int64  `json:"product_id"`
	Quantity   int64  `json:"quantity"`
	Reason     string `json:"reason"`
}

// RmaItemView is an RmaItem joined with its product name and the unit price
// captured on the original sale line.
type RmaItemView struct {
	RmaItem
	ProductName          string `json:"product_name"`
	PriceAtPurchaseCents int64  `json:"price_at_purchase_cents"`
}

// RmaView is the composed read model: the aggregate plus its items, full
// activity history and refund, so callers never stitch the view themselves.
type RmaView struct {
	Rma        *RmaRequest        `json:"rma"`
	Items      []RmaItemView      `json:"items"`
	Activities []ActivityLogEntry `json:"activities"`
	Refund     *Refund            `json:"refund,omitempty"`

	// Sum of quantity * price-at-purchase over all items.
	RequestedRefundAmountCents int64 `json:"requested_refund_amount_cents"`
}
