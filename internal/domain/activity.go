package domain

import "time"

// Activity log actions. The action names are part of the audit vocabulary and
// appear verbatim in admin tooling.
const (
	ActionSubmitted           = "SUBMITTED"
	ActionValidated           = "VALIDATED"
	ActionShippingUpdated     = "SHIPPING_UPDATED"
	ActionReceived            = "RECEIVED"
	ActionInspectionStarted   = "INSPECTION_STARTED"
	ActionInspectionCompleted = "INSPECTION_COMPLETED"
	ActionDispositionDecided  = "DISPOSITION_DECIDED"
	ActionRefundInitiated     = "REFUND_INITIATED"
	ActionRefundCompleted     = "REFUND_COMPLETED"
	ActionRefundFailed        = "REFUND_FAILED"
	ActionReplacementProcessed = "REPLACEMENT_PROCESSED"
	ActionStoreCreditIssued    = "STORE_CREDIT_ISSUED"
	ActionRepairInitiated      = "REPAIR_INITIATED"
	ActionRepairCompleted      = "REPAIR_COMPLETED"
	ActionReturnRejected       = "RETURN_REJECTED"
	ActionClosed               = "CLOSED"
	ActionCancelled            = "CANCELLED"
	ActionCustomerNotified     = "CUSTOMER_NOTIFIED"
)

// ActivityLogEntry is one append-only audit record. Entries are never updated
// or deleted; ordered by CreatedAt they are the authoritative history of an RMA.
type ActivityLogEntry struct {
	ID        int64             `json:"id"`
	RmaID     int64             `json:"rma_id"`
	Action    string            `json:"action"`
	OldStatus *RmaStatus        `json:"old_status,omitempty"`
	NewStatus *RmaStatus        `json:"new_status,omitempty"`
	Actor     string            `json:"actor"`
	Notes     string            `json:"notes"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
