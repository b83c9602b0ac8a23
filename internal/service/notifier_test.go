package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"retail-rma-backend/internal/domain"
)

func rmaWithDisposition(d domain.Disposition) *domain.RmaRequest {
	number := "RMA-20260826-0001"
	return &domain.RmaRequest{ID: 1, RmaNumber: &number, Disposition: &d}
}

func TestComposeStatusMessage(t *testing.T) {
	t.Run("UsesRmaNumber", func(t *testing.T) {
		title, message := composeStatusMessage(rmaWithDisposition(domain.DispositionRefund), domain.RmaStatusApproved)
		assert.Equal(t, "Return Request Approved", title)
		assert.Contains(t, message, "RMA-20260826-0001")
	})

	t.Run("FallsBackToInternalID", func(t *testing.T) {
		_, message := composeStatusMessage(&domain.RmaRequest{ID: 42}, domain.RmaStatusSubmitted)
		assert.Contains(t, message, "#42")
	})

	t.Run("DispositionSpecificCompletion", func(t *testing.T) {
		tests := []struct {
			disposition domain.Disposition
			title       string
		}{
			{domain.DispositionRefund, "Refund Completed"},
			{domain.DispositionRepair, "Repair Completed"},
			{domain.DispositionReplacement, "Replacement Sent"},
			{domain.DispositionStoreCredit, "Store Credit Issued"},
			{domain.DispositionReject, "Return Closed"},
		}
		for _, tt := range tests {
			title, _ := composeStatusMessage(rmaWithDisposition(tt.disposition), domain.RmaStatusCompleted)
			assert.Equal(t, tt.title, title)
		}
	})

	t.Run("ProcessingMessages", func(t *testing.T) {
		title, message := composeStatusMessage(rmaWithDisposition(domain.DispositionRefund), domain.RmaStatusProcessing)
		assert.Equal(t, "Refund Processing", title)
		assert.Contains(t, message, "3-5 business days")
	})

	t.Run("ShippingIsSilent", func(t *testing.T) {
		title, _ := composeStatusMessage(rmaWithDisposition(domain.DispositionRefund), domain.RmaStatusShipping)
		assert.Empty(t, title)
	})
}

func TestComposeEmail(t *testing.T) {
	rma := rmaWithDisposition(domain.DispositionRefund)

	t.Run("RejectionIncludesReason", func(t *testing.T) {
		_, body := composeEmail(rma, EmailEventRejected, "outside the return window")
		assert.Contains(t, body, "outside the return window")
	})

	t.Run("UnknownEventIsSilent", func(t *testing.T) {
		subject, _ := composeEmail(rma, "SOMETHING_ELSE", "")
		assert.Empty(t, subject)
	})
}
