package service

import (
	"context"
	"fmt"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/logger"
	"retail-rma-backend/internal/repository"
)

// statusDisplayNames maps statuses to the customer-facing wording used in
// notifications and emails.
var statusDisplayNames = map[domain.RmaStatus]string{
	domain.RmaStatusSubmitted:   "Submitted",
	domain.RmaStatusApproved:    "Approved",
	domain.RmaStatusRejected:    "Rejected",
	domain.RmaStatusShipping:    "In Transit to Warehouse",
	domain.RmaStatusReceived:    "Received at Warehouse",
	domain.RmaStatusInspecting:  "Under Inspection",
	domain.RmaStatusInspected:   "Inspection Complete",
	domain.RmaStatusDisposition: "Processing Decision",
	domain.RmaStatusProcessing:  "Processing Refund/Replacement",
	domain.RmaStatusCompleted:   "Completed",
	domain.RmaStatusCancelled:   "Cancelled",
}

type notifier struct {
	store    repository.Store
	emailSvc EmailService
}

// NewNotifier builds the customer notification channel. emailSvc may be nil,
// in which case only in-app notifications are produced.
func NewNotifier(store repository.Store, emailSvc EmailService) NotificationEmitter {
	return &notifier{store: store, emailSvc: emailSvc}
}

func (n *notifier) RecordStatusChange(ctx context.Context, repos *repository.Repositories, rma *domain.RmaRequest, oldStatus, newStatus domain.RmaStatus) {
	title, message := composeStatusMessage(rma, newStatus)
	if title == "" {
		return
	}
	note := &domain.Notification{
		UserID:  rma.UserID,
		RmaID:   rma.ID,
		Title:   title,
		Message: message,
	}
	if err := repos.Notifications.Create(ctx, note); err != nil {
		logger.WarnContext(ctx, "notification write failed",
			"rma_id", rma.ID, "user_id", rma.UserID, "error", err)
	}
}

// composeStatusMessage renders the customer-facing title and body for a
// status change. Returns empty strings for statuses the customer is not
// told about (SHIPPING is their own action).
func composeStatusMessage(rma *domain.RmaRequest, status domain.RmaStatus) (title, message string) {
	num := displayNumber(rma)
	var dispo domain.Disposition
	if rma.Disposition != nil {
		dispo = *rma.Disposition
	}

	switch status {
	case domain.RmaStatusSubmitted:
		return "Return Request Submitted",
			fmt.Sprintf("Your return request %s has been submitted and is awaiting review.", num)
	case domain.RmaStatusApproved:
		return "Return Request Approved",
			fmt.Sprintf("Your return request %s has been approved. Please ship the item(s) back to us.", num)
	case domain.RmaStatusRejected:
		return "Return Request Not Approved",
			fmt.Sprintf("Your return request %s could not be approved. Please check the details for more information.", num)
	case domain.RmaStatusReceived:
		return "Return Received",
			fmt.Sprintf("We've received your return %s and will inspect it shortly.", num)
	case domain.RmaStatusInspecting:
		return "Return Under Inspection",
			fmt.Sprintf("Your return %s is currently being inspected by our team.", num)
	case domain.RmaStatusInspected:
		return "Inspection Complete",
			fmt.Sprintf("Inspection of your return %s is complete. We're processing the next steps.", num)
	case domain.RmaStatusDisposition:
		switch dispo {
		case domain.DispositionRepair:
			return "Repair Approved",
				fmt.Sprintf("Your item %s will be repaired. We'll notify you once the repair is complete.", num)
		case domain.DispositionReject:
			return "Return Decision: Not Approved",
				fmt.Sprintf("After review, your return %s cannot be processed. The item will remain with you.", num)
		default:
			return "Return Being Processed",
				fmt.Sprintf("Your return %s is being processed. We'll update you soon.", num)
		}
	case domain.RmaStatusProcessing:
		switch dispo {
		case domain.DispositionRefund:
			return "Refund Processing",
				fmt.Sprintf("Your refund for %s is being processed. You'll receive it within 3-5 business days.", num)
		case domain.DispositionRepair:
			return "Item Under Repair",
				fmt.Sprintf("Your item %s is currently being repaired by our technicians.", num)
		case domain.DispositionReplacement:
			return "Replacement Processing",
				fmt.Sprintf("We're preparing your replacement order for %s.", num)
		case domain.DispositionStoreCredit:
			return "Store Credit Processing",
				fmt.Sprintf("We're adding store credit to your account for %s.", num)
		default:
			return "Processing Your Return",
				fmt.Sprintf("Your return %s is being processed.", num)
		}
	case domain.RmaStatusCompleted:
		switch dispo {
		case domain.DispositionRefund:
			return "Refund Completed",
				fmt.Sprintf("Your refund for %s has been completed. Thank you!", num)
		case domain.DispositionRepair:
			return "Repair Completed",
				fmt.Sprintf("Your item %s has been repaired and shipped back to you. Thank you!", num)
		case domain.DispositionReplacement:
			return "Replacement Sent",
				fmt.Sprintf("Your replacement for %s has been shipped. Thank you!", num)
		case domain.DispositionStoreCredit:
			return "Store Credit Issued",
				fmt.Sprintf("Store credit for %s has been added to your account. Thank you!", num)
		case domain.DispositionReject:
			return "Return Closed",
				fmt.Sprintf("Your return request %s has been closed.", num)
		default:
			return "Return Completed",
				fmt.Sprintf("Your return %s has been completed. Thank you for your patience!", num)
		}
	case domain.RmaStatusCancelled:
		return "Return Cancelled",
			fmt.Sprintf("Your return request %s has been cancelled.", num)
	}
	return "", ""
}

// displayNumber prefers the public RMA number, falling back to the internal
// id for RMAs that never reached approval.
func displayNumber(rma *domain.RmaRequest) string {
	if rma.RmaNumber != nil && *rma.RmaNumber != "" {
		return *rma.RmaNumber
	}
	return fmt.Sprintf("#%d", rma.ID)
}

func (n *notifier) SendStatusEmail(ctx context.Context, rma *domain.RmaRequest, eventType, details string) {
	if n.emailSvc == nil {
		return
	}
	user, err := n.store.Repos().Users.GetByID(ctx, rma.UserID)
	if err != nil {
		logger.WarnContext(ctx, "email recipient lookup failed",
			"rma_id", rma.ID, "user_id", rma.UserID, "error", err)
		return
	}

	subject, body := composeEmail(rma, eventType, details)
	if subject == "" {
		return
	}
	if err := n.emailSvc.Send(ctx, user.Email, user.Name, subject, body); err != nil {
		logger.WarnContext(ctx, "status email delivery failed",
			"rma_id", rma.ID, "event", eventType, "error", err)
	}
}

func composeEmail(rma *domain.RmaRequest, eventType, details string) (subject, body string) {
	num := displayNumber(rma)
	switch eventType {
	case EmailEventApproved:
		return fmt.Sprintf("Return %s approved", num),
			fmt.Sprintf("Your return request %s has been approved. Please ship the item(s) back to us and add the tracking number to your return.", num)
	case EmailEventRejected:
		subject = fmt.Sprintf("Update on return %s", num)
		body = fmt.Sprintf("We reviewed your return request %s and unfortunately cannot process it.", num)
		if details != "" {
			body += " Reason: " + details
		}
		return subject, body
	case EmailEventReceived:
		return fmt.Sprintf("Return %s received", num),
			fmt.Sprintf("We've received your return %s at our warehouse and will inspect it shortly.", num)
	case EmailEventCancelled:
		return fmt.Sprintf("Return %s cancelled", num),
			fmt.Sprintf("Your return request %s has been cancelled. If this wasn't you, please contact support.", num)
	case EmailEventCompletedRefund:
		return fmt.Sprintf("Refund for return %s completed", num),
			fmt.Sprintf("Your refund for return %s has been processed. Depending on your bank it may take 3-5 business days to appear.", num)
	case EmailEventCompletedReplacement:
		return fmt.Sprintf("Replacement for return %s shipped", num),
			fmt.Sprintf("Your replacement order for return %s is on its way.", num)
	case EmailEventCompletedRepair:
		return fmt.Sprintf("Repair for return %s completed", num),
			fmt.Sprintf("Your item from return %s has been repaired and shipped back to you.", num)
	case EmailEventCompletedCredit:
		return fmt.Sprintf("Store credit for return %s issued", num),
			fmt.Sprintf("Store credit for return %s has been added to your account.", num)
	}
	return "", ""
}
