package jobs

import (
	"context"
	"fmt"
	"time"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/logger"
)

// SendShippingReminders nudges customers whose return was approved more than
// the configured number of days ago but who never added tracking.
func (jr *JobRunner) SendShippingReminders() {
	jr.runWithRecovery("SendShippingReminders", func() {
		ctx := context.Background()
		cutoff := time.Now().AddDate(0, 0, -jr.config.Rma.ShippingReminderDays)

		query := `
			SELECT r.id, r.user_id, r.rma_number, u.name, u.email
			FROM rma_requests r
			JOIN users u ON r.user_id = u.id
			WHERE r.status = 'APPROVED'
			  AND r.tracking_number = ''
			  AND r.validated_at < $1
		`

		rows, err := jr.db.QueryContext(ctx, query, cutoff)
		if err != nil {
			logger.Error("Failed to find RMAs awaiting shipment", "error", err)
			return
		}
		defer rows.Close()

		type reminder struct {
			RmaID     int64
			UserID    int64
			RmaNumber string
			UserName  string
			UserEmail string
		}
		var reminders []reminder
		for rows.Next() {
			var rem reminder
			if err := rows.Scan(&rem.RmaID, &rem.UserID, &rem.RmaNumber, &rem.UserName, &rem.UserEmail); err != nil {
				logger.Error("Failed to scan reminder row", "error", err)
				continue
			}
			reminders = append(reminders, rem)
		}
		if err := rows.Err(); err != nil {
			logger.Error("Error iterating reminder rows", "error", err)
			return
		}

		repos := jr.store.Repos()
		for _, rem := range reminders {
			note := &domain.Notification{
				UserID:  rem.UserID,
				RmaID:   rem.RmaID,
				Title:   "Reminder: Ship Your Return",
				Message: fmt.Sprintf("Your approved return %s is still waiting for shipment. Please ship the item(s) and add the tracking number.", rem.RmaNumber),
			}
			if err := repos.Notifications.Create(ctx, note); err != nil {
				logger.Error("Failed to write shipping reminder notification",
					"rma_id", rem.RmaID, "error", err)
				continue
			}

			if jr.emailSvc != nil {
				subject := fmt.Sprintf("Reminder: ship your return %s", rem.RmaNumber)
				body := fmt.Sprintf("Your return %s was approved but we haven't received a shipment yet. Please ship the item(s) back and add the tracking number to your return.", rem.RmaNumber)
				if err := jr.emailSvc.Send(ctx, rem.UserEmail, rem.UserName, subject, body); err != nil {
					logger.Warn("Failed to send shipping reminder email",
						"rma_id", rem.RmaID, "error", err)
				}
			}
		}

		logger.Info("Sent shipping reminders", "count", len(reminders))
	})
}

// AlertStaleProcessing flags RMAs stuck in PROCESSING longer than the
// configured number of days so operations can intervene.
func (jr *JobRunner) AlertStaleProcessing() {
	jr.runWithRecovery("AlertStaleProcessing", func() {
		ctx := context.Background()
		cutoff := time.Now().AddDate(0, 0, -jr.config.Rma.StaleProcessingDays)

		query := `
			SELECT id, rma_number, disposition, disposition_at
			FROM rma_requests
			WHERE status = 'PROCESSING'
			  AND disposition_at < $1
			ORDER BY disposition_at
		`

		rows, err := jr.db.QueryContext(ctx, query, cutoff)
		if err != nil {
			logger.Error("Failed to find stale processing RMAs", "error", err)
			return
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			var (
				id            int64
				rmaNumber     string
				disposition   string
				dispositionAt time.Time
			)
			if err := rows.Scan(&id, &rmaNumber, &disposition, &dispositionAt); err != nil {
				logger.Error("Failed to scan stale RMA row", "error", err)
				continue
			}
			logger.Warn("RMA stuck in processing",
				"rma_id", id,
				"rma_number", rmaNumber,
				"disposition", disposition,
				"days_in_processing", int(time.Since(dispositionAt).Hours()/24))
			count++
		}
		if err := rows.Err(); err != nil {
			logger.Error("Error iterating stale RMA rows", "error", err)
			return
		}

		logger.Info("Checked for stale processing RMAs", "count", count)
	})
}
