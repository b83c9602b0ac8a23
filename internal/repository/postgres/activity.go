package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

type activityLogRepository struct {
	db DBTX
}

func NewActivityLogRepository(db DBTX) repository.ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Append(ctx context.Context, entry *domain.ActivityLogEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}
	query := `INSERT INTO rma_activity_log (rma_id, action, old_status, new_status, actor, notes, metadata, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	entry.CreatedAt = time.Now()
	return r.db.QueryRowContext(ctx, query,
		entry.RmaID, entry.Action, nullStatus(entry.OldStatus), nullStatus(entry.NewStatus),
		entry.Actor, entry.Notes, metadata, entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *activityLogRepository) ListByRMA(ctx context.Context, rmaID int64) ([]domain.ActivityLogEntry, error) {
	query := `SELECT id, rma_id, action, old_status, new_status, actor, notes, metadata, created_at
	          FROM rma_activity_log WHERE rma_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, rmaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ActivityLogEntry
	for rows.Next() {
		var (
			entry     domain.ActivityLogEntry
			oldStatus sql.NullString
			newStatus sql.NullString
			metadata  []byte
		)
		if err := rows.Scan(&entry.ID, &entry.RmaID, &entry.Action, &oldStatus, &newStatus,
			&entry.Actor, &entry.Notes, &metadata, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if oldStatus.Valid {
			s := domain.RmaStatus(oldStatus.String)
			entry.OldStatus = &s
		}
		if newStatus.Valid {
			s := domain.RmaStatus(newStatus.String)
			entry.NewStatus = &s
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullStatus(s *domain.RmaStatus) any {
	if s == nil {
		return nil
	}
	return string(*s)
}
