package postgres

import (
	"context"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

type metricsRepository struct {
	db DBTX
}

func NewMetricsRepository(db DBTX) repository.MetricsRepository {
	return &metricsRepository{db: db}
}

func (r *metricsRepository) IncrementClosed(ctx context.Context, metricDate string) error {
	query := `INSERT INTO rma_metrics (metric_date, total_requests, completed_requests)
	          VALUES ($1, 1, 1)
	          ON CONFLICT (metric_date) DO UPDATE SET
	              total_requests = rma_metrics.total_requests + 1,
	              completed_requests = rma_metrics.completed_requests + 1`
	_, err := r.db.ExecContext(ctx, query, metricDate)
	return err
}

func (r *metricsRepository) ListRange(ctx context.Context, startDate, endDate string) ([]domain.DailyMetric, error) {
	query := `SELECT metric_date, total_requests, completed_requests FROM rma_metrics`
	var args []any
	if startDate != "" && endDate != "" {
		query += ` WHERE metric_date BETWEEN $1 AND $2`
		args = append(args, startDate, endDate)
	}
	query += ` ORDER BY metric_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []domain.DailyMetric
	for rows.Next() {
		var m domain.DailyMetric
		if err := rows.Scan(&m.MetricDate, &m.TotalRequests, &m.CompletedRequests); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
