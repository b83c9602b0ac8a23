package domain

// DailyMetric is one read-side projection row per calendar date,
// incrementally updated when RMAs close. Not authoritative.
type DailyMetric struct {
	MetricDate        string `json:"metric_date"` // YYYY-MM-DD
	TotalRequests     int64  `json:"total_requests"`
	CompletedRequests int64  `json:"completed_requests"`
}
