package dashboard

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats is the aggregate snapshot served to the dashboard.
type Stats struct {
	TotalPatients int `json:"totalPatients"`
	TotalCalls    int `json:"totalCalls"`
	HotLeads      int `json:"hotLeads"`
	Completed     int `json:"completedCalls"`
	Failed        int `json:"failedCalls"`
	NotAvailable  int `json:"notAvailableCalls"`
	InProgress    int `json:"inProgressCalls"`
}

// StatsRepository computes dashboard aggregates from Postgres.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a stats repository over database/sql.
func NewStatsRepository(db *sql.DB) *StatsRepository {
	if db == nil {
		panic("dashboard: db required")
	}
	return &StatsRepository{db: db}
}

const patientCountQuery = `SELECT COUNT(*) FROM patients`

const callStatsQuery = `
SELECT
    COUNT(*) AS total,
    COUNT(*) FILTER (WHERE sentiment_label = 'Hot') AS hot_leads,
    COUNT(*) FILTER (WHERE status = 'completed') AS completed,
    COUNT(*) FILTER (WHERE status = 'failed') AS failed,
    COUNT(*) FILTER (WHERE status = 'not_available') AS not_available,
    COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress
FROM calls`

// GetStats returns the current aggregate snapshot.
func (r *StatsRepository) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	if err := r.db.QueryRowContext(ctx, patientCountQuery).Scan(&stats.TotalPatients); err != nil {
		return nil, fmt.Errorf("dashboard: count patients: %w", err)
	}

	err := r.db.QueryRowContext(ctx, callStatsQuery).Scan(
		&stats.TotalCalls,
		&stats.HotLeads,
		&stats.Completed,
		&stats.Failed,
		&stats.NotAvailable,
		&stats.InProgress,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard: aggregate calls: %w", err)
	}

	return &stats, nil
}
