package db

import (
	"context"
	"fmt"
)

// StatusCoverage counts how many opportunities of one status carry each
// enriched field.
type StatusCoverage struct {
	Status         string
	Total          int
	WithSentDate   int
	WithSchedule   int
	WithRevenue    int
	WithAssessment int
	WithRequest    int
}

const coverageQuery = `
	SELECT
		status,
		count(*),
		count(first_sent_date),
		count(scheduled_date),
		count(*) FILTER (WHERE actual_revenue > 0),
		count(assessment_date),
		count(request_date)
	FROM opportunities
	GROUP BY status
	ORDER BY status`

func (s *Store) Coverage(ctx context.Context) ([]StatusCoverage, error) {
	rows, err := s.pool.Query(ctx, coverageQuery)
	if err != nil {
		return nil, fmt.Errorf("query coverage: %w", err)
	}
	defer rows.Close()

	var out []StatusCoverage
	for rows.Next() {
		var c StatusCoverage
		if err := rows.Scan(&c.Status, &c.Total, &c.WithSentDate, &c.WithSchedule, &c.WithRevenue, &c.WithAssessment, &c.WithRequest); err != nil {
			return nil, fmt.Errorf("scan coverage: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
