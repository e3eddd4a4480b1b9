package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/david/opportunity-sync/internal/ingest"
	"github.com/david/opportunity-sync/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertBatch writes rows in one transaction, one INSERT ... ON CONFLICT per
// row sent as a single pgx batch. Either the whole batch lands or none of it.
func (s *Store) UpsertBatch(ctx context.Context, table ingest.Table, rows []map[string]any) (ingest.UpsertStats, error) {
	var stats ingest.UpsertStats
	if len(rows) == 0 {
		return stats, nil
	}

	columns := batchColumns(rows)
	query, err := buildUpsertSQL(table, columns)
	if err != nil {
		return stats, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("begin %s batch: %w", table.Name, err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, row := range rows {
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = row[col]
		}
		batch.Queue(query, args...)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range rows {
		var inserted bool
		if err := results.QueryRow().Scan(&inserted); err != nil {
			results.Close()
			return ingest.UpsertStats{}, fmt.Errorf("upsert %s row %d: %w", table.Name, i+1, err)
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}
	if err := results.Close(); err != nil {
		return ingest.UpsertStats{}, fmt.Errorf("close %s batch: %w", table.Name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ingest.UpsertStats{}, fmt.Errorf("commit %s batch: %w", table.Name, err)
	}
	return stats, nil
}

// batchColumns is the sorted union of keys across rows so every statement in
// a batch shares one SQL text.
func batchColumns(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for col := range row {
			seen[col] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for col := range seen {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

func buildUpsertSQL(table ingest.Table, columns []string) (string, error) {
	if table.Name == "" || table.ConflictKey == "" {
		return "", errors.New("table name and conflict key are required")
	}

	hasKey := false
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	updates := make([]string, 0, len(columns))
	for i, col := range columns {
		ident := pgx.Identifier{col}.Sanitize()
		quoted[i] = ident
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col == table.ConflictKey {
			hasKey = true
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", ident, ident))
	}
	if !hasKey {
		return "", fmt.Errorf("rows for %s are missing conflict key %q", table.Name, table.ConflictKey)
	}
	updates = append(updates, `"updated_at" = NOW()`)

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING (xmax = 0)",
		pgx.Identifier{table.Name}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		pgx.Identifier{table.ConflictKey}.Sanitize(),
		strings.Join(updates, ", "),
	), nil
}

type ListParams struct {
	Status   string // PENDING, WON, LOST or "" for all
	MinValue decimal.Decimal
	SortBy   string // newest (default), value_desc, first_sent
	Limit    int
	Offset   int
}

type ListResult struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Total         int                  `json:"total"`
	Limit         int                  `json:"limit"`
	Offset        int                  `json:"offset"`
}

const selectCols = `id, opportunity_key, client_name, client_email, client_phone,
	service_street, service_city, service_state, service_zip,
	project_type, lead_source, location, salesperson,
	quote_numbers, quote_count, min_quote_value::text, max_quote_value::text, total_quoted_value::text, avg_quote_value::text,
	first_drafted_date, last_drafted_date, first_sent_date,
	status, status_reason, won_value::text, won_date, won_quote_numbers, linked_job_numbers,
	scheduled_date, closed_date, actual_revenue::text, assessment_date, request_date,
	created_at, updated_at`

func scanOpportunity(scan func(dest ...any) error) (models.Opportunity, error) {
	var o models.Opportunity
	var clientName, clientEmail, clientPhone, street, city, state, zip *string
	var projectType, leadSource, location, salesperson, statusReason *string
	var minValue, maxValue, totalValue, avgValue, wonValue, revenue string
	var firstDrafted, lastDrafted, firstSent, wonDate, scheduled, closed, assessed, requested *time.Time

	err := scan(
		&o.ID, &o.Key, &clientName, &clientEmail, &clientPhone,
		&street, &city, &state, &zip,
		&projectType, &leadSource, &location, &salesperson,
		&o.QuoteNumbers, &o.QuoteCount, &minValue, &maxValue, &totalValue, &avgValue,
		&firstDrafted, &lastDrafted, &firstSent,
		&o.Status, &statusReason, &wonValue, &wonDate, &o.WonQuoteNumbers, &o.LinkedJobNumbers,
		&scheduled, &closed, &revenue, &assessed, &requested,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	o.ClientName = deref(clientName)
	o.ClientEmail = deref(clientEmail)
	o.ClientPhone = deref(clientPhone)
	o.ServiceStreet = deref(street)
	o.ServiceCity = deref(city)
	o.ServiceState = deref(state)
	o.ServiceZip = deref(zip)
	o.ProjectType = deref(projectType)
	o.LeadSource = deref(leadSource)
	o.Location = deref(location)
	o.Salesperson = deref(salesperson)
	o.StatusReason = deref(statusReason)

	o.MinQuoteValue = parseNumeric(minValue)
	o.MaxQuoteValue = parseNumeric(maxValue)
	o.TotalQuoteValue = parseNumeric(totalValue)
	o.AvgQuoteValue = parseNumeric(avgValue)
	o.WonValue = parseNumeric(wonValue)
	o.ActualRevenue = parseNumeric(revenue)

	o.FirstDraftedDate = formatDate(firstDrafted)
	o.LastDraftedDate = formatDate(lastDrafted)
	o.FirstSentDate = formatDate(firstSent)
	o.WonDate = formatDate(wonDate)
	o.ScheduledDate = formatDate(scheduled)
	o.ClosedDate = formatDate(closed)
	o.AssessmentDate = formatDate(assessed)
	o.RequestDate = formatDate(requested)

	return o, nil
}

func (s *Store) ListOpportunities(ctx context.Context, params ListParams) (*ListResult, error) {
	where, args := buildListWhere(params)

	var total int
	countSQL := "SELECT COUNT(*) FROM opportunities " + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}

	argIdx := len(args) + 1
	selectSQL := fmt.Sprintf("SELECT %s FROM opportunities %s %s LIMIT $%d OFFSET $%d",
		selectCols, where, buildOrderBy(params.SortBy), argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pool.Query(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	opps := []models.Opportunity{}
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return &ListResult{
		Opportunities: opps,
		Total:         total,
		Limit:         params.Limit,
		Offset:        params.Offset,
	}, nil
}

func buildListWhere(params ListParams) (string, []any) {
	where := "WHERE 1=1"
	var args []any
	argIdx := 1

	if status := strings.ToUpper(strings.TrimSpace(params.Status)); status != "" && status != "ALL" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}
	if params.MinValue.IsPositive() {
		where += fmt.Sprintf(" AND total_quoted_value >= $%d", argIdx)
		args = append(args, params.MinValue.String())
	}
	return where, args
}

func buildOrderBy(sortBy string) string {
	switch sortBy {
	case "value_desc":
		return "ORDER BY total_quoted_value DESC, opportunity_key ASC"
	case "first_sent":
		return "ORDER BY first_sent_date ASC NULLS LAST, opportunity_key ASC"
	default:
		return "ORDER BY updated_at DESC, first_sent_date DESC NULLS LAST, opportunity_key ASC"
	}
}

func (s *Store) GetOpportunity(ctx context.Context, key string) (*models.Opportunity, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM opportunities
		WHERE opportunity_key = $1
	`, selectCols)
	row := s.pool.QueryRow(ctx, sql, key)

	o, err := scanOpportunity(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get opportunity %q: %w", key, err)
	}
	return &o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func parseNumeric(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
