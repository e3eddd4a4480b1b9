package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Opportunity is the persisted reconciliation aggregate as served by the API.
// Dates are yyyy-mm-dd; empty means unknown.
type Opportunity struct {
	ID               uuid.UUID       `json:"id"`
	Key              string          `json:"opportunity_key"`
	ClientName       string          `json:"client_name"`
	ClientEmail      string          `json:"client_email"`
	ClientPhone      string          `json:"client_phone"`
	ServiceStreet    string          `json:"service_street"`
	ServiceCity      string          `json:"service_city"`
	ServiceState     string          `json:"service_state"`
	ServiceZip       string          `json:"service_zip"`
	ProjectType      string          `json:"project_type"`
	LeadSource       string          `json:"lead_source"`
	Location         string          `json:"location"`
	Salesperson      string          `json:"salesperson"`
	QuoteNumbers     []int           `json:"quote_numbers"`
	QuoteCount       int             `json:"quote_count"`
	MinQuoteValue    decimal.Decimal `json:"min_quote_value"`
	MaxQuoteValue    decimal.Decimal `json:"max_quote_value"`
	TotalQuoteValue  decimal.Decimal `json:"total_quoted_value"`
	AvgQuoteValue    decimal.Decimal `json:"avg_quote_value"`
	FirstDraftedDate string          `json:"first_drafted_date,omitempty"`
	LastDraftedDate  string          `json:"last_drafted_date,omitempty"`
	FirstSentDate    string          `json:"first_sent_date,omitempty"`
	Status           string          `json:"status"`
	StatusReason     string          `json:"status_reason"`
	WonValue         decimal.Decimal `json:"won_value"`
	WonDate          string          `json:"won_date,omitempty"`
	WonQuoteNumbers  []int           `json:"won_quote_numbers"`
	LinkedJobNumbers []string        `json:"linked_job_numbers"`
	ScheduledDate    string          `json:"scheduled_date,omitempty"`
	ClosedDate       string          `json:"closed_date,omitempty"`
	ActualRevenue    decimal.Decimal `json:"actual_revenue"`
	AssessmentDate   string          `json:"assessment_date,omitempty"`
	RequestDate      string          `json:"request_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
