package ingest

import (
	"context"

	"github.com/shopspring/decimal"
)

// Record is one decoded data row. Headers lists the file's distinct header
// cells in source order and is shared by every row of that file.
type Record struct {
	Headers []string
	Values  map[string]string
}

// SourceFile names one of the three export files of an import run.
type SourceFile string

const (
	FileQuotes   SourceFile = "quotes"
	FileJobs     SourceFile = "jobs"
	FileRequests SourceFile = "requests"
)

// Quote status values that drive the conversion state machine.
const (
	QuoteStatusConverted = "Converted"
	QuoteStatusArchived  = "Archived"
)

// ConversionStatus is the derived state of an Opportunity.
type ConversionStatus string

const (
	StatusPending ConversionStatus = "PENDING"
	StatusWon     ConversionStatus = "WON"
	StatusLost    ConversionStatus = "LOST"
)

// QuoteRow is one typed row of the Quotes export.
// Dates are ISO yyyy-mm-dd strings; an empty string means the cell was absent.
type QuoteRow struct {
	QuoteNumber   int
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ServiceStreet string
	ServiceCity   string
	ServiceState  string
	ServiceZip    string
	Status        string
	Total         decimal.Decimal
	DraftedDate   string
	SentDate      string
	ApprovedDate  string
	ConvertedDate string
	ArchivedDate  string
	JobNumbersRaw string
	Salesperson   string
	LeadSource    string
	ProjectType   string
	Location      string
}

// JobRow is one typed row of the Jobs export.
type JobRow struct {
	JobNumber      int
	QuoteNumber    *int
	ClientName     string
	ServiceStreet  string
	ServiceCity    string
	ServiceState   string
	ServiceZip     string
	Title          string
	ScheduledStart string
	ClosedDate     string
	TotalRevenue   decimal.Decimal
	CrewLead       string
	CrewMembers    string
}

// RequestRow is one typed row of the Requests (assessment) export.
type RequestRow struct {
	ClientName              string
	ClientEmail             string
	ClientPhone             string
	ServiceStreet           string
	ServiceCity             string
	Title                   string
	RequestedDate           string
	AssessmentDate          string
	QuoteNumbers            []string
	JobNumbers              []string
	OnlineBooking           bool
	ClientNameNormalized    string
	ServiceStreetNormalized string
	// RequestKey is empty when either normalized side is empty; such rows
	// still enrich opportunities but are never persisted.
	RequestKey string
}

// Opportunity is the reconciled aggregate for one client + service street.
type Opportunity struct {
	Key string

	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ServiceStreet string
	ServiceCity   string
	ServiceState  string
	ServiceZip    string
	ProjectType   string
	LeadSource    string
	Location      string
	Salesperson   string

	QuoteNumbers    []int
	QuoteCount      int
	MinQuoteValue   decimal.Decimal
	MaxQuoteValue   decimal.Decimal
	TotalQuoteValue decimal.Decimal
	AvgQuoteValue   decimal.Decimal

	FirstDraftedDate string
	LastDraftedDate  string
	FirstSentDate    string

	Status           ConversionStatus
	StatusReason     string
	WonValue         decimal.Decimal
	WonDate          string
	WonQuoteNumbers  []int
	LinkedJobNumbers []string

	ScheduledDate  string
	ClosedDate     string
	ActualRevenue  decimal.Decimal
	AssessmentDate string
	RequestDate    string
}

// ImportError is one entry of the run's error list.
type ImportError struct {
	File    SourceFile `json:"file"`
	Row     int        `json:"row"`
	Field   string     `json:"field"`
	Message string     `json:"message"`
}

type UpsertCounts struct {
	Total   int `json:"total"`
	New     int `json:"new"`
	Updated int `json:"updated"`
}

type LinkCounts struct {
	Total  int `json:"total"`
	Linked int `json:"linked"`
}

type RequestCounts struct {
	Total  int `json:"total"`
	Linked int `json:"linked"`
	Saved  int `json:"saved"`
}

// ImportResult is returned for every run, successful or not.
type ImportResult struct {
	Success       bool          `json:"success"`
	Opportunities UpsertCounts  `json:"opportunities"`
	Quotes        UpsertCounts  `json:"quotes"`
	Jobs          LinkCounts    `json:"jobs"`
	Requests      RequestCounts `json:"requests"`
	Errors        []ImportError `json:"errors"`
}

// Table identifies a persisted entity and its natural conflict key.
type Table struct {
	Name        string
	ConflictKey string
}

var (
	TableQuotes        = Table{Name: "quotes", ConflictKey: "quote_number"}
	TableOpportunities = Table{Name: "opportunities", ConflictKey: "opportunity_key"}
	TableJobs          = Table{Name: "jobs", ConflictKey: "job_number"}
	TableRequests      = Table{Name: "requests", ConflictKey: "request_key"}
)

// UpsertStats reports how many rows of a batch were inserted or updated.
type UpsertStats struct {
	Inserted int
	Updated  int
}

// Store is the datastore collaborator: batched upsert by natural key.
type Store interface {
	UpsertBatch(ctx context.Context, table Table, rows []map[string]any) (UpsertStats, error)
}

// RunRecorder keeps an audit trail of import runs.
type RunRecorder interface {
	StartRun(ctx context.Context, source string) (string, error)
	CompleteRun(ctx context.Context, runID string, result ImportResult) error
}
