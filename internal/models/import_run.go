package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ImportRun struct {
	ID                 uuid.UUID       `json:"id"`
	Source             string          `json:"source"`
	Status             string          `json:"status"` // running, completed, partial, failed
	StartedAt          time.Time       `json:"started_at"`
	CompletedAt        *time.Time      `json:"completed_at"`
	OpportunitiesTotal int             `json:"opportunities_total"`
	OpportunitiesNew   int             `json:"opportunities_new"`
	QuotesTotal        int             `json:"quotes_total"`
	JobsTotal          int             `json:"jobs_total"`
	JobsLinked         int             `json:"jobs_linked"`
	RequestsTotal      int             `json:"requests_total"`
	RequestsSaved      int             `json:"requests_saved"`
	ErrorCount         int             `json:"error_count"`
	Errors             json.RawMessage `json:"errors"`
}
