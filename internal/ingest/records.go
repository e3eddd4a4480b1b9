package ingest

import (
	"strconv"
	"time"
)

// Column values are plain Go values the pgx driver can encode. Absent
// strings and dates become nil so they land as NULL.

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dateValue(s string) any {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return t
}

func quoteRecord(q QuoteRow) map[string]any {
	return map[string]any{
		"quote_number":    q.QuoteNumber,
		"opportunity_key": NormalizeOpportunityKey(q.ClientName, q.ServiceStreet),
		"client_name":     nilIfEmpty(q.ClientName),
		"client_email":    nilIfEmpty(q.ClientEmail),
		"client_phone":    nilIfEmpty(q.ClientPhone),
		"service_street":  nilIfEmpty(q.ServiceStreet),
		"service_city":    nilIfEmpty(q.ServiceCity),
		"service_state":   nilIfEmpty(q.ServiceState),
		"service_zip":     nilIfEmpty(q.ServiceZip),
		"status":          nilIfEmpty(q.Status),
		"total":           q.Total,
		"drafted_date":    dateValue(q.DraftedDate),
		"sent_date":       dateValue(q.SentDate),
		"approved_date":   dateValue(q.ApprovedDate),
		"converted_date":  dateValue(q.ConvertedDate),
		"archived_date":   dateValue(q.ArchivedDate),
		"job_numbers":     nilIfEmpty(q.JobNumbersRaw),
		"salesperson":     nilIfEmpty(q.Salesperson),
		"lead_source":     nilIfEmpty(q.LeadSource),
		"project_type":    nilIfEmpty(q.ProjectType),
		"location":        nilIfEmpty(q.Location),
	}
}

func opportunityRecord(o Opportunity) map[string]any {
	wonQuotes := o.WonQuoteNumbers
	if wonQuotes == nil {
		wonQuotes = []int{}
	}
	linkedJobs := o.LinkedJobNumbers
	if linkedJobs == nil {
		linkedJobs = []string{}
	}
	return map[string]any{
		"opportunity_key":    o.Key,
		"client_name":        nilIfEmpty(o.ClientName),
		"client_email":       nilIfEmpty(o.ClientEmail),
		"client_phone":       nilIfEmpty(o.ClientPhone),
		"service_street":     nilIfEmpty(o.ServiceStreet),
		"service_city":       nilIfEmpty(o.ServiceCity),
		"service_state":      nilIfEmpty(o.ServiceState),
		"service_zip":        nilIfEmpty(o.ServiceZip),
		"project_type":       nilIfEmpty(o.ProjectType),
		"lead_source":        nilIfEmpty(o.LeadSource),
		"location":           nilIfEmpty(o.Location),
		"salesperson":        nilIfEmpty(o.Salesperson),
		"quote_numbers":      o.QuoteNumbers,
		"quote_count":        o.QuoteCount,
		"min_quote_value":    o.MinQuoteValue,
		"max_quote_value":    o.MaxQuoteValue,
		"total_quoted_value": o.TotalQuoteValue,
		"avg_quote_value":    o.AvgQuoteValue,
		"first_drafted_date": dateValue(o.FirstDraftedDate),
		"last_drafted_date":  dateValue(o.LastDraftedDate),
		"first_sent_date":    dateValue(o.FirstSentDate),
		"status":             string(o.Status),
		"status_reason":      nilIfEmpty(o.StatusReason),
		"won_value":          o.WonValue,
		"won_date":           dateValue(o.WonDate),
		"won_quote_numbers":  wonQuotes,
		"linked_job_numbers": linkedJobs,
		"scheduled_date":     dateValue(o.ScheduledDate),
		"closed_date":        dateValue(o.ClosedDate),
		"actual_revenue":     o.ActualRevenue,
		"assessment_date":    dateValue(o.AssessmentDate),
		"request_date":       dateValue(o.RequestDate),
	}
}

func jobRecord(j JobRow) map[string]any {
	var quote any
	if j.QuoteNumber != nil {
		quote = *j.QuoteNumber
	}
	return map[string]any{
		"job_number":      j.JobNumber,
		"quote_number":    quote,
		"client_name":     nilIfEmpty(j.ClientName),
		"service_street":  nilIfEmpty(j.ServiceStreet),
		"service_city":    nilIfEmpty(j.ServiceCity),
		"service_state":   nilIfEmpty(j.ServiceState),
		"service_zip":     nilIfEmpty(j.ServiceZip),
		"title":           nilIfEmpty(j.Title),
		"scheduled_start": dateValue(j.ScheduledStart),
		"closed_date":     dateValue(j.ClosedDate),
		"total_revenue":   j.TotalRevenue,
		"crew_lead":       nilIfEmpty(j.CrewLead),
		"crew_members":    nilIfEmpty(j.CrewMembers),
	}
}

func requestRecord(r RequestRow) map[string]any {
	return map[string]any{
		"request_key":               r.RequestKey,
		"client_name":               nilIfEmpty(r.ClientName),
		"client_email":              nilIfEmpty(r.ClientEmail),
		"client_phone":              nilIfEmpty(r.ClientPhone),
		"service_street":            nilIfEmpty(r.ServiceStreet),
		"service_city":              nilIfEmpty(r.ServiceCity),
		"title":                     nilIfEmpty(r.Title),
		"requested_date":            dateValue(r.RequestedDate),
		"assessment_date":           dateValue(r.AssessmentDate),
		"quote_numbers":             r.QuoteNumbers,
		"job_numbers":               r.JobNumbers,
		"online_booking":            r.OnlineBooking,
		"client_name_normalized":    r.ClientNameNormalized,
		"service_street_normalized": r.ServiceStreetNormalized,
	}
}

func quoteKey(q QuoteRow) string { return strconv.Itoa(q.QuoteNumber) }

func jobKey(j JobRow) string { return strconv.Itoa(j.JobNumber) }

func requestKeyOf(r RequestRow) string { return r.RequestKey }
