package ingest

import (
	"errors"
	"strings"
)

// ErrMissingIdentity marks a row whose natural key column is blank or not a number.
var ErrMissingIdentity = errors.New("missing identity field")

// rowNumber converts a 0-based data index into the 1-based line number the
// operator sees in a spreadsheet (header occupies line 1).
func rowNumber(idx int) int {
	return idx + 2
}

// MapQuoteRow builds a QuoteRow. A row without a quote number returns an
// ImportError instead.
func MapQuoteRow(cols ColumnMap, rec Record, idx int) (QuoteRow, *ImportError) {
	get := func(field string) string { return cols.Value(rec, field) }

	number, ok := ParseInt(get("quote_number"))
	if !ok {
		return QuoteRow{}, &ImportError{
			File:    FileQuotes,
			Row:     rowNumber(idx),
			Field:   "quote_number",
			Message: ErrMissingIdentity.Error() + ": quote number is blank or not a number",
		}
	}

	leadSource := CleanString(get("lead_source"))
	if leadSource == "" {
		leadSource = CleanString(get("lead_source_fallback"))
	}

	return QuoteRow{
		QuoteNumber:   number,
		ClientName:    CleanString(get("client_name")),
		ClientEmail:   CleanString(get("client_email")),
		ClientPhone:   CleanString(get("client_phone")),
		ServiceStreet: CleanString(get("service_street")),
		ServiceCity:   CleanString(get("service_city")),
		ServiceState:  CleanString(get("service_state")),
		ServiceZip:    CleanString(get("service_zip")),
		Status:        CleanString(get("status")),
		Total:         ParseCurrency(get("total")),
		DraftedDate:   ParseDate(get("drafted_date")),
		SentDate:      ParseDate(get("sent_date")),
		ApprovedDate:  ParseDate(get("approved_date")),
		ConvertedDate: ParseDate(get("converted_date")),
		ArchivedDate:  ParseDate(get("archived_date")),
		JobNumbersRaw: CleanString(get("job_numbers")),
		Salesperson:   CleanString(get("salesperson")),
		LeadSource:    leadSource,
		ProjectType:   CleanString(get("project_type")),
		Location:      CleanString(get("location")),
	}, nil
}

// MapJobRow builds a JobRow. A row without a job number returns an ImportError.
func MapJobRow(cols ColumnMap, rec Record, idx int) (JobRow, *ImportError) {
	get := func(field string) string { return cols.Value(rec, field) }

	number, ok := ParseInt(get("job_number"))
	if !ok {
		return JobRow{}, &ImportError{
			File:    FileJobs,
			Row:     rowNumber(idx),
			Field:   "job_number",
			Message: ErrMissingIdentity.Error() + ": job number is blank or not a number",
		}
	}

	row := JobRow{
		JobNumber:      number,
		ClientName:     CleanString(get("client_name")),
		ServiceStreet:  CleanString(get("service_street")),
		ServiceCity:    CleanString(get("service_city")),
		ServiceState:   CleanString(get("service_state")),
		ServiceZip:     CleanString(get("service_zip")),
		Title:          CleanString(get("title")),
		ScheduledStart: ParseDate(get("scheduled_start")),
		ClosedDate:     ParseDate(get("closed_date")),
		TotalRevenue:   ParseCurrency(get("total_revenue")),
		CrewLead:       CleanString(get("crew_lead")),
		CrewMembers:    CleanString(get("crew_members")),
	}
	if quote, ok := ParseInt(get("quote_number")); ok {
		row.QuoteNumber = &quote
	}
	return row, nil
}

// MapRequestRow builds a RequestRow and derives its matching key. Requests
// have no required identity column, so mapping never fails.
func MapRequestRow(cols ColumnMap, rec Record) RequestRow {
	get := func(field string) string { return cols.Value(rec, field) }

	row := RequestRow{
		ClientName:     CleanString(get("client_name")),
		ClientEmail:    CleanString(get("client_email")),
		ClientPhone:    CleanString(get("client_phone")),
		ServiceStreet:  CleanString(get("service_street")),
		ServiceCity:    CleanString(get("service_city")),
		Title:          CleanString(get("title")),
		RequestedDate:  ParseDate(get("requested_date")),
		AssessmentDate: ParseDate(get("assessment_date")),
		QuoteNumbers:   ParseIDList(get("quote_numbers")),
		JobNumbers:     ParseIDList(get("job_numbers")),
		OnlineBooking:  strings.EqualFold(strings.TrimSpace(get("online_booking")), "yes"),
	}
	row.ClientNameNormalized = normalizeRequestText(row.ClientName)
	row.ServiceStreetNormalized = normalizeRequestText(row.ServiceStreet)
	row.RequestKey = requestKey(row.ClientNameNormalized, row.ServiceStreetNormalized)
	return row
}
