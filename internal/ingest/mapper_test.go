package ingest

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRecord builds a Record with headers in sorted order.
func testRecord(values map[string]string) Record {
	headers := make([]string, 0, len(values))
	for h := range values {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	return Record{Headers: headers, Values: values}
}

func TestMapQuoteRow(t *testing.T) {
	cols := DefaultColumnMaps().Quotes
	rec := testRecord(map[string]string{
		"Quote #":        "1,042",
		"Client name":    " Jane Doe ",
		"Service street": "12 Oak St",
		"Status":         "Converted",
		"Total ($)":      "$1,250.00",
		"Sent date":      "Mar 2, 2024",
		"Converted date": "3/9/2024",
		"Job #s":         "900, 901",
		"Salesperson":    "-",
		"Lead source":    "",
		"Source":         "Google",
	})

	row, rowErr := MapQuoteRow(cols, rec, 0)
	require.Nil(t, rowErr)
	assert.Equal(t, 1042, row.QuoteNumber)
	assert.Equal(t, "Jane Doe", row.ClientName)
	assert.Equal(t, "Converted", row.Status)
	assert.Equal(t, "1250", row.Total.String())
	assert.Equal(t, "2024-03-02", row.SentDate)
	assert.Equal(t, "2024-03-09", row.ConvertedDate)
	assert.Equal(t, "", row.DraftedDate)
	assert.Equal(t, "900, 901", row.JobNumbersRaw)
	assert.Equal(t, "", row.Salesperson)
	assert.Equal(t, "Google", row.LeadSource)
}

func TestMapQuoteRow_PrimaryLeadSourceWins(t *testing.T) {
	cols := DefaultColumnMaps().Quotes
	row, rowErr := MapQuoteRow(cols, testRecord(map[string]string{"Quote #": "5", "Lead source": "Referral", "Source": "Google"}), 0)
	require.Nil(t, rowErr)
	assert.Equal(t, "Referral", row.LeadSource)
}

func TestMapQuoteRow_MissingIdentity(t *testing.T) {
	cols := DefaultColumnMaps().Quotes
	for _, raw := range []string{"", "-", "abc"} {
		_, rowErr := MapQuoteRow(cols, testRecord(map[string]string{"Quote #": raw, "Client name": "Jane"}), 3)
		require.NotNil(t, rowErr, raw)
		assert.Equal(t, FileQuotes, rowErr.File)
		assert.Equal(t, 5, rowErr.Row)
		assert.Equal(t, "quote_number", rowErr.Field)
		assert.True(t, strings.HasPrefix(rowErr.Message, ErrMissingIdentity.Error()))
	}
}

func TestMapQuoteRow_LooseHeaders(t *testing.T) {
	cols := DefaultColumnMaps().Quotes
	row, rowErr := MapQuoteRow(cols, testRecord(map[string]string{"quote #": "7", "CLIENT NAME": "Bob", "service_street": "3 Elm"}), 0)
	require.Nil(t, rowErr)
	assert.Equal(t, 7, row.QuoteNumber)
	assert.Equal(t, "Bob", row.ClientName)
	assert.Equal(t, "3 Elm", row.ServiceStreet)
}

func TestMapJobRow(t *testing.T) {
	cols := DefaultColumnMaps().Jobs
	row, rowErr := MapJobRow(cols, testRecord(map[string]string{
		"Job #":               "88",
		"Quote #":             "1042",
		"Schedule start date": "2024-04-01",
		"Closed date":         "Apr 20, 2024",
		"Total revenue ($)":   "$2,000",
		"Crew lead":           "Pat",
	}), 0)
	require.Nil(t, rowErr)
	assert.Equal(t, 88, row.JobNumber)
	require.NotNil(t, row.QuoteNumber)
	assert.Equal(t, 1042, *row.QuoteNumber)
	assert.Equal(t, "2024-04-01", row.ScheduledStart)
	assert.Equal(t, "2024-04-20", row.ClosedDate)
	assert.Equal(t, "2000", row.TotalRevenue.String())
	assert.Equal(t, "Pat", row.CrewLead)

	row, rowErr = MapJobRow(cols, testRecord(map[string]string{"Job #": "89", "Quote #": ""}), 0)
	require.Nil(t, rowErr)
	assert.Nil(t, row.QuoteNumber)

	_, rowErr = MapJobRow(cols, testRecord(map[string]string{"Job #": ""}), 10)
	require.NotNil(t, rowErr)
	assert.Equal(t, FileJobs, rowErr.File)
	assert.Equal(t, 12, rowErr.Row)
	assert.Equal(t, "job_number", rowErr.Field)
}

func TestMapRequestRow(t *testing.T) {
	cols := DefaultColumnMaps().Requests
	row := MapRequestRow(cols, testRecord(map[string]string{
		"Client name":     "  Jane  DOE ",
		"Service street":  "12 Oak St.",
		"Requested date":  "2024-01-03",
		"Assessment date": "-",
		"Quote #s":        "1042, 1043",
		"Online booking":  " YES ",
	}))
	assert.Equal(t, "jane  doe", row.ClientNameNormalized)
	assert.Equal(t, "12 oak st", row.ServiceStreetNormalized)
	assert.Equal(t, "jane  doe|12 oak st", row.RequestKey)
	assert.Equal(t, []string{"1042", "1043"}, row.QuoteNumbers)
	assert.Equal(t, "2024-01-03", row.RequestedDate)
	assert.Equal(t, "", row.AssessmentDate)
	assert.True(t, row.OnlineBooking)

	noStreet := MapRequestRow(cols, testRecord(map[string]string{"Client name": "Jane", "Online booking": "no"}))
	assert.Equal(t, "", noStreet.RequestKey)
	assert.False(t, noStreet.OnlineBooking)
	assert.Equal(t, []string{}, noStreet.QuoteNumbers)
}

func TestMapRequestRow_KeyNormalization(t *testing.T) {
	cols := DefaultColumnMaps().Requests
	key := func(client, street string) string {
		return MapRequestRow(cols, testRecord(map[string]string{"Client name": client, "Service street": street})).RequestKey
	}

	assert.Equal(t, "jane doe|12 oak st", key("Jane\u00a0Doe", "12\u00a0Oak St"))
	assert.Equal(t, key("Jane Doe", "12 Oak St"), key(" JANE DOE\t", "12 Oak St."))
	assert.NotEqual(t, key("Jane Doe", "12 Oak St"), key("Jane Doe", "12  Oak St"))
	assert.Equal(t, "", key("Jane", "\u00a0-\u00a0"))
}
