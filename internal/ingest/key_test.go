package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOpportunityKey(t *testing.T) {
	base := NormalizeOpportunityKey("Jane Doe", "12 Oak St")
	assert.Equal(t, "jane doe|12 oak st", base)

	variants := [][2]string{
		{"jane doe", " 12 Oak St "},
		{"  JANE DOE", "12 OAK ST"},
		{"Jane  Doe", "12 Oak St."},
		{"Jane Doe\t", "12 oak st"},
		{"Jane\u00a0Doe", "12\u00a0Oak St"},
		{"Jane \u00a0Doe", "12 Oak\u2009St"},
	}
	for _, v := range variants {
		assert.Equal(t, base, NormalizeOpportunityKey(v[0], v[1]), "%q / %q", v[0], v[1])
	}

	assert.NotEqual(t, base, NormalizeOpportunityKey("Jane Do", "12 Oak St"))
	assert.Equal(t, "|", NormalizeOpportunityKey("", ""))
}

func TestNormalizeOpportunityKey_CaseAndTrimStable(t *testing.T) {
	inputs := []string{"Acme Roofing", "  acme roofing  ", "ACME ROOFING", "O'Brien & Sons", "  12-B Main St  "}
	for _, a := range inputs {
		canonical := strings.ToLower(strings.TrimSpace(a))
		assert.Equal(t,
			NormalizeOpportunityKey(canonical, canonical),
			NormalizeOpportunityKey(a, a),
			a)
	}
}

func TestBuildOpportunities_NonBreakingSpaceSameEngagement(t *testing.T) {
	opps := BuildOpportunities([]QuoteRow{
		{QuoteNumber: 1, ClientName: "Jane Doe", ServiceStreet: "12 Oak St", Status: QuoteStatusConverted},
		{QuoteNumber: 2, ClientName: "Jane\u00a0Doe", ServiceStreet: "12\u00a0Oak St", Status: QuoteStatusArchived},
	}, nil, nil)

	assert.Len(t, opps, 1)
	assert.Equal(t, []int{1, 2}, opps[0].QuoteNumbers)
	assert.Equal(t, StatusWon, opps[0].Status)
}

func TestRequestKey(t *testing.T) {
	assert.Equal(t, "jane doe|12 oak st", requestKey("jane doe", "12 oak st"))
	assert.Equal(t, "", requestKey("", "12 oak st"))
	assert.Equal(t, "", requestKey("jane doe", ""))
}
