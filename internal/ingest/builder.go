package ingest

import (
	"strconv"

	"github.com/shopspring/decimal"
)

type opportunityState struct {
	opp    Opportunity
	quotes []QuoteRow
}

// OpportunityBuilder groups quotes into opportunities and enriches them from
// jobs and requests. One builder serves exactly one import run and is not
// safe for concurrent use.
type OpportunityBuilder struct {
	order       []string
	states      map[string]*opportunityState
	memberQuote map[int]string
}

func NewOpportunityBuilder() *OpportunityBuilder {
	return &OpportunityBuilder{
		states:      make(map[string]*opportunityState),
		memberQuote: make(map[int]string),
	}
}

// AddQuote is pass 1. The first quote seen for a key seeds the static fields
// (first-seen wins); salesperson is taken from the first quote that has one.
func (b *OpportunityBuilder) AddQuote(q QuoteRow) {
	key := NormalizeOpportunityKey(q.ClientName, q.ServiceStreet)

	state, ok := b.states[key]
	if !ok {
		state = &opportunityState{opp: seedOpportunity(key, q)}
		b.states[key] = state
		b.order = append(b.order, key)
	}

	state.quotes = append(state.quotes, q)
	state.opp.QuoteNumbers = append(state.opp.QuoteNumbers, q.QuoteNumber)
	if state.opp.Salesperson == "" && q.Salesperson != "" {
		state.opp.Salesperson = q.Salesperson
	}
	b.memberQuote[q.QuoteNumber] = key
}

func seedOpportunity(key string, q QuoteRow) Opportunity {
	return Opportunity{
		Key:           key,
		ClientName:    q.ClientName,
		ClientEmail:   q.ClientEmail,
		ClientPhone:   q.ClientPhone,
		ServiceStreet: q.ServiceStreet,
		ServiceCity:   q.ServiceCity,
		ServiceState:  q.ServiceState,
		ServiceZip:    q.ServiceZip,
		ProjectType:   q.ProjectType,
		LeadSource:    q.LeadSource,
		Location:      q.Location,
		QuoteNumbers:  []int{},
		Status:        StatusPending,
		ActualRevenue: decimal.Zero,
		WonValue:      decimal.Zero,
	}
}

// ComputeMetrics is pass 2: value aggregates, date bounds and status.
func (b *OpportunityBuilder) ComputeMetrics() {
	for _, key := range b.order {
		state := b.states[key]
		opp := &state.opp

		opp.QuoteCount = len(state.quotes)
		opp.TotalQuoteValue = decimal.Zero
		opp.FirstDraftedDate, opp.LastDraftedDate, opp.FirstSentDate = "", "", ""
		for i, q := range state.quotes {
			opp.TotalQuoteValue = opp.TotalQuoteValue.Add(q.Total)
			if i == 0 || q.Total.LessThan(opp.MinQuoteValue) {
				opp.MinQuoteValue = q.Total
			}
			if i == 0 || q.Total.GreaterThan(opp.MaxQuoteValue) {
				opp.MaxQuoteValue = q.Total
			}
			opp.FirstDraftedDate = minDate(opp.FirstDraftedDate, q.DraftedDate)
			opp.LastDraftedDate = maxDate(opp.LastDraftedDate, q.DraftedDate)
			opp.FirstSentDate = minDate(opp.FirstSentDate, q.SentDate)
		}
		opp.AvgQuoteValue = decimal.Zero
		if opp.QuoteCount > 0 {
			opp.AvgQuoteValue = opp.TotalQuoteValue.Div(decimal.NewFromInt(int64(opp.QuoteCount)))
		}

		decision := ComputeStatusDecision(state.quotes)
		opp.Status = decision.Status
		opp.StatusReason = decision.StatusReason
		opp.WonValue = decision.WonValue
		opp.WonDate = decision.WonDate
		opp.WonQuoteNumbers = decision.WonQuoteNumbers
		opp.LinkedJobNumbers = decision.LinkedJobNumbers
	}
}

// EnrichFromJobs is the job half of pass 3. Each WON opportunity copies the
// schedule, close date and revenue of the job linked to the first won quote
// number that has one. Scanning stops at that first hit. It returns the
// number of opportunities enriched.
func (b *OpportunityBuilder) EnrichFromJobs(jobs []JobRow) int {
	byQuote := make(map[int]JobRow, len(jobs))
	for _, job := range jobs {
		if job.QuoteNumber == nil {
			continue
		}
		// last write wins
		byQuote[*job.QuoteNumber] = job
	}

	enriched := 0
	for _, key := range b.order {
		opp := &b.states[key].opp
		if opp.Status != StatusWon {
			continue
		}
		for _, qn := range opp.WonQuoteNumbers {
			job, ok := byQuote[qn]
			if !ok {
				continue
			}
			opp.ScheduledDate = job.ScheduledStart
			opp.ClosedDate = job.ClosedDate
			opp.ActualRevenue = job.TotalRevenue
			enriched++
			break
		}
	}
	return enriched
}

// EnrichFromRequests is the request half of pass 3. Every opportunity takes
// the earliest assessment date and earliest request date (assessment date,
// else requested date) over all requests linked to any member quote.
func (b *OpportunityBuilder) EnrichFromRequests(requests []RequestRow) int {
	earliestAssessment := make(map[int]string)
	earliestRequest := make(map[int]string)
	for _, req := range requests {
		requestDate := req.AssessmentDate
		if requestDate == "" {
			requestDate = req.RequestedDate
		}
		for _, token := range req.QuoteNumbers {
			qn, err := strconv.Atoi(token)
			if err != nil {
				continue
			}
			earliestAssessment[qn] = minDate(earliestAssessment[qn], req.AssessmentDate)
			earliestRequest[qn] = minDate(earliestRequest[qn], requestDate)
		}
	}

	enriched := 0
	for _, key := range b.order {
		opp := &b.states[key].opp
		opp.AssessmentDate, opp.RequestDate = "", ""
		for _, qn := range opp.QuoteNumbers {
			opp.AssessmentDate = minDate(opp.AssessmentDate, earliestAssessment[qn])
			opp.RequestDate = minDate(opp.RequestDate, earliestRequest[qn])
		}
		if opp.AssessmentDate != "" || opp.RequestDate != "" {
			enriched++
		}
	}
	return enriched
}

// IsMemberQuote reports whether any opportunity owns quote number qn.
func (b *OpportunityBuilder) IsMemberQuote(qn int) bool {
	_, ok := b.memberQuote[qn]
	return ok
}

// Len returns the number of opportunities built so far.
func (b *OpportunityBuilder) Len() int {
	return len(b.order)
}

// Opportunities returns copies in first-seen order.
func (b *OpportunityBuilder) Opportunities() []Opportunity {
	out := make([]Opportunity, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.states[key].opp)
	}
	return out
}

// BuildOpportunities runs all three passes over already-validated rows.
func BuildOpportunities(quotes []QuoteRow, jobs []JobRow, requests []RequestRow) []Opportunity {
	b := NewOpportunityBuilder()
	for _, q := range quotes {
		b.AddQuote(q)
	}
	b.ComputeMetrics()
	b.EnrichFromJobs(jobs)
	b.EnrichFromRequests(requests)
	return b.Opportunities()
}
