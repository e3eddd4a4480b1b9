package ingest

import (
	"github.com/shopspring/decimal"
)

// StatusDecision is the outcome of the conversion state machine for one
// opportunity, plus the won-side figures that only exist for WON.
type StatusDecision struct {
	Status           ConversionStatus
	StatusReason     string
	WonValue         decimal.Decimal
	WonDate          string
	WonQuoteNumbers  []int
	LinkedJobNumbers []string
}

// ComputeStatusDecision evaluates the member quotes of one opportunity.
// Rules, in priority order:
//   - any quote with status "Converted" -> WON
//   - every quote "Archived" (at least one) -> LOST
//   - otherwise PENDING
func ComputeStatusDecision(quotes []QuoteRow) StatusDecision {
	if len(quotes) == 0 {
		return StatusDecision{Status: StatusPending, StatusReason: "no_quotes", WonValue: decimal.Zero}
	}

	won := StatusDecision{
		Status:           StatusWon,
		StatusReason:     "converted_quote",
		WonValue:         decimal.Zero,
		WonQuoteNumbers:  []int{},
		LinkedJobNumbers: []string{},
	}
	archived := 0
	for _, q := range quotes {
		switch q.Status {
		case QuoteStatusConverted:
			won.WonValue = won.WonValue.Add(q.Total)
			won.WonDate = minDate(won.WonDate, q.ConvertedDate)
			won.WonQuoteNumbers = append(won.WonQuoteNumbers, q.QuoteNumber)
			won.LinkedJobNumbers = mergeUnique(won.LinkedJobNumbers, ParseIDList(q.JobNumbersRaw))
		case QuoteStatusArchived:
			archived++
		}
	}

	if len(won.WonQuoteNumbers) > 0 {
		return won
	}
	if archived == len(quotes) {
		return StatusDecision{Status: StatusLost, StatusReason: "all_archived", WonValue: decimal.Zero}
	}
	return StatusDecision{Status: StatusPending, StatusReason: "open_quotes", WonValue: decimal.Zero}
}
