package ingest

import (
	"testing"

	"github.com/shopspring/decimal"
)

func quote(number int, status string, total int64) QuoteRow {
	return QuoteRow{QuoteNumber: number, Status: status, Total: decimal.NewFromInt(total)}
}

func TestComputeStatusDecision_ConvertedBeatsArchived(t *testing.T) {
	decision := ComputeStatusDecision([]QuoteRow{
		quote(1, QuoteStatusConverted, 500),
		quote(2, QuoteStatusArchived, 300),
	})
	if decision.Status != StatusWon {
		t.Fatalf("expected WON, got %s", decision.Status)
	}
	if !decision.WonValue.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected won value 500, got %s", decision.WonValue)
	}
	if decision.StatusReason != "converted_quote" {
		t.Fatalf("expected reason converted_quote, got %s", decision.StatusReason)
	}
}

func TestComputeStatusDecision_AllArchivedLost(t *testing.T) {
	decision := ComputeStatusDecision([]QuoteRow{
		quote(1, QuoteStatusArchived, 100),
		quote(2, QuoteStatusArchived, 200),
	})
	if decision.Status != StatusLost {
		t.Fatalf("expected LOST, got %s", decision.Status)
	}
	if !decision.WonValue.IsZero() {
		t.Fatalf("expected zero won value, got %s", decision.WonValue)
	}
}

func TestComputeStatusDecision_OpenPending(t *testing.T) {
	decision := ComputeStatusDecision([]QuoteRow{
		quote(1, "Sent", 100),
		quote(2, "Sent", 200),
	})
	if decision.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", decision.Status)
	}

	decision = ComputeStatusDecision([]QuoteRow{
		quote(1, QuoteStatusArchived, 100),
		quote(2, "Awaiting response", 200),
	})
	if decision.Status != StatusPending {
		t.Fatalf("expected PENDING with one open quote, got %s", decision.Status)
	}
}

func TestComputeStatusDecision_StatusIsExactMatch(t *testing.T) {
	decision := ComputeStatusDecision([]QuoteRow{quote(1, "converted", 100)})
	if decision.Status != StatusPending {
		t.Fatalf("expected lowercase status to stay PENDING, got %s", decision.Status)
	}
}

func TestComputeStatusDecision_NoQuotes(t *testing.T) {
	decision := ComputeStatusDecision(nil)
	if decision.Status != StatusPending || decision.StatusReason != "no_quotes" {
		t.Fatalf("expected PENDING/no_quotes, got %s/%s", decision.Status, decision.StatusReason)
	}
}

func TestComputeStatusDecision_WonAggregates(t *testing.T) {
	a := quote(101, QuoteStatusConverted, 400)
	a.ConvertedDate = "2024-05-10"
	a.JobNumbersRaw = "900, 901"
	b := quote(102, QuoteStatusConverted, 150)
	b.ConvertedDate = "2024-04-01"
	b.JobNumbersRaw = "901,902"
	c := quote(103, "Sent", 999)

	decision := ComputeStatusDecision([]QuoteRow{a, b, c})
	if !decision.WonValue.Equal(decimal.NewFromInt(550)) {
		t.Fatalf("expected won value 550, got %s", decision.WonValue)
	}
	if decision.WonDate != "2024-04-01" {
		t.Fatalf("expected earliest converted date, got %q", decision.WonDate)
	}
	if len(decision.WonQuoteNumbers) != 2 || decision.WonQuoteNumbers[0] != 101 || decision.WonQuoteNumbers[1] != 102 {
		t.Fatalf("unexpected won quotes %v", decision.WonQuoteNumbers)
	}
	want := []string{"900", "901", "902"}
	if len(decision.LinkedJobNumbers) != len(want) {
		t.Fatalf("expected %v, got %v", want, decision.LinkedJobNumbers)
	}
	for i := range want {
		if decision.LinkedJobNumbers[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, decision.LinkedJobNumbers)
		}
	}
}
