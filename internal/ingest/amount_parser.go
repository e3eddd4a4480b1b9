package ingest

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencyStripper = strings.NewReplacer("$", "", ",", "", "%", "", " ", "")

// ParseCurrency converts a money cell such as "$1,250.00" into a decimal.
// Financial aggregates must never be null, so blank or unparseable input is zero.
func ParseCurrency(raw string) decimal.Decimal {
	text := CleanString(raw)
	if text == "" {
		return decimal.Zero
	}

	value, err := decimal.NewFromString(currencyStripper.Replace(text))
	if err != nil {
		return decimal.Zero
	}
	return value
}
