package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDateLayout = "2006-01-02"

var (
	isoDatePrefixRegex = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	monthNameDateRegex = regexp.MustCompile(`^([A-Za-z]{3})[A-Za-z]*\.?\s+(\d{1,2}),?\s+(\d{4})`)
	usSlashDateRegex   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)
)

var shortMonths = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// fallbackDateLayouts are tried in order once the fixed grammars miss.
var fallbackDateLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006-1-2",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"01-02-2006",
	"1/2/06",
}

// ParseDate converts an export cell into a yyyy-mm-dd string.
// Blank cells, "-" and anything unparseable yield "".
func ParseDate(raw string) string {
	text := CleanString(raw)
	if text == "" {
		return ""
	}

	if m := isoDatePrefixRegex.FindStringSubmatch(text); m != nil {
		if iso, ok := buildISODate(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3])); ok {
			return iso
		}
	}

	if m := monthNameDateRegex.FindStringSubmatch(text); m != nil {
		if month, ok := shortMonths[strings.ToLower(m[1])]; ok {
			if iso, ok := buildISODate(atoi(m[3]), month, atoi(m[2])); ok {
				return iso
			}
		}
	}

	if m := usSlashDateRegex.FindStringSubmatch(text); m != nil {
		if iso, ok := buildISODate(atoi(m[3]), time.Month(atoi(m[1])), atoi(m[2])); ok {
			return iso
		}
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format(isoDateLayout)
		}
	}

	return ""
}

// buildISODate rejects components that time.Date would silently normalize
// (Feb 30 -> Mar 2).
func buildISODate(year int, month time.Month, day int) (string, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return "", false
	}
	return t.Format(isoDateLayout), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// minDate and maxDate compare ISO strings lexicographically, which matches
// chronological order for yyyy-mm-dd. Empty values are ignored.
func minDate(current, candidate string) string {
	if candidate == "" {
		return current
	}
	if current == "" || candidate < current {
		return candidate
	}
	return current
}

func maxDate(current, candidate string) string {
	if candidate == "" {
		return current
	}
	if current == "" || candidate > current {
		return candidate
	}
	return current
}
