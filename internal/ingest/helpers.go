package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	numericTokenRegex = regexp.MustCompile(`^\d+$`)
	nonMatchCharRegex = regexp.MustCompile(`[^a-z0-9 ]`)
)

// CleanString trims a cell and treats blank or a lone "-" as absent.
func CleanString(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return ""
	}
	return s
}

// ParseInt parses an identifier cell. ok is false for blank or unparseable
// input so callers can tell "unknown" from zero.
func ParseInt(raw string) (int, bool) {
	s := strings.ReplaceAll(CleanString(raw), ",", "")
	if !numericTokenRegex.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseIDList splits a comma-separated id cell, keeping numeric tokens in
// their original order. Duplicates are kept; consumers dedupe.
func ParseIDList(raw string) []string {
	s := CleanString(raw)
	if s == "" {
		return []string{}
	}

	out := make([]string, 0, strings.Count(s, ",")+1)
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" || token == "-" || !numericTokenRegex.MatchString(token) {
			continue
		}
		out = append(out, token)
	}
	return out
}

// normalizeMatchText lowercases, strips everything outside [a-z0-9\s] and
// collapses whitespace. Any Unicode space (NBSP included) counts as
// whitespace.
func normalizeMatchText(s string) string {
	s = nonMatchCharRegex.ReplaceAllString(normalizeSpace(strings.ToLower(s)), "")
	return normalizeSpace(s)
}

// normalizeRequestText is normalizeMatchText without the collapse: Unicode
// spaces become plain spaces and inner runs are kept.
func normalizeRequestText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, strings.ToLower(s))
	return strings.TrimSpace(nonMatchCharRegex.ReplaceAllString(s, ""))
}

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func mergeUnique(dst []string, items []string) []string {
	seen := make(map[string]struct{}, len(dst)+len(items))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range items {
		if _, ok := seen[v]; ok {
			continue
		}
		dst = append(dst, v)
		seen[v] = struct{}{}
	}
	return dst
}
