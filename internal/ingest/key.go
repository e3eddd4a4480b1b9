package ingest

// NormalizeOpportunityKey builds the grouping key for a quote from its client
// name and service street. Matching is exact after canonicalization: case,
// surrounding/repeated whitespace and punctuation are ignored; typos are not.
func NormalizeOpportunityKey(clientName, serviceStreet string) string {
	return normalizeMatchText(clientName) + "|" + normalizeMatchText(serviceStreet)
}

// requestKey returns "" when either side normalizes to nothing.
func requestKey(clientNormalized, streetNormalized string) string {
	if clientNormalized == "" || streetNormalized == "" {
		return ""
	}
	return clientNormalized + "|" + streetNormalized
}
