package ingest

// DedupLastWriteWins keeps one item per key: the last occurrence in input
// order wins, but the survivor sits at the position where its key first
// appeared. Items whose key is empty are dropped. OpportunityBuilder seeds
// first-seen instead; this is only applied to rows about to be persisted.
func DedupLastWriteWins[T any](items []T, key func(T) string) []T {
	pos := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if k == "" {
			continue
		}
		if i, ok := pos[k]; ok {
			out[i] = item
			continue
		}
		pos[k] = len(out)
		out = append(out, item)
	}
	return out
}
