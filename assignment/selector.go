package assignment

import "sort"

// pickNext applies the round-robin rule described in the routing
// design: candidates sorted by their identity string, advance one
// past whichever caller last held the pointer for this routing key.
// A lastCallerID that is empty or no longer present in candidates
// (paused, capped, deleted) resets to the first candidate.
func pickNext(candidates []Candidate, lastCallerID string) Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	if lastCallerID == "" {
		return sorted[0]
	}
	for i, c := range sorted {
		if c.ID == lastCallerID {
			return sorted[(i+1)%len(sorted)]
		}
	}
	return sorted[0]
}

// capFilter drops candidates that have exhausted their daily limit.
// A DailyLimit of 0 means unlimited.
func capFilter(candidates []Candidate, countsByCallerID map[string]int) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.DailyLimit > 0 && countsByCallerID[c.ID] >= c.DailyLimit {
			continue
		}
		out = append(out, c)
	}
	return out
}
