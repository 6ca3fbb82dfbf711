package scoring

import "sort"

// Rank returns a copy of analyses ordered by priority, highest first.
// Equal priorities keep their input order.
func Rank(analyses []AIAnalysis) []AIAnalysis {
	ranked := make([]AIAnalysis, len(analyses))
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PriorityScore > ranked[j].PriorityScore
	})
	return ranked
}

// Top returns the highest-priority analysis. ok is false for an empty slice.
func Top(analyses []AIAnalysis) (top AIAnalysis, ok bool) {
	if len(analyses) == 0 {
		return AIAnalysis{}, false
	}
	top = analyses[0]
	for _, a := range analyses[1:] {
		if a.PriorityScore > top.PriorityScore {
			top = a
		}
	}
	return top, true
}
