package domain

// MostFrequentEstimate returns the most common non-nil estimate across
// participants. Ties resolve to the value encountered first in input order.
// ok is false when nobody has submitted.
func MostFrequentEstimate(participants []Participant) (best Card, ok bool) {
	counts := make(map[Card]int)
	order := make([]Card, 0, len(participants))
	for _, p := range participants {
		if p.Estimate == nil {
			continue
		}
		if counts[*p.Estimate] == 0 {
			order = append(order, *p.Estimate)
		}
		counts[*p.Estimate]++
	}
	if len(order) == 0 {
		return "", false
	}
	max := 0
	for _, c := range order {
		if counts[c] > max {
			best = c
			max = counts[c]
		}
	}
	return best, true
}
