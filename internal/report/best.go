package report

import "time"

// SimulatedFreshWindow is how long a self-submitted simulator report counts
// as fresher truth than any scouted report.
const SimulatedFreshWindow = 7 * 24 * time.Hour

// Best picks the single report that should be treated as current truth for a
// player. Recent self-submitted reports always win over scouted ones
// regardless of strength; otherwise the strongest scouted report wins, with
// recency breaking ties. Returns nil when no report qualifies.
//
// Pure function of the given slice, safe to call repeatedly.
func Best(reports []Report, now time.Time) *Report {
	var bestSimulated *Report
	for i := range reports {
		r := &reports[i]
		if r.Source != SourceSimulated {
			continue
		}
		if now.Sub(r.CreatedAt) > SimulatedFreshWindow {
			continue
		}
		if bestSimulated == nil || r.CreatedAt.After(bestSimulated.CreatedAt) {
			bestSimulated = r
		}
	}
	if bestSimulated != nil {
		return bestSimulated
	}

	var bestScout *Report
	var bestStrength int64
	for i := range reports {
		r := &reports[i]
		if r.Source != SourceScout {
			continue
		}
		strength := r.MilitaryStrength()
		switch {
		case bestScout == nil:
			bestScout = r
			bestStrength = strength
		case strength > bestStrength:
			bestScout = r
			bestStrength = strength
		case strength == bestStrength && r.CreatedAt.After(bestScout.CreatedAt):
			bestScout = r
		}
	}
	return bestScout
}
