package stats

import "math"

// Summary aggregates marker totals for a moderation's front-page card.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"standard_deviation"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Summarize computes population statistics over marker totals. Min and max
// are seeded from the first value, not zero, so all-positive (or
// all-negative) totals report correctly. An empty input yields a zero
// Summary with Count 0.
func Summarize(totals []float64) Summary {
	if len(totals) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(totals), Min: totals[0], Max: totals[0]}
	var sum float64
	for _, t := range totals {
		sum += t
		if t < s.Min {
			s.Min = t
		}
		if t > s.Max {
			s.Max = t
		}
	}
	s.Mean = sum / float64(len(totals))

	var num float64
	for _, t := range totals {
		d := t - s.Mean
		num += d * d
	}
	s.Variance = num / float64(len(totals))
	s.StdDev = math.Sqrt(s.Variance)
	return s
}
