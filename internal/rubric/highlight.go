package rubric

import (
	"regexp"
	"strconv"
)

// rangeRe matches the numeric interval inside a points range such as
// "(10 - 12 points)" or "(7.5-8.5)". An en dash is accepted alongside the
// plain hyphen since word processors substitute it freely.
var rangeRe = regexp.MustCompile(`\(\s*(\d+(?:\.\d+)?)\s*[-–]\s*(\d+(?:\.\d+)?)`)

// ParseRange extracts the inclusive [min, max] interval encoded in a points
// range string. ok is false when the range is absent or malformed.
func ParseRange(pointsRange string) (min, max float64, ok bool) {
	m := rangeRe.FindStringSubmatch(pointsRange)
	if m == nil {
		return 0, 0, false
	}
	min, err1 := strconv.ParseFloat(m[1], 64)
	max, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return min, max, true
}

// ActiveBands returns the indices of every grade band whose points range
// contains score, inclusive on both ends. Bands without a parseable range
// never activate. Used for live highlighting while marking.
func ActiveBands(score float64, grades []GradeBand) []int {
	var active []int
	for i, g := range grades {
		if min, max, ok := ParseRange(g.PointsRange); ok && min <= score && score <= max {
			active = append(active, i)
		}
	}
	return active
}

// ActiveBand returns the first band containing score, or -1. Marked-result
// rendering expects exactly one active band, so overlapping ranges resolve
// to the earliest in band order.
func ActiveBand(score float64, grades []GradeBand) int {
	if active := ActiveBands(score, grades); len(active) > 0 {
		return active[0]
	}
	return -1
}
