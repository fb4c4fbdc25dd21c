package rubric

import (
	"reflect"
	"testing"
)

func TestParseRange(t *testing.T) {
	cases := []struct {
		in       string
		min, max float64
		ok       bool
	}{
		{"(10-12 points)", 10, 12, true},
		{"(7.5 - 8.5)", 7.5, 8.5, true},
		{"(0 – 3 points)", 0, 3, true}, // en dash
		{"no range here", 0, 0, false},
		{"", 0, 0, false},
		{"(single)", 0, 0, false},
	}
	for _, tc := range cases {
		min, max, ok := ParseRange(tc.in)
		if ok != tc.ok || min != tc.min || max != tc.max {
			t.Errorf("ParseRange(%q) = %v, %v, %v; want %v, %v, %v",
				tc.in, min, max, ok, tc.min, tc.max, tc.ok)
		}
	}
}

func TestActiveBands(t *testing.T) {
	grades := []GradeBand{
		{Label: "Fail", PointsRange: "(0-7)"},
		{Label: "Pass", PointsRange: "(7.5-8.5)"},
		{Label: "Credit", PointsRange: "(9-10)"},
		{Label: "NoRange"},
	}
	cases := []struct {
		score float64
		want  []int
	}{
		{8, []int{1}},
		{8.7, nil}, // gap between bands: nothing highlights
		{7, []int{0}},
		{7.5, []int{1}}, // bounds are inclusive
		{10, []int{2}},
		{11, nil},
	}
	for _, tc := range cases {
		if got := ActiveBands(tc.score, grades); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ActiveBands(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestActiveBandOverlap(t *testing.T) {
	grades := []GradeBand{
		{PointsRange: "(0-5)"},
		{PointsRange: "(4-8)"},
	}
	if got := ActiveBand(4.5, grades); got != 0 {
		t.Errorf("overlapping ranges should resolve to the first band, got %d", got)
	}
	if got := ActiveBand(9, grades); got != -1 {
		t.Errorf("no active band should be -1, got %d", got)
	}
}
