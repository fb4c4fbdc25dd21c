package stats

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{70, 80, 90})
	if s.Count != 3 {
		t.Errorf("count = %d", s.Count)
	}
	if !approx(s.Mean, 80) {
		t.Errorf("mean = %v", s.Mean)
	}
	if !approx(s.Variance, 200.0/3.0) {
		t.Errorf("variance = %v", s.Variance)
	}
	if !approx(s.StdDev, math.Sqrt(200.0/3.0)) {
		t.Errorf("stddev = %v", s.StdDev)
	}
	if s.Min != 70 || s.Max != 90 {
		t.Errorf("min/max = %v/%v", s.Min, s.Max)
	}
}

func TestSummarizeAllPositive(t *testing.T) {
	// Min must come from the data, not from a zero seed.
	s := Summarize([]float64{55, 60})
	if s.Min != 55 {
		t.Errorf("min = %v, want 55", s.Min)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s != (Summary{}) {
		t.Errorf("empty input = %+v, want zero summary", s)
	}
}

func TestSummarizeSingle(t *testing.T) {
	s := Summarize([]float64{42})
	if s.Count != 1 || s.Mean != 42 || s.Variance != 0 || s.Min != 42 || s.Max != 42 {
		t.Errorf("s = %+v", s)
	}
}
