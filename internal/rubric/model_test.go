package rubric

import (
	"errors"
	"testing"
)

func TestDecodeMaxPointsVariants(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want *float64
	}{
		{"number", `{"criteria":[{"criterion":"A","maxPoints":12,"grades":[]}]}`, f(12)},
		{"numeric string", `{"criteria":[{"criterion":"A","maxPoints":"7.5","grades":[]}]}`, f(7.5)},
		{"null", `{"criteria":[{"criterion":"A","maxPoints":null,"grades":[]}]}`, nil},
		{"absent", `{"criteria":[{"criterion":"A","grades":[]}]}`, nil},
		{"garbage string", `{"criteria":[{"criterion":"A","maxPoints":"lots","grades":[]}]}`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Decode([]byte(tc.doc))
			if err != nil {
				t.Fatal(err)
			}
			got := r.Criteria[0].MaxPoints
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("maxPoints = %v, want nil", *got)
			case tc.want != nil && (got == nil || *got != *tc.want):
				t.Errorf("maxPoints = %v, want %v", got, *tc.want)
			}
		})
	}
}

func f(v float64) *float64 { return &v }

func TestDecodeBadJSON(t *testing.T) {
	_, err := Decode([]byte(`{"criteria": [`))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if pe.Format != "json" {
		t.Errorf("format = %q", pe.Format)
	}
}

func TestDisplayName(t *testing.T) {
	if got := (Criterion{Name: " Design "}).DisplayName(0); got != "Design" {
		t.Errorf("got %q", got)
	}
	if got := (Criterion{}).DisplayName(2); got != "Criterion 3" {
		t.Errorf("got %q", got)
	}
}

func TestEmpty(t *testing.T) {
	if !(Rubric{}).Empty() {
		t.Error("zero rubric should be the empty sentinel")
	}
	if (Rubric{Criteria: []Criterion{{}}}).Empty() {
		t.Error("rubric with a criterion is not empty")
	}
}
