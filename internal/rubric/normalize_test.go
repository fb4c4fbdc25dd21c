package rubric

import (
	"encoding/json"
	"reflect"
	"testing"
)

func row(cells ...string) []Cell {
	out := make([]Cell, len(cells))
	for i, d := range cells {
		out[i] = Cell{Col: i, Data: d}
	}
	return out
}

func TestTablesToRubric(t *testing.T) {
	table := Table{
		row("Criteria", "High Distinction", "Distinction", "Credit", "Pass", "Fail", "Points"),
		row(
			"Code quality",
			"12\nSome description.\n(10-12 points)",
			"12\nMostly clean.\n(8-9 points)",
			"12\nWorkable.\n(6-7 points)",
			"12\nRough. (4-5 points)",
			"12\n(0-3 points)",
			"/ 12",
		),
	}

	r := TablesToRubric([]Table{table}, "Assignment 1 Rubric", "rubric.docx")

	if r.Title != "Assignment 1 Rubric" {
		t.Fatalf("title = %q", r.Title)
	}
	if len(r.Criteria) != 1 {
		t.Fatalf("criteria = %d, want 1", len(r.Criteria))
	}
	c := r.Criteria[0]
	if c.Name != "Code quality" {
		t.Errorf("name = %q", c.Name)
	}
	if c.MaxPoints == nil || *c.MaxPoints != 12 {
		t.Errorf("maxPoints = %v, want 12", c.MaxPoints)
	}
	if len(c.Grades) != 5 {
		t.Fatalf("grades = %d, want 5", len(c.Grades))
	}

	hd := c.Grades[0]
	if hd.Label != "High Distinction" {
		t.Errorf("label = %q", hd.Label)
	}
	if !reflect.DeepEqual(hd.Description, []string{"Some description."}) {
		t.Errorf("description = %#v", hd.Description)
	}
	if hd.PointsRange != "(10-12 points)" {
		t.Errorf("pointsRange = %q", hd.PointsRange)
	}

	// Range shares its line with description text: the text stays.
	pass := c.Grades[3]
	if !reflect.DeepEqual(pass.Description, []string{"Rough."}) {
		t.Errorf("pass description = %#v", pass.Description)
	}
	if pass.PointsRange != "(4-5 points)" {
		t.Errorf("pass pointsRange = %q", pass.PointsRange)
	}

	// A cell that is only the repeated max and a range has no description.
	fail := c.Grades[4]
	if len(fail.Description) != 0 {
		t.Errorf("fail description = %#v", fail.Description)
	}
	if fail.PointsRange != "(0-3 points)" {
		t.Errorf("fail pointsRange = %q", fail.PointsRange)
	}
}

func TestTablesToRubricDefaultLabels(t *testing.T) {
	table := Table{
		row("", "", "", "", "", "", ""),
		row("Testing", "10\nGood tests.", "", "", "", "", "10"),
	}
	r := TablesToRubric([]Table{table}, "", "rubric.docx")
	if len(r.Criteria) != 1 {
		t.Fatalf("criteria = %d", len(r.Criteria))
	}
	for i, g := range r.Criteria[0].Grades {
		if g.Label != DefaultGradeLabels[i] {
			t.Errorf("grade %d label = %q, want %q", i, g.Label, DefaultGradeLabels[i])
		}
	}
}

func TestTablesToRubricEmpty(t *testing.T) {
	r := TablesToRubric(nil, "Title", "rubric.docx")
	if !r.Empty() {
		t.Fatalf("want empty sentinel, got %d criteria", len(r.Criteria))
	}
	if r.Title != "Title" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestFilterPoints(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"/ 15", 15},
		{"15 points", 15},
		{"7.5", 7.5},
		{"", 0},
		{"n/a", 0},
	}
	for _, tc := range cases {
		if got := filterPoints(tc.in); got != tc.want {
			t.Errorf("filterPoints(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRepairLegacyDescription(t *testing.T) {
	doc := []byte(`{
		"criteria": [{
			"criterion": "Report",
			"maxPoints": "10",
			"grades": [{
				"grade": "Pass",
				"description": "First para.\n\nSecond para.\n\nWorth 5 points"
			}]
		}]
	}`)
	r, err := Decode(doc)
	if err != nil {
		t.Fatal(err)
	}
	r = Repair(r)

	c := r.Criteria[0]
	if c.MaxPoints == nil || *c.MaxPoints != 10 {
		t.Errorf("maxPoints = %v", c.MaxPoints)
	}
	g := c.Grades[0]
	if !reflect.DeepEqual(g.Description, []string{"First para.", "Second para."}) {
		t.Errorf("description = %#v", g.Description)
	}
	if g.PointsRange != "Worth 5 points" {
		t.Errorf("pointsRange = %q", g.PointsRange)
	}
}

func TestRepairIdempotent(t *testing.T) {
	doc := []byte(`{
		"criteria": [
			{"criterion": "A", "maxPoints": null, "grades": [
				{"grade": "Pass", "description": "Only text.\n\n3 points in total"}
			]},
			{"criterion": "B", "maxPoints": 4, "grades": [
				{"grade": "Fail", "description": ["Already split."], "pointsRange": "(0-1)"}
			]}
		]
	}`)
	r, err := Decode(doc)
	if err != nil {
		t.Fatal(err)
	}
	once := Repair(r)
	// Repair mutates in place, so snapshot before the second pass.
	before, err := json.Marshal(once)
	if err != nil {
		t.Fatal(err)
	}
	after, err := json.Marshal(Repair(once))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatalf("repair not idempotent:\nonce:  %s\ntwice: %s", before, after)
	}
	if once.Criteria[0].MaxPoints == nil || *once.Criteria[0].MaxPoints != 0 {
		t.Errorf("nil maxPoints not coerced: %v", once.Criteria[0].MaxPoints)
	}
	// An array-form description is never re-split, even if it contains text
	// that looks like a points paragraph.
	if got := once.Criteria[1].Grades[0].Description; !reflect.DeepEqual(got, []string{"Already split."}) {
		t.Errorf("array description changed: %#v", got)
	}
}

func TestRepairNilDescriptions(t *testing.T) {
	r := Repair(Rubric{Criteria: []Criterion{{
		Name:   "X",
		Grades: []GradeBand{{Label: "Pass"}},
	}}})
	if r.Criteria[0].Grades[0].Description == nil {
		t.Fatal("description should be empty slice, not nil")
	}
}
