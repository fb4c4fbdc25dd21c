package extract

import (
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/amtlabs/amt/internal/rubric"
)

func makeXlsx(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestXlsx(t *testing.T) {
	data := makeXlsx(t, [][]interface{}{
		{"Criteria", "Excellent", "Good", "Poor", "Points"},
		{"Code quality", "Clean and clear.", "Mostly fine.", "Messy.", 10},
		{"Documentation", "Complete.", "", "Missing.", 5.5},
	})

	r, err := Xlsx(data, "rubric.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Criteria) != 2 {
		t.Fatalf("criteria = %d, want 2", len(r.Criteria))
	}

	c := r.Criteria[0]
	if c.Name != "Code quality" {
		t.Errorf("name = %q", c.Name)
	}
	if c.MaxPoints == nil || *c.MaxPoints != 10 {
		t.Errorf("maxPoints = %v", c.MaxPoints)
	}
	// Grade labels come from the header verbatim, however many there are.
	var labels []string
	for _, g := range c.Grades {
		labels = append(labels, g.Label)
	}
	if want := []string{"Excellent", "Good", "Poor"}; !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
	if !reflect.DeepEqual(c.Grades[0].Description, []string{"Clean and clear."}) {
		t.Errorf("description = %#v", c.Grades[0].Description)
	}

	// A blank grade cell still yields a band, with an empty description.
	c1 := r.Criteria[1]
	if len(c1.Grades) != 3 {
		t.Fatalf("grades = %d, want 3", len(c1.Grades))
	}
	if len(c1.Grades[1].Description) != 0 {
		t.Errorf("blank cell description = %#v", c1.Grades[1].Description)
	}
	if c1.MaxPoints == nil || *c1.MaxPoints != 5.5 {
		t.Errorf("maxPoints = %v", c1.MaxPoints)
	}
}

func TestXlsxNotEnoughRows(t *testing.T) {
	data := makeXlsx(t, [][]interface{}{
		{"Criteria", "Excellent", "Points"},
	})
	_, err := Xlsx(data, "rubric.xlsx")
	var se *rubric.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *rubric.StructuralError", err)
	}
	if se.Reason != "not enough rows" {
		t.Errorf("reason = %q", se.Reason)
	}
}

func TestXlsxNotEnoughColumns(t *testing.T) {
	data := makeXlsx(t, [][]interface{}{
		{"Criteria"},
		{"Code quality"},
	})
	_, err := Xlsx(data, "rubric.xlsx")
	var se *rubric.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *rubric.StructuralError", err)
	}
}

func TestXlsxBadData(t *testing.T) {
	_, err := Xlsx([]byte("not a spreadsheet"), "rubric.xlsx")
	var pe *rubric.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *rubric.ParseError", err)
	}
}
