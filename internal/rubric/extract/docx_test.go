package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/amtlabs/amt/internal/rubric"
)

func makeDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const rubricDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Assignment 1 </w:t></w:r><w:r><w:t>Rubric</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Criteria</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>High Distinction</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Distinction</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Credit</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Pass</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Fail</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Points</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Code quality</w:t></w:r></w:p></w:tc>
        <w:tc>
          <w:p><w:r><w:t>12</w:t></w:r></w:p>
          <w:p><w:r><w:t>See the </w:t></w:r><w:hyperlink><w:r><w:t>style guide</w:t></w:r></w:hyperlink></w:p>
          <w:p><w:r><w:t>(10-12 points)</w:t></w:r></w:p>
        </w:tc>
        <w:tc><w:p><w:r><w:t>12</w:t></w:r></w:p><w:p><w:r><w:t>(8-9 points)</w:t></w:r></w:p></w:tc>
        <w:tc><w:p></w:p></w:tc>
        <w:tc><w:p></w:p></w:tc>
        <w:tc><w:p></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>/ 12</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

func TestDocx(t *testing.T) {
	data := makeDocx(t, map[string]string{"word/document.xml": rubricDocumentXML})
	res, err := Docx(data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "Assignment 1 Rubric" {
		t.Errorf("title = %q", res.Title)
	}
	if len(res.Tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(res.Tables))
	}
	table := res.Tables[0]
	if len(table) != 2 {
		t.Fatalf("rows = %d, want 2", len(table))
	}
	// Hyperlink runs join the surrounding runs; paragraphs join on a blank line.
	hd := table[1][1].Data
	want := "12\n\nSee the style guide\n\n(10-12 points)"
	if hd != want {
		t.Errorf("cell = %q, want %q", hd, want)
	}
	// Empty cells stay in place so columns keep their meaning.
	if table[1][3].Data != "" || table[1][3].Col != 3 {
		t.Errorf("empty cell = %+v", table[1][3])
	}
}

func TestDocxFullPipeline(t *testing.T) {
	data := makeDocx(t, map[string]string{"word/document.xml": rubricDocumentXML})
	r, err := FromBytes("rubric.docx", data)
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "Assignment 1 Rubric" {
		t.Errorf("title = %q", r.Title)
	}
	if len(r.Criteria) != 1 {
		t.Fatalf("criteria = %d", len(r.Criteria))
	}
	c := r.Criteria[0]
	if c.MaxPoints == nil || *c.MaxPoints != 12 {
		t.Errorf("maxPoints = %v", c.MaxPoints)
	}
	if len(c.Grades) != 2 {
		t.Fatalf("grades = %d, want 2 (empty cells are skipped)", len(c.Grades))
	}
	if c.Grades[0].PointsRange != "(10-12 points)" {
		t.Errorf("pointsRange = %q", c.Grades[0].PointsRange)
	}
}

func TestDocxNoDocumentPart(t *testing.T) {
	data := makeDocx(t, map[string]string{"[Content_Types].xml": "<Types/>"})
	res, err := Docx(data)
	if err != nil {
		t.Fatalf("missing document part should not error, got %v", err)
	}
	if len(res.Tables) != 0 {
		t.Errorf("tables = %d, want 0", len(res.Tables))
	}
}

func TestDocxNotAZip(t *testing.T) {
	_, err := Docx([]byte("definitely not a zip archive"))
	var pe *rubric.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *rubric.ParseError", err)
	}
}

func TestDocxTableOnly(t *testing.T) {
	// A document whose body has no leading paragraph has no title.
	const doc = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:tbl><w:tr><w:tc><w:p><w:r><w:t>x</w:t></w:r></w:p></w:tc></w:tr></w:tbl></w:body>
</w:document>`
	data := makeDocx(t, map[string]string{"word/document.xml": doc})
	res, err := Docx(data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "" {
		t.Errorf("title = %q, want empty", res.Title)
	}
	if len(res.Tables) != 1 {
		t.Errorf("tables = %d", len(res.Tables))
	}
}
