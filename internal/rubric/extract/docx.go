package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"github.com/amtlabs/amt/internal/rubric"
)

// DocxResult is the intermediate form of a parsed DOCX: the document's
// tables plus the first body paragraph as a title candidate.
type DocxResult struct {
	Title  string
	Tables []rubric.Table
}

var documentPartRe = regexp.MustCompile(`^word/document.*\.xml$`)

// Word's main document part, decoded only as far as the pipeline needs.
// Unqualified local names match regardless of the w: namespace prefix, and
// slice fields absorb the single-element vs repeated-element variation the
// format allows.
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

type docxParagraph struct {
	Runs       []docxRun       `xml:"r"`
	Hyperlinks []docxHyperlink `xml:"hyperlink"`
}

type docxHyperlink struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string `xml:"t"`
}

// Docx unpacks a zip-packaged Word document and extracts every table in the
// body. A document without a word/document*.xml part returns zero tables
// and no error; the caller may still end up with a usable empty rubric.
func Docx(data []byte) (DocxResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return DocxResult{}, &rubric.ParseError{Format: "docx", Err: err}
	}

	var part *zip.File
	for _, f := range zr.File {
		if documentPartRe.MatchString(f.Name) {
			part = f
			break
		}
	}
	if part == nil {
		return DocxResult{}, nil
	}

	rc, err := part.Open()
	if err != nil {
		return DocxResult{}, &rubric.ParseError{Format: "docx", Err: err}
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return DocxResult{}, &rubric.ParseError{Format: "docx", Err: err}
	}

	var doc docxDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return DocxResult{}, &rubric.ParseError{Format: "docx", Err: err}
	}

	res := DocxResult{Title: docTitle(doc.Body)}
	for _, t := range doc.Body.Tables {
		res.Tables = append(res.Tables, tableCells(t))
	}
	return res, nil
}

func tableCells(t docxTable) rubric.Table {
	table := make(rubric.Table, 0, len(t.Rows))
	for ri, row := range t.Rows {
		cells := make([]rubric.Cell, 0, len(row.Cells))
		for ci, cell := range row.Cells {
			cells = append(cells, rubric.Cell{Row: ri, Col: ci, Data: cellText(cell)})
		}
		table = append(table, cells)
	}
	return table
}

// cellText joins a cell's non-blank paragraphs with a blank line between
// them. Cells with no paragraphs still produce an empty string so column
// alignment stays stable.
func cellText(c docxCell) string {
	var paras []string
	for _, p := range c.Paragraphs {
		if t := paragraphText(p); strings.TrimSpace(t) != "" {
			paras = append(paras, t)
		}
	}
	return strings.Join(paras, "\n\n")
}

// paragraphText concatenates every text run, including runs nested inside
// hyperlinks.
func paragraphText(p docxParagraph) string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Texts {
			b.WriteString(t)
		}
	}
	for _, h := range p.Hyperlinks {
		for _, r := range h.Runs {
			for _, t := range r.Texts {
				b.WriteString(t)
			}
		}
	}
	return b.String()
}

func docTitle(b docxBody) string {
	if len(b.Paragraphs) == 0 {
		return ""
	}
	return strings.TrimSpace(paragraphText(b.Paragraphs[0]))
}
