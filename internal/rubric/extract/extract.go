// Package extract turns uploaded rubric documents into the canonical rubric
// model. Each format sits behind its own pure extractor; FromBytes is the
// single entry point request handlers call.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amtlabs/amt/internal/rubric"
)

// FromBytes extracts and normalizes a rubric from an uploaded file. The
// extension decides the parser; unrecognized extensions are rejected before
// any parsing attempt. All outputs pass through rubric.Repair, so callers
// always receive a canonical (possibly empty-sentinel) rubric or an error.
func FromBytes(filename string, data []byte) (rubric.Rubric, error) {
	base := filepath.Base(filename)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".doc", ".docx":
		res, err := Docx(data)
		if err != nil {
			return rubric.Rubric{}, err
		}
		return rubric.Repair(rubric.TablesToRubric(res.Tables, res.Title, base)), nil
	case ".pdf":
		r, err := Pdf(data, base)
		if err != nil {
			return rubric.Rubric{}, err
		}
		return rubric.Repair(r), nil
	case ".xlsx":
		r, err := Xlsx(data, base)
		if err != nil {
			return rubric.Rubric{}, err
		}
		return rubric.Repair(r), nil
	default:
		return rubric.Rubric{}, fmt.Errorf("%w: %q", rubric.ErrUnsupportedFormat, ext)
	}
}

// FromFile reads path and extracts a rubric from its contents.
func FromFile(path string) (rubric.Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rubric.Rubric{}, err
	}
	return FromBytes(path, data)
}
