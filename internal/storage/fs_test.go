package storage

import (
	"io"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	key := AssignmentKey("mod-1", "brief.pdf")
	got, err := s.Put(key, strings.NewReader("assignment body"))
	if err != nil {
		t.Fatal(err)
	}
	if got != key {
		t.Errorf("canonical key = %q, want %q", got, key)
	}

	rc, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "assignment body" {
		t.Errorf("body = %q", body)
	}

	u, err := s.SignedURL(key)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(u, "file://") {
		t.Errorf("url = %q", u)
	}

	if err := s.Delete(key); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(key); err == nil {
		t.Error("get after delete should fail")
	}
	// Deleting a missing blob is not an error.
	if err := s.Delete(key); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestKeyLayout(t *testing.T) {
	if got := RubricKey("m", "r.docx"); got != "moderations/m/rubric/r.docx" {
		t.Errorf("rubric key = %q", got)
	}
	if got := AdminFeedbackKey("m", "fb.json"); got != "moderations/m/admin-feedback/fb.json" {
		t.Errorf("admin feedback key = %q", got)
	}
}
