package storage

import (
	"io"
	"path"
)

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}

// Upload key layout for moderation files. Keys embed the moderation ID so
// batch delete can drop a moderation's blobs by prefix.
func AssignmentKey(moderationID, filename string) string {
	return path.Join("moderations", moderationID, "assignment", filename)
}

func RubricKey(moderationID, filename string) string {
	return path.Join("moderations", moderationID, "rubric", filename)
}

func AdminFeedbackKey(moderationID, filename string) string {
	return path.Join("moderations", moderationID, "admin-feedback", filename)
}
