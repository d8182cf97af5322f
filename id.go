package sift

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID generates a globally unique, time-sortable UUIDv7 (RFC 9562).
// Used for document ids when the caller did not supply a parent_doc_id.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ChunkID derives a chunk id from its parent document id and 0-based
// sequence index. Unique within a document by construction.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_%d", docID, index)
}
