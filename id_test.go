package sift

import "testing"

func TestNewID(t *testing.T) {
	id1 := NewID()
	id2 := NewID()
	if len(id1) != 36 {
		t.Errorf("expected 36 chars (UUIDv7), got %d: %s", len(id1), id1)
	}
	if id1 == id2 {
		t.Error("two IDs should be unique")
	}
	if id1 >= id2 {
		t.Error("sequential UUIDv7s should be time-ordered")
	}
}

func TestChunkID(t *testing.T) {
	tests := []struct {
		docID string
		index int
		want  string
	}{
		{"doc-1", 0, "doc-1_0"},
		{"doc-1", 12, "doc-1_12"},
		{"abc", 3, "abc_3"},
	}
	for _, tt := range tests {
		if got := ChunkID(tt.docID, tt.index); got != tt.want {
			t.Errorf("ChunkID(%q, %d) = %q, want %q", tt.docID, tt.index, got, tt.want)
		}
	}
}
