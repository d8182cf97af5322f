package sift

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMetadataClone(t *testing.T) {
	m := Metadata{"parent_doc_id": "doc-1", "chunk_index": 0}
	c := m.Clone()
	c["chunk_index"] = 5
	c["extra"] = "x"

	if m["chunk_index"] != 0 {
		t.Errorf("clone mutation leaked into original: %v", m["chunk_index"])
	}
	if _, ok := m["extra"]; ok {
		t.Error("clone key leaked into original")
	}
	if c["parent_doc_id"] != "doc-1" {
		t.Errorf("clone lost a key: %v", c["parent_doc_id"])
	}
}

func TestMetadataString(t *testing.T) {
	m := Metadata{"name": "readme", "count": 3}
	if got := m.String("name"); got != "readme" {
		t.Errorf("String(name) = %q, want %q", got, "readme")
	}
	if got := m.String("count"); got != "" {
		t.Errorf("String on non-string value should be empty, got %q", got)
	}
	if got := m.String("missing"); got != "" {
		t.Errorf("String on missing key should be empty, got %q", got)
	}
}

func TestResultJSONContract(t *testing.T) {
	r := Result{
		Content:     "body",
		DocID:       "doc-1",
		Name:        "readme",
		Path:        "docs/readme.md",
		KBDir:       "kb",
		VectorScore: scoreOf(0.83),
		MMRScore:    0.41,
		FinalScore:  0.41,
		Rank:        1,
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, key := range []string{`"content"`, `"doc_id"`, `"name"`, `"path"`, `"kb_dir"`, `"vector_score"`, `"mmr_score"`, `"final_score"`, `"rank"`} {
		if !strings.Contains(s, key) {
			t.Errorf("marshaled result missing %s: %s", key, s)
		}
	}
}

func TestResultJSONOmitsNilVectorScore(t *testing.T) {
	data, err := json.Marshal(Result{Content: "body"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "vector_score") {
		t.Errorf("nil vector_score should be omitted: %s", data)
	}
}
