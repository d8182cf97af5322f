package sift

import "maps"

// Metadata is the free-form key→value mapping attached to chunks.
// Caller-supplied keys (parent_doc_id, file_path, …) always carry
// forward into every chunk; chunkers and the processor add their own
// keys on top.
type Metadata map[string]any

// Well-known metadata keys. Chunkers and the processor write these;
// downstream embedding/storage collaborators read them verbatim.
const (
	MetaParentDocID      = "parent_doc_id"
	MetaFilePath         = "file_path"
	MetaChunkIndex       = "chunk_index"
	MetaTotalChunks      = "total_chunks"
	MetaChunkType        = "chunk_type"
	MetaCharCount        = "char_count"
	MetaWordCount        = "word_count"
	MetaTokenCount       = "token_count"
	MetaChunkingStrategy = "chunking_strategy"
	MetaOverlapRatio     = "overlap_ratio"
	MetaNumSentences     = "num_sentences"
	MetaLineStart        = "line_start"
	MetaLineEnd          = "line_end"
	MetaSection          = "section"
	MetaSubsection       = "subsection"
	MetaCodeUnitType     = "code_unit_type"
	MetaCodeUnitName     = "code_unit_name"
	MetaLanguage         = "language"
)

// Clone returns a shallow copy so chunkers can enrich per-chunk
// metadata without mutating the caller's map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+8)
	maps.Copy(out, m)
	return out
}

// String returns the value at key if it is a string, else "".
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Chunk is a bounded segment of a source document with enriched
// metadata. Created in a single chunking call and immutable thereafter.
type Chunk struct {
	ID       string   `json:"chunk_id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Result is a retrieval candidate flowing through re-ranking. Field
// names are a stable contract with the external API layer; do not
// rename the JSON keys.
type Result struct {
	Content     string   `json:"content"`
	DocID       string   `json:"doc_id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Path        string   `json:"path,omitempty"`
	KBDir       string   `json:"kb_dir,omitempty"`
	VectorScore *float64 `json:"vector_score,omitempty"`

	// Stamped by the reranker on selection.
	MMRScore   float64 `json:"mmr_score"`
	FinalScore float64 `json:"final_score"`
	Rank       int     `json:"rank"`
}

// ReformulationResult is the structured analysis of one query.
type ReformulationResult struct {
	OriginalQuery     string            `json:"original_query"`
	ReformulatedQuery string            `json:"reformulated_query"`
	Keywords          []string          `json:"keywords"`
	Entities          map[string]string `json:"entities"`
	Negations         []string          `json:"negations"`
	DateRanges        []string          `json:"date_ranges"`
	IsQuestion        bool              `json:"is_question"`
	QuestionType      string            `json:"question_type,omitempty"`
}
