package ingest

import (
	"context"
	"strings"

	sift "github.com/halcyonworks/sift"
)

// SemanticChunker groups sentences by embedding similarity: a sentence
// joins the running chunk while its similarity to the chunk's centroid
// stays at or above the threshold and the chunk is under the sentence
// limit; a drop below the threshold is a topic shift and starts a new
// chunk. Embedding failures degrade gracefully to recursive chunking.
type SemanticChunker struct {
	cfg       chunkerConfig
	embedding sift.EmbeddingProvider
	fallback  *RecursiveCharacterChunker
}

var _ Chunker = (*SemanticChunker)(nil)
var _ ContextChunker = (*SemanticChunker)(nil)

// NewSemanticChunker validates similarity_threshold in [0,1],
// min_chunk_size >= 1, and max_chunk_size >= min_chunk_size (both in
// sentences).
func NewSemanticChunker(embedding sift.EmbeddingProvider, opts ...ChunkerOption) (*SemanticChunker, error) {
	cfg := defaultChunkerConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.similarityThreshold < 0 || cfg.similarityThreshold > 1 {
		return nil, &sift.ErrConfig{Option: "similarity_threshold", Reason: "must be in [0, 1]"}
	}
	if cfg.minSentences < 1 {
		return nil, &sift.ErrConfig{Option: "min_chunk_size", Reason: "must be at least 1 sentence"}
	}
	if cfg.maxSentences < cfg.minSentences {
		return nil, &sift.ErrConfig{Option: "max_chunk_size", Reason: "must be >= min_chunk_size"}
	}
	fallback, err := NewRecursiveCharacterChunker(opts...)
	if err != nil {
		return nil, err
	}
	return &SemanticChunker{cfg: cfg, embedding: embedding, fallback: fallback}, nil
}

// Chunk implements Chunker. Uses context.Background() for the embedding
// call; prefer ChunkContext when a context is available.
func (sc *SemanticChunker) Chunk(text string, meta sift.Metadata) []sift.Chunk {
	chunks, _ := sc.ChunkContext(context.Background(), text, meta)
	return chunks
}

// ChunkContext splits text at topic shifts. All sentences are embedded
// in one collaborator call.
func (sc *SemanticChunker) ChunkContext(ctx context.Context, text string, meta sift.Metadata) ([]sift.Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	sentences := splitSentences(text)
	if len(sentences) == 1 {
		return sc.finish([][]string{sentences}, meta), nil
	}

	embeddings, err := sc.embedAll(ctx, sentences)
	if err != nil {
		return sc.fallback.Chunk(text, meta), nil
	}

	var groups [][]string
	var group []string
	var centroid []float32

	for i, s := range sentences {
		if len(group) == 0 {
			group = append(group, s)
			centroid = cloneVec(embeddings[i])
			continue
		}
		sim := float64(sift.Similarity(sc.embedding, centroid, embeddings[i]))
		if sim >= sc.cfg.similarityThreshold && len(group) < sc.cfg.maxSentences {
			group = append(group, s)
			addVec(centroid, embeddings[i])
		} else {
			groups = append(groups, group)
			group = []string{s}
			centroid = cloneVec(embeddings[i])
		}
	}
	if len(group) > 0 {
		groups = append(groups, group)
	}

	return sc.finish(groups, meta), nil
}

// embedAll embeds every sentence, treating a count mismatch as failure.
func (sc *SemanticChunker) embedAll(ctx context.Context, sentences []string) ([][]float32, error) {
	if sc.embedding == nil {
		return nil, &sift.ErrInput{Field: "embedding", Reason: "no provider configured"}
	}
	embeddings, err := sc.embedding.Embed(ctx, sentences)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(sentences) {
		return nil, &sift.ErrInput{Field: "embedding", Reason: "vector count mismatch"}
	}
	return embeddings, nil
}

// finish assembles sentence groups into chunks with num_sentences
// metadata.
func (sc *SemanticChunker) finish(groups [][]string, meta sift.Metadata) []sift.Chunk {
	texts := make([]string, len(groups))
	for i, g := range groups {
		texts[i] = strings.Join(g, " ")
	}
	chunks := assemble(texts, meta, "text")
	for i := range chunks {
		chunks[i].Metadata[sift.MetaNumSentences] = len(groups[i])
	}
	return chunks
}

// Centroid arithmetic: cosine similarity is scale-invariant, so the
// running sum of member vectors stands in for the mean.
func cloneVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func addVec(dst, v []float32) {
	for i := range dst {
		if i < len(v) {
			dst[i] += v[i]
		}
	}
}
