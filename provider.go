package sift

import (
	"context"
	"math"
)

// EmbeddingProvider abstracts text embedding. Implementations live
// outside this module (API clients, local models); the core only calls
// Embed and compares the resulting vectors.
type EmbeddingProvider interface {
	// Embed returns embedding vectors for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding vector size.
	Dimensions() int
	// Name returns the provider name.
	Name() string
}

// SimilarityScorer is an optional EmbeddingProvider capability for
// providers that score vector pairs themselves. Callers discover it
// via type assertion and fall back to CosineSimilarity otherwise.
type SimilarityScorer interface {
	Similarity(a, b []float32) float32
}

// EntityRecognizer abstracts optional named-entity extraction.
// Availability is probed before use; an unavailable recognizer degrades
// the entities output to empty rather than failing the call.
type EntityRecognizer interface {
	// ExtractEntities maps entity text to entity type (PERSON, ORG, …).
	ExtractEntities(ctx context.Context, text string) (map[string]string, error)
	// IsAvailable reports whether the backing model can be used.
	IsAvailable() bool
}

// Similarity scores two vectors using the provider's own scorer when it
// implements SimilarityScorer, else cosine similarity.
func Similarity(p EmbeddingProvider, a, b []float32) float32 {
	if s, ok := p.(SimilarityScorer); ok {
		return s.Similarity(a, b)
	}
	return CosineSimilarity(a, b)
}

// CosineSimilarity computes cosine similarity between two vectors.
// Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}
