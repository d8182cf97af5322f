package sift

import (
	"context"
	"hash/fnv"
	"strings"
)

// mockEmbedder hashes word tokens into fixed-size vectors, so equal
// texts embed identically and disjoint texts are near-orthogonal.
// Stateless, so it is safe to share across goroutines.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dims: 64}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) vector(text string) []float32 {
	vec := make([]float32, m.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(m.dims)]++
	}
	return vec
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

// mockRecognizer returns a fixed entity map.
type mockRecognizer struct {
	available bool
	entities  map[string]string
	err       error
}

func (m *mockRecognizer) ExtractEntities(context.Context, string) (map[string]string, error) {
	return m.entities, m.err
}

func (m *mockRecognizer) IsAvailable() bool { return m.available }

func scoreOf(v float64) *float64 { return &v }
