package ingest

import (
	"context"
	"errors"
	"strings"
)

// topicEmbedder maps each text to a fixed axis by keyword, so topic
// shifts are exact and test outcomes deterministic.
type topicEmbedder struct {
	topics map[string]int // keyword -> axis
	fail   bool
	calls  int
}

func (e *topicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("embedding model unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, len(e.topics)+1)
		axis := len(e.topics) // default axis for unmatched text
		lower := strings.ToLower(t)
		for kw, a := range e.topics {
			if strings.Contains(lower, kw) {
				axis = a
				break
			}
		}
		vec[axis] = 1
		out[i] = vec
	}
	return out, nil
}

func (e *topicEmbedder) Dimensions() int { return len(e.topics) + 1 }
func (e *topicEmbedder) Name() string    { return "topic" }

// constantEmbedder returns the same vector for every text, so every
// sentence looks maximally similar.
type constantEmbedder struct{}

func (constantEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (constantEmbedder) Dimensions() int { return 2 }
func (constantEmbedder) Name() string    { return "constant" }
