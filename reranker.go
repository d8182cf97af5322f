package sift

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Reranker re-scores retrieval results for improved precision.
// Implementations return results sorted by their final score and
// trimmed to topK.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []Result, topK int) ([]Result, error)
}

// EmbeddingFactory lazily constructs the embedding model backing
// similarity scoring. Called at most once, on first need.
type EmbeddingFactory func() (EmbeddingProvider, error)

// MMRReranker reorders retrieval candidates by Maximal Marginal
// Relevance: a greedy selection balancing relevance to the query
// against redundancy with already-selected results.
//
// diversity in [0,1] weights the trade-off: 1.0 is pure relevance
// ordering, 0.0 maximizes novelty. The embedding model is instantiated
// lazily on the first call that needs it; when no model is configured,
// similarity falls back to keyword overlap so near-duplicate demotion
// still works.
type MMRReranker struct {
	diversity float64
	factory   EmbeddingFactory

	once     sync.Once
	loaded   atomic.Bool
	provider EmbeddingProvider
	loadErr  error
}

var _ Reranker = (*MMRReranker)(nil)

// RerankerOption configures an MMRReranker.
type RerankerOption func(*MMRReranker)

// WithRerankerEmbedding sets an already-constructed embedding provider.
func WithRerankerEmbedding(p EmbeddingProvider) RerankerOption {
	return func(r *MMRReranker) {
		r.factory = func() (EmbeddingProvider, error) { return p, nil }
	}
}

// WithEmbeddingFactory sets a factory invoked once, on first use, to
// construct the embedding provider.
func WithEmbeddingFactory(f EmbeddingFactory) RerankerOption {
	return func(r *MMRReranker) { r.factory = f }
}

// NewMMRReranker creates a reranker with the given diversity weight.
func NewMMRReranker(diversity float64, opts ...RerankerOption) (*MMRReranker, error) {
	if diversity < 0 || diversity > 1 {
		return nil, &ErrConfig{Option: "diversity", Reason: fmt.Sprintf("must be in [0, 1], got %g", diversity)}
	}
	r := &MMRReranker{diversity: diversity}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// RerankerStats is a snapshot of reranker state.
type RerankerStats struct {
	Diversity   float64 `json:"diversity"`
	ModelLoaded bool    `json:"model_loaded"`
}

// Stats reports the configured diversity and whether the lazy embedding
// model has been instantiated.
func (r *MMRReranker) Stats() RerankerStats {
	return RerankerStats{Diversity: r.diversity, ModelLoaded: r.loaded.Load()}
}

// loadModel instantiates the embedding provider at most once. Safe for
// concurrent first calls; later callers observe the finished result.
func (r *MMRReranker) loadModel() (EmbeddingProvider, error) {
	r.once.Do(func() {
		if r.factory == nil {
			return
		}
		r.provider, r.loadErr = r.factory()
		r.loaded.Store(r.provider != nil)
	})
	return r.provider, r.loadErr
}

// Rerank selects min(topK, len(results)) candidates greedily, stamping
// each with mmr_score, final_score, and a 1-based rank. The input slice
// is not modified.
func (r *MMRReranker) Rerank(ctx context.Context, query string, results []Result, topK int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &ErrInput{Field: "query", Reason: "must not be empty"}
	}
	if len(results) == 0 {
		return nil, &ErrInput{Field: "results", Reason: "must not be empty"}
	}
	for i, res := range results {
		if res.Content == "" {
			return nil, &ErrInput{Field: "content", Reason: fmt.Sprintf("result %d has no content", i)}
		}
	}
	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}

	needEmbeddings := r.diversity < 1
	if !needEmbeddings {
		for _, res := range results {
			if res.VectorScore == nil {
				needEmbeddings = true
				break
			}
		}
	}

	var provider EmbeddingProvider
	var queryVec []float32
	var docVecs [][]float32
	if needEmbeddings {
		provider, _ = r.loadModel()
		if provider != nil {
			texts := make([]string, 0, len(results)+1)
			texts = append(texts, query)
			for _, res := range results {
				texts = append(texts, res.Content)
			}
			vecs, err := provider.Embed(ctx, texts)
			if err == nil && len(vecs) == len(texts) {
				queryVec = vecs[0]
				docVecs = vecs[1:]
			}
		}
	}

	relevance := make([]float64, len(results))
	for i, res := range results {
		switch {
		case res.VectorScore != nil:
			relevance[i] = *res.VectorScore
		case docVecs != nil:
			relevance[i] = float64(Similarity(provider, queryVec, docVecs[i]))
		default:
			relevance[i] = overlapScore(tokenSet(query), tokenSet(res.Content))
		}
	}

	pairSim := func(i, j int) float64 {
		if docVecs != nil {
			return float64(Similarity(provider, docVecs[i], docVecs[j]))
		}
		return overlapScore(tokenSet(results[i].Content), tokenSet(results[j].Content))
	}

	selected := make([]int, 0, topK)
	picked := make([]bool, len(results))
	ranked := make([]Result, 0, topK)

	for len(selected) < topK {
		best := -1
		bestScore := 0.0
		for i := range results {
			if picked[i] {
				continue
			}
			maxSim := 0.0
			for _, j := range selected {
				if s := pairSim(i, j); s > maxSim {
					maxSim = s
				}
			}
			score := r.diversity*relevance[i] - (1-r.diversity)*maxSim
			// Ties break toward relevance so the first pick is the most
			// relevant candidate even at diversity 0.
			if best == -1 || score > bestScore || (score == bestScore && relevance[i] > relevance[best]) {
				best = i
				bestScore = score
			}
		}

		picked[best] = true
		selected = append(selected, best)

		out := results[best]
		out.MMRScore = bestScore
		out.FinalScore = bestScore
		out.Rank = len(selected)
		ranked = append(ranked, out)
	}

	return ranked, nil
}

// tokenSet builds the set of lowercased word tokens in text.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenize(strings.ToLower(text)) {
		set[tok] = true
	}
	return set
}

// overlapScore is the fraction of shared tokens over the smaller set,
// a keyword-overlap stand-in for vector similarity when no embedding
// model is available.
func overlapScore(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for tok := range small {
		if large[tok] {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}
