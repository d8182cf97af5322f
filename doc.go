// Package sift prepares documents for retrieval and refines retrieval
// results in a knowledge-base pipeline.
//
// It provides modular, interface-driven building blocks: a document
// segmentation pipeline (four chunking strategies behind one dispatcher),
// query reformulation, and Maximal-Marginal-Relevance re-ranking.
// Embedding inference, vector storage, and transport are deliberately
// out of scope — they are consumed through the narrow collaborator
// interfaces defined here.
//
// # Quick Start
//
//	proc, err := ingest.NewProcessor(
//		ingest.WithEmbedding(embedder),
//		ingest.WithDefaultStrategy(ingest.StrategyAuto),
//	)
//	chunks, err := proc.Process(ctx, text, sift.Metadata{
//		"parent_doc_id": docID,
//		"file_path":     "guide.md",
//	}, "")
//
// At query time:
//
//	ref := sift.NewQueryReformulator()
//	analysis := ref.Reformulate(ctx, query)
//
//	rr, err := sift.NewMMRReranker(0.7, sift.WithRerankerEmbedding(embedder))
//	ranked, err := rr.Rerank(ctx, analysis.ReformulatedQuery, candidates, 10)
//
// # Core Interfaces
//
// The root package defines the contracts all components share:
//
//   - [EmbeddingProvider] — text-to-vector embedding
//   - [SimilarityScorer] — optional provider-supplied vector similarity
//   - [EntityRecognizer] — optional named-entity extraction
//   - [Reranker] — re-scoring of retrieval candidates
package sift
