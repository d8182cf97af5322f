package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for chunking and retrieval-refinement spans and metrics.
var (
	AttrChunkStrategy = attribute.Key("chunk.strategy")
	AttrChunkCount    = attribute.Key("chunk.count")
	AttrDocBytes      = attribute.Key("doc.bytes")
	AttrDocCount      = attribute.Key("doc.count")
	AttrFilePath      = attribute.Key("file.path")

	AttrRerankCandidates = attribute.Key("rerank.candidates")
	AttrRerankTopK       = attribute.Key("rerank.top_k")
	AttrRerankDiversity  = attribute.Key("rerank.diversity")

	AttrEmbedProvider   = attribute.Key("llm.provider")
	AttrEmbedTextCount  = attribute.Key("llm.embed.text_count")
	AttrEmbedDimensions = attribute.Key("llm.embed.dimensions")
)
