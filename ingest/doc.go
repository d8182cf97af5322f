// Package ingest segments documents into metadata-enriched chunks ready
// for embedding and storage.
//
// Four chunking strategies sit behind the [Chunker] interface:
// size-bounded recursive splitting, embedding-similarity grouping,
// markdown-structure-aware splitting, and syntactic code-unit
// splitting. [Processor] dispatches between them by strategy tag or an
// automatic heuristic, enriches every chunk with bookkeeping metadata,
// and accumulates usage statistics. Extractors convert raw file bytes
// (PDF, HTML, DOCX, CSV, JSON) to text ahead of chunking.
package ingest
