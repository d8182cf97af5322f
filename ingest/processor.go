package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sift "github.com/halcyonworks/sift"
)

// Chunking strategy tags. The processor's registry is keyed by these.
const (
	StrategyAuto      = "auto"
	StrategyRecursive = "recursive"
	StrategySemantic  = "semantic"
	StrategyMarkdown  = "markdown"
	StrategyCode      = "code"
)

// Stats accumulates cross-call processor usage counters.
type Stats struct {
	TotalDocuments int64            `json:"total_documents"`
	TotalChunks    int64            `json:"total_chunks"`
	TotalBytes     int64            `json:"total_bytes"`
	StrategyCounts map[string]int64 `json:"strategy_counts"`
}

// Document is one entry of a ProcessBatch call. Strategy, when set,
// overrides the processor default for this document only.
type Document struct {
	Text     string
	Metadata sift.Metadata
	Strategy string
}

// Processor dispatches text to a registered chunking strategy, enriches
// every resulting chunk with bookkeeping metadata, and accumulates
// usage statistics. Chunkers hold no mutable state; the stats counters
// are the only shared state and are guarded by a mutex, so a Processor
// is safe for concurrent use.
type Processor struct {
	registry        map[string]Chunker
	extractors      map[ContentType]Extractor
	defaultStrategy string
	embedding       sift.EmbeddingProvider

	mu    sync.Mutex
	stats Stats
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*processorConfig)

type processorConfig struct {
	defaultStrategy string
	embedding       sift.EmbeddingProvider
	chunkerOpts     []ChunkerOption
	chunkers        map[string]Chunker
	extractors      map[ContentType]Extractor
}

// WithDefaultStrategy sets the strategy used when Process is called
// without an explicit one. Default: auto.
func WithDefaultStrategy(s string) ProcessorOption {
	return func(c *processorConfig) { c.defaultStrategy = s }
}

// WithEmbedding sets the embedding collaborator for the semantic
// strategy and the auto heuristic. Without one, auto never chooses
// semantic.
func WithEmbedding(p sift.EmbeddingProvider) ProcessorOption {
	return func(c *processorConfig) { c.embedding = p }
}

// WithChunkerOptions passes options through to every built-in chunker.
func WithChunkerOptions(opts ...ChunkerOption) ProcessorOption {
	return func(c *processorConfig) { c.chunkerOpts = append(c.chunkerOpts, opts...) }
}

// WithChunker replaces the chunker registered under tag.
func WithChunker(tag string, ch Chunker) ProcessorOption {
	return func(c *processorConfig) { c.chunkers[tag] = ch }
}

// WithExtractorFor registers an Extractor for a content type.
func WithExtractorFor(ct ContentType, e Extractor) ProcessorOption {
	return func(c *processorConfig) { c.extractors[ct] = e }
}

// NewProcessor builds a processor with the four built-in chunkers.
// Configuration errors from any chunker surface here.
func NewProcessor(opts ...ProcessorOption) (*Processor, error) {
	cfg := processorConfig{
		defaultStrategy: StrategyAuto,
		chunkers:        map[string]Chunker{},
		extractors:      defaultExtractors(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	recursive, err := NewRecursiveCharacterChunker(cfg.chunkerOpts...)
	if err != nil {
		return nil, err
	}
	semantic, err := NewSemanticChunker(cfg.embedding, cfg.chunkerOpts...)
	if err != nil {
		return nil, err
	}
	markdown, err := NewMarkdownChunker(cfg.chunkerOpts...)
	if err != nil {
		return nil, err
	}
	code, err := NewCodeChunker(cfg.chunkerOpts...)
	if err != nil {
		return nil, err
	}

	registry := map[string]Chunker{
		StrategyRecursive: recursive,
		StrategySemantic:  semantic,
		StrategyMarkdown:  markdown,
		StrategyCode:      code,
	}
	for tag, ch := range cfg.chunkers {
		registry[tag] = ch
	}

	return &Processor{
		registry:        registry,
		extractors:      cfg.extractors,
		defaultStrategy: cfg.defaultStrategy,
		embedding:       cfg.embedding,
		stats:           Stats{StrategyCounts: map[string]int64{}},
	}, nil
}

// Process chunks one document. Strategy resolution: the explicit
// argument wins, then the configured default, then auto. An
// unrecognized strategy name is not fatal — it falls back to recursive
// so ingestion is never blocked by a typo.
func (p *Processor) Process(ctx context.Context, text string, meta sift.Metadata, strategy string) ([]sift.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if meta == nil {
		meta = sift.Metadata{}
	}

	resolved := strategy
	if resolved == "" {
		resolved = p.defaultStrategy
	}
	if resolved == "" || resolved == StrategyAuto {
		resolved = p.resolveAuto(text, meta)
	}
	chunker, ok := p.registry[resolved]
	if !ok {
		resolved = StrategyRecursive
		chunker = p.registry[resolved]
	}

	var chunks []sift.Chunk
	var err error
	if cc, isCtx := chunker.(ContextChunker); isCtx {
		chunks, err = cc.ChunkContext(ctx, text, meta)
	} else {
		chunks = chunker.Chunk(text, meta)
	}
	if err != nil {
		return nil, fmt.Errorf("chunk (%s): %w", resolved, err)
	}

	for i := range chunks {
		m := chunks[i].Metadata
		m[sift.MetaChunkingStrategy] = resolved
		m[sift.MetaCharCount] = len(chunks[i].Text)
		m[sift.MetaWordCount] = len(strings.Fields(chunks[i].Text))
	}

	p.mu.Lock()
	p.stats.TotalDocuments++
	p.stats.TotalChunks += int64(len(chunks))
	p.stats.TotalBytes += int64(len(text))
	p.stats.StrategyCounts[resolved]++
	p.mu.Unlock()

	return chunks, nil
}

// ProcessBatch chunks documents in order, concatenating results. A
// failure on any document propagates; there is no partial aggregation
// across documents.
func (p *Processor) ProcessBatch(ctx context.Context, docs []Document) ([]sift.Chunk, error) {
	var all []sift.Chunk
	for i, doc := range docs {
		chunks, err := p.Process(ctx, doc.Text, doc.Metadata, doc.Strategy)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		all = append(all, chunks...)
	}
	return all, nil
}

// ProcessFile extracts text from raw file content by extension, then
// chunks it. The filename lands in file_path metadata so auto strategy
// resolution sees the extension.
func (p *Processor) ProcessFile(ctx context.Context, content []byte, filename string, meta sift.Metadata) ([]sift.Chunk, error) {
	ct := ContentTypeFromExtension(strings.TrimPrefix(filepath.Ext(filename), "."))
	extractor, ok := p.extractors[ct]
	if !ok {
		extractor = PlainTextExtractor{}
	}
	text, err := extractor.Extract(content)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", ct, err)
	}

	m := meta.Clone()
	if m.String(sift.MetaFilePath) == "" {
		m[sift.MetaFilePath] = filename
	}
	return p.Process(ctx, text, m, "")
}

// resolveAuto picks a strategy from the file extension when one is
// recognized, else from a prose heuristic: well-sentenced text goes to
// the semantic chunker (when an embedder is configured), everything
// else to recursive.
func (p *Processor) resolveAuto(text string, meta sift.Metadata) string {
	ext := strings.ToLower(filepath.Ext(meta.String(sift.MetaFilePath)))
	switch {
	case ext == ".md" || ext == ".markdown":
		return StrategyMarkdown
	case languageByExtension[ext] != "":
		return StrategyCode
	case meta.String(sift.MetaLanguage) != "":
		return StrategyCode
	}

	if p.embedding != nil && len(findSentenceBoundaries(text)) >= 3 {
		return StrategySemantic
	}
	return StrategyRecursive
}

// Stats snapshots the usage counters.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.stats
	out.StrategyCounts = make(map[string]int64, len(p.stats.StrategyCounts))
	for k, v := range p.stats.StrategyCounts {
		out.StrategyCounts[k] = v
	}
	return out
}

// ResetStats zeroes the usage counters.
func (p *Processor) ResetStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = Stats{StrategyCounts: map[string]int64{}}
}
