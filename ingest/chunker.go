package ingest

import (
	"context"
	"strings"

	sift "github.com/halcyonworks/sift"
)

// Chunker splits text into metadata-enriched chunks. Caller-supplied
// metadata keys carry forward into every chunk unchanged.
type Chunker interface {
	Chunk(text string, meta sift.Metadata) []sift.Chunk
}

// ContextChunker extends Chunker with context-aware chunking.
// Implementations that call external services (embedding APIs) should
// implement this interface. The Processor uses ChunkContext when
// available, falling back to Chunk otherwise.
type ContextChunker interface {
	Chunker
	ChunkContext(ctx context.Context, text string, meta sift.Metadata) ([]sift.Chunk, error)
}

// Tokenizer is an optional collaborator for token counting. When unset,
// chunkers count whitespace-separated tokens.
type Tokenizer interface {
	CountTokens(text string) int
}

// --- ChunkerOption for configuring chunkers ---

// ChunkerOption configures a chunker implementation. Each chunker reads
// the options relevant to it and validates them at construction.
type ChunkerOption func(*chunkerConfig)

type chunkerConfig struct {
	chunkSize           int
	chunkOverlap        int
	similarityThreshold float64
	minSentences        int
	maxSentences        int
	maxChunkSize        int
	preserveHeaders     bool
	preserveImports     bool
	tokenizer           Tokenizer
}

func defaultChunkerConfig() chunkerConfig {
	return chunkerConfig{
		chunkSize:           1000,
		chunkOverlap:        200,
		similarityThreshold: 0.7,
		minSentences:        2,
		maxSentences:        10,
		maxChunkSize:        1500,
		preserveHeaders:     true,
		preserveImports:     true,
	}
}

// WithChunkSize sets the maximum characters per chunk for the recursive
// strategy.
func WithChunkSize(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.chunkSize = n }
}

// WithChunkOverlap sets the characters of trailing context repeated at
// the start of each following chunk.
func WithChunkOverlap(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.chunkOverlap = n }
}

// WithSimilarityThreshold sets the minimum sentence-to-chunk similarity
// for the semantic strategy. Similarity below the threshold starts a
// new chunk.
func WithSimilarityThreshold(t float64) ChunkerOption {
	return func(c *chunkerConfig) { c.similarityThreshold = t }
}

// WithMinSentences sets the preferred minimum sentences per semantic chunk.
func WithMinSentences(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.minSentences = n }
}

// WithMaxSentences sets the hard maximum sentences per semantic chunk.
func WithMaxSentences(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.maxSentences = n }
}

// WithMaxChunkSize sets the maximum characters per chunk for the
// markdown and code strategies.
func WithMaxChunkSize(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.maxChunkSize = n }
}

// WithPreserveHeaders toggles section/subsection metadata inheritance
// in the markdown strategy (default on).
func WithPreserveHeaders(on bool) ChunkerOption {
	return func(c *chunkerConfig) { c.preserveHeaders = on }
}

// WithPreserveImports toggles prepending file imports to every code
// chunk (default on).
func WithPreserveImports(on bool) ChunkerOption {
	return func(c *chunkerConfig) { c.preserveImports = on }
}

// WithTokenizer sets the token-counting collaborator.
func WithTokenizer(t Tokenizer) ChunkerOption {
	return func(c *chunkerConfig) { c.tokenizer = t }
}

// countTokens counts with the configured tokenizer, else by whitespace.
func (c chunkerConfig) countTokens(text string) int {
	if c.tokenizer != nil {
		return c.tokenizer.CountTokens(text)
	}
	return len(strings.Fields(text))
}

// --- shared chunk assembly ---

// assemble turns raw chunk texts into Chunk records: ids derived from
// parent_doc_id plus sequence index, contiguous chunk_index values, and
// total_chunks on every chunk. Caller metadata is cloned per chunk.
func assemble(texts []string, meta sift.Metadata, chunkType string) []sift.Chunk {
	if len(texts) == 0 {
		return nil
	}
	docID := meta.String(sift.MetaParentDocID)
	if docID == "" {
		docID = sift.NewID()
	}
	chunks := make([]sift.Chunk, len(texts))
	for i, t := range texts {
		m := meta.Clone()
		m[sift.MetaChunkIndex] = i
		m[sift.MetaTotalChunks] = len(texts)
		m[sift.MetaChunkType] = chunkType
		chunks[i] = sift.Chunk{
			ID:       sift.ChunkID(docID, i),
			Text:     t,
			Metadata: m,
		}
	}
	return chunks
}

// --- RecursiveCharacterChunker ---

// RecursiveCharacterChunker splits text with a coarse-to-fine separator
// ladder: paragraphs, then sentences, then words, then raw characters,
// always preferring the coarsest separator that keeps each piece within
// the chunk size. Fenced code blocks are indivisible even when they
// exceed the limit. Adjacent chunks share up to chunkOverlap trailing
// characters of context.
type RecursiveCharacterChunker struct {
	cfg chunkerConfig
}

var _ Chunker = (*RecursiveCharacterChunker)(nil)

// NewRecursiveCharacterChunker validates chunk_size > 0 and
// 0 <= chunk_overlap < chunk_size.
func NewRecursiveCharacterChunker(opts ...ChunkerOption) (*RecursiveCharacterChunker, error) {
	cfg := defaultChunkerConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.chunkSize <= 0 {
		return nil, &sift.ErrConfig{Option: "chunk_size", Reason: "must be positive"}
	}
	if cfg.chunkOverlap < 0 || cfg.chunkOverlap >= cfg.chunkSize {
		return nil, &sift.ErrConfig{Option: "chunk_overlap", Reason: "must satisfy 0 <= overlap < chunk_size"}
	}
	return &RecursiveCharacterChunker{cfg: cfg}, nil
}

// Chunk splits text into overlapping chunks. Empty or whitespace-only
// text yields an empty sequence; text within the chunk size yields a
// single chunk equal to the input.
func (rc *RecursiveCharacterChunker) Chunk(text string, meta sift.Metadata) []sift.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var texts []string
	var ratios []float64
	if len(text) <= rc.cfg.chunkSize {
		texts = []string{text}
		ratios = []float64{0}
	} else {
		segments := splitPreservingFences(text, rc.cfg.chunkSize)
		texts, ratios = mergeWithOverlap(segments, rc.cfg.chunkSize, rc.cfg.chunkOverlap)
	}

	chunks := assemble(texts, meta, "text")
	for i := range chunks {
		chunks[i].Metadata[sift.MetaTokenCount] = rc.cfg.countTokens(chunks[i].Text)
		if i > 0 {
			chunks[i].Metadata[sift.MetaOverlapRatio] = ratios[i]
		}
	}
	return chunks
}

// splitPreservingFences splits text into segments no larger than
// maxChars, except fenced code blocks which pass through whole.
func splitPreservingFences(text string, maxChars int) []string {
	var segments []string
	for _, part := range splitFences(text) {
		if part.fenced {
			segments = append(segments, part.text)
			continue
		}
		segments = append(segments, splitRecursive(part.text, maxChars)...)
	}
	return segments
}

type fencePart struct {
	text   string
	fenced bool
}

// splitFences separates fenced code blocks (``` … ```) from surrounding
// prose. An unclosed fence runs to the end of the text.
func splitFences(text string) []fencePart {
	var parts []fencePart
	rest := text
	for {
		open := indexFence(rest, 0)
		if open < 0 {
			break
		}
		if lead := strings.TrimSpace(rest[:open]); lead != "" {
			parts = append(parts, fencePart{text: rest[:open]})
		}
		close := indexFence(rest, open+3)
		if close < 0 {
			parts = append(parts, fencePart{text: rest[open:], fenced: true})
			return parts
		}
		end := close + 3
		if nl := strings.IndexByte(rest[close:], '\n'); nl >= 0 {
			end = close + nl
		}
		parts = append(parts, fencePart{text: rest[open:end], fenced: true})
		rest = rest[end:]
	}
	if strings.TrimSpace(rest) != "" {
		parts = append(parts, fencePart{text: rest})
	}
	return parts
}

// indexFence finds the next ``` at or after from, at a line start.
func indexFence(text string, from int) int {
	for i := from; ; {
		j := strings.Index(text[i:], "```")
		if j < 0 {
			return -1
		}
		pos := i + j
		if pos == 0 || text[pos-1] == '\n' {
			return pos
		}
		i = pos + 3
	}
}

// splitRecursive walks the separator ladder: paragraphs, sentences,
// words. Each level descends only for pieces still too large.
func splitRecursive(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	// Level 1: paragraph boundaries
	paragraphs := strings.Split(text, "\n\n")
	if len(paragraphs) > 1 {
		var segments []string
		for _, p := range paragraphs {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if len(p) <= maxChars {
				segments = append(segments, p)
			} else {
				segments = append(segments, splitOnSentences(p, maxChars)...)
			}
		}
		return segments
	}

	// Level 2: sentence boundaries
	sentenceSegments := splitOnSentences(text, maxChars)
	if len(sentenceSegments) > 1 {
		return sentenceSegments
	}

	// Level 3: word boundaries (degrading to raw characters for
	// oversized words)
	return splitOnWords(text, maxChars)
}

func splitOnSentences(text string, maxChars int) []string {
	boundaries := findSentenceBoundaries(text)
	if len(boundaries) == 0 {
		return splitOnWords(text, maxChars)
	}

	var segments []string
	start := 0
	lastGood := -1

	flush := func(end int) {
		seg := strings.TrimSpace(text[start:end])
		if seg == "" {
			return
		}
		if len(seg) <= maxChars {
			segments = append(segments, seg)
		} else {
			segments = append(segments, splitOnWords(seg, maxChars)...)
		}
	}

	for _, boundary := range boundaries {
		if len(text[start:boundary]) <= maxChars {
			lastGood = boundary
			continue
		}
		if lastGood > start {
			flush(lastGood)
			start = lastGood
			if len(text[start:boundary]) <= maxChars {
				lastGood = boundary
			} else {
				lastGood = -1
			}
		} else {
			flush(boundary)
			start = boundary
			lastGood = -1
		}
	}
	flush(len(text))

	return segments
}

func splitOnWords(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var segments []string
	var current strings.Builder

	for _, word := range words {
		if len(word) > maxChars {
			if current.Len() > 0 {
				segments = append(segments, current.String())
				current.Reset()
			}
			// Final ladder rung: raw character slices.
			for i := 0; i < len(word); i += maxChars {
				end := min(i+maxChars, len(word))
				segments = append(segments, word[i:end])
			}
			continue
		}

		needed := len(word)
		if current.Len() > 0 {
			needed = current.Len() + 1 + len(word)
		}

		if needed > maxChars {
			if current.Len() > 0 {
				segments = append(segments, current.String())
				current.Reset()
			}
		} else if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		segments = append(segments, current.String())
	}

	return segments
}

// mergeWithOverlap packs segments into chunks up to maxChars and
// prefixes each chunk after the first with up to overlapChars of the
// previous chunk's tail. Returns the chunk texts and per-chunk
// overlap ratios (overlap length / chunk length).
func mergeWithOverlap(segments []string, maxChars, overlapChars int) ([]string, []float64) {
	var chunks []string
	var ratios []float64
	var current strings.Builder
	currentOverlap := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunk := current.String()
		chunks = append(chunks, chunk)
		ratios = append(ratios, float64(currentOverlap)/float64(len(chunk)))
		current.Reset()
		currentOverlap = 0
	}

	for _, seg := range segments {
		needed := len(seg)
		if current.Len() > 0 {
			needed = current.Len() + 1 + len(seg)
		}

		if needed <= maxChars || current.Len() == 0 {
			if current.Len() > 0 {
				current.WriteByte('\n')
			}
			current.WriteString(seg)
			continue
		}

		prev := current.String()
		flush()

		overlap := overlapSuffix(prev, overlapChars)
		if overlap != "" && len(overlap)+1+len(seg) <= maxChars {
			current.WriteString(overlap)
			current.WriteByte('\n')
			currentOverlap = len(overlap) + 1
		}
		current.WriteString(seg)
	}
	flush()

	// Filter empties introduced by whitespace-only segments.
	var outChunks []string
	var outRatios []float64
	for i, c := range chunks {
		if strings.TrimSpace(c) != "" {
			outChunks = append(outChunks, c)
			outRatios = append(outRatios, ratios[i])
		}
	}
	return outChunks, outRatios
}

// overlapSuffix returns up to n trailing characters of text, aligned to
// a word boundary when one falls inside the window.
func overlapSuffix(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) <= n {
		return text
	}
	suffix := text[len(text)-n:]
	if idx := strings.IndexAny(suffix, " \n"); idx >= 0 {
		return strings.TrimSpace(suffix[idx+1:])
	}
	return strings.TrimSpace(suffix)
}
