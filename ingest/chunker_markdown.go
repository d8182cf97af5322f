package ingest

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	sift "github.com/halcyonworks/sift"
)

// MarkdownChunker splits markdown at structural boundaries parsed from
// the goldmark AST. Headers maintain a hierarchy so body content
// inherits section/subsection titles; fenced code blocks and contiguous
// list blocks are atomic and never split across chunks, whatever their
// size. Each chunk records its 1-based source line span.
type MarkdownChunker struct {
	cfg    chunkerConfig
	parser goldmark.Markdown
}

var _ Chunker = (*MarkdownChunker)(nil)

// NewMarkdownChunker validates max_chunk_size > 0.
func NewMarkdownChunker(opts ...ChunkerOption) (*MarkdownChunker, error) {
	cfg := defaultChunkerConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxChunkSize <= 0 {
		return nil, &sift.ErrConfig{Option: "max_chunk_size", Reason: "must be positive"}
	}
	return &MarkdownChunker{cfg: cfg, parser: goldmark.New()}, nil
}

// mdBlock is one structural unit of the source document.
type mdBlock struct {
	typ        string // header, text, code, list
	text       string
	lineStart  int
	lineEnd    int
	section    string
	subsection string
}

// Chunk splits markdown into chunks, closing the current chunk whenever
// adding the next block would exceed the size limit.
func (mc *MarkdownChunker) Chunk(text string, meta sift.Metadata) []sift.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	blocks := mc.parseBlocks([]byte(text))
	if len(blocks) == 0 {
		return nil
	}

	type pending struct {
		blocks []mdBlock
	}
	var groups []pending
	var current pending
	currentLen := 0

	flush := func() {
		if len(current.blocks) > 0 {
			groups = append(groups, current)
			current = pending{}
			currentLen = 0
		}
	}

	for _, b := range blocks {
		needed := len(b.text)
		if currentLen > 0 {
			needed += currentLen + 2 // "\n\n" joiner
		}
		if currentLen > 0 && needed > mc.cfg.maxChunkSize {
			flush()
		}
		current.blocks = append(current.blocks, b)
		currentLen = joinedLen(current.blocks)
	}
	flush()

	texts := make([]string, len(groups))
	for i, g := range groups {
		parts := make([]string, len(g.blocks))
		for j, b := range g.blocks {
			parts[j] = b.text
		}
		texts[i] = strings.Join(parts, "\n\n")
	}

	chunks := assemble(texts, meta, "text")
	for i, g := range groups {
		first, last := g.blocks[0], g.blocks[len(g.blocks)-1]
		m := chunks[i].Metadata
		m[sift.MetaChunkType] = groupType(g.blocks)
		m[sift.MetaLineStart] = first.lineStart
		m[sift.MetaLineEnd] = last.lineEnd
		if mc.cfg.preserveHeaders {
			if first.section != "" {
				m[sift.MetaSection] = first.section
			}
			if first.subsection != "" {
				m[sift.MetaSubsection] = first.subsection
			}
		}
	}
	return chunks
}

func joinedLen(blocks []mdBlock) int {
	n := 0
	for i, b := range blocks {
		if i > 0 {
			n += 2
		}
		n += len(b.text)
	}
	return n
}

// groupType is the chunk_type for a packed group: the blocks' shared
// type, or "text" when mixed.
func groupType(blocks []mdBlock) string {
	typ := blocks[0].typ
	for _, b := range blocks[1:] {
		if b.typ != typ {
			return "text"
		}
	}
	return typ
}

// parseBlocks walks the top-level goldmark AST nodes, slicing each
// block's raw source text and tracking the header hierarchy.
func (mc *MarkdownChunker) parseBlocks(source []byte) []mdBlock {
	doc := mc.parser.Parser().Parse(gmtext.NewReader(source))
	lineStarts := lineOffsets(source)
	lineOf := func(off int) int {
		// 0-based index of the line containing byte offset off.
		return sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > off }) - 1
	}

	type rawBlock struct {
		typ       string
		startLine int
		level     int
		title     string
	}
	var raws []rawBlock

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		start, ok := firstSegmentStart(n)
		if !ok {
			continue
		}
		startLine := lineOf(start)

		rb := rawBlock{typ: "text", startLine: startLine}
		switch v := n.(type) {
		case *ast.Heading:
			rb.typ = "header"
			rb.level = v.Level
			rb.title = segmentText(v, source)
		case *ast.FencedCodeBlock:
			rb.typ = "code"
			// Lines() cover only the fence interior; the opening
			// fence sits one line above.
			if v.Lines().Len() > 0 && startLine > 0 {
				rb.startLine = startLine - 1
			}
		case *ast.CodeBlock:
			rb.typ = "code"
		case *ast.List:
			rb.typ = "list"
		}
		raws = append(raws, rb)
	}
	if len(raws) == 0 {
		return nil
	}

	var blocks []mdBlock
	section, subsection := "", ""
	for i, rb := range raws {
		startOff := lineStarts[rb.startLine]
		endOff := len(source)
		if i+1 < len(raws) {
			endOff = lineStarts[raws[i+1].startLine]
		}
		text := strings.TrimRight(string(source[startOff:endOff]), "\n ")
		if strings.TrimSpace(text) == "" {
			continue
		}

		if rb.typ == "header" {
			if rb.level <= 2 {
				section = rb.title
				subsection = ""
			} else {
				subsection = rb.title
			}
		}

		blocks = append(blocks, mdBlock{
			typ:        rb.typ,
			text:       text,
			lineStart:  rb.startLine + 1,
			lineEnd:    rb.startLine + 1 + strings.Count(text, "\n"),
			section:    section,
			subsection: subsection,
		})
	}
	return blocks
}

// lineOffsets returns the byte offset of each line start.
func lineOffsets(source []byte) []int {
	offsets := []int{0}
	for i, b := range source {
		if b == '\n' && i+1 < len(source) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// firstSegmentStart finds the byte offset of the first source segment
// owned by n or a descendant.
func firstSegmentStart(n ast.Node) (int, bool) {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start, true
	}
	if fc, ok := n.(*ast.FencedCodeBlock); ok && fc.Info != nil {
		return fc.Info.Segment.Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if start, ok := firstSegmentStart(c); ok {
			return start, true
		}
	}
	return 0, false
}

// segmentText concatenates a block node's own line segments.
func segmentText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for i := 0; i < n.Lines().Len(); i++ {
		seg := n.Lines().At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimSpace(sb.String())
}
