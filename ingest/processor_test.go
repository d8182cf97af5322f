package ingest

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	sift "github.com/halcyonworks/sift"
)

func TestNewProcessorPropagatesConfigErrors(t *testing.T) {
	_, err := NewProcessor(WithChunkerOptions(WithChunkSize(-1)))
	var cfgErr *sift.ErrConfig
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestProcessEmptyDocument(t *testing.T) {
	p, _ := NewProcessor()
	chunks, err := p.Process(context.Background(), "   ", nil, "")
	if err != nil || chunks != nil {
		t.Errorf("empty document: chunks=%v err=%v", chunks, err)
	}
	if p.Stats().TotalDocuments != 0 {
		t.Error("empty documents should not count")
	}
}

func TestProcessEnrichment(t *testing.T) {
	p, _ := NewProcessor()
	chunks, err := p.Process(context.Background(), "Some plain text to chunk.", nil, StrategyRecursive)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	m := chunks[0].Metadata
	if m[sift.MetaChunkingStrategy] != StrategyRecursive {
		t.Errorf("chunking_strategy = %v", m[sift.MetaChunkingStrategy])
	}
	if m[sift.MetaCharCount] != len(chunks[0].Text) {
		t.Errorf("char_count = %v, want %d", m[sift.MetaCharCount], len(chunks[0].Text))
	}
	if m[sift.MetaWordCount] != 5 {
		t.Errorf("word_count = %v, want 5", m[sift.MetaWordCount])
	}
}

func TestProcessUnknownStrategyFallsBack(t *testing.T) {
	p, _ := NewProcessor()
	chunks, err := p.Process(context.Background(), "Some text.", nil, "bogus")
	if err != nil {
		t.Fatalf("unknown strategy should not fail: %v", err)
	}
	if chunks[0].Metadata[sift.MetaChunkingStrategy] != StrategyRecursive {
		t.Errorf("strategy = %v, want recursive fallback", chunks[0].Metadata[sift.MetaChunkingStrategy])
	}
}

func TestProcessAutoResolution(t *testing.T) {
	p, _ := NewProcessor(WithEmbedding(constantEmbedder{}))
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		meta sift.Metadata
		want string
	}{
		{"markdown by extension", "# Title\n\nBody.", sift.Metadata{sift.MetaFilePath: "readme.md"}, StrategyMarkdown},
		{"code by extension", "func main() {}\n", sift.Metadata{sift.MetaFilePath: "main.go"}, StrategyCode},
		{"code by language metadata", "def f():\n    pass\n", sift.Metadata{sift.MetaLanguage: "python"}, StrategyCode},
		{"prose to semantic", "One sentence here. Two sentences now. Three in total. And a fourth.", nil, StrategySemantic},
		{"fragment to recursive", "short fragment without sentences", nil, StrategyRecursive},
	}
	for _, tt := range tests {
		chunks, err := p.Process(ctx, tt.text, tt.meta, StrategyAuto)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got := chunks[0].Metadata[sift.MetaChunkingStrategy]; got != tt.want {
			t.Errorf("%s: strategy = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestProcessAutoWithoutEmbeddingSkipsSemantic(t *testing.T) {
	p, _ := NewProcessor()
	chunks, err := p.Process(context.Background(), "One sentence here. Two sentences now. Three in total. And a fourth.", nil, "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := chunks[0].Metadata[sift.MetaChunkingStrategy]; got != StrategyRecursive {
		t.Errorf("strategy = %v, want recursive without an embedder", got)
	}
}

func TestProcessDefaultStrategy(t *testing.T) {
	p, _ := NewProcessor(WithDefaultStrategy(StrategyRecursive))
	chunks, _ := p.Process(context.Background(), "# Looks like markdown\n\nBut the default wins.", sift.Metadata{sift.MetaFilePath: "readme.md"}, "")
	if got := chunks[0].Metadata[sift.MetaChunkingStrategy]; got != StrategyRecursive {
		t.Errorf("strategy = %v, want configured default", got)
	}
}

func TestProcessStats(t *testing.T) {
	p, _ := NewProcessor()
	ctx := context.Background()

	p.Process(ctx, "First document text.", nil, StrategyRecursive)
	p.Process(ctx, "# Second\n\nMarkdown document.", nil, StrategyMarkdown)
	p.Process(ctx, "Third document text.", nil, StrategyRecursive)

	s := p.Stats()
	if s.TotalDocuments != 3 {
		t.Errorf("total_documents = %d, want 3", s.TotalDocuments)
	}
	if s.TotalChunks < 3 {
		t.Errorf("total_chunks = %d, want >= 3", s.TotalChunks)
	}
	if s.TotalBytes == 0 {
		t.Error("total_bytes not accumulated")
	}
	if s.StrategyCounts[StrategyRecursive] != 2 || s.StrategyCounts[StrategyMarkdown] != 1 {
		t.Errorf("strategy_counts = %v", s.StrategyCounts)
	}

	// Mutating the snapshot must not affect the processor.
	s.StrategyCounts[StrategyRecursive] = 99
	if p.Stats().StrategyCounts[StrategyRecursive] != 2 {
		t.Error("stats snapshot shares state with the processor")
	}

	p.ResetStats()
	s = p.Stats()
	if s.TotalDocuments != 0 || len(s.StrategyCounts) != 0 {
		t.Errorf("reset left counters: %+v", s)
	}
}

func TestProcessStatsConcurrent(t *testing.T) {
	p, _ := NewProcessor()
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Process(ctx, "Concurrent document text.", nil, StrategyRecursive); err != nil {
				t.Errorf("process: %v", err)
			}
		}()
	}
	wg.Wait()

	s := p.Stats()
	if s.TotalDocuments != n {
		t.Errorf("total_documents = %d, want %d", s.TotalDocuments, n)
	}
	if s.StrategyCounts[StrategyRecursive] != n {
		t.Errorf("strategy_counts[recursive] = %d, want %d", s.StrategyCounts[StrategyRecursive], n)
	}
	if s.TotalChunks < n {
		t.Errorf("total_chunks = %d, want >= %d", s.TotalChunks, n)
	}
}

func TestProcessBatch(t *testing.T) {
	p, _ := NewProcessor()
	docs := []Document{
		{Text: "First document body.", Metadata: sift.Metadata{sift.MetaParentDocID: "a"}},
		{Text: "# Second\n\nMarkdown body.", Strategy: StrategyMarkdown},
	}
	chunks, err := p.ProcessBatch(context.Background(), docs)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected chunks from both documents, got %d", len(chunks))
	}
	if chunks[0].Metadata[sift.MetaChunkingStrategy] != StrategyRecursive {
		t.Errorf("doc 0 strategy = %v", chunks[0].Metadata[sift.MetaChunkingStrategy])
	}
	last := chunks[len(chunks)-1]
	if last.Metadata[sift.MetaChunkingStrategy] != StrategyMarkdown {
		t.Errorf("doc 1 strategy = %v", last.Metadata[sift.MetaChunkingStrategy])
	}
}

// failingChunker always errors through the context-aware path.
type failingChunker struct{}

func (failingChunker) Chunk(string, sift.Metadata) []sift.Chunk { return nil }

func (failingChunker) ChunkContext(context.Context, string, sift.Metadata) ([]sift.Chunk, error) {
	return nil, errors.New("chunker exploded")
}

func TestProcessBatchErrorNamesDocument(t *testing.T) {
	p, _ := NewProcessor(WithChunker("boom", failingChunker{}))
	docs := []Document{
		{Text: "fine document"},
		{Text: "broken document", Strategy: "boom"},
	}
	_, err := p.ProcessBatch(context.Background(), docs)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "document 1") {
		t.Errorf("error should name the failing document: %v", err)
	}
}

func TestProcessFile(t *testing.T) {
	p, _ := NewProcessor()
	chunks, err := p.ProcessFile(context.Background(), []byte("Plain file content for chunking."), "notes.txt", nil)
	if err != nil {
		t.Fatalf("process file: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata[sift.MetaFilePath] != "notes.txt" {
		t.Errorf("file_path = %v", chunks[0].Metadata[sift.MetaFilePath])
	}
}

func TestProcessFileRoutesMarkdown(t *testing.T) {
	p, _ := NewProcessor()
	chunks, err := p.ProcessFile(context.Background(), []byte("# Title\n\nBody text.\n"), "guide.md", nil)
	if err != nil {
		t.Fatalf("process file: %v", err)
	}
	if got := chunks[0].Metadata[sift.MetaChunkingStrategy]; got != StrategyMarkdown {
		t.Errorf("strategy = %v, want markdown", got)
	}
}

func TestProcessIdempotent(t *testing.T) {
	p, _ := NewProcessor()
	ctx := context.Background()
	text := "First paragraph of the document.\n\nSecond paragraph follows here.\n\nThird paragraph closes it."

	a, err := p.Process(ctx, text, nil, StrategyRecursive)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := p.Process(ctx, text, nil, StrategyRecursive)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("runs disagree on chunk count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Text != b[i].Text {
			t.Errorf("chunk %d text differs between runs", i)
		}
		if !reflect.DeepEqual(a[i].Metadata, b[i].Metadata) {
			t.Errorf("chunk %d metadata differs: %v vs %v", i, a[i].Metadata, b[i].Metadata)
		}
	}
}

func TestProcessFileKeepsExplicitFilePath(t *testing.T) {
	p, _ := NewProcessor()
	meta := sift.Metadata{sift.MetaFilePath: "original/location.txt"}
	chunks, err := p.ProcessFile(context.Background(), []byte("content"), "upload.txt", meta)
	if err != nil {
		t.Fatalf("process file: %v", err)
	}
	if chunks[0].Metadata[sift.MetaFilePath] != "original/location.txt" {
		t.Errorf("file_path = %v, caller value should win", chunks[0].Metadata[sift.MetaFilePath])
	}
}
