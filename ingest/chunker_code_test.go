package ingest

import (
	"errors"
	"strings"
	"testing"

	sift "github.com/halcyonworks/sift"
)

const sampleGoSource = `package main

import (
	"fmt"
	"strings"
)

func Greet(name string) string {
	return "hello " + name
}

func Shout(name string) string {
	return strings.ToUpper(fmt.Sprint(name))
}

type Server struct {
	addr string
}
`

func TestNewCodeChunkerValidation(t *testing.T) {
	_, err := NewCodeChunker(WithMaxChunkSize(-1))
	var cfgErr *sift.ErrConfig
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestCodeChunkGoUnits(t *testing.T) {
	cc, _ := NewCodeChunker()
	meta := sift.Metadata{sift.MetaFilePath: "cmd/main.go"}
	chunks := cc.Chunk(sampleGoSource, meta)

	byName := map[string]sift.Chunk{}
	for _, c := range chunks {
		if name, ok := c.Metadata[sift.MetaCodeUnitName].(string); ok {
			byName[name] = c
		}
	}

	greet, ok := byName["Greet"]
	if !ok {
		t.Fatalf("no chunk for Greet, got %v", byName)
	}
	if greet.Metadata[sift.MetaCodeUnitType] != "function" {
		t.Errorf("Greet unit type = %v", greet.Metadata[sift.MetaCodeUnitType])
	}
	if !strings.Contains(greet.Text, `return "hello " + name`) {
		t.Errorf("Greet body missing: %q", greet.Text)
	}

	server, ok := byName["Server"]
	if !ok {
		t.Fatal("no chunk for Server")
	}
	if server.Metadata[sift.MetaCodeUnitType] != "class" {
		t.Errorf("Server unit type = %v", server.Metadata[sift.MetaCodeUnitType])
	}

	for i, c := range chunks {
		if c.Metadata[sift.MetaChunkType] != "code" {
			t.Errorf("chunk %d chunk_type = %v", i, c.Metadata[sift.MetaChunkType])
		}
		if c.Metadata[sift.MetaLanguage] != "go" {
			t.Errorf("chunk %d language = %v", i, c.Metadata[sift.MetaLanguage])
		}
	}
}

func TestCodeChunkImportsPrepended(t *testing.T) {
	cc, _ := NewCodeChunker()
	chunks := cc.Chunk(sampleGoSource, sift.Metadata{sift.MetaFilePath: "main.go"})
	if len(chunks) < 3 {
		t.Fatalf("expected chunks per unit, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !strings.Contains(c.Text, "import (") || !strings.Contains(c.Text, `"fmt"`) {
			t.Errorf("chunk %d missing prepended imports: %q", i, c.Text)
		}
	}
}

func TestCodeChunkPreserveImportsOff(t *testing.T) {
	cc, _ := NewCodeChunker(WithPreserveImports(false))
	chunks := cc.Chunk(sampleGoSource, sift.Metadata{sift.MetaFilePath: "main.go"})
	for i, c := range chunks {
		if c.Metadata[sift.MetaCodeUnitName] == "Greet" && strings.Contains(c.Text, "import (") {
			t.Errorf("chunk %d carries imports with preservation off", i)
		}
	}
}

func TestCodeChunkPythonByMetadata(t *testing.T) {
	source := "import os\n\ndef read(path):\n    return os.open(path)\n\nclass Cache:\n    pass\n"
	cc, _ := NewCodeChunker()
	chunks := cc.Chunk(source, sift.Metadata{sift.MetaLanguage: "python"})

	var types, names []string
	for _, c := range chunks {
		types = append(types, c.Metadata.String(sift.MetaCodeUnitType))
		names = append(names, c.Metadata.String(sift.MetaCodeUnitName))
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 units, got %d (%v)", len(chunks), names)
	}
	if types[0] != "function" || names[0] != "read" {
		t.Errorf("unit 0 = %s %s", types[0], names[0])
	}
	if types[1] != "class" || names[1] != "Cache" {
		t.Errorf("unit 1 = %s %s", types[1], names[1])
	}
	if !strings.HasPrefix(chunks[0].Text, "import os") {
		t.Errorf("python imports not prepended: %q", chunks[0].Text)
	}
}

func TestCodeChunkUnknownLanguage(t *testing.T) {
	cc, _ := NewCodeChunker()
	chunks := cc.Chunk("PRINT \"HELLO\"\nGOTO 10\n", sift.Metadata{})
	if len(chunks) != 1 {
		t.Fatalf("unknown language should chunk whole, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Metadata[sift.MetaCodeUnitType] != "module" {
		t.Errorf("unit type = %v, want module", c.Metadata[sift.MetaCodeUnitType])
	}
	if _, ok := c.Metadata[sift.MetaLanguage]; ok {
		t.Error("unknown language should not set language metadata")
	}
}

func TestCodeChunkOversizedUnitSplit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("func Big() {\n")
	for i := 0; i < 40; i++ {
		sb.WriteString("\tdoSomethingWithALongStatement()\n")
	}
	sb.WriteString("}\n")

	cc, _ := NewCodeChunker(WithMaxChunkSize(300), WithPreserveImports(false))
	chunks := cc.Chunk(sb.String(), sift.Metadata{sift.MetaFilePath: "big.go"})
	if len(chunks) < 2 {
		t.Fatalf("oversized unit should split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if c.Metadata[sift.MetaCodeUnitName] != "Big" {
			t.Errorf("chunk %d lost unit name: %v", i, c.Metadata[sift.MetaCodeUnitName])
		}
	}
	if !strings.HasPrefix(chunks[0].Text, "func Big()") {
		t.Errorf("signature not in first piece: %q", chunks[0].Text)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		meta sift.Metadata
		want string
	}{
		{sift.Metadata{sift.MetaFilePath: "a/b.go"}, "go"},
		{sift.Metadata{sift.MetaFilePath: "a/b.rs"}, "rust"},
		{sift.Metadata{sift.MetaFilePath: "a/b.tsx"}, "javascript"},
		{sift.Metadata{sift.MetaLanguage: "typescript"}, "javascript"},
		{sift.Metadata{sift.MetaLanguage: "Python"}, "python"},
		{sift.Metadata{sift.MetaFilePath: "notes.txt"}, ""},
		{sift.Metadata{}, ""},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.meta); got != tt.want {
			t.Errorf("DetectLanguage(%v) = %q, want %q", tt.meta, got, tt.want)
		}
	}
}

func TestCodeChunkEmpty(t *testing.T) {
	cc, _ := NewCodeChunker()
	if got := cc.Chunk("  \n", sift.Metadata{sift.MetaFilePath: "a.go"}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
