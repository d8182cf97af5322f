package ingest

import (
	"path/filepath"
	"regexp"
	"strings"

	sift "github.com/halcyonworks/sift"
)

// unitPattern recognizes the start of one kind of top-level syntactic
// unit. The first capture group is the unit name.
type unitPattern struct {
	re  *regexp.Regexp
	typ string
}

// codeLanguage describes the syntactic markers of one supported
// language.
type codeLanguage struct {
	name     string
	units    []unitPattern
	importRe *regexp.Regexp
}

var codeLanguages = map[string]*codeLanguage{
	"go": {
		name: "go",
		units: []unitPattern{
			{regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)`), "function"},
			{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+(?:struct|interface)\b`), "class"},
		},
		importRe: regexp.MustCompile(`^import\b`),
	},
	"python": {
		name: "python",
		units: []unitPattern{
			{regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)`), "function"},
			{regexp.MustCompile(`^class\s+([A-Za-z_]\w*)`), "class"},
		},
		importRe: regexp.MustCompile(`^(?:import|from)\s`),
	},
	"javascript": {
		name: "javascript",
		units: []unitPattern{
			{regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`), "function"},
			{regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][\w$]*)`), "class"},
			{regexp.MustCompile(`^(?:export\s+)?const\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?(?:\(|[\w$]+\s*=>)`), "function"},
		},
		importRe: regexp.MustCompile(`^(?:import\s|const\s+.*=\s*require\()`),
	},
	"java": {
		name: "java",
		units: []unitPattern{
			{regexp.MustCompile(`^(?:public\s+|protected\s+|private\s+|abstract\s+|final\s+|static\s+)*(?:class|interface|enum|record)\s+([A-Za-z_]\w*)`), "class"},
		},
		importRe: regexp.MustCompile(`^import\s`),
	},
	"rust": {
		name: "rust",
		units: []unitPattern{
			{regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+([A-Za-z_]\w*)`), "function"},
			{regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+([A-Za-z_]\w*)`), "class"},
			{regexp.MustCompile(`^impl\b.*?\b([A-Za-z_]\w*)`), "class"},
		},
		importRe: regexp.MustCompile(`^(?:use\s|extern\s+crate\s)`),
	},
	"c": {
		name: "c",
		units: []unitPattern{
			{regexp.MustCompile(`^[A-Za-z_][\w\s\*]*?\b([A-Za-z_]\w*)\s*\([^;]*$`), "function"},
			{regexp.MustCompile(`^(?:typedef\s+)?(?:struct|enum|union)\s+([A-Za-z_]\w*)`), "class"},
		},
		importRe: regexp.MustCompile(`^#include\b`),
	},
	"ruby": {
		name: "ruby",
		units: []unitPattern{
			{regexp.MustCompile(`^def\s+([A-Za-z_]\w*[?!]?)`), "function"},
			{regexp.MustCompile(`^(?:class|module)\s+([A-Za-z_]\w*)`), "class"},
		},
		importRe: regexp.MustCompile(`^require\b`),
	},
}

// languageByExtension maps file extensions to supported languages.
var languageByExtension = map[string]string{
	".go": "go", ".py": "python",
	".js": "javascript", ".jsx": "javascript", ".mjs": "javascript",
	".ts": "javascript", ".tsx": "javascript",
	".java": "java", ".rs": "rust",
	".c": "c", ".h": "c", ".cpp": "c", ".cc": "c", ".hpp": "c",
	".rb": "ruby",
}

// CodeChunker splits source code at top-level function and class
// boundaries detected from language-specific syntactic markers. Units
// exceeding the size limit are re-split line-aware, keeping signatures
// with their bodies. Leading imports can be prepended to every chunk so
// each is self-contained.
type CodeChunker struct {
	cfg chunkerConfig
}

var _ Chunker = (*CodeChunker)(nil)

// NewCodeChunker validates max_chunk_size > 0.
func NewCodeChunker(opts ...ChunkerOption) (*CodeChunker, error) {
	cfg := defaultChunkerConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxChunkSize <= 0 {
		return nil, &sift.ErrConfig{Option: "max_chunk_size", Reason: "must be positive"}
	}
	return &CodeChunker{cfg: cfg}, nil
}

// DetectLanguage resolves the target language from a language metadata
// value or a file path extension. Empty string when unsupported.
func DetectLanguage(meta sift.Metadata) string {
	if lang := strings.ToLower(meta.String(sift.MetaLanguage)); lang != "" {
		if _, ok := codeLanguages[lang]; ok {
			return lang
		}
		if lang == "typescript" {
			return "javascript"
		}
	}
	ext := strings.ToLower(filepath.Ext(meta.String(sift.MetaFilePath)))
	return languageByExtension[ext]
}

type codeUnit struct {
	typ  string // function, class, module
	name string
	text string
}

// Chunk splits code into one chunk per detected unit.
func (cc *CodeChunker) Chunk(text string, meta sift.Metadata) []sift.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	langName := DetectLanguage(meta)
	lang := codeLanguages[langName]

	var imports string
	var units []codeUnit
	if lang == nil {
		// Unknown language: the whole file is one unit, size rules
		// still apply.
		units = []codeUnit{{typ: "module", text: strings.TrimRight(text, "\n")}}
	} else {
		imports, units = splitUnits(text, lang)
	}

	var texts []string
	var outUnits []codeUnit
	for _, u := range units {
		pieces := []string{u.text}
		if len(u.text) > cc.cfg.maxChunkSize {
			pieces = splitLinesBounded(u.text, cc.cfg.maxChunkSize)
		}
		for _, p := range pieces {
			if cc.cfg.preserveImports && imports != "" {
				p = imports + "\n\n" + p
			}
			texts = append(texts, p)
			outUnits = append(outUnits, u)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	chunks := assemble(texts, meta, "code")
	for i := range chunks {
		m := chunks[i].Metadata
		m[sift.MetaCodeUnitType] = outUnits[i].typ
		if outUnits[i].name != "" {
			m[sift.MetaCodeUnitName] = outUnits[i].name
		}
		if langName != "" {
			m[sift.MetaLanguage] = langName
		}
	}
	return chunks
}

// splitUnits separates leading imports, a preamble, and the top-level
// units of the file. Unit boundaries are marker matches at column zero;
// everything up to the next marker belongs to the current unit.
func splitUnits(text string, lang *codeLanguage) (string, []codeUnit) {
	lines := strings.Split(text, "\n")

	type boundary struct {
		line int
		typ  string
		name string
	}
	var bounds []boundary
	for i, line := range lines {
		for _, p := range lang.units {
			if m := p.re.FindStringSubmatch(line); m != nil {
				bounds = append(bounds, boundary{line: i, typ: p.typ, name: m[len(m)-1]})
				break
			}
		}
	}

	preambleEnd := len(lines)
	if len(bounds) > 0 {
		preambleEnd = bounds[0].line
	}
	imports, preamble := extractImports(lines[:preambleEnd], lang)

	var units []codeUnit
	if strings.TrimSpace(preamble) != "" {
		units = append(units, codeUnit{typ: "module", text: preamble})
	}
	for i, b := range bounds {
		end := len(lines)
		if i+1 < len(bounds) {
			end = bounds[i+1].line
		}
		unitText := strings.TrimRight(strings.Join(lines[b.line:end], "\n"), "\n ")
		if strings.TrimSpace(unitText) == "" {
			continue
		}
		units = append(units, codeUnit{typ: b.typ, name: b.name, text: unitText})
	}
	return imports, units
}

// extractImports pulls import/include statements out of the preamble,
// returning them and the remaining preamble text. Parenthesized Go
// import blocks are kept whole.
func extractImports(lines []string, lang *codeLanguage) (string, string) {
	var importLines, rest []string
	inBlock := false
	for _, line := range lines {
		switch {
		case inBlock:
			importLines = append(importLines, line)
			if strings.TrimSpace(line) == ")" {
				inBlock = false
			}
		case lang.importRe.MatchString(line):
			importLines = append(importLines, line)
			if strings.HasSuffix(strings.TrimSpace(line), "(") {
				inBlock = true
			}
		default:
			rest = append(rest, line)
		}
	}
	imports := strings.TrimSpace(strings.Join(importLines, "\n"))
	preamble := strings.TrimRight(strings.Join(rest, "\n"), "\n ")
	return imports, preamble
}

// splitLinesBounded splits text at line boundaries into pieces no
// larger than maxChars, except single lines that already exceed it.
// The first piece keeps the unit signature with as much body as fits.
func splitLinesBounded(text string, maxChars int) []string {
	lines := strings.Split(text, "\n")
	var pieces []string
	var current strings.Builder

	for _, line := range lines {
		needed := len(line)
		if current.Len() > 0 {
			needed += current.Len() + 1
		}
		if current.Len() > 0 && needed > maxChars {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}
