// Package config loads sift settings: defaults, then a TOML file, then
// environment overrides (env wins). Builders turn a Config into ready
// components, surfacing construction-time configuration errors
// unchanged.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	sift "github.com/halcyonworks/sift"
	"github.com/halcyonworks/sift/ingest"
)

type Config struct {
	Chunking     ChunkingConfig     `toml:"chunking"`
	Reformulator ReformulatorConfig `toml:"reformulator"`
	Rerank       RerankConfig       `toml:"rerank"`
}

type ChunkingConfig struct {
	DefaultStrategy     string  `toml:"default_strategy"`
	ChunkSize           int     `toml:"chunk_size"`
	ChunkOverlap        int     `toml:"chunk_overlap"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MinSentences        int     `toml:"min_sentences"`
	MaxSentences        int     `toml:"max_sentences"`
	MaxChunkSize        int     `toml:"max_chunk_size"`
	PreserveHeaders     bool    `toml:"preserve_headers"`
	PreserveImports     bool    `toml:"preserve_imports"`
}

type ReformulatorConfig struct {
	RemoveStopwords bool `toml:"remove_stopwords"`
	ExtractDates    bool `toml:"extract_dates"`
	UseNER          bool `toml:"use_ner"`
}

type RerankConfig struct {
	Diversity float64 `toml:"diversity"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Chunking: ChunkingConfig{
			DefaultStrategy:     ingest.StrategyAuto,
			ChunkSize:           1000,
			ChunkOverlap:        200,
			SimilarityThreshold: 0.7,
			MinSentences:        2,
			MaxSentences:        10,
			MaxChunkSize:        1500,
			PreserveHeaders:     true,
			PreserveImports:     true,
		},
		Reformulator: ReformulatorConfig{
			RemoveStopwords: true,
			ExtractDates:    true,
		},
		Rerank: RerankConfig{Diversity: 0.7},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "sift.toml"
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("SIFT_CHUNK_STRATEGY"); v != "" {
		cfg.Chunking.DefaultStrategy = v
	}
	if v, ok := envInt("SIFT_CHUNK_SIZE"); ok {
		cfg.Chunking.ChunkSize = v
	}
	if v, ok := envInt("SIFT_CHUNK_OVERLAP"); ok {
		cfg.Chunking.ChunkOverlap = v
	}
	if v, ok := envFloat("SIFT_SIMILARITY_THRESHOLD"); ok {
		cfg.Chunking.SimilarityThreshold = v
	}
	if v, ok := envFloat("SIFT_RERANK_DIVERSITY"); ok {
		cfg.Rerank.Diversity = v
	}
	if v := os.Getenv("SIFT_USE_NER"); v == "true" || v == "1" {
		cfg.Reformulator.UseNER = true
	}

	return cfg
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// BuildProcessor constructs a chunking Processor from the config. The
// embedding provider may be nil; the semantic strategy then degrades to
// recursive.
func (c Config) BuildProcessor(embedding sift.EmbeddingProvider) (*ingest.Processor, error) {
	opts := []ingest.ProcessorOption{
		ingest.WithDefaultStrategy(c.Chunking.DefaultStrategy),
		ingest.WithChunkerOptions(
			ingest.WithChunkSize(c.Chunking.ChunkSize),
			ingest.WithChunkOverlap(c.Chunking.ChunkOverlap),
			ingest.WithSimilarityThreshold(c.Chunking.SimilarityThreshold),
			ingest.WithMinSentences(c.Chunking.MinSentences),
			ingest.WithMaxSentences(c.Chunking.MaxSentences),
			ingest.WithMaxChunkSize(c.Chunking.MaxChunkSize),
			ingest.WithPreserveHeaders(c.Chunking.PreserveHeaders),
			ingest.WithPreserveImports(c.Chunking.PreserveImports),
		),
	}
	if embedding != nil {
		opts = append(opts, ingest.WithEmbedding(embedding))
	}
	return ingest.NewProcessor(opts...)
}

// BuildReformulator constructs a QueryReformulator from the config.
// The recognizer is optional and only used when use_ner is set.
func (c Config) BuildReformulator(ner sift.EntityRecognizer) *sift.QueryReformulator {
	opts := []sift.ReformulatorOption{
		sift.WithStopwordRemoval(c.Reformulator.RemoveStopwords),
		sift.WithDateExtraction(c.Reformulator.ExtractDates),
	}
	if c.Reformulator.UseNER && ner != nil {
		opts = append(opts, sift.WithEntityRecognizer(ner))
	}
	return sift.NewQueryReformulator(opts...)
}

// BuildReranker constructs an MMRReranker from the config.
func (c Config) BuildReranker(factory sift.EmbeddingFactory) (*sift.MMRReranker, error) {
	var opts []sift.RerankerOption
	if factory != nil {
		opts = append(opts, sift.WithEmbeddingFactory(factory))
	}
	return sift.NewMMRReranker(c.Rerank.Diversity, opts...)
}
