package sift

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"
)

// questionWords are the leading tokens that mark a query as a question.
var questionWords = map[string]bool{
	"what": true, "how": true, "why": true, "when": true,
	"where": true, "who": true, "which": true,
}

// stopwords excluded from keywords when stopword removal is enabled.
// All lowercase for case-insensitive matching.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"am": true, "do": true, "does": true, "did": true, "will": true,
	"would": true, "could": true, "should": true, "can": true, "may": true,
	"might": true, "must": true, "shall": true, "have": true, "has": true,
	"had": true, "of": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "with": true, "by": true, "from": true,
	"about": true, "into": true, "over": true, "under": true, "and": true,
	"or": true, "but": true, "not": true, "no": true, "nor": true,
	"so": true, "if": true, "then": true, "than": true, "as": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"those": true, "there": true, "here": true, "i": true, "you": true,
	"he": true, "she": true, "we": true, "they": true, "me": true,
	"my": true, "your": true, "his": true, "her": true, "our": true,
	"their": true, "them": true, "us": true, "show": true, "find": true,
	"give": true, "get": true, "tell": true, "please": true, "all": true,
	"any": true, "some": true, "results": true,
}

// negationRe matches exclusion phrasing: "not about X", "except X",
// "without X", "excluding X". The captured term moves from keywords to
// negations.
var negationRe = regexp.MustCompile(`(?i)\b(?:not\s+about|except\s+for|except|without|excluding)\s+([\p{L}\p{N}_-]+)`)

// yearRe matches explicit four-digit years.
var yearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// relativeDateRe matches relative date expressions.
var relativeDateRe = regexp.MustCompile(`(?i)\b(last|this|past|next)\s+(year|month|week|day|quarter)s?\b|\b(today|yesterday|tomorrow)\b`)

// explicitDateRe matches date-like spans handed to dateparse for
// normalization, e.g. "2024-03-01", "March 5, 2024", "March 2024".
var explicitDateRe = regexp.MustCompile(`(?i)\b(\d{4}-\d{2}-\d{2}|(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+(?:\d{1,2},?\s+)?\d{4})\b`)

// QueryReformulator turns a raw query into a structured analysis:
// question intent, keywords, negated terms, date expressions, and
// (optionally) named entities. It holds no mutable state and is safe
// for concurrent use.
type QueryReformulator struct {
	removeStopwords bool
	extractDates    bool
	useNER          bool
	ner             EntityRecognizer
}

// ReformulatorOption configures a QueryReformulator.
type ReformulatorOption func(*QueryReformulator)

// WithStopwordRemoval toggles stopword filtering of keywords (default on).
func WithStopwordRemoval(on bool) ReformulatorOption {
	return func(r *QueryReformulator) { r.removeStopwords = on }
}

// WithDateExtraction toggles date range extraction (default on).
func WithDateExtraction(on bool) ReformulatorOption {
	return func(r *QueryReformulator) { r.extractDates = on }
}

// WithEntityRecognizer enables entity extraction via the given
// recognizer. The recognizer's availability is probed per call; when
// unavailable, entities stay empty and the call still succeeds.
func WithEntityRecognizer(ner EntityRecognizer) ReformulatorOption {
	return func(r *QueryReformulator) {
		r.useNER = true
		r.ner = ner
	}
}

// NewQueryReformulator creates a reformulator with stopword removal and
// date extraction enabled and no entity recognizer.
func NewQueryReformulator(opts ...ReformulatorOption) *QueryReformulator {
	r := &QueryReformulator{
		removeStopwords: true,
		extractDates:    true,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Reformulate analyzes a raw query. An empty or whitespace-only query
// yields an all-default result.
func (r *QueryReformulator) Reformulate(ctx context.Context, query string) ReformulationResult {
	res := ReformulationResult{
		OriginalQuery: query,
		Keywords:      []string{},
		Entities:      map[string]string{},
		Negations:     []string{},
		DateRanges:    []string{},
	}

	normalized := strings.TrimSpace(norm.NFKC.String(query))
	if normalized == "" {
		return res
	}
	lower := strings.ToLower(normalized)

	tokens := tokenize(lower)
	if len(tokens) == 0 {
		return res
	}

	// Question detection: trailing "?" or a leading question word.
	if questionWords[tokens[0]] {
		res.IsQuestion = true
		res.QuestionType = tokens[0]
	} else if strings.HasSuffix(normalized, "?") {
		res.IsQuestion = true
	}

	excluded := make(map[string]bool)

	// Negations: matched terms are excluded from keywords.
	for _, m := range negationRe.FindAllStringSubmatch(lower, -1) {
		term := m[1]
		if !contains(res.Negations, term) {
			res.Negations = append(res.Negations, term)
		}
		excluded[term] = true
	}

	if r.extractDates {
		res.DateRanges = extractDateRanges(lower, excluded)
	}

	if res.QuestionType != "" {
		excluded[res.QuestionType] = true
	}

	// Keywords: remaining tokens in original relative order, deduplicated.
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if excluded[tok] || seen[tok] {
			continue
		}
		if r.removeStopwords && stopwords[tok] {
			continue
		}
		seen[tok] = true
		res.Keywords = append(res.Keywords, tok)
	}
	res.ReformulatedQuery = strings.Join(res.Keywords, " ")

	if r.useNER && r.ner != nil && r.ner.IsAvailable() {
		if entities, err := r.ner.ExtractEntities(ctx, normalized); err == nil {
			for text, typ := range entities {
				res.Entities[text] = typ
			}
		}
	}

	return res
}

// tokenize splits lowercased text into letter/digit runs, keeping
// intra-word hyphens and underscores.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '_'
	})
}

// extractDateRanges collects normalized date expressions from the query
// and marks their source tokens as excluded from keywords.
func extractDateRanges(lower string, excluded map[string]bool) []string {
	dates := []string{}

	// Explicit dates first — dateparse normalizes them to ISO days.
	for _, m := range explicitDateRe.FindAllString(lower, -1) {
		t, err := dateparse.ParseAny(m)
		if err != nil {
			continue
		}
		entry := t.Format("2006-01-02")
		if !contains(dates, entry) {
			dates = append(dates, entry)
		}
		for _, tok := range tokenize(m) {
			excluded[tok] = true
		}
		// The year inside an explicit date is already covered by it.
		for _, yr := range yearRe.FindAllString(m, -1) {
			excluded[yr] = true
		}
	}

	for _, m := range yearRe.FindAllString(lower, -1) {
		if excluded[m] {
			continue
		}
		if !contains(dates, m) {
			dates = append(dates, m)
		}
		excluded[m] = true
	}

	for _, m := range relativeDateRe.FindAllString(lower, -1) {
		entry := strings.Join(strings.Fields(strings.ToLower(m)), "_")
		entry = strings.TrimSuffix(entry, "s")
		if !contains(dates, entry) {
			dates = append(dates, entry)
		}
		for _, tok := range tokenize(m) {
			excluded[tok] = true
		}
	}

	return dates
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
