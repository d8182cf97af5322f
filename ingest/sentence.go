package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations that should NOT be treated as sentence boundaries.
// A finite exception list keeps segmentation deterministic and fast.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "st": true,
	"prof": true, "sr": true, "jr": true, "rev": true, "hon": true,
	"ph.d": true, "m.d": true, "b.a": true, "m.a": true, "b.sc": true,
	"vs": true, "etc": true, "inc": true, "ltd": true, "co": true,
	"e.g": true, "i.e": true, "viz": true, "al": true, "cf": true,
	"approx": true, "dept": true, "est": true,
	"fig": true, "no": true, "vol": true, "pp": true,
}

// isAbbreviation checks if the text ending at position dotPos (the '.')
// is a known abbreviation.
func isAbbreviation(text string, dotPos int) bool {
	// Walk backward to find the start of the word before the dot.
	start := dotPos
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		start -= size
	}
	word := strings.ToLower(strings.TrimSuffix(text[start:dotPos], "."))
	return abbreviations[word] || abbreviations[strings.ToLower(text[start:dotPos])]
}

// isDecimalDot checks if the dot at dotPos is part of a number (3.14, $1.50).
func isDecimalDot(text string, dotPos int) bool {
	if dotPos == 0 || dotPos+1 >= len(text) {
		return false
	}
	prevByte := text[dotPos-1]
	nextByte := text[dotPos+1]
	return prevByte >= '0' && prevByte <= '9' && nextByte >= '0' && nextByte <= '9'
}

// findSentenceBoundaries returns byte positions suitable for splitting
// text at sentence boundaries. Handles ASCII punctuation (.!?) with
// abbreviation and decimal number awareness, plus CJK sentence-ending
// punctuation (。！？).
func findSentenceBoundaries(text string) []int {
	var boundaries []int
	runes := []rune(text)
	n := len(runes)

	byteOffsets := make([]int, n+1)
	off := 0
	for i, r := range runes {
		byteOffsets[i] = off
		off += utf8.RuneLen(r)
	}
	byteOffsets[n] = off

	for i := 0; i < n; i++ {
		r := runes[i]

		// CJK sentence-ending punctuation is always a boundary after.
		if r == '。' || r == '！' || r == '？' {
			boundaries = append(boundaries, byteOffsets[i+1])
			continue
		}

		if r != '.' && r != '!' && r != '?' {
			continue
		}

		dotBytePos := byteOffsets[i]

		if r == '.' && isDecimalDot(text, dotBytePos) {
			continue
		}
		if r == '.' && isAbbreviation(text, dotBytePos) {
			continue
		}

		// Need whitespace or newline after punctuation.
		if i+1 < n && (runes[i+1] == ' ' || runes[i+1] == '\n') {
			if runes[i+1] == '\n' {
				boundaries = append(boundaries, byteOffsets[i+1])
			} else if i+2 < n && unicode.IsUpper(runes[i+2]) {
				boundaries = append(boundaries, byteOffsets[i+2])
			} else if i+2 >= n {
				boundaries = append(boundaries, byteOffsets[n])
			}
		} else if i+1 >= n {
			boundaries = append(boundaries, byteOffsets[n])
		}
	}
	return boundaries
}

// splitSentences splits text into sentences using the same boundary
// detection as the recursive chunker. Falls back to splitting on ". "
// if no boundaries are found.
func splitSentences(text string) []string {
	boundaries := findSentenceBoundaries(text)
	if len(boundaries) == 0 {
		parts := strings.Split(text, ". ")
		var out []string
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if i < len(parts)-1 || strings.HasSuffix(text, ". ") {
				p += "."
			}
			out = append(out, p)
		}
		if len(out) == 0 {
			return []string{strings.TrimSpace(text)}
		}
		return out
	}

	var sentences []string
	start := 0
	for _, b := range boundaries {
		if s := strings.TrimSpace(text[start:b]); s != "" {
			sentences = append(sentences, s)
		}
		start = b
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
