package quiz

import "strings"

// Extractor pulls a candidate JSON array out of raw model text.
type Extractor func(raw string) (string, error)

// Extractor names accepted by ExtractorByName.
const (
	ExtractorBalanced = "balanced"
	ExtractorGreedy   = "greedy"
)

// IsValidExtractor reports whether name selects a known extractor.
func IsValidExtractor(name string) bool {
	switch strings.ToLower(name) {
	case ExtractorBalanced, ExtractorGreedy:
		return true
	}
	return false
}

// ExtractorByName returns the extractor registered under name.
// Unknown names get ExtractBalanced.
func ExtractorByName(name string) Extractor {
	if strings.EqualFold(name, ExtractorGreedy) {
		return ExtractGreedy
	}
	return ExtractBalanced
}

// ExtractGreedy returns everything from the first '[' to the last ']'.
// Brackets in surrounding prose make it over-match.
func ExtractGreedy(raw string) (string, error) {
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start < 0 || end < start {
		return "", &ExtractError{Raw: raw}
	}
	return raw[start : end+1], nil
}

// ExtractBalanced returns the array that opens at the first '[' and ends
// where its depth returns to zero. Brackets inside JSON string literals are
// not counted. An array that never closes is reported as not found.
func ExtractBalanced(raw string) (string, error) {
	start := strings.IndexByte(raw, '[')
	if start < 0 {
		return "", &ExtractError{Raw: raw}
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", &ExtractError{Raw: raw}
}
