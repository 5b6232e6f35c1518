package language

import (
	"sort"
	"strings"
	"unicode"
)

// Scanner finds deterministic language markers (structured identifiers and
// keyword cues) in raw text. Scanning is a pure function of the input: no
// state, no side effects, and a non-match simply yields no hints.
type Scanner struct {
	patterns []PatternRule
	keywords []KeywordRule
}

// NewScanner creates a scanner over the given rule sets. Rule order is
// preserved and used as the tie-breaker when priorities are equal.
func NewScanner(patterns []PatternRule, keywords []KeywordRule) *Scanner {
	return &Scanner{patterns: patterns, keywords: keywords}
}

// Scan returns all hints found in text, ordered by ascending priority.
// Length of the input is irrelevant here: structured identifiers are
// unambiguous markers even in very short fragments.
func (s *Scanner) Scan(text string) []EntityHint {
	if text == "" {
		return nil
	}

	var hints []EntityHint
	seen := make(map[string]bool)

	for _, rule := range s.patterns {
		matches := rule.Pattern.FindAllString(text, -1)
		for _, m := range matches {
			if rule.Validate != nil && !rule.Validate(m) {
				continue
			}
			if seen[rule.Name] {
				continue
			}
			seen[rule.Name] = true
			hints = append(hints, EntityHint{
				Tag:      rule.Name,
				Category: rule.Category,
				Language: rule.Language,
				Priority: rule.Priority,
			})
		}
	}

	if len(s.keywords) > 0 {
		tokens := tokenize(text)
		for _, kw := range s.keywords {
			tag := "keyword:" + kw.Keyword
			if seen[tag] {
				continue
			}
			if tokens[strings.ToLower(kw.Keyword)] {
				seen[tag] = true
				hints = append(hints, EntityHint{
					Tag:      tag,
					Category: "keyword",
					Language: kw.Language,
					Priority: kw.Priority,
				})
			}
		}
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return hints[i].Priority < hints[j].Priority
	})
	return hints
}

// tokenize splits text into lowercase tokens on non-letter, non-digit runes.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[strings.ToLower(tok)] = true
	}
	return tokens
}

// isNumericOnly reports whether text consists solely of digits and common
// digit separators. Statistical classification is meaningless on such input.
func isNumericOnly(text string) bool {
	if text == "" {
		return false
	}
	hasDigit := false
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == ' ' || r == '-' || r == '.' || r == ',' || r == '+' || r == '/':
		default:
			return false
		}
	}
	return hasDigit
}
