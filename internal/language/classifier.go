package language

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/pemistahl/lingua-go"
)

// Classifier produces ranked language candidates from raw text. An empty
// slice means "no statistical signal" and is never an error: empty, purely
// numeric or otherwise degenerate input yields no candidates.
type Classifier interface {
	Classify(text string) []Candidate
	Languages() []string
}

// NgramClassifier wraps the lingua character-n-gram model. The underlying
// model is deterministic for a given language set, which the cache and the
// reproducibility tests rely on.
type NgramClassifier struct {
	detector lingua.LanguageDetector
	codes    []string
}

// Ensure NgramClassifier implements the interface
var _ Classifier = (*NgramClassifier)(nil)

// NewNgramClassifier builds a classifier over the given ISO 639-1 codes.
// An empty list enables every language the model supports.
func NewNgramClassifier(codes []string) (*NgramClassifier, error) {
	supported := make(map[string]lingua.Language)
	for _, l := range lingua.AllLanguages() {
		supported[strings.ToLower(l.IsoCode639_1().String())] = l
	}

	var langs []lingua.Language
	var resolved []string
	if len(codes) == 0 {
		langs = lingua.AllLanguages()
		for code := range supported {
			resolved = append(resolved, code)
		}
		sort.Strings(resolved)
	} else {
		for _, code := range codes {
			l, ok := supported[strings.ToLower(code)]
			if !ok {
				return nil, fmt.Errorf("unsupported language code: %s", code)
			}
			langs = append(langs, l)
			resolved = append(resolved, strings.ToLower(code))
		}
		if len(langs) < 2 {
			return nil, fmt.Errorf("classifier needs at least 2 languages, got %d", len(langs))
		}
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		WithPreloadedLanguageModels().
		Build()

	return &NgramClassifier{detector: detector, codes: resolved}, nil
}

// Classify returns candidates in descending probability order. Input with
// no letters produces no candidates rather than a low-confidence guess.
func (c *NgramClassifier) Classify(text string) []Candidate {
	if !hasLetters(text) {
		return nil
	}

	values := c.detector.ComputeLanguageConfidenceValues(text)
	candidates := make([]Candidate, 0, len(values))
	for _, v := range values {
		if v.Value() <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Language:    strings.ToLower(v.Language().IsoCode639_1().String()),
			Probability: v.Value(),
		})
	}
	return candidates
}

// Languages returns the ISO 639-1 codes the classifier was built with.
func (c *NgramClassifier) Languages() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

func hasLetters(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
