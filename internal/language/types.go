package language

import "regexp"

// Method indicates how a detection result was produced
type Method string

const (
	// MethodEntityHint indicates a result derived from a structured identifier or keyword cue
	MethodEntityHint Method = "entity-hint-based"
	// MethodStatistical indicates a result derived from the n-gram classifier
	MethodStatistical Method = "statistical"
	// MethodFallback indicates the configured default language was used
	MethodFallback Method = "default-fallback"
)

// Request represents a single detection request
type Request struct {
	Text     string `json:"text"`
	Detailed bool   `json:"detailed,omitempty"`
}

// EntityHint represents a deterministic language marker found in text
type EntityHint struct {
	Tag      string `json:"tag"`      // e.g. "NATIONAL_ID:PESEL" or "keyword:ulica"
	Category string `json:"category"` // national_id, tax_id, keyword, ...
	Language string `json:"language"` // ISO 639-1 code the marker is associated with
	Priority int    `json:"-"`        // lower wins when hints disagree on language
}

// Candidate is a (language, probability) pair from the statistical classifier
type Candidate struct {
	Language    string  `json:"language"`
	Probability float64 `json:"probability"`
}

// Diagnostics carries the optional detailed payload of a Result
type Diagnostics struct {
	Hints     []EntityHint `json:"hints"`
	Candidate *Candidate   `json:"candidate,omitempty"`
	TimedOut  bool         `json:"timed_out,omitempty"`
}

// Result is the final outcome of a detection request
type Result struct {
	Language    string       `json:"language"`
	Confidence  float64      `json:"confidence"`
	Method      Method       `json:"method"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// PatternRule is a compiled structured-identifier rule
type PatternRule struct {
	Name     string
	Category string
	Language string
	Priority int
	Pattern  *regexp.Regexp
	// Validate, when set, must confirm a raw match (e.g. a checksum) before
	// the rule yields a hint.
	Validate func(match string) bool
}

// KeywordRule is a case-insensitive lexical cue tied to a language
type KeywordRule struct {
	Keyword  string
	Language string
	Priority int
}

// Stats reports detector counters for operational monitoring
type Stats struct {
	EntityHits   int64 `json:"entity_hits"`
	Statistical  int64 `json:"statistical"`
	Fallbacks    int64 `json:"fallbacks"`
	Timeouts     int64 `json:"timeouts"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	CacheSize    int   `json:"cache_size"`
	CacheMax     int   `json:"cache_capacity"`
	Requests     int64 `json:"requests"`
	ScannerCalls int64 `json:"scanner_calls"`
}
