package store

import (
	"time"
)

// EvalRun summarizes one evaluation over a labeled corpus
type EvalRun struct {
	ID          int64     `db:"id" json:"id"`
	Corpus      string    `db:"corpus" json:"corpus"`
	Classifier  string    `db:"classifier" json:"classifier"`
	Total       int64     `db:"total" json:"total"`
	Correct     int64     `db:"correct" json:"correct"`
	Accuracy    float64   `db:"accuracy" json:"accuracy"`
	EntityHits  int64     `db:"entity_hits" json:"entity_hits"`
	Statistical int64     `db:"statistical" json:"statistical"`
	Fallbacks   int64     `db:"fallbacks" json:"fallbacks"`
	DurationMS  int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Mismatch records one sample the engine got wrong. The sample text is
// stored hashed, not raw.
type Mismatch struct {
	ID         int64     `db:"id" json:"id"`
	RunID      int64     `db:"run_id" json:"run_id"`
	TextHash   string    `db:"text_hash" json:"text_hash"`
	TextLength int       `db:"text_length" json:"text_length"`
	Expected   string    `db:"expected" json:"expected"`
	Detected   string    `db:"detected" json:"detected"`
	Confidence float64   `db:"confidence" json:"confidence"`
	Method     string    `db:"method" json:"method"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// BatchInsertResult represents the result of a batch insert operation
type BatchInsertResult struct {
	Inserted int64         `json:"inserted"`
	Failed   int64         `json:"failed"`
	Duration time.Duration `json:"duration"`
	Errors   []error       `json:"errors,omitempty"`
}
