package evaluate

import (
	"time"
)

// Sample represents a single labeled record from the corpus
type Sample struct {
	Text     string `csv:"text" parquet:"text" json:"text"`
	Language string `csv:"language" parquet:"language" json:"language"`
}

// LanguageBreakdown aggregates accuracy for one expected language
type LanguageBreakdown struct {
	Total   int64 `json:"total"`
	Correct int64 `json:"correct"`
}

// EvalResult represents the outcome of evaluating one corpus file
type EvalResult struct {
	TotalRecords   int64                        `json:"total_records"`
	Correct        int64                        `json:"correct"`
	Incorrect      int64                        `json:"incorrect"`
	Skipped        int64                        `json:"skipped"`
	Accuracy       float64                      `json:"accuracy"`
	ByLanguage     map[string]LanguageBreakdown `json:"by_language"`
	ByMethod       map[string]int64             `json:"by_method"`
	Duration       time.Duration                `json:"duration"`
	DetectionTime  time.Duration                `json:"detection_time"`
	MismatchSample []MismatchRecord             `json:"mismatch_sample,omitempty"`
	Errors         []string                     `json:"errors,omitempty"`
}

// MismatchRecord describes one misclassified sample
type MismatchRecord struct {
	TextHash   string  `json:"text_hash"`
	TextLength int     `json:"text_length"`
	Expected   string  `json:"expected"`
	Detected   string  `json:"detected"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// Config contains evaluation pipeline configuration
type Config struct {
	BatchSize      int  `yaml:"batch_size" mapstructure:"batch_size"`           // 1000
	ValidateData   bool `yaml:"validate_data" mapstructure:"validate_data"`     // true
	ProgressReport int  `yaml:"progress_report" mapstructure:"progress_report"` // 1000
	MaxMismatches  int  `yaml:"max_mismatches" mapstructure:"max_mismatches"`   // 100
	PersistResults bool `yaml:"persist_results" mapstructure:"persist_results"` // false
}

// FileFormat represents supported file formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "json"
)

// DetectFileFormat detects file format from extension
func DetectFileFormat(filename string) FileFormat {
	switch {
	case len(filename) >= 4 && filename[len(filename)-4:] == ".csv":
		return FormatCSV
	case len(filename) >= 8 && filename[len(filename)-8:] == ".parquet":
		return FormatParquet
	case len(filename) >= 5 && filename[len(filename)-5:] == ".json":
		return FormatJSON
	default:
		return FormatCSV // Default to CSV
	}
}
