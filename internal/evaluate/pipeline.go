package evaluate

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"

	"github.com/raaihank/lang-sentinel/internal/language"
	"github.com/raaihank/lang-sentinel/internal/store"
)

// Detector is the engine surface the pipeline needs
type Detector interface {
	Detect(ctx context.Context, req language.Request) language.Result
}

// Pipeline runs a labeled corpus through the detector and scores the outcome
type Pipeline struct {
	detector  Detector
	evalStore *store.Store
	config    *Config
	logger    *zap.Logger
	startTime time.Time
}

// NewPipeline creates a new evaluation pipeline. The store may be nil when
// results are not persisted.
func NewPipeline(detector Detector, evalStore *store.Store, config *Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		detector:  detector,
		evalStore: evalStore,
		config:    config,
		logger:    logger,
	}
}

// ProcessFile evaluates a corpus file (CSV, Parquet, or JSON lines)
func (p *Pipeline) ProcessFile(ctx context.Context, filePath string) (*EvalResult, error) {
	p.logger.Info("Starting evaluation",
		zap.String("file", filePath),
		zap.Int("batch_size", p.config.BatchSize))

	start := time.Now()
	p.startTime = start
	result := &EvalResult{
		ByLanguage: make(map[string]LanguageBreakdown),
		ByMethod:   make(map[string]int64),
	}

	format := DetectFileFormat(filePath)
	p.logger.Info("Detected file format", zap.String("format", string(format)))

	var err error
	switch format {
	case FormatCSV:
		err = p.processCSV(ctx, filePath, result)
	case FormatParquet:
		err = p.processParquet(ctx, filePath, result)
	case FormatJSON:
		err = p.processJSON(ctx, filePath, result)
	default:
		return result, fmt.Errorf("unsupported file format: %s", format)
	}
	if err != nil {
		return result, fmt.Errorf("%s processing failed: %w", format, err)
	}

	result.Duration = time.Since(start)
	if result.TotalRecords > 0 {
		result.Accuracy = float64(result.Correct) / float64(result.TotalRecords)
	}

	p.logger.Info("Evaluation completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("correct", result.Correct),
		zap.Int64("incorrect", result.Incorrect),
		zap.Float64("accuracy", result.Accuracy),
		zap.Duration("total_duration", result.Duration),
		zap.Duration("detection_time", result.DetectionTime))

	if p.config.PersistResults && p.evalStore != nil {
		if err := p.persist(ctx, filePath, result); err != nil {
			p.logger.Warn("Failed to persist evaluation results", zap.Error(err))
		}
	}

	return result, nil
}

// processCSV evaluates CSV files with a text,language header
func (p *Pipeline) processCSV(ctx context.Context, filePath string, result *EvalResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2 // text, language

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	p.logger.Info("CSV header detected", zap.Strings("columns", header))

	return p.processBatches(ctx, func() ([]*Sample, error) {
		var batch []*Sample
		for len(batch) < p.config.BatchSize {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read CSV record", zap.Error(err))
				continue
			}
			if len(record) != 2 {
				p.logger.Warn("Invalid CSV record length", zap.Int("length", len(record)))
				continue
			}

			sample := &Sample{
				Text:     record[0],
				Language: strings.ToLower(strings.TrimSpace(record[1])),
			}
			if p.validateSample(sample) {
				batch = append(batch, sample)
			} else {
				result.Skipped++
			}
		}
		return batch, nil
	}, result)
}

// processParquet evaluates Parquet files
func (p *Pipeline) processParquet(ctx context.Context, filePath string, result *EvalResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open Parquet file: %w", err)
	}
	defer file.Close()

	reader := parquet.NewReader(file)
	defer reader.Close()

	return p.processBatches(ctx, func() ([]*Sample, error) {
		var batch []*Sample
		for len(batch) < p.config.BatchSize {
			var sample Sample
			err := reader.Read(&sample)
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read Parquet record", zap.Error(err))
				continue
			}

			sample.Language = strings.ToLower(strings.TrimSpace(sample.Language))
			if p.validateSample(&sample) {
				batch = append(batch, &sample)
			} else {
				result.Skipped++
			}
		}
		return batch, nil
	}, result)
}

// processJSON evaluates JSON files (one JSON object per line)
func (p *Pipeline) processJSON(ctx context.Context, filePath string, result *EvalResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)

	return p.processBatches(ctx, func() ([]*Sample, error) {
		var batch []*Sample
		for len(batch) < p.config.BatchSize {
			var sample Sample
			err := decoder.Decode(&sample)
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read JSON record", zap.Error(err))
				continue
			}

			sample.Language = strings.ToLower(strings.TrimSpace(sample.Language))
			if p.validateSample(&sample) {
				batch = append(batch, &sample)
			} else {
				result.Skipped++
			}
		}
		return batch, nil
	}, result)
}

// processBatches drains the corpus in batches using the provided reader function
func (p *Pipeline) processBatches(ctx context.Context, readBatch func() ([]*Sample, error), result *EvalResult) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := readBatch()
		if err != nil {
			return fmt.Errorf("failed to read batch: %w", err)
		}
		if len(batch) == 0 {
			break // End of file
		}

		if err := p.scoreBatch(ctx, batch, result); err != nil {
			return err
		}

		if p.config.ProgressReport > 0 && result.TotalRecords%int64(p.config.ProgressReport) == 0 {
			p.reportProgress(result)
		}
	}

	return nil
}

// scoreBatch runs one batch through the detector and tallies the outcome
func (p *Pipeline) scoreBatch(ctx context.Context, batch []*Sample, result *EvalResult) error {
	for _, sample := range batch {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		detectStart := time.Now()
		detection := p.detector.Detect(ctx, language.Request{Text: sample.Text})
		result.DetectionTime += time.Since(detectStart)

		result.TotalRecords++
		result.ByMethod[string(detection.Method)]++

		breakdown := result.ByLanguage[sample.Language]
		breakdown.Total++

		if strings.EqualFold(detection.Language, sample.Language) {
			result.Correct++
			breakdown.Correct++
		} else {
			result.Incorrect++
			if len(result.MismatchSample) < p.config.MaxMismatches {
				result.MismatchSample = append(result.MismatchSample, MismatchRecord{
					TextHash:   computeTextHash(sample.Text),
					TextLength: utf8.RuneCountInString(sample.Text),
					Expected:   sample.Language,
					Detected:   detection.Language,
					Confidence: detection.Confidence,
					Method:     string(detection.Method),
				})
			}
		}
		result.ByLanguage[sample.Language] = breakdown
	}

	return nil
}

// persist writes the run and its mismatch sample to the store
func (p *Pipeline) persist(ctx context.Context, filePath string, result *EvalResult) error {
	run := &store.EvalRun{
		Corpus:      filePath,
		Classifier:  p.classifierName(),
		Total:       result.TotalRecords,
		Correct:     result.Correct,
		Accuracy:    result.Accuracy,
		EntityHits:  result.ByMethod[string(language.MethodEntityHint)],
		Statistical: result.ByMethod[string(language.MethodStatistical)],
		Fallbacks:   result.ByMethod[string(language.MethodFallback)],
		DurationMS:  result.Duration.Milliseconds(),
	}

	if err := p.evalStore.InsertRun(ctx, run); err != nil {
		return err
	}

	mismatches := make([]*store.Mismatch, 0, len(result.MismatchSample))
	for _, m := range result.MismatchSample {
		mismatches = append(mismatches, &store.Mismatch{
			RunID:      run.ID,
			TextHash:   m.TextHash,
			TextLength: m.TextLength,
			Expected:   m.Expected,
			Detected:   m.Detected,
			Confidence: m.Confidence,
			Method:     m.Method,
		})
	}

	if _, err := p.evalStore.BatchInsertMismatches(ctx, mismatches); err != nil {
		return err
	}

	p.logger.Info("Evaluation results persisted",
		zap.Int64("run_id", run.ID),
		zap.Int("mismatches", len(mismatches)))
	return nil
}

func (p *Pipeline) classifierName() string {
	if d, ok := p.detector.(*language.Detector); ok {
		langs := d.Languages()
		return fmt.Sprintf("ngram-%d", len(langs))
	}
	return "custom"
}

// validateSample validates a corpus sample
func (p *Pipeline) validateSample(sample *Sample) bool {
	if !p.config.ValidateData {
		return true
	}

	if strings.TrimSpace(sample.Language) == "" {
		p.logger.Debug("Invalid sample: empty language label")
		return false
	}
	if len(sample.Language) != 2 {
		p.logger.Debug("Invalid sample: label is not an ISO 639-1 code",
			zap.String("language", sample.Language))
		return false
	}
	if len(sample.Text) > 10000 {
		p.logger.Debug("Invalid sample: text too long", zap.Int("length", len(sample.Text)))
		return false
	}

	return true
}

// reportProgress reports current evaluation progress
func (p *Pipeline) reportProgress(result *EvalResult) {
	elapsed := time.Since(p.startTime)
	rate := float64(result.TotalRecords) / elapsed.Seconds()

	accuracy := 0.0
	if result.TotalRecords > 0 {
		accuracy = float64(result.Correct) / float64(result.TotalRecords)
	}

	p.logger.Info("Evaluation progress",
		zap.Int64("records_processed", result.TotalRecords),
		zap.Int64("correct", result.Correct),
		zap.Float64("running_accuracy", accuracy),
		zap.Float64("rate_per_sec", rate),
		zap.Duration("elapsed", elapsed))
}

// computeTextHash computes SHA-256 hash of the given text
func computeTextHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
