package language

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/raaihank/lang-sentinel/internal/cache"
	"github.com/raaihank/lang-sentinel/internal/config"
	"github.com/raaihank/lang-sentinel/internal/logger"
	"github.com/raaihank/lang-sentinel/internal/metrics"
)

// Detector is the hybrid detection orchestrator. A request flows through
// cache lookup, entity scanning, the degenerate-input checks, and finally
// the statistical stage under the timeout guard; the confidence policy
// arbitrates the statistical outcome. Safe for concurrent use: the scanner
// and classifier are stateless and the cache synchronizes internally.
type Detector struct {
	cfg        config.DetectionConfig
	scanner    *Scanner
	classifier Classifier
	cache      *cache.LRU
	guard      *Guard
	logger     *logger.Logger
	metrics    *metrics.Metrics

	requests     int64
	entityHits   int64
	statistical  int64
	fallbacks    int64
	timeouts     int64
	scannerCalls int64
}

// New creates a detector from configuration, building the default scanner,
// classifier and cache.
func New(cfg config.DetectionConfig, log *logger.Logger) (*Detector, error) {
	patterns, keywords, err := CompileRules(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to compile detection rules: %w", err)
	}

	classifier, err := NewClassifierFromConfig(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	return NewWithComponents(cfg, NewScanner(patterns, keywords), classifier, cache.NewLRU(cfg.CacheCapacity), log, nil)
}

// NewWithComponents creates a detector with injected collaborators. Tests
// use this to substitute an instrumented classifier or a tiny cache.
func NewWithComponents(cfg config.DetectionConfig, scanner *Scanner, classifier Classifier, lru *cache.LRU, log *logger.Logger, m *metrics.Metrics) (*Detector, error) {
	if scanner == nil || classifier == nil || lru == nil {
		return nil, fmt.Errorf("detector needs a scanner, a classifier and a cache")
	}

	d := &Detector{
		cfg:        cfg,
		scanner:    scanner,
		classifier: classifier,
		cache:      lru,
		guard:      NewGuard(cfg.Timeout),
		logger:     log,
		metrics:    m,
	}

	log.Info("Hybrid detector initialized",
		zap.String("default_language", cfg.DefaultLanguage),
		zap.Float64("min_confidence", cfg.MinConfidence),
		zap.Int("min_text_length", cfg.MinTextLength),
		zap.Int("cache_capacity", cfg.CacheCapacity),
		zap.Duration("timeout", cfg.Timeout),
	)

	return d, nil
}

// Detect resolves the language of the request's text. It always produces a
// complete result: degenerate input and classifier timeouts resolve to the
// configured default language, never to an error.
func (d *Detector) Detect(ctx context.Context, req Request) Result {
	start := time.Now()
	atomic.AddInt64(&d.requests, 1)

	// Trimmed, case-preserved: entity patterns can be case-sensitive.
	text := strings.TrimSpace(req.Text)

	if cached, ok := d.cache.Get(text); ok {
		if d.metrics != nil {
			d.metrics.CacheHits.Inc()
		}
		return d.finish(cached.(Result), req.Detailed, start, true)
	}
	if d.metrics != nil {
		d.metrics.CacheMisses.Inc()
	}

	result, cacheable := d.compute(ctx, text)
	if cacheable {
		if evicted := d.cache.Put(text, result); evicted && d.metrics != nil {
			d.metrics.CacheEvictions.Inc()
		}
	}

	return d.finish(result, req.Detailed, start, false)
}

// compute runs the decision pipeline on a cache miss. The second return
// value is false only for timeout-derived results, which must not poison
// the cache.
func (d *Detector) compute(ctx context.Context, text string) (Result, bool) {
	atomic.AddInt64(&d.scannerCalls, 1)
	hints := d.scanner.Scan(text)

	if len(hints) > 0 {
		atomic.AddInt64(&d.entityHits, 1)
		// Hints are priority-ordered; the first one decides the language.
		return Result{
			Language:    hints[0].Language,
			Confidence:  1.0,
			Method:      MethodEntityHint,
			Diagnostics: &Diagnostics{Hints: hints},
		}, true
	}

	if text == "" || isNumericOnly(text) || utf8.RuneCountInString(text) < d.cfg.MinTextLength {
		atomic.AddInt64(&d.fallbacks, 1)
		return Result{
			Language:    d.cfg.DefaultLanguage,
			Confidence:  0,
			Method:      MethodFallback,
			Diagnostics: &Diagnostics{Hints: hints},
		}, true
	}

	candidates, timedOut := d.guard.Run(ctx, func() []Candidate {
		return d.classifier.Classify(text)
	})
	if timedOut {
		atomic.AddInt64(&d.timeouts, 1)
		atomic.AddInt64(&d.fallbacks, 1)
		if d.metrics != nil {
			d.metrics.ClassifierTimeout.Inc()
		}
		d.logger.Warn("Statistical stage timed out",
			zap.Duration("budget", d.cfg.Timeout),
			zap.Int("text_length", utf8.RuneCountInString(text)),
		)
		return Result{
			Language:    d.cfg.DefaultLanguage,
			Confidence:  0,
			Method:      MethodFallback,
			Diagnostics: &Diagnostics{Hints: hints, TimedOut: true},
		}, false
	}

	if len(candidates) == 0 {
		atomic.AddInt64(&d.fallbacks, 1)
		return Result{
			Language:    d.cfg.DefaultLanguage,
			Confidence:  0,
			Method:      MethodFallback,
			Diagnostics: &Diagnostics{Hints: hints},
		}, true
	}

	top := candidates[0]
	if top.Probability >= d.cfg.MinConfidence {
		atomic.AddInt64(&d.statistical, 1)
		return Result{
			Language:    top.Language,
			Confidence:  top.Probability,
			Method:      MethodStatistical,
			Diagnostics: &Diagnostics{Hints: hints, Candidate: &top},
		}, true
	}

	atomic.AddInt64(&d.fallbacks, 1)
	return Result{
		Language:    d.cfg.DefaultLanguage,
		Confidence:  top.Probability,
		Method:      MethodFallback,
		Diagnostics: &Diagnostics{Hints: hints, Candidate: &top},
	}, true
}

// finish shapes the result for the caller and records telemetry. Cached
// results keep their full diagnostics internally; the detailed flag only
// controls what the caller sees.
func (d *Detector) finish(result Result, detailed bool, start time.Time, cacheHit bool) Result {
	duration := time.Since(start)
	if d.metrics != nil {
		d.metrics.Detections.WithLabelValues(string(result.Method)).Inc()
		d.metrics.DetectionDuration.Observe(duration.Seconds())
	}

	d.logger.Debug("Detection completed",
		zap.String("language", result.Language),
		zap.Float64("confidence", result.Confidence),
		zap.String("method", string(result.Method)),
		zap.Bool("cache_hit", cacheHit),
		zap.Duration("duration", duration),
	)

	if !detailed {
		result.Diagnostics = nil
	}
	return result
}

// Stats returns detector and cache counters for the diagnostic surface.
func (d *Detector) Stats() Stats {
	cs := d.cache.Stats()
	return Stats{
		Requests:     atomic.LoadInt64(&d.requests),
		EntityHits:   atomic.LoadInt64(&d.entityHits),
		Statistical:  atomic.LoadInt64(&d.statistical),
		Fallbacks:    atomic.LoadInt64(&d.fallbacks),
		Timeouts:     atomic.LoadInt64(&d.timeouts),
		ScannerCalls: atomic.LoadInt64(&d.scannerCalls),
		CacheHits:    cs.Hits,
		CacheMisses:  cs.Misses,
		CacheSize:    cs.Size,
		CacheMax:     cs.Capacity,
	}
}

// Languages returns the classifier's language inventory.
func (d *Detector) Languages() []string {
	return d.classifier.Languages()
}

// CompileRules builds the scanner rule sets from configuration, merging
// custom rules with the built-ins unless they are disabled.
func CompileRules(cfg config.DetectionConfig) ([]PatternRule, []KeywordRule, error) {
	var patterns []PatternRule
	var keywords []KeywordRule

	if !cfg.DisableBuiltinRules {
		patterns = GetDefaultPatternRules()
		keywords = GetDefaultKeywordRules()
	}

	validators := map[string]func(string) bool{
		"pesel": ValidPESEL,
		"nip":   ValidNIP,
		"regon": ValidREGON,
	}

	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid pattern %q: %w", p.Name, err)
		}
		rule := PatternRule{
			Name:     p.Name,
			Category: p.Category,
			Language: p.Language,
			Priority: p.Priority,
			Pattern:  re,
		}
		if p.Checksum != "" {
			v, ok := validators[p.Checksum]
			if !ok {
				return nil, nil, fmt.Errorf("unknown checksum validator %q for pattern %q", p.Checksum, p.Name)
			}
			rule.Validate = v
		}
		patterns = append(patterns, rule)
	}

	for _, k := range cfg.Keywords {
		keywords = append(keywords, KeywordRule{
			Keyword:  k.Keyword,
			Language: k.Language,
			Priority: k.Priority,
		})
	}

	return patterns, keywords, nil
}
