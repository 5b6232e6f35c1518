package language

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/raaihank/lang-sentinel/internal/config"
	"github.com/raaihank/lang-sentinel/internal/logger"
)

// NewClassifierFromConfig creates the statistical classifier selected in
// configuration. The n-gram classifier is pure Go; the transformer
// classifier needs a backend compiled in (build tag 'onnx') and a model
// file on disk.
func NewClassifierFromConfig(cfg config.DetectionConfig, log *logger.Logger) (Classifier, error) {
	switch cfg.Classifier.Type {
	case "", config.ClassifierNgram:
		c, err := NewNgramClassifier(cfg.Languages)
		if err != nil {
			return nil, err
		}
		log.Info("Created n-gram classifier", zap.Int("languages", len(c.Languages())))
		return c, nil

	case config.ClassifierOnnx:
		backend := NewTransformerBackend(log.Logger, cfg.Classifier.ModelPath, cfg.Classifier.MaxLength)
		if backend == nil {
			return nil, fmt.Errorf("transformer backend unavailable: rebuild with the onnx tag and set classifier.model_path")
		}
		c, err := NewOnnxClassifier(backend, cfg.Languages, cfg.Classifier.MaxLength)
		if err != nil {
			backend.Close()
			return nil, err
		}
		log.Info("Created transformer classifier",
			zap.String("model", cfg.Classifier.ModelPath),
			zap.Int("max_length", cfg.Classifier.MaxLength),
		)
		return c, nil

	default:
		return nil, fmt.Errorf("unknown classifier type: %s", cfg.Classifier.Type)
	}
}

// OnnxClassifier scores text with a fine-tuned transformer whose output
// head has one logit per configured language, in configuration order.
type OnnxClassifier struct {
	backend   TransformerBackend
	labels    []string
	maxLength int
}

var _ Classifier = (*OnnxClassifier)(nil)

// NewOnnxClassifier wraps a ready backend. The labels slice fixes the
// mapping from output index to ISO 639-1 code.
func NewOnnxClassifier(backend TransformerBackend, labels []string, maxLength int) (*OnnxClassifier, error) {
	if backend == nil || !backend.IsReady() {
		return nil, fmt.Errorf("transformer backend is not ready")
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("transformer classifier needs an explicit language list")
	}
	if maxLength <= 0 {
		maxLength = 256
	}
	normalized := make([]string, len(labels))
	for i, l := range labels {
		normalized[i] = strings.ToLower(l)
	}
	return &OnnxClassifier{backend: backend, labels: normalized, maxLength: maxLength}, nil
}

// Classify runs one forward pass and converts the logits to a ranked
// probability distribution over the label set.
func (c *OnnxClassifier) Classify(text string) []Candidate {
	if !hasLetters(text) {
		return nil
	}

	logits, err := c.backend.Infer(context.Background(), tokenizeBytes(text, c.maxLength))
	if err != nil || len(logits) < len(c.labels) {
		return nil
	}

	probs := softmax(logits[:len(c.labels)])
	candidates := make([]Candidate, 0, len(c.labels))
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{Language: c.labels[i], Probability: p})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Probability > candidates[j].Probability
	})
	return candidates
}

// Languages returns the label set in ranking order.
func (c *OnnxClassifier) Languages() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Close releases the backend's native resources.
func (c *OnnxClassifier) Close() error {
	return c.backend.Close()
}

func softmax(logits []float32) []float64 {
	max := float64(logits[0])
	for _, l := range logits[1:] {
		if float64(l) > max {
			max = float64(l)
		}
	}
	var sum float64
	exps := make([]float64, len(logits))
	for i, l := range logits {
		exps[i] = math.Exp(float64(l) - max)
		sum += exps[i]
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}
