package language

import (
	"context"
)

// TokenizedInput is text encoded for transformer inference. The byte-level
// scheme shifts every UTF-8 byte by the special-token offset so the
// vocabulary never depends on an external tokenizer file.
type TokenizedInput struct {
	InputIDs      []int32
	AttentionMask []int32
	Length        int
	Truncated     bool
}

// TransformerBackend defines a pluggable backend for transformer inference.
// Implementations may use ONNX Runtime, TensorRT, or other engines.
type TransformerBackend interface {
	// Infer runs a single forward pass and returns the raw logits, one per
	// output label.
	Infer(ctx context.Context, input *TokenizedInput) ([]float32, error)
	// IsReady returns whether the backend is initialized and ready.
	IsReady() bool
	// Close releases any native resources.
	Close() error
}

// NewTransformerBackend creates a backend if supported by the current build.
// The default (no build tags) returns nil to avoid CGO dependencies.
// Note: Implementations are provided in build-tagged files, e.g., backend_onnx.go and backend_stub.go

const (
	tokenPad = 0
	tokenCLS = 1
	tokenSEP = 2
	// Byte values map to tokenByteBase..tokenByteBase+255.
	tokenByteBase = 3
)

// tokenizeBytes encodes text byte-wise with CLS/SEP framing, truncating and
// padding to maxLength.
func tokenizeBytes(text string, maxLength int) *TokenizedInput {
	raw := []byte(text)

	ids := make([]int32, 0, maxLength)
	mask := make([]int32, 0, maxLength)

	ids = append(ids, tokenCLS)
	mask = append(mask, 1)

	truncated := false
	for _, b := range raw {
		if len(ids) >= maxLength-1 {
			truncated = true
			break
		}
		ids = append(ids, int32(b)+tokenByteBase)
		mask = append(mask, 1)
	}

	ids = append(ids, tokenSEP)
	mask = append(mask, 1)

	length := len(ids)
	for len(ids) < maxLength {
		ids = append(ids, tokenPad)
		mask = append(mask, 0)
	}

	return &TokenizedInput{
		InputIDs:      ids,
		AttentionMask: mask,
		Length:        length,
		Truncated:     truncated,
	}
}
