// Package mock provides a deterministic embedder for tests.
package mock

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"codesearch/internal/embedding"
)

// DefaultDimension is the vector size produced by the default behaviour.
const DefaultDimension = 64

var _ embedding.Embedder = (*Embedder)(nil)

// Embedder is a test double for embedding.Embedder.
// By default each lowercase identifier-like word of the text is hashed into one of
// DefaultDimension buckets, so texts sharing words have positive similarity.
type Embedder struct {
	// EmbedFunc overrides Embed when set.
	EmbedFunc func(ctx context.Context, text string) ([]float64, error)
	// EmbedBatchFunc overrides EmbedBatch when set.
	EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float64, error)

	mu         sync.Mutex
	embedCalls int
	batchCalls int
	lastBatch  []string
}

// NewEmbedder creates a mock embedder with the default bag-of-words behaviour.
func NewEmbedder() *Embedder { return &Embedder{} }

func (m *Embedder) Name() string   { return "mock" }
func (m *Embedder) Dimension() int { return DefaultDimension }

// Embed returns the bag-of-words vector for text.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.embedCalls++
	m.mu.Unlock()
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return Vector(text), nil
}

// EmbedBatch returns one vector per text.
func (m *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	m.mu.Lock()
	m.batchCalls++
	m.lastBatch = append([]string(nil), texts...)
	m.mu.Unlock()
	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, texts)
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = Vector(text)
	}
	return out, nil
}

// EmbedCalls returns how many times Embed was called.
func (m *Embedder) EmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls
}

// BatchCalls returns how many times EmbedBatch was called.
func (m *Embedder) BatchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls
}

// LastBatch returns the texts passed to the most recent EmbedBatch call.
func (m *Embedder) LastBatch() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lastBatch...)
}

// Vector hashes each word of text into a fixed-size count vector.
func Vector(text string) []float64 {
	vec := make([]float64, DefaultDimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, word := range words {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%DefaultDimension]++
	}
	return vec
}
