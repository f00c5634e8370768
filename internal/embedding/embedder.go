// Package embedding defines the text embedding provider used to index and query.
package embedding

import "context"

// Embedder converts free text into a numeric vector representation.
// Embed and EmbedBatch must produce vectors in the same space. For providers
// fitted on a corpus, EmbedBatch refits and later Embed calls use that fit.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}
