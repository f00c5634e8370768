// Package vectorstore holds the in-memory embedding matrix and answers exact
// top-k cosine similarity queries against it by linear scan.
package vectorstore

import (
	"fmt"
	"math"
	"sort"

	"codesearch/internal/domain"
)

// Hit is a matching row of the index.
type Hit struct {
	Ordinal int
	Score   float64
}

// Index is an immutable embedding matrix with precomputed row norms.
// It is safe for concurrent readers.
type Index struct {
	dimension int
	vectors   [][]float64
	norms     []float64
}

// New builds an index over vectors. Every row must have the same dimension.
// The rows are copied so later changes by the caller do not leak in.
func New(vectors [][]float64) (*Index, error) {
	idx := &Index{}
	if len(vectors) == 0 {
		return idx, nil
	}
	idx.dimension = len(vectors[0])
	idx.vectors = make([][]float64, len(vectors))
	idx.norms = make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != idx.dimension {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", domain.ErrDimensionMismatch, i, len(v), idx.dimension)
		}
		idx.vectors[i] = append([]float64(nil), v...)
		idx.norms[i] = norm(v)
	}
	return idx, nil
}

// Len returns the number of rows.
func (idx *Index) Len() int { return len(idx.vectors) }

// Dimension returns the row length, or 0 for an empty index.
func (idx *Index) Dimension() int { return idx.dimension }

// Search returns the min(topK, Len()) rows most similar to query, best first.
// Equal scores keep ordinal order so repeated queries rank identically.
func (idx *Index) Search(query []float64, topK int) ([]Hit, error) {
	if len(idx.vectors) == 0 || topK <= 0 {
		return []Hit{}, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", domain.ErrDimensionMismatch, len(query), idx.dimension)
	}
	qn := norm(query)
	hits := make([]Hit, len(idx.vectors))
	for i := range idx.vectors {
		hits[i] = Hit{Ordinal: i, Score: cosine(query, idx.vectors[i], qn, idx.norms[i])}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

// CosineSimilarity returns dot(a,b)/(|a||b|). Empty, mismatched or zero-norm
// vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return cosine(a, b, norm(a), norm(b))
}

func cosine(a, b []float64, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot(a, b) / (na * nb)
	if math.IsNaN(s) {
		return 0
	}
	return s
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 { return math.Sqrt(dot(v, v)) }
