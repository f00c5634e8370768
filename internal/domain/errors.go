package domain

import "errors"

var (
	// ErrRootNotFound indicates the corpus root is missing or is not a directory.
	ErrRootNotFound = errors.New("corpus root not found")

	// ErrDimensionMismatch indicates vectors of different lengths were compared or stored together.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingCount indicates the embedder returned a different number of
	// vectors than texts it was given.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
