// Package domain holds the types and errors shared across the search engine.
package domain

import "context"

// Document is a single source file loaded from the corpus.
// ID is the ordinal position within the snapshot that produced it and is the
// join key to the embedding matrix row of the same index.
type Document struct {
	ID         int
	Path       string
	Raw        string
	Normalized string
}

// QueryResult is a ranked match for a query.
type QueryResult struct {
	DocumentID int     `json:"document_id"`
	Path       string  `json:"path"`
	Score      float64 `json:"score"`
	Preview    string  `json:"preview"`
	Raw        string  `json:"-"`
}

// ProgressObserver receives traversal progress from the corpus loader.
type ProgressObserver interface {
	// Progress reports the number of files accepted so far.
	Progress(found int)
	// Done is called once when the walk finishes, successfully or not.
	Done(status string, err error)
}

// NopObserver discards all progress notifications.
type NopObserver struct{}

func (NopObserver) Progress(int)        {}
func (NopObserver) Done(string, error) {}

// CorpusLoader walks a directory tree and returns its documents in a stable order.
type CorpusLoader interface {
	Load(ctx context.Context, root string) ([]Document, error)
}
