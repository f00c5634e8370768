// Package service holds the search engine that ties the corpus loader, the
// embedding provider and the similarity index together.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"codesearch/internal/domain"
	"codesearch/internal/embedding"
	"codesearch/internal/preview"
	"codesearch/internal/vectorstore"
)

// DefaultTopK is the number of results returned when Search is called with k <= 0.
const DefaultTopK = 3

// Status messages reported by BuildIndex.
const (
	StatusNothingToIndex = "No code to index."
	StatusIndexed        = "Indexing complete!"
)

// State is the lifecycle stage of an Engine.
type State int

const (
	// StateEmpty means no documents are loaded.
	StateEmpty State = iota
	// StateLoaded means documents are loaded but not embedded.
	StateLoaded
	// StateIndexed means every loaded document has an embedding row.
	StateIndexed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateIndexed:
		return "indexed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures an Engine.
type Options struct {
	TopK         int
	PreviewLines int
	Logger       *slog.Logger
}

// Engine is a caller-owned search session over one corpus snapshot.
// Documents and the index are replaced together, never mutated in place.
type Engine struct {
	loader   domain.CorpusLoader
	embedder embedding.Embedder
	topK     int
	previewN int
	logger   *slog.Logger

	mu    sync.RWMutex
	root  string
	docs  []domain.Document
	index *vectorstore.Index
}

// NewEngine creates an engine in StateEmpty.
func NewEngine(loader domain.CorpusLoader, embedder embedding.Embedder, opts Options) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.PreviewLines <= 0 {
		opts.PreviewLines = preview.DefaultMaxLines
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		loader:   loader,
		embedder: embedder,
		topK:     opts.TopK,
		previewN: opts.PreviewLines,
		logger:   opts.Logger.With("component", "engine"),
	}
}

// Load walks root and replaces the current snapshot, discarding any index.
// On error the engine is left exactly as it was.
func (e *Engine) Load(ctx context.Context, root string) (string, error) {
	docs, err := e.loader.Load(ctx, root)
	if err != nil {
		e.logger.Warn("load failed", "root", root, "error", err)
		return "", err
	}

	e.mu.Lock()
	e.root = root
	e.docs = docs
	e.index = nil
	e.mu.Unlock()

	e.logger.Info("corpus loaded", "root", root, "documents", len(docs))
	return fmt.Sprintf("Successfully loaded %d files.", len(docs)), nil
}

// BuildIndex embeds every loaded document in one batch and installs the index.
// With no documents it reports StatusNothingToIndex and does nothing.
func (e *Engine) BuildIndex(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.docs) == 0 {
		return StatusNothingToIndex, nil
	}

	texts := make([]string, len(e.docs))
	for i, d := range e.docs {
		texts[i] = d.Normalized
	}

	start := time.Now()
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(texts) {
		return "", fmt.Errorf("%w: got %d vectors for %d documents", domain.ErrEmbeddingCount, len(vectors), len(texts))
	}
	idx, err := vectorstore.New(vectors)
	if err != nil {
		return "", fmt.Errorf("build index: %w", err)
	}
	e.index = idx

	e.logger.Info("index built",
		"embedder", e.embedder.Name(),
		"documents", idx.Len(),
		"dimension", idx.Dimension(),
		"took", time.Since(start))
	return StatusIndexed, nil
}

// Reload runs Load followed by BuildIndex and returns the last status.
func (e *Engine) Reload(ctx context.Context, root string) (string, error) {
	if _, err := e.Load(ctx, root); err != nil {
		return "", err
	}
	return e.BuildIndex(ctx)
}

// Search returns up to k documents ranked by similarity to query.
// It returns an empty list, not an error, when the engine is not indexed or
// the query is blank. k <= 0 selects the configured default.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]domain.QueryResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.index == nil || strings.TrimSpace(query) == "" {
		return []domain.QueryResult{}, nil
	}
	if k <= 0 {
		k = e.topK
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := e.index.Search(vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]domain.QueryResult, 0, len(hits))
	for _, h := range hits {
		doc := e.docs[h.Ordinal]
		results = append(results, domain.QueryResult{
			DocumentID: doc.ID,
			Path:       doc.Path,
			Score:      h.Score,
			Preview:    preview.Extract(doc.Raw, e.previewN),
			Raw:        doc.Raw,
		})
	}
	e.logger.Debug("search", "query", query, "k", k, "results", len(results))
	return results, nil
}

// State reports the current lifecycle stage.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	switch {
	case len(e.docs) == 0:
		return StateEmpty
	case e.index == nil:
		return StateLoaded
	default:
		return StateIndexed
	}
}

// Ready reports whether Search can return results.
func (e *Engine) Ready() bool { return e.State() == StateIndexed }

// DocumentCount returns the number of loaded documents.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// IndexedCount returns the number of embedding rows, 0 when not indexed.
func (e *Engine) IndexedCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.index == nil {
		return 0
	}
	return e.index.Len()
}

// Root returns the directory of the current snapshot.
func (e *Engine) Root() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.root
}

// Documents returns a copy of the loaded documents.
func (e *Engine) Documents() []domain.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]domain.Document(nil), e.docs...)
}
