// Package tfidf provides a corpus-fitted TF-IDF embedder for source code.
package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"codesearch/internal/embedding"
)

var _ embedding.Embedder = (*Embedder)(nil)

// Embedder implements a TF-IDF vectorizer tuned for source code.
// EmbedBatch fits the vocabulary and IDF values on the batch it is given;
// Embed projects any text into the most recent fit.
type Embedder struct {
	mu           sync.RWMutex
	model        *model
	tokenPattern *regexp.Regexp
	camelCase    *regexp.Regexp
	stopwords    map[string]struct{}
}

type model struct {
	vocabulary map[string]int
	idf        []float64
}

// NewEmbedder creates an unfitted TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{
		tokenPattern: regexp.MustCompile(`\p{L}+`),
		camelCase:    regexp.MustCompile(`(\p{Ll})(\p{Lu})`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Dimension returns the vocabulary size of the current fit.
func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return 0
	}
	return len(e.model.idf)
}

// EmbedBatch refits the vocabulary on texts and returns one vector per text.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := e.fit(texts)
	if err != nil {
		return nil, err
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = e.project(m, text)
	}
	e.mu.Lock()
	e.model = m
	e.mu.Unlock()
	return vectors, nil
}

// Embed computes the TF-IDF embedding of text against the current fit.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	m := e.model
	e.mu.RUnlock()
	if m == nil {
		return nil, errors.New("tfidf embedder not prepared")
	}
	return e.project(m, text), nil
}

func (e *Embedder) fit(corpus []string) (*model, error) {
	if len(corpus) == 0 {
		return nil, errors.New("empty corpus for TF-IDF prepare")
	}
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Create stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	// A corpus of stopwords only yields an empty vocabulary and all-zero vectors.
	sort.Strings(terms)
	m := &model{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		m.vocabulary[term] = i
		// Smoothed IDF
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return m, nil
}

func (e *Embedder) project(m *model, text string) []float64 {
	vec := make([]float64, len(m.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := m.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * m.idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// tokenize splits identifiers on case changes and non-letters, lowercases
// and drops stopwords, so "multiplyMatrix" and "multiply_matrix" both yield
// "multiply" and "matrix".
func (e *Embedder) tokenize(text string) []string {
	split := e.camelCase.ReplaceAllString(text, "$1 $2")
	raw := e.tokenPattern.FindAllString(strings.ToLower(split), -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if len(t) < 2 {
			continue
		}
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"how", "what", "do", "does", "code", "program",
		"int", "void", "return", "include", "define", "stdio", "stdlib", "main",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
