// Package corpus walks a source tree and turns matching files into documents.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"codesearch/internal/cleaner"
	"codesearch/internal/domain"
)

// DefaultReportEvery is how many accepted files pass between progress reports.
const DefaultReportEvery = 10

var _ domain.CorpusLoader = (*Loader)(nil)

// Options configures a Loader.
type Options struct {
	// Extensions are file name suffixes to index, e.g. ".c". Empty means every file.
	Extensions []string
	// ExcludeDirs are directory names pruned wherever they appear below the root.
	ExcludeDirs []string
	ReportEvery int
	Observer    domain.ProgressObserver
	Logger      *slog.Logger
}

// Loader reads a directory tree into an ordered slice of documents.
type Loader struct {
	extensions  []string
	exclude     map[string]struct{}
	reportEvery int
	observer    domain.ProgressObserver
	logger      *slog.Logger
}

// NewLoader creates a loader from opts, filling in defaults for zero values.
func NewLoader(opts Options) *Loader {
	if opts.ReportEvery <= 0 {
		opts.ReportEvery = DefaultReportEvery
	}
	if opts.Observer == nil {
		opts.Observer = domain.NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	exclude := make(map[string]struct{}, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		exclude[name] = struct{}{}
	}
	return &Loader{
		extensions:  append([]string(nil), opts.Extensions...),
		exclude:     exclude,
		reportEvery: opts.ReportEvery,
		observer:    opts.Observer,
		logger:      opts.Logger.With("component", "corpus"),
	}
}

// SetObserver replaces the progress observer. It must not be called while Load runs.
func (l *Loader) SetObserver(o domain.ProgressObserver) {
	if o == nil {
		o = domain.NopObserver{}
	}
	l.observer = o
}

// Load walks root and returns one document per readable matching file whose
// normalized content is not empty. Files that cannot be read are logged and
// skipped. Excluded directories are never entered.
func (l *Loader) Load(ctx context.Context, root string) ([]domain.Document, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, l.rootNotFound(root)
	}
	// WalkDir does not follow a symlinked root, so walk its target instead.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, l.rootNotFound(root)
	}

	l.logger.Info("scanning corpus", "root", root, "resolved", walkRoot)
	var docs []domain.Document
	walkErr := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Warn("skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if path != walkRoot && l.Excluded(d.Name()) {
				l.logger.Debug("pruning excluded directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}
		if !l.Matches(d.Name()) {
			return nil
		}

		raw, err := readText(path)
		if err != nil {
			l.logger.Warn("error reading file", "path", path, "err", err)
			return nil
		}
		normalized := cleaner.Normalize(raw)
		if normalized == "" {
			l.logger.Debug("skipping file with no content", "path", path)
			return nil
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			rel = path
		}
		docs = append(docs, domain.Document{
			ID:         len(docs),
			Path:       filepath.ToSlash(rel),
			Raw:        raw,
			Normalized: normalized,
		})
		if len(docs)%l.reportEvery == 0 {
			l.observer.Progress(len(docs))
		}
		return nil
	})
	if walkErr != nil {
		l.observer.Done("Scan interrupted.", walkErr)
		return nil, walkErr
	}

	status := fmt.Sprintf("Successfully loaded %d files.", len(docs))
	l.logger.Info("corpus loaded", "root", root, "documents", len(docs))
	l.observer.Done(status, nil)
	return docs, nil
}

func (l *Loader) rootNotFound(root string) error {
	err := fmt.Errorf("%w: %s", domain.ErrRootNotFound, root)
	l.observer.Done(fmt.Sprintf("Error: Directory '%s' not found.", root), err)
	return err
}

// Matches reports whether a file name carries one of the configured extensions.
func (l *Loader) Matches(name string) bool {
	if len(l.extensions) == 0 {
		return true
	}
	for _, ext := range l.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Excluded reports whether a directory name is pruned from the walk.
func (l *Loader) Excluded(name string) bool {
	_, ok := l.exclude[name]
	return ok
}

// readText reads a file as text. A UTF-8 or UTF-16 byte order mark selects
// the decoding; invalid byte sequences are dropped.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	decoder := transform.Chain(
		unicode.BOMOverride(transform.Nop),
		runes.Remove(runes.Predicate(func(r rune) bool { return r == utf8.RuneError })),
	)
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
