package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesearch/internal/domain"
)

type fakePort struct {
	ready    bool
	count    int
	reloads  int
	queries  []string
	results  []domain.QueryResult
	err      error
	reloadFn func() (string, error)
}

func (f *fakePort) Reload(context.Context, string) (string, error) {
	f.reloads++
	if f.reloadFn != nil {
		return f.reloadFn()
	}
	f.ready = true
	f.count = len(f.results)
	return "Indexing complete!", nil
}

func (f *fakePort) Search(_ context.Context, q string, _ int) ([]domain.QueryResult, error) {
	f.queries = append(f.queries, q)
	return f.results, f.err
}

func (f *fakePort) Ready() bool        { return f.ready }
func (f *fakePort) DocumentCount() int { return f.count }

func newPort() *fakePort {
	return &fakePort{results: []domain.QueryResult{
		{DocumentID: 1, Path: "sort/bubble.c", Score: 0.9, Preview: "void bubble_sort(int *a) {", Raw: "/* x */\nvoid bubble_sort(int *a) {\n}\n"},
		{DocumentID: 0, Path: "math/add.c", Score: 0.4, Preview: "int add(int a, int b) {", Raw: "int add(int a, int b) {\n}\n"},
	}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func scanned(t *testing.T, port *fakePort) Model {
	t.Helper()
	m := New(context.Background(), port, "/repo", 3)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, m.rescan()())
	return m
}

func TestModel_ScanLifecycle(t *testing.T) {
	port := newPort()
	m := New(context.Background(), port, "/repo", 3)
	assert.True(t, m.scanning)
	assert.NotNil(t, m.Init())

	m, _ = update(t, m, ProgressMsg{Found: 20})
	assert.Equal(t, "Found 20 files...", m.status)

	msg := m.rescan()()
	m, cmd := update(t, m, msg)
	assert.Nil(t, cmd)
	assert.False(t, m.scanning)
	assert.Equal(t, "Indexing complete! 2 files indexed.", m.status)
	assert.Equal(t, 1, port.reloads)
}

func TestModel_ScanError(t *testing.T) {
	port := newPort()
	port.reloadFn = func() (string, error) { return "", domain.ErrRootNotFound }
	m := New(context.Background(), port, "/missing", 3)

	m, _ = update(t, m, m.rescan()())
	assert.False(t, m.scanning)
	assert.Contains(t, m.status, "Error: ")
	assert.Contains(t, m.status, domain.ErrRootNotFound.Error())
}

func TestModel_SearchAndNavigate(t *testing.T) {
	port := newPort()
	m := scanned(t, port)

	m.input.SetValue("  bubble sort ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, []string{"bubble sort"}, port.queries)
	require.Len(t, m.results, 2)
	assert.Equal(t, `2 results for "bubble sort"`, m.status)
	assert.Contains(t, m.renderCurrentResult(), "sort/bubble.c (0.900)")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.renderCurrentResult(), "math/add.c (0.400)")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.cursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)
}

func TestModel_TabTogglesFullFile(t *testing.T) {
	port := newPort()
	m := scanned(t, port)
	m, _ = update(t, m, resultsMsg{query: "bubble", results: port.results})

	assert.NotContains(t, m.renderCurrentResult(), "/* x */")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.showFull)
	assert.Contains(t, m.renderCurrentResult(), "/* x */")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.showFull)
}

func TestModel_SearchBeforeIndexed(t *testing.T) {
	port := newPort()
	m := New(context.Background(), port, "/repo", 3)
	m.input.SetValue("anything")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "Not indexed yet.", m.status)
	assert.Empty(t, port.queries)
}

func TestModel_SearchError(t *testing.T) {
	port := newPort()
	m := scanned(t, port)
	m, _ = update(t, m, resultsMsg{query: "x", err: errors.New("provider down")})
	assert.Equal(t, "Error: provider down", m.status)
	assert.Empty(t, m.results)
}

func TestModel_Rescan(t *testing.T) {
	port := newPort()
	m := scanned(t, port)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.True(t, m.scanning)

	// changes during a scan queue exactly one more scan
	m, cmd = update(t, m, FilesChangedMsg{})
	assert.Nil(t, cmd)
	assert.True(t, m.pending)

	m, cmd = update(t, m, scanDoneMsg{status: "Indexing complete!"})
	assert.NotNil(t, cmd)
	assert.True(t, m.scanning)
	assert.False(t, m.pending)
}

func TestModel_View(t *testing.T) {
	port := newPort()
	m := New(context.Background(), port, "/repo", 3)
	assert.Equal(t, "Loading...", m.View())

	m = scanned(t, port)
	view := m.View()
	assert.Contains(t, view, "/repo")
	assert.Contains(t, view, "Ready")
	assert.Contains(t, view, "2 files")
}

func TestQueryTokens(t *testing.T) {
	assert.Equal(t, []string{"sort", "array"}, queryTokens("Sort an ARRAY, sort it a"))
	assert.Empty(t, queryTokens("a ? !"))
}

func TestHighlightLines(t *testing.T) {
	text := "int add(int a, int b) {\n  return a + b;\n}"
	assert.Equal(t, text, highlightLines(text, ""))

	tokens := queryTokens("ADD numbers")
	assert.True(t, lineMatches("int add(int a, int b) {", tokens))
	assert.False(t, lineMatches("  return a + b;", tokens))

	out := highlightLines(text, "add numbers")
	assert.Contains(t, out, "return a + b;")
	assert.Contains(t, out, "int add(int a, int b) {")
}

func TestObserver(t *testing.T) {
	var got []tea.Msg
	o := Observer{Send: func(msg tea.Msg) { got = append(got, msg) }}
	o.Progress(10)
	o.Progress(20)
	o.Done("Successfully loaded 20 files.", nil)
	assert.Equal(t, []tea.Msg{
		ProgressMsg{Found: 10},
		ProgressMsg{Found: 20},
		LoadDoneMsg{Status: "Successfully loaded 20 files."},
	}, got)

	assert.NotPanics(t, func() {
		Observer{}.Progress(1)
		Observer{}.Done("done", nil)
	})
}

func TestModel_LoadStatus(t *testing.T) {
	port := newPort()
	m := New(context.Background(), port, "/repo", 3)

	m, _ = update(t, m, LoadDoneMsg{Status: "Successfully loaded 2 files."})
	assert.Equal(t, "Successfully loaded 2 files. Building index...", m.status)
	assert.True(t, m.scanning)

	m, _ = update(t, m, m.rescan()())
	assert.Equal(t, "Indexing complete! 2 files indexed.", m.status)
}

func TestModel_LoadFailureKeepsLoaderStatus(t *testing.T) {
	port := newPort()
	port.reloadFn = func() (string, error) { return "", domain.ErrRootNotFound }
	m := New(context.Background(), port, "/missing", 3)

	m, _ = update(t, m, LoadDoneMsg{Status: "Error: Directory '/missing' not found.", Err: domain.ErrRootNotFound})
	m, _ = update(t, m, m.rescan()())
	assert.Equal(t, "Error: Directory '/missing' not found.", m.status)
	assert.False(t, m.loadFailed)
}

// lockingPort holds a write lock for the whole Reload, the way the engine
// does while it builds an index.
type lockingPort struct {
	mu      sync.RWMutex
	started chan struct{}
	release chan struct{}
	count   int
}

func (p *lockingPort) Reload(context.Context, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.started)
	<-p.release
	p.count = 5
	return "Indexing complete!", nil
}

func (p *lockingPort) Search(context.Context, string, int) ([]domain.QueryResult, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return nil, nil
}

func (p *lockingPort) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.count > 0
}

func (p *lockingPort) DocumentCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.count
}

func TestModel_RendersWhileIndexing(t *testing.T) {
	port := &lockingPort{started: make(chan struct{}), release: make(chan struct{})}
	m := New(context.Background(), port, "/repo", 3)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	done := make(chan tea.Msg, 1)
	go func() { done <- m.rescan()() }()
	<-port.started

	rendered := make(chan string, 1)
	go func() {
		next, _ := m.Update(ProgressMsg{Found: 3})
		nm := next.(Model)
		nm.input.SetValue("sort")
		next, _ = nm.Update(tea.KeyMsg{Type: tea.KeyEnter})
		rendered <- next.View()
	}()
	select {
	case view := <-rendered:
		assert.Contains(t, view, "● Not indexed")
		assert.Contains(t, view, "Not indexed yet.")
	case <-time.After(2 * time.Second):
		close(port.release)
		t.Fatal("view blocked while the index was being built")
	}

	close(port.release)
	m, _ = update(t, m, <-done)
	assert.True(t, m.indexed)
	assert.Equal(t, 5, m.docCount)
	assert.Contains(t, m.View(), "5 files")
}
