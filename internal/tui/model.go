// Package tui is the interactive terminal front end of the search engine.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"codesearch/internal/domain"
)

// SearchPort is the TUI-facing subset of the search engine.
type SearchPort interface {
	Reload(ctx context.Context, root string) (string, error)
	Search(ctx context.Context, query string, k int) ([]domain.QueryResult, error)
	Ready() bool
	DocumentCount() int
}

// ProgressMsg reports how many files the running scan has accepted.
type ProgressMsg struct{ Found int }

// FilesChangedMsg asks the model to rescan the repository.
type FilesChangedMsg struct{}

// LoadDoneMsg carries the corpus loader's final status for the running scan.
type LoadDoneMsg struct {
	Status string
	Err    error
}

type scanDoneMsg struct {
	status string
	err    error
	ready  bool
	count  int
}

type resultsMsg struct {
	query   string
	results []domain.QueryResult
	err     error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx      context.Context
	port     SearchPort
	root     string
	topK     int
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	results   []domain.QueryResult
	cursor    int
	showFull  bool
	lastQuery string
	status    string
	scanning  bool
	pending   bool
	ready     bool

	// snapshot of the engine taken when the last scan finished, so rendering
	// never waits on an index build
	indexed    bool
	docCount   int
	loadFailed bool
}

// New creates a new TUI model for the repository at root. The first scan
// starts from Init.
func New(ctx context.Context, port SearchPort, root string, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe the code you are looking for and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		port:     port,
		root:     root,
		topK:     topK,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Scanning repository...",
		scanning: true,
	}
}

// Init starts the initial scan.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.rescan())
}

func (m Model) rescan() tea.Cmd {
	ctx, port, root := m.ctx, m.port, m.root
	return func() tea.Msg {
		status, err := port.Reload(ctx, root)
		return scanDoneMsg{status: status, err: err, ready: port.Ready(), count: port.DocumentCount()}
	}
}

func (m Model) search(q string) tea.Cmd {
	ctx, port, k := m.ctx, m.port, m.topK
	return func() tea.Msg {
		res, err := port.Search(ctx, q, k)
		return resultsMsg{query: q, results: res, err: err}
	}
}

// Update handles key, window and background events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + state, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil

	case ProgressMsg:
		m.status = fmt.Sprintf("Found %d files...", msg.Found)
		return m, nil

	case LoadDoneMsg:
		if msg.Err != nil {
			m.status = msg.Status
			m.loadFailed = true
		} else {
			m.status = msg.Status + " Building index..."
		}
		return m, nil

	case scanDoneMsg:
		m.scanning = false
		m.indexed, m.docCount = msg.ready, msg.count
		switch {
		case msg.err != nil && m.loadFailed:
			// keep the loader's message
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
		default:
			m.status = fmt.Sprintf("%s %d files indexed.", msg.status, msg.count)
		}
		m.loadFailed = false
		m.results, m.cursor, m.showFull = nil, 0, false
		m.viewport.SetContent(m.renderCurrentResult())
		if m.pending {
			m.pending = false
			return m.startScan()
		}
		return m, nil

	case FilesChangedMsg:
		if m.scanning {
			m.pending = true
			return m, nil
		}
		return m.startScan()

	case resultsMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.results = nil
		} else {
			m.status = fmt.Sprintf("%d results for %q", len(msg.results), msg.query)
			m.results = msg.results
			m.lastQuery = msg.query
		}
		m.cursor, m.showFull = 0, false
		m.viewport.SetContent(m.renderCurrentResult())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			if !m.indexed {
				m.status = "Not indexed yet."
				return m, nil
			}
			m.status = fmt.Sprintf("Searching for %q...", q)
			return m, m.search(q)
		case "ctrl+r":
			if m.scanning {
				return m, nil
			}
			return m.startScan()
		case "tab":
			if len(m.results) > 0 {
				m.showFull = !m.showFull
				m.viewport.SetContent(m.renderCurrentResult())
				m.viewport.GotoTop()
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.showFull = false
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.showFull = false
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) startScan() (tea.Model, tea.Cmd) {
	m.scanning = true
	m.loadFailed = false
	m.status = "Scanning repository..."
	return m, tea.Batch(m.spinner.Tick, m.rescan())
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Code Search") + "  " + mutedStyle.Render(m.root)
	state := notReadyStyle.Render("● Not indexed")
	if m.indexed {
		state = readyStyle.Render("● Ready")
	}
	state += mutedStyle.Render(fmt.Sprintf("  %d files", m.docCount))
	status := m.status
	if m.scanning {
		status = m.spinner.View() + " " + status
	}
	input := queryBoxStyle.Render(m.input.View())
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + state + "\n" + results + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := titleStyle.Render(fmt.Sprintf("%s (%.3f)", r.Path, r.Score))
	pos := mutedStyle.Render(fmt.Sprintf("Result %d/%d  tab: full file", m.cursor+1, len(m.results)))
	body := r.Preview
	if m.showFull {
		body = r.Raw
	}
	return title + "\n" + pos + "\n\n" + highlightLines(body, m.lastQuery)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	readyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	notReadyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	wordRe         = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// highlightLines renders every line that mentions a query word in the highlight style.
func highlightLines(text, query string) string {
	tokens := queryTokens(query)
	if len(tokens) == 0 || text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if lineMatches(line, tokens) {
			lines[i] = highlightStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func queryTokens(query string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, t := range wordRe.FindAllString(strings.ToLower(query), -1) {
		if len(t) < 2 {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func lineMatches(line string, tokens []string) bool {
	lower := strings.ToLower(line)
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
