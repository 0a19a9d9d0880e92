// Package browser implements the interactive result grid as a Bubble Tea
// program
package browser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"squeal/internal/database"
	"squeal/internal/render"
	"squeal/internal/table"
)

type styles struct {
	heading lipgloss.Style
	cell    lipgloss.Style
	cursor  lipgloss.Style
	dim     lipgloss.Style
	status  lipgloss.Style
	err     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		heading: lipgloss.NewStyle().Bold(true),
		cell:    lipgloss.NewStyle(),
		cursor:  lipgloss.NewStyle().Reverse(true),
		dim:     lipgloss.NewStyle().Faint(true),
		status:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Left, k.PageDown, k.Home, k.End, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.PageUp, k.PageDown, k.Home, k.End},
		{k.Quit},
	}
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "row")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "column")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "right")),
	PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", " "), key.WithHelp("pgup/pgdn", "page")),
	Home:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home", "first")),
	End:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "last")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type state int

const (
	loading state = iota
	browsing
	exiting
)

// loadedMsg carries the drained result into the browsing state
type loadedMsg struct {
	table *table.Table
	err   error
}

// Model is the browser's Bubble Tea model
type Model struct {
	state  state
	load   func() (*table.Table, error)
	grid   *Grid
	help   help.Model
	styles styles
	width  int
	height int
	err    error
}

// New creates a model that drains res when the program starts
func New(res *database.Result) Model {
	return newModel(func() (*table.Table, error) { return render.Collect(res) })
}

func newModel(load func() (*table.Table, error)) Model {
	h := help.New()
	h.ShortSeparator = "  "
	return Model{
		state:  loading,
		load:   load,
		help:   h,
		styles: defaultStyles(),
		width:  80,
		height: 24,
	}
}

// Init starts draining the result off the event loop
func (m Model) Init() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		t, err := load()
		return loadedMsg{table: t, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if m.grid != nil {
			m.grid.Resize(msg.Width, msg.Height)
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = exiting
			return m, tea.Quit
		}
		m.grid = NewGrid(msg.table)
		m.grid.Resize(m.width, m.height)
		m.state = browsing

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.state = exiting
			return m, tea.Quit
		}
		if m.state != browsing {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			m.grid.Up()
		case key.Matches(msg, keys.Down):
			m.grid.Down()
		case key.Matches(msg, keys.Left):
			m.grid.Left()
		case key.Matches(msg, keys.Right):
			m.grid.Right()
		case key.Matches(msg, keys.PageUp):
			m.grid.PageUp()
		case key.Matches(msg, keys.PageDown):
			m.grid.PageDown()
		case key.Matches(msg, keys.Home):
			m.grid.Home()
		case key.Matches(msg, keys.End):
			m.grid.End()
		}
	}
	return m, nil
}

// View renders the headings, the visible rows and the status line
func (m Model) View() string {
	switch m.state {
	case loading:
		return "Running query\n"
	case exiting:
		return ""
	}

	names, rule := m.grid.Heading(m.styles)
	lines := []string{names, rule}
	first, last := m.grid.VisibleRows()
	for row := first; row < last; row++ {
		lines = append(lines, m.grid.Line(row, m.styles))
	}
	for len(lines) < m.grid.Height+2 {
		lines = append(lines, "")
	}
	lines = append(lines, m.statusLine())
	return strings.Join(lines, "\n")
}

func (m Model) statusLine() string {
	pos := "no rows"
	if m.grid.NumRows() > 0 {
		pos = fmt.Sprintf("row %d/%d col %d/%d", m.grid.Row+1, m.grid.NumRows(), m.grid.Col+1, m.grid.NumCols())
	}
	return m.styles.status.Render(pos) + "  " + m.help.View(keys)
}

// Rows returns the number of rows loaded, zero before loading finishes
func (m Model) Rows() int {
	if m.grid == nil {
		return 0
	}
	return m.grid.NumRows()
}

// Err returns the error that ended loading, if any
func (m Model) Err() error { return m.err }

// Run browses res on the terminal until the user quits and returns the
// number of rows in the result. A nil in reads keys from the controlling
// terminal, since standard input may be one of the query's inputs.
func Run(ctx context.Context, res *database.Result, in io.Reader, out io.Writer) (int, error) {
	input := tea.WithInputTTY()
	if in != nil {
		input = tea.WithInput(in)
	}
	p := tea.NewProgram(New(res),
		tea.WithContext(ctx),
		input,
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return 0, fmt.Errorf("browser failed: %w", err)
	}
	m := final.(Model)
	if m.Err() != nil {
		return 0, m.Err()
	}
	return m.Rows(), nil
}
