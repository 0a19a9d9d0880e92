package browser

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"squeal/internal/table"
)

func makeTable(rows, cols int) *table.Table {
	return makeWideTable(rows, cols, 0)
}

// makeWideTable is makeTable with every third column holding cells of the
// given width
func makeWideTable(rows, cols, wide int) *table.Table {
	headings := make([]string, cols)
	for c := range headings {
		headings[c] = fmt.Sprintf("col%d", c)
	}
	t := table.New(headings)
	for r := 0; r < rows; r++ {
		values := make([]any, cols)
		for c := range values {
			values[c] = strings.Repeat("x", (r+c)%7+1)
			if wide > 0 && c%3 == 0 {
				values[c] = strings.Repeat("w", wide)
			}
		}
		t.AddRow(values)
	}
	return t
}

func checkInvariants(t *testing.T, g *Grid, step string) {
	t.Helper()
	if g.Row < 0 || g.Row > max(g.NumRows()-1, 0) {
		t.Fatalf("%s: Row = %d out of range for %d rows", step, g.Row, g.NumRows())
	}
	if g.Col < 0 || g.Col > max(g.NumCols()-1, 0) {
		t.Fatalf("%s: Col = %d out of range for %d cols", step, g.Col, g.NumCols())
	}
	if g.ScrollY < 0 || g.ScrollY > g.maxScrollY() {
		t.Fatalf("%s: ScrollY = %d, max %d", step, g.ScrollY, g.maxScrollY())
	}
	if g.ScrollX < 0 || g.ScrollX > g.maxScrollX() {
		t.Fatalf("%s: ScrollX = %d, max %d", step, g.ScrollX, g.maxScrollX())
	}
	if g.NumRows() > 0 && (g.Row < g.ScrollY || g.Row >= g.ScrollY+g.Height) {
		t.Fatalf("%s: cursor row %d outside viewport [%d,%d)", step, g.Row, g.ScrollY, g.ScrollY+g.Height)
	}
	if g.NumCols() > 0 {
		if left := g.Offsets[g.Col]; left < g.ScrollX || left >= g.ScrollX+g.Width {
			t.Fatalf("%s: cursor column %d starts at %d outside viewport [%d,%d)", step, g.Col, left, g.ScrollX, g.ScrollX+g.Width)
		}
	}
}

func TestGridClampInvariant(t *testing.T) {
	moves := []struct {
		name string
		fn   func(*Grid)
	}{
		{"up", (*Grid).Up},
		{"down", (*Grid).Down},
		{"left", (*Grid).Left},
		{"right", (*Grid).Right},
		{"pgup", (*Grid).PageUp},
		{"pgdown", (*Grid).PageDown},
		{"home", (*Grid).Home},
		{"end", (*Grid).End},
	}
	sizes := []struct{ rows, cols, width, height, wide int }{
		{0, 3, 80, 24, 0},
		{1, 1, 80, 24, 0},
		{5, 2, 10, 4, 0},
		{100, 12, 30, 10, 0},
		{37, 30, 7, 1, 0},
		{20, 7, 7, 5, 40},
		{3, 1, 7, 5, 40},
	}

	rng := rand.New(rand.NewSource(1))
	for _, size := range sizes {
		name := fmt.Sprintf("%dx%d in %dx%d", size.rows, size.cols, size.width, size.height)
		if size.wide > 0 {
			name += fmt.Sprintf(" with %d-wide cells", size.wide)
		}
		t.Run(name, func(t *testing.T) {
			g := NewGrid(makeWideTable(size.rows, size.cols, size.wide))
			g.Resize(size.width, size.height)
			checkInvariants(t, g, "resize")

			for i := 0; i < 2000; i++ {
				mv := moves[rng.Intn(len(moves))]
				mv.fn(g)
				checkInvariants(t, g, fmt.Sprintf("step %d (%s)", i, mv.name))
				if i%300 == 299 {
					g.Resize(rng.Intn(60)+1, rng.Intn(30)+1)
					checkInvariants(t, g, "resize")
				}
			}
		})
	}
}

func TestGridPaging(t *testing.T) {
	g := NewGrid(makeTable(50, 2))
	g.Resize(80, 13) // page of 10 rows

	for i := 0; i < 10; i++ {
		g.Down()
	}
	if g.Row != 10 || g.ScrollY != 10 {
		t.Errorf("after 10 downs: Row=%d ScrollY=%d, want 10 10", g.Row, g.ScrollY)
	}

	g.Up()
	if g.Row != 9 || g.ScrollY != 0 {
		t.Errorf("after up: Row=%d ScrollY=%d, want 9 0", g.Row, g.ScrollY)
	}

	g.End()
	if g.Row != 49 || g.ScrollY != 40 {
		t.Errorf("End: Row=%d ScrollY=%d, want 49 40", g.Row, g.ScrollY)
	}
	g.PageDown()
	if g.Row != 49 {
		t.Errorf("PageDown past end: Row=%d", g.Row)
	}
	g.Home()
	if g.Row != 0 || g.ScrollY != 0 {
		t.Errorf("Home: Row=%d ScrollY=%d", g.Row, g.ScrollY)
	}
}

func TestGridColumnWiderThanView(t *testing.T) {
	g := NewGrid(makeWideTable(3, 2, 40))
	g.Resize(7, 8)

	g.Right()
	if g.Col != 1 {
		t.Fatalf("Col = %d, want 1", g.Col)
	}
	if left := g.Offsets[1]; left < g.ScrollX || left >= g.ScrollX+g.Width {
		t.Errorf("column 1 at %d not inside [%d,%d)", left, g.ScrollX, g.ScrollX+g.Width)
	}

	g.Left()
	if g.ScrollX != 0 {
		t.Errorf("ScrollX = %d after moving back to column 0, want 0", g.ScrollX)
	}
}

func TestGridEmptyResult(t *testing.T) {
	g := NewGrid(makeTable(0, 2))
	g.Resize(80, 24)
	for _, mv := range []func(){g.Down, g.End, g.PageDown, g.Right, g.Up} {
		mv()
	}
	if g.Row != 0 || g.ScrollY != 0 {
		t.Errorf("Row=%d ScrollY=%d, want 0 0", g.Row, g.ScrollY)
	}
	first, last := g.VisibleRows()
	if first != last {
		t.Errorf("VisibleRows() = %d, %d; want none", first, last)
	}
}

func TestGridRerendersOnlyChangedRows(t *testing.T) {
	g := NewGrid(makeTable(20, 2))
	g.Resize(80, 13)
	st := defaultStyles()

	renderAll := func() {
		first, last := g.VisibleRows()
		for row := first; row < last; row++ {
			g.Line(row, st)
		}
	}
	renderAll()
	if g.Renders != 10 {
		t.Fatalf("initial renders = %d, want 10", g.Renders)
	}

	g.Down()
	renderAll()
	if g.Renders != 12 {
		t.Errorf("renders after one step = %d, want 12", g.Renders)
	}

	g.PageDown()
	renderAll()
	if g.Renders != 22 {
		t.Errorf("renders after page jump = %d, want 22", g.Renders)
	}
}

func TestCut(t *testing.T) {
	tests := []struct {
		s        string
		from, to int
		want     string
	}{
		{"abcdef", 0, 3, "abc"},
		{"abcdef", 2, 10, "cdef"},
		{"abcdef", -4, 2, "ab"},
		{"abc", 5, 8, ""},
		{"日本", 1, 4, " 本"},
		{"日本", 0, 3, "日 "},
	}
	for _, tt := range tests {
		if got := cut(tt.s, tt.from, tt.to); got != tt.want {
			t.Errorf("cut(%q, %d, %d) = %q, want %q", tt.s, tt.from, tt.to, got, tt.want)
		}
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelUpdate(t *testing.T) {
	m := newModel(func() (*table.Table, error) { return makeTable(30, 3), nil })

	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if !strings.HasPrefix(model.View(), "Running query") {
		t.Errorf("View() while loading = %q", model.View())
	}

	msg := m.Init()()
	model, _ = model.Update(msg)

	for _, k := range []string{"down", "down", "right", "j"} {
		model, _ = model.Update(keyMsg(k))
	}
	got := model.(Model)
	if got.grid.Row != 3 || got.grid.Col != 1 {
		t.Errorf("cursor = (%d,%d), want (3,1)", got.grid.Row, got.grid.Col)
	}
	if got.Rows() != 30 {
		t.Errorf("Rows() = %d, want 30", got.Rows())
	}

	view := model.View()
	if lines := strings.Count(view, "\n") + 1; lines != 10 {
		t.Errorf("View() has %d lines, want 10", lines)
	}
	if !strings.Contains(view, "row 4/30 col 2/3") {
		t.Errorf("View() status missing position:\n%s", view)
	}

	model, _ = model.Update(keyMsg("end"))
	if model.(Model).grid.Row != 29 {
		t.Errorf("end: Row = %d", model.(Model).grid.Row)
	}

	_, cmd := model.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModelLoadError(t *testing.T) {
	boom := errors.New("scan failed")
	m := newModel(func() (*table.Table, error) { return nil, boom })

	model, cmd := m.Update(m.Init()())
	if !errors.Is(model.(Model).Err(), boom) {
		t.Errorf("Err() = %v, want %v", model.(Model).Err(), boom)
	}
	if cmd == nil {
		t.Error("load error did not quit")
	}
}

func TestModelIgnoresKeysWhileLoading(t *testing.T) {
	m := newModel(func() (*table.Table, error) { return makeTable(1, 1), nil })
	model, cmd := m.Update(keyMsg("down"))
	if cmd != nil || model.(Model).grid != nil {
		t.Error("key press while loading changed state")
	}

	_, cmd = m.Update(keyMsg("ctrl+c"))
	if cmd == nil {
		t.Error("ctrl+c while loading did not quit")
	}
}
