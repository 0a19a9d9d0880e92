package browser

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"squeal/internal/table"
)

// Grid is the scrollable cell grid behind the browser. It owns the cursor,
// the scroll offsets and a per-row cache of rendered lines.
//
// After every operation:
//
//	0 <= Row < max(1, rows)      0 <= Col < max(1, cols)
//	0 <= ScrollY <= maxScrollY   0 <= ScrollX <= maxScrollX
type Grid struct {
	Headings []string
	Cells    [][]string
	Widths   []int
	Offsets  []int
	// LineWidth is the display width of a full row including separators
	LineWidth int

	Row, Col         int
	ScrollY, ScrollX int

	// viewport size in cells; Height excludes the headings and status line
	Width, Height int

	cache map[int]string
	// Renders counts row renders, for cache accounting
	Renders int
}

// NewGrid lays out a drained table
func NewGrid(t *table.Table) *Grid {
	g := &Grid{
		Headings: t.Headings,
		Cells:    t.Rows,
		Widths:   t.Widths(),
		Width:    1,
		Height:   1,
		cache:    make(map[int]string),
	}
	g.Offsets, g.LineWidth = table.Offsets(g.Widths)
	return g
}

// NumRows returns the number of data rows
func (g *Grid) NumRows() int { return len(g.Cells) }

// NumCols returns the number of columns
func (g *Grid) NumCols() int { return len(g.Headings) }

// Resize sets the terminal size. Three lines are reserved for the two
// heading lines and the status line.
func (g *Grid) Resize(width, height int) {
	g.Width = max(width, 1)
	g.Height = max(height-3, 1)
	g.clamp()
	g.invalidate()
}

func (g *Grid) maxScrollY() int { return max(g.NumRows()-g.Height, 0) }

func (g *Grid) maxScrollX() int { return max(g.LineWidth-g.Width, 0) }

// Up moves the cursor one row up
func (g *Grid) Up() { g.moveTo(g.Row-1, g.Col) }

// Down moves the cursor one row down
func (g *Grid) Down() { g.moveTo(g.Row+1, g.Col) }

// Left moves the cursor one column left
func (g *Grid) Left() { g.moveTo(g.Row, g.Col-1) }

// Right moves the cursor one column right
func (g *Grid) Right() { g.moveTo(g.Row, g.Col+1) }

// PageUp moves the cursor up by one page
func (g *Grid) PageUp() { g.jumpTo(g.Row - g.Height) }

// PageDown moves the cursor down by one page
func (g *Grid) PageDown() { g.jumpTo(g.Row + g.Height) }

// Home jumps to the first row
func (g *Grid) Home() { g.jumpTo(0) }

// End jumps to the last row
func (g *Grid) End() { g.jumpTo(g.NumRows() - 1) }

// moveTo moves the cursor by one cell, scrolling by a whole page when the
// cursor leaves the viewport. Only the two affected rows are re-rendered,
// unless the view scrolled horizontally.
func (g *Grid) moveTo(row, col int) {
	oldRow, oldScrollX := g.Row, g.ScrollX
	g.Row, g.Col = row, col
	g.clamp()

	if g.ScrollX != oldScrollX {
		g.invalidate()
		return
	}
	delete(g.cache, oldRow)
	delete(g.cache, g.Row)
}

func (g *Grid) jumpTo(row int) {
	g.Row = row
	g.clamp()
	g.invalidate()
}

// clamp restores the grid invariants after any change
func (g *Grid) clamp() {
	g.Row = min(max(g.Row, 0), max(g.NumRows()-1, 0))
	g.Col = min(max(g.Col, 0), max(g.NumCols()-1, 0))

	if g.Row < g.ScrollY {
		g.ScrollY -= g.Height
	} else if g.Row >= g.ScrollY+g.Height {
		g.ScrollY += g.Height
	}
	g.ScrollY = min(max(g.ScrollY, 0), g.maxScrollY())
	// a page jump can land more than a page away
	if g.Row < g.ScrollY || g.Row >= g.ScrollY+g.Height {
		g.ScrollY = min(max(g.Row-g.Height+1, 0), g.maxScrollY())
	}

	if g.NumCols() > 0 {
		left := g.Offsets[g.Col]
		right := left + g.Widths[g.Col]
		if left < g.ScrollX {
			g.ScrollX -= g.Width
		} else if right > g.ScrollX+g.Width {
			g.ScrollX += g.Width
		}
		if left < g.ScrollX {
			g.ScrollX = left
		} else if right > g.ScrollX+g.Width && left > g.ScrollX {
			g.ScrollX = min(left, right-g.Width)
		}
	}
	g.ScrollX = min(max(g.ScrollX, 0), g.maxScrollX())
}

func (g *Grid) invalidate() {
	clear(g.cache)
}

// VisibleRows returns the indexes of the rows inside the viewport
func (g *Grid) VisibleRows() (first, last int) {
	return g.ScrollY, min(g.ScrollY+g.Height, g.NumRows())
}

// Line returns the rendered row, using the cache when possible
func (g *Grid) Line(row int, st styles) string {
	if line, ok := g.cache[row]; ok {
		return line
	}
	g.Renders++

	var b strings.Builder
	for col, cell := range g.Cells[row] {
		text := table.PadLeft(cell, g.Widths[col])
		style := st.cell
		if row == g.Row && col == g.Col {
			style = st.cursor
		}
		g.writeSegment(&b, text, g.Offsets[col], style.Render)
		g.writeSegment(&b, "|", g.Offsets[col]+g.Widths[col], st.dim.Render)
	}
	line := b.String()
	g.cache[row] = line
	return line
}

// Heading returns the two heading lines: column names and the rule
func (g *Grid) Heading(st styles) (names, rule string) {
	var nb, rb strings.Builder
	for col, name := range g.Headings {
		text := name + strings.Repeat(" ", max(g.Widths[col]-runewidth.StringWidth(name), 0))
		style := st.heading
		if col == g.Col {
			style = st.cursor
		}
		g.writeSegment(&nb, text, g.Offsets[col], style.Render)
		g.writeSegment(&nb, "|", g.Offsets[col]+g.Widths[col], st.dim.Render)

		g.writeSegment(&rb, strings.Repeat("-", g.Widths[col]), g.Offsets[col], st.dim.Render)
		g.writeSegment(&rb, "+", g.Offsets[col]+g.Widths[col], st.dim.Render)
	}
	return nb.String(), rb.String()
}

// writeSegment writes the part of text that starts at display column x and
// falls inside the horizontal viewport
func (g *Grid) writeSegment(b *strings.Builder, text string, x int, render func(...string) string) {
	visible := cut(text, g.ScrollX-x, g.ScrollX+g.Width-x)
	if visible != "" {
		b.WriteString(render(visible))
	}
}

// cut returns the display columns [from, to) of s. A wide rune split by
// either edge is replaced by spaces.
func cut(s string, from, to int) string {
	if to <= 0 || from >= runewidth.StringWidth(s) {
		return ""
	}
	var b strings.Builder
	x := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		switch {
		case x >= from && x+w <= to:
			b.WriteRune(r)
		case x < to && x+w > from:
			b.WriteString(strings.Repeat(" ", min(x+w, to)-max(x, from)))
		}
		x += w
		if x >= to {
			break
		}
	}
	return b.String()
}
