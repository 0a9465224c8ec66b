package opentuinvim

// Grid mirrors one rectangular nvim screen region as a flat row-major cell
// matrix. All mutation happens from the redraw dispatch loop; the grid
// itself does no locking.
type Grid struct {
	width  int
	height int
	cells  []Cell
}

// NewGrid creates a grid filled with blank cells.
func NewGrid(width, height int) *Grid {
	g := &Grid{}
	g.Resize(width, height)
	return g
}

// Size returns the current grid dimensions.
func (g *Grid) Size() (width, height int) {
	return g.width, g.height
}

// CellAt returns the cell at (row, col), or a blank cell for out-of-range
// coordinates.
func (g *Grid) CellAt(row, col int) Cell {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return blankCell
	}
	return g.cells[row*g.width+col]
}

// Row returns a copy of one row, or nil if row is out of range.
func (g *Grid) Row(row int) []Cell {
	if row < 0 || row >= g.height {
		return nil
	}
	out := make([]Cell, g.width)
	copy(out, g.cells[row*g.width:(row+1)*g.width])
	return out
}

// Resize reallocates the grid to the new dimensions (grid_resize). Cells in
// the overlapping top-left rectangle of old and new dimensions are
// preserved; everything else becomes blank.
func (g *Grid) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	cells := make([]Cell, width*height)
	for i := range cells {
		cells[i] = blankCell
	}

	copyW := min(width, g.width)
	copyH := min(height, g.height)
	for row := 0; row < copyH; row++ {
		copy(cells[row*width:row*width+copyW], g.cells[row*g.width:row*g.width+copyW])
	}

	g.width = width
	g.height = height
	g.cells = cells
}

// Clear resets every cell to blank without changing dimensions
// (grid_clear).
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = blankCell
	}
}

// CellRun is one run of a grid_line event: Text repeated Repeat times under
// highlight HlID. HlID of -1 means "continue the previous run's id".
type CellRun struct {
	Text   string
	HlID   int
	Repeat int
}

// WriteLine applies one grid_line event starting at (row, startCol). Runs
// with an omitted highlight id continue the id of the run before them. A
// run with empty text is the trailing column of a double-width glyph: it
// takes the current highlight id without consuming a highlight change.
// Writes beyond the grid width are dropped, never wrapped.
func (g *Grid) WriteLine(row, startCol int, runs []CellRun) {
	if row < 0 || row >= g.height {
		return
	}

	col := startCol
	hl := 0
	for _, run := range runs {
		// Continuation cells keep the highlight of the run they
		// follow; only real runs may switch it.
		if run.HlID >= 0 && run.Text != "" {
			hl = run.HlID
		}

		repeat := run.Repeat
		if repeat <= 0 {
			repeat = 1
		}
		for i := 0; i < repeat; i++ {
			if col >= g.width {
				return
			}
			if col >= 0 {
				g.cells[row*g.width+col] = Cell{Text: run.Text, HlID: hl}
			}
			col++
		}
	}
}

// Scroll applies one grid_scroll event: the rectangle
// [top, bot) x [left, right) is read out, cleared, and written back offset
// by (-rows, -cols), clipped to the rectangle. Cells shifted out of the
// rectangle are dropped; cells entering from outside stay blank until the
// follow-up grid_line events in the same batch fill them.
func (g *Grid) Scroll(top, bot, left, right, rows, cols int) {
	top = clamp(top, 0, g.height)
	bot = clamp(bot, 0, g.height)
	left = clamp(left, 0, g.width)
	right = clamp(right, 0, g.width)
	if top >= bot || left >= right {
		return
	}

	rectW := right - left
	rectH := bot - top
	saved := make([]Cell, rectW*rectH)
	for r := 0; r < rectH; r++ {
		srcRow := (top + r) * g.width
		copy(saved[r*rectW:(r+1)*rectW], g.cells[srcRow+left:srcRow+right])
	}

	for r := top; r < bot; r++ {
		base := r * g.width
		for c := left; c < right; c++ {
			g.cells[base+c] = blankCell
		}
	}

	for r := 0; r < rectH; r++ {
		dstR := r - rows
		if dstR < 0 || dstR >= rectH {
			continue
		}
		for c := 0; c < rectW; c++ {
			dstC := c - cols
			if dstC < 0 || dstC >= rectW {
				continue
			}
			g.cells[(top+dstR)*g.width+left+dstC] = saved[r*rectW+c]
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
