package opentuinvim

import "sync"

// CursorShape is the rendered cursor form for the current mode.
type CursorShape int

const (
	ShapeBlock      CursorShape = iota // full cell
	ShapeVertical                      // vertical bar at the cell's left edge
	ShapeHorizontal                    // underline at the cell's bottom edge
)

// ModeInfo describes one editor mode as reported by mode_info_set.
type ModeInfo struct {
	Name           string
	ShortName      string
	CursorShape    string // "block", "vertical" or "horizontal"
	CellPercentage int
	BlinkWait      int
	BlinkOn        int
	BlinkOff       int
}

// CursorState is the mirrored cursor. ScreenRow/ScreenCol track the latest
// grid_cursor_goto and are correct for drawing; Line/Col are buffer-space
// coordinates and only ever come from an explicit nvim_win_get_cursor round
// trip, because screen and buffer coordinates diverge with wrapped lines or
// multiple windows.
type CursorState struct {
	Line      int // 1-based buffer line
	Col       int // 0-based buffer column
	ScreenRow int
	ScreenCol int
	Grid      int
}

// fallbackShapes resolves modes missing from the mode-info table.
var fallbackShapes = map[string]CursorShape{
	"insert":          ShapeVertical,
	"cmdline_insert":  ShapeVertical,
	"terminal":        ShapeVertical,
	"replace":         ShapeHorizontal,
	"cmdline_replace": ShapeHorizontal,
	"operator":        ShapeHorizontal,
}

// cursorTracker owns cursor position, mode state and the coalesced
// authoritative-position reconciliation. Raw grid_cursor_goto events only
// refresh a single pending slot; one goroutine drains the slot with
// round-trip fetches, so at most one request is ever in flight no matter
// how fast events arrive.
type cursorTracker struct {
	mu    sync.Mutex
	state CursorState
	mode  string
	modes []ModeInfo

	pending bool
	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}

	// fetch performs the authoritative round trip; injected so the owner
	// can point it at the remote process or a test fake.
	fetch func() (line, col int, err error)

	onCursor func(CursorState)
	onMode   func(prev, next string)

	log Logger
}

func newCursorTracker(fetch func() (int, int, error), log Logger) *cursorTracker {
	return &cursorTracker{
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
		fetch:   fetch,
		log:     log,
	}
}

// Start launches the reconciliation goroutine.
func (t *cursorTracker) Start() {
	go t.reconcileLoop()
}

// Close stops the reconciliation goroutine and waits for it to exit.
func (t *cursorTracker) Close() {
	close(t.stop)
	<-t.stopped
}

// State returns the current cursor snapshot.
func (t *cursorTracker) State() CursorState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Mode returns the current mode name.
func (t *cursorTracker) Mode() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Shape resolves the cursor shape for the current mode: the mode-info table
// first, then the static fallback table, then block.
func (t *cursorTracker) Shape() CursorShape {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, info := range t.modes {
		if info.Name != t.mode {
			continue
		}
		switch info.CursorShape {
		case "block":
			return ShapeBlock
		case "vertical":
			return ShapeVertical
		case "horizontal":
			return ShapeHorizontal
		}
		break
	}
	if shape, ok := fallbackShapes[t.mode]; ok {
		return shape
	}
	return ShapeBlock
}

// setModes replaces the mode-info table wholesale (mode_info_set).
func (t *cursorTracker) setModes(modes []ModeInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modes = modes
}

// setMode records a mode_change, firing the observer only on an actual
// transition.
func (t *cursorTracker) setMode(mode string) {
	t.mu.Lock()
	prev := t.mode
	t.mode = mode
	cb := t.onMode
	t.mu.Unlock()

	if cb != nil && prev != mode {
		cb(prev, mode)
	}
}

// setScreenPos records a grid_cursor_goto. The screen position is usable
// immediately; the buffer position is reconciled asynchronously through the
// pending slot, overwriting rather than queuing.
func (t *cursorTracker) setScreenPos(grid, row, col int) {
	t.mu.Lock()
	t.state.Grid = grid
	t.state.ScreenRow = row
	t.state.ScreenCol = col
	t.pending = true
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *cursorTracker) reconcileLoop() {
	defer close(t.stopped)
	for {
		select {
		case <-t.stop:
			return
		case <-t.wake:
		}

		// Drain the slot, looping while new events refresh it during
		// the round trip.
		for {
			t.mu.Lock()
			if !t.pending {
				t.mu.Unlock()
				break
			}
			t.pending = false
			t.mu.Unlock()

			line, col, err := t.fetch()
			if err != nil {
				t.log.Warnf("cursor fetch failed: %v", err)
				continue
			}

			t.mu.Lock()
			t.state.Line = line
			t.state.Col = col
			state := t.state
			cb := t.onCursor
			t.mu.Unlock()

			if cb != nil {
				cb(state)
			}
		}
	}
}
