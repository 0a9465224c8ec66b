package opentuinvim

import (
	"fmt"
	"strings"
	"sync"

	"github.com/neovim/go-client/nvim"
)

// TextObserver is notified after every accepted mutation of the bound
// buffer.
type TextObserver interface {
	TextChanged(change TextChange)
}

// ModeObserver is notified on actual mode transitions, never on repeats.
type ModeObserver interface {
	ModeChanged(prev, next string)
}

// CursorObserver receives authoritative cursor positions after each
// reconciliation round trip.
type CursorObserver interface {
	CursorMoved(state CursorState)
}

// CompletionObserver receives popup lifecycle callbacks. Confirmed, when it
// fires, always precedes the Hidden call ending the same transaction.
type CompletionObserver interface {
	CompletionShown(items []CompletionItem, selected int, anchor CompletionAnchor)
	CompletionSelected(index int)
	CompletionConfirmed(index int, item CompletionItem)
	CompletionHidden()
}

// Options configures client creation.
type Options struct {
	Cols             int      // screen width in cells (default: 80)
	Rows             int      // screen height in cells (default: 24)
	Command          string   // nvim binary path (default: "nvim" from $PATH)
	Args             []string // extra nvim argv
	EnableCompletion bool     // drive the remote popup menu
	Logger           Logger   // logging capability (default: discard)
}

// RenderCell is one grid cell with its highlight id resolved to a concrete
// style, ready for a frontend to paint.
type RenderCell struct {
	Text  string
	Style Style
}

// Snapshot is the finished screen state handed to host frontends. Hosts
// never touch live client state; they paint snapshots.
type Snapshot struct {
	Width, Height int
	Cells         []RenderCell // row-major, Width*Height entries
	Cursor        CursorState
	CursorShape   CursorShape
	Mode          string
	Background    Color // default background, for padding outside the grid
}

// Client is the editor-protocol client: it owns the session, mirrors the
// remote screen into a grid, tracks cursor and mode, binds one text buffer
// and drives the completion popup.
type Client struct {
	session    *Session
	mu         sync.RWMutex // guards grid and highlights
	grid       *Grid
	highlights *HighlightTable
	cursor     *cursorTracker
	text       *textSync
	completion *completionEngine
	log        Logger

	batches chan []redrawEvent
	quit    chan struct{}
	done    chan struct{}

	obsMu      sync.Mutex
	textObs    []TextObserver
	modeObs    []ModeObserver
	cursorObs  []CursorObserver
	complObs   []CompletionObserver
	onDirty    func()
	onReady    func()
	ready      bool
	readyFired bool

	closeOnce sync.Once
}

// New spawns nvim, performs the UI attach handshake and binds the first
// remote buffer. The returned client is live: redraw batches are already
// being dispatched.
func New(opts Options) (*Client, error) {
	if opts.Cols <= 0 {
		opts.Cols = 80
	}
	if opts.Rows <= 0 {
		opts.Rows = 24
	}
	log := opts.Logger
	if log == nil {
		log = NewStdLogger(nil)
	}

	session, err := NewSession(SessionOptions{
		Command:          opts.Command,
		Args:             opts.Args,
		EnableCompletion: opts.EnableCompletion,
		Logger:           log,
	})
	if err != nil {
		return nil, err
	}

	v := session.Nvim()
	c := &Client{
		session:    session,
		grid:       NewGrid(opts.Cols, opts.Rows),
		highlights: NewHighlightTable(),
		log:        log,
		batches:    make(chan []redrawEvent, 64),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	c.cursor = newCursorTracker(func() (int, int, error) {
		pos, err := v.WindowCursor(0)
		if err != nil {
			return 0, 0, err
		}
		return pos[0], pos[1], nil
	}, log)
	c.cursor.onCursor = c.notifyCursor
	c.cursor.onMode = c.notifyMode
	c.text = newTextSync(v, func() (CursorState, string) {
		return c.cursor.State(), c.cursor.Mode()
	}, log)
	c.text.onChange = c.notifyText
	c.completion = newCompletionEngine(v, opts.EnableCompletion, c.cursor.State, c, log)

	if err := c.registerHandlers(v); err != nil {
		session.Close()
		return nil, err
	}

	go c.dispatchLoop()
	c.cursor.Start()

	if err := session.Attach(opts.Cols, opts.Rows); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.text.Bind(); err != nil {
		c.Close()
		return nil, fmt.Errorf("opentui-nvim: buffer bind: %w", err)
	}
	return c, nil
}

func (c *Client) registerHandlers(v *nvim.Nvim) error {
	if err := v.RegisterHandler("redraw", func(updates ...[]interface{}) {
		events := parseRedrawBatch(updates)
		select {
		case c.batches <- events:
		case <-c.quit:
		}
	}); err != nil {
		return err
	}
	if err := v.RegisterHandler("nvim_buf_lines_event", func(buf nvim.Buffer, tick int64, first, last int64, data [][]byte, more bool) {
		c.text.handleLines(buf, tick)
	}); err != nil {
		return err
	}
	if err := v.RegisterHandler("nvim_buf_changedtick_event", func(buf nvim.Buffer, tick int64) {
		c.text.handleChangedTick(buf, tick)
	}); err != nil {
		return err
	}
	return v.RegisterHandler("nvim_buf_detach_event", func(buf nvim.Buffer) {
		c.text.handleDetach(buf)
	})
}

// dispatchLoop applies redraw batches strictly in arrival order. No two
// batches are ever processed concurrently; this is the single writer for
// grid and highlight state.
func (c *Client) dispatchLoop() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case events := <-c.batches:
			c.applyBatch(events)
		}
	}
}

// applyBatch applies one batch in array order. Observer callbacks are
// deferred until the state lock is released so observers may take
// snapshots. The screen is only presented (dirty callback) after the
// batch's terminal flush event.
func (c *Client) applyBatch(events []redrawEvent) {
	var after []func()
	flushed := false

	c.mu.Lock()
	for _, event := range events {
		switch ev := event.(type) {
		case eventDefaultColorsSet:
			c.highlights.SetDefaults(ev.Fg, ev.Bg, ev.Special)
		case eventHlAttrDefine:
			c.highlights.Define(ev.ID, ev.Attrs)
		case eventGridResize:
			c.grid.Resize(ev.Width, ev.Height)
		case eventGridClear:
			c.grid.Clear()
		case eventGridLine:
			c.grid.WriteLine(ev.Row, ev.ColStart, ev.Runs)
		case eventGridScroll:
			c.grid.Scroll(ev.Top, ev.Bot, ev.Left, ev.Right, ev.Rows, ev.Cols)
		case eventGridCursorGoto:
			after = append(after, func() { c.cursor.setScreenPos(ev.Grid, ev.Row, ev.Col) })
		case eventModeInfoSet:
			c.cursor.setModes(ev.Modes)
		case eventModeChange:
			after = append(after, func() { c.cursor.setMode(ev.Mode) })
		case eventPopupmenuShow:
			after = append(after, func() { c.completion.handlePopupShow(ev) })
		case eventPopupmenuSelect:
			after = append(after, func() { c.completion.handlePopupSelect(ev.Selected) })
		case eventPopupmenuHide:
			after = append(after, func() { c.completion.handlePopupHide() })
		case eventFlush:
			flushed = true
		}
	}
	c.mu.Unlock()

	for _, fn := range after {
		fn()
	}
	if flushed {
		c.notifyFlush()
	}
}

// Snapshot returns the current screen state with all highlight ids
// resolved. Call it from the dirty callback for a consistent frame.
func (c *Client) Snapshot() Snapshot {
	c.mu.RLock()
	width, height := c.grid.Size()
	cells := make([]RenderCell, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			cell := c.grid.CellAt(row, col)
			cells[row*width+col] = RenderCell{
				Text:  cell.Text,
				Style: c.highlights.Resolve(cell.HlID),
			}
		}
	}
	_, bg := c.highlights.Defaults()
	c.mu.RUnlock()

	return Snapshot{
		Width:       width,
		Height:      height,
		Cells:       cells,
		Cursor:      c.cursor.State(),
		CursorShape: c.cursor.Shape(),
		Mode:        c.cursor.Mode(),
		Background:  bg,
	}
}

// Mode returns the current editor mode name.
func (c *Client) Mode() string {
	return c.cursor.Mode()
}

// Value reads the bound buffer's full text.
func (c *Client) Value() (string, error) {
	return c.text.Value()
}

// SetValue replaces the bound buffer's full text.
func (c *Client) SetValue(text string) error {
	return c.text.SetValue(text)
}

// SendKey translates a host key event and sends it to the remote process.
// It reports false when the event could not be translated.
func (c *Client) SendKey(ev KeyEvent) (bool, error) {
	notation, ok := TranslateKey(ev)
	if !ok {
		return false, nil
	}
	return true, c.SendInput(notation)
}

// SendInput sends a raw key-notation string.
func (c *Client) SendInput(keys string) error {
	_, err := c.session.Nvim().Input(keys)
	return err
}

// Resize requests a remote resize; best-effort, failures are logged.
func (c *Client) Resize(cols, rows int) {
	c.session.TryResize(cols, rows)
}

// SetHighlightGroup overrides a highlight group's colors in the remote
// process. Failures are logged and the operation abandoned.
func (c *Client) SetHighlightGroup(name string, style Style) {
	parts := []string{
		fmt.Sprintf("highlight %s", name),
		fmt.Sprintf("guifg=#%06x", style.Foreground.RGB()),
		fmt.Sprintf("guibg=#%06x", style.Background.RGB()),
	}
	if gui := guiAttrList(style.Attr); gui != "" {
		parts = append(parts, "gui="+gui)
	}
	if err := c.session.Nvim().Command(strings.Join(parts, " ")); err != nil {
		c.log.Warnf("highlight override %s failed: %v", name, err)
	}
}

func guiAttrList(attr Attr) string {
	var names []string
	if attr.Has(AttrBold) {
		names = append(names, "bold")
	}
	if attr.Has(AttrItalic) {
		names = append(names, "italic")
	}
	if attr.Has(AttrUnderline) {
		names = append(names, "underline")
	}
	if attr.Has(AttrStrikethrough) {
		names = append(names, "strikethrough")
	}
	if attr.Has(AttrReverse) {
		names = append(names, "reverse")
	}
	return strings.Join(names, ",")
}

// ShowCompletion opens the popup with the given items.
func (c *Client) ShowCompletion(items []CompletionItem, opts ShowOptions) error {
	return c.completion.Show(items, opts)
}

// UpdateCompletion replaces the popup's item list in place.
func (c *Client) UpdateCompletion(items []CompletionItem) error {
	return c.completion.Update(items)
}

// HideCompletion closes the popup without confirming.
func (c *Client) HideCompletion() error {
	return c.completion.Hide()
}

// SelectCompletion moves the popup selection; finish commits it.
func (c *Client) SelectCompletion(index int, insert, finish bool) error {
	return c.completion.Select(index, insert, finish)
}

// CompletionVisible reports whether the popup is showing.
func (c *Client) CompletionVisible() bool {
	return c.completion.Visible()
}

// SetDirtyCallback sets the repaint hook, invoked after each flushed redraw
// batch. Intra-batch intermediate states are never presented.
func (c *Client) SetDirtyCallback(fn func()) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.onDirty = fn
}

// OnReady registers the ready hook, fired once after the first flushed
// frame. Registering after that point fires immediately.
func (c *Client) OnReady(fn func()) {
	c.obsMu.Lock()
	ready := c.ready
	if !ready {
		c.onReady = fn
	}
	c.obsMu.Unlock()
	if ready && fn != nil {
		fn()
	}
}

// RegisterTextObserver adds a text observer.
func (c *Client) RegisterTextObserver(o TextObserver) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.textObs = append(c.textObs, o)
}

// RegisterModeObserver adds a mode observer.
func (c *Client) RegisterModeObserver(o ModeObserver) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.modeObs = append(c.modeObs, o)
}

// RegisterCursorObserver adds a cursor observer.
func (c *Client) RegisterCursorObserver(o CursorObserver) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.cursorObs = append(c.cursorObs, o)
}

// RegisterCompletionObserver adds a completion observer.
func (c *Client) RegisterCompletionObserver(o CompletionObserver) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.complObs = append(c.complObs, o)
}

func (c *Client) notifyFlush() {
	c.obsMu.Lock()
	dirty := c.onDirty
	ready := c.onReady
	fireReady := !c.ready
	c.ready = true
	c.onReady = nil
	c.obsMu.Unlock()

	if fireReady && ready != nil {
		ready()
	}
	if dirty != nil {
		dirty()
	}
}

func (c *Client) notifyText(change TextChange) {
	c.obsMu.Lock()
	obs := append([]TextObserver(nil), c.textObs...)
	c.obsMu.Unlock()
	for _, o := range obs {
		o.TextChanged(change)
	}
}

func (c *Client) notifyMode(prev, next string) {
	c.obsMu.Lock()
	obs := append([]ModeObserver(nil), c.modeObs...)
	c.obsMu.Unlock()
	for _, o := range obs {
		o.ModeChanged(prev, next)
	}
}

func (c *Client) notifyCursor(state CursorState) {
	c.obsMu.Lock()
	obs := append([]CursorObserver(nil), c.cursorObs...)
	c.obsMu.Unlock()
	for _, o := range obs {
		o.CursorMoved(state)
	}
}

func (c *Client) completionShown(items []CompletionItem, selected int, anchor CompletionAnchor) {
	c.obsMu.Lock()
	obs := append([]CompletionObserver(nil), c.complObs...)
	c.obsMu.Unlock()
	for _, o := range obs {
		o.CompletionShown(items, selected, anchor)
	}
}

func (c *Client) completionSelected(index int) {
	c.obsMu.Lock()
	obs := append([]CompletionObserver(nil), c.complObs...)
	c.obsMu.Unlock()
	for _, o := range obs {
		o.CompletionSelected(index)
	}
}

func (c *Client) completionConfirmed(index int, item CompletionItem) {
	c.obsMu.Lock()
	obs := append([]CompletionObserver(nil), c.complObs...)
	c.obsMu.Unlock()
	for _, o := range obs {
		o.CompletionConfirmed(index, item)
	}
}

func (c *Client) completionHidden() {
	c.obsMu.Lock()
	obs := append([]CompletionObserver(nil), c.complObs...)
	c.obsMu.Unlock()
	for _, o := range obs {
		o.CompletionHidden()
	}
}

// Close tears the client down: dispatch loop, cursor reconciliation, then
// the session's own shutdown sequence. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		<-c.done
		c.cursor.Close()
		c.session.Close()
	})
}
