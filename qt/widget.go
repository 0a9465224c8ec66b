// Package opentuinvimqt provides a Qt editor widget backed by an
// embedded Neovim process, built on the miqt bindings.
package opentuinvimqt

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/mappu/miqt/qt"
	"github.com/mattn/go-runewidth"

	opentuinvim "github.com/Adictya/opentui-nvim"
)

// Widget is a QWidget that renders an embedded Neovim grid with QPainter.
type Widget struct {
	mu sync.Mutex

	widget *qt.QWidget

	client *opentuinvim.Client

	fontFamily string
	fontSize   int
	charWidth  int
	charHeight int
	charAscent int

	// Coalesces repaint requests from background goroutines onto the
	// Qt main thread. The flag is set off-thread by the dirty callback
	// and consumed on the Qt thread by the timer.
	updateTimer   *qt.QTimer
	updatePending atomic.Bool

	onResize func(cols, rows int)
}

// NewWidget creates a QWidget bound to an existing client.
func NewWidget(client *opentuinvim.Client) *Widget {
	w := &Widget{
		widget:     qt.NewQWidget2(),
		client:     client,
		fontFamily: "Monospace",
		fontSize:   14,
		charWidth:  10,
		charHeight: 20,
		charAscent: 16,
	}

	// Redraw coalescing timer (16ms, roughly one frame). The dirty
	// callback fires on the client's dispatch goroutine, so it only
	// sets a flag; the timer performs the Update on the Qt thread.
	w.updateTimer = qt.NewQTimer2(w.widget.QObject)
	w.updateTimer.OnTimeout(func() {
		if w.updatePending.Swap(false) {
			w.widget.Update()
		}
	})
	w.updateTimer.Start(16)

	client.SetDirtyCallback(func() {
		w.updatePending.Store(true)
	})

	w.widget.SetFocusPolicy(qt.StrongFocus)
	w.updateFontMetrics()
	w.widget.SetMinimumSize2(100, 50)

	w.widget.OnPaintEvent(func(super func(event *qt.QPaintEvent), event *qt.QPaintEvent) {
		w.paintEvent(event)
	})
	w.widget.OnKeyPressEvent(func(super func(event *qt.QKeyEvent), event *qt.QKeyEvent) {
		w.keyPressEvent(event)
	})
	w.widget.OnResizeEvent(func(super func(event *qt.QResizeEvent), event *qt.QResizeEvent) {
		w.resizeEvent(event)
	})

	return w
}

// QWidget returns the underlying Qt widget for embedding in layouts.
func (w *Widget) QWidget() *qt.QWidget {
	return w.widget
}

// Client returns the Neovim client driving this widget.
func (w *Widget) Client() *opentuinvim.Client {
	return w.client
}

// SetFont changes the rendering font and recalculates cell metrics.
func (w *Widget) SetFont(family string, size int) {
	w.mu.Lock()
	w.fontFamily = family
	w.fontSize = size
	w.mu.Unlock()

	w.updateFontMetrics()
	w.resizeEvent(nil)
	w.widget.Update()
}

// SetResizeCallback registers a callback invoked when the widget size
// maps to a new grid size.
func (w *Widget) SetResizeCallback(fn func(cols, rows int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onResize = fn
}

func (w *Widget) updateFontMetrics() {
	w.mu.Lock()
	defer w.mu.Unlock()

	font := qt.NewQFont6(w.fontFamily, w.fontSize)
	font.SetFixedPitch(true)
	metrics := qt.NewQFontMetrics(font)
	w.charWidth = metrics.AverageCharWidth()
	w.charHeight = metrics.Height()
	w.charAscent = metrics.Ascent()
	if w.charWidth < 1 {
		w.charWidth = w.fontSize * 6 / 10
	}
	if w.charHeight < 1 {
		w.charHeight = w.fontSize * 12 / 10
	}
}

func (w *Widget) resizeEvent(event *qt.QResizeEvent) {
	w.mu.Lock()
	charWidth, charHeight := w.charWidth, w.charHeight
	onResize := w.onResize
	w.mu.Unlock()

	newCols := w.widget.Width() / charWidth
	newRows := w.widget.Height() / charHeight
	if newCols < 1 {
		newCols = 1
	}
	if newRows < 1 {
		newRows = 1
	}

	snap := w.client.Snapshot()
	if newCols != snap.Width || newRows != snap.Height {
		w.client.Resize(newCols, newRows)
		if onResize != nil {
			onResize(newCols, newRows)
		}
	}
}

func (w *Widget) paintEvent(event *qt.QPaintEvent) {
	w.mu.Lock()
	fontFamily := w.fontFamily
	fontSize := w.fontSize
	charWidth := w.charWidth
	charHeight := w.charHeight
	charAscent := w.charAscent
	w.mu.Unlock()

	snap := w.client.Snapshot()

	painter := qt.NewQPainter2(w.widget.QPaintDevice)
	defer painter.End()

	bg := snap.Background
	bgColor := qt.NewQColor3(int(bg.R), int(bg.G), int(bg.B))
	painter.FillRect5(0, 0, w.widget.Width(), w.widget.Height(), bgColor)

	font := qt.NewQFont6(fontFamily, fontSize)
	font.SetFixedPitch(true)
	painter.SetFont(font)

	for row := 0; row < snap.Height; row++ {
		for col := 0; col < snap.Width; col++ {
			cell := snap.Cells[row*snap.Width+col]
			if cell.Text == "" {
				continue // trailing half of a wide glyph
			}

			cellX := col * charWidth
			cellY := row * charHeight
			cellW := charWidth
			if runewidth.StringWidth(cell.Text) > 1 {
				cellW = charWidth * 2
			}

			st := cell.Style
			if st.Background != snap.Background {
				cellBg := qt.NewQColor3(int(st.Background.R), int(st.Background.G), int(st.Background.B))
				painter.FillRect5(cellX, cellY, cellW, charHeight, cellBg)
			}

			if cell.Text != " " {
				w.drawCellText(painter, cell, cellX, cellY+charAscent, fontFamily, fontSize)
			}

			fgColor := qt.NewQColor3(int(st.Foreground.R), int(st.Foreground.G), int(st.Foreground.B))
			if st.Attr.Has(opentuinvim.AttrUnderline) {
				painter.FillRect5(cellX, cellY+charHeight-2, cellW, 1, fgColor)
			}
			if st.Attr.Has(opentuinvim.AttrStrikethrough) {
				painter.FillRect5(cellX, cellY+charHeight/2, cellW, 1, fgColor)
			}
		}
	}

	w.drawCursor(painter, snap, fontFamily, fontSize, charWidth, charHeight, charAscent)
}

func (w *Widget) drawCellText(painter *qt.QPainter, cell opentuinvim.RenderCell, x, baselineY int, fontFamily string, fontSize int) {
	st := cell.Style
	if st.Attr.Has(opentuinvim.AttrBold) || st.Attr.Has(opentuinvim.AttrItalic) {
		drawFont := qt.NewQFont6(fontFamily, fontSize)
		drawFont.SetFixedPitch(true)
		if st.Attr.Has(opentuinvim.AttrBold) {
			drawFont.SetBold(true)
		}
		if st.Attr.Has(opentuinvim.AttrItalic) {
			drawFont.SetItalic(true)
		}
		painter.SetFont(drawFont)
		defer func() {
			plain := qt.NewQFont6(fontFamily, fontSize)
			plain.SetFixedPitch(true)
			painter.SetFont(plain)
		}()
	}

	fgColor := qt.NewQColor3(int(st.Foreground.R), int(st.Foreground.G), int(st.Foreground.B))
	pen := qt.NewQPen3(fgColor)
	painter.SetPenWithPen(pen)
	painter.DrawText3(x, baselineY, cell.Text)
}

// drawCursor paints the cursor for the current mode: a filled block in
// normal mode, a vertical bar in insert mode, an underline in replace mode.
func (w *Widget) drawCursor(painter *qt.QPainter, snap opentuinvim.Snapshot, fontFamily string, fontSize, charWidth, charHeight, charAscent int) {
	row, col := snap.Cursor.ScreenRow, snap.Cursor.ScreenCol
	if row < 0 || row >= snap.Height || col < 0 || col >= snap.Width {
		return
	}
	cell := snap.Cells[row*snap.Width+col]

	cellX := col * charWidth
	cellY := row * charHeight

	fg := cell.Style.Foreground
	fgColor := qt.NewQColor3(int(fg.R), int(fg.G), int(fg.B))

	switch snap.CursorShape {
	case opentuinvim.ShapeVertical:
		painter.FillRect5(cellX, cellY, 2, charHeight, fgColor)
	case opentuinvim.ShapeHorizontal:
		painter.FillRect5(cellX, cellY+charHeight-3, charWidth, 3, fgColor)
	default:
		painter.FillRect5(cellX, cellY, charWidth, charHeight, fgColor)
		if cell.Text != "" && cell.Text != " " {
			bg := cell.Style.Background
			bgColor := qt.NewQColor3(int(bg.R), int(bg.G), int(bg.B))
			pen := qt.NewQPen3(bgColor)
			painter.SetPenWithPen(pen)
			painter.DrawText3(cellX, cellY+charAscent, cell.Text)
		}
	}
}

// qtKeyNames maps Qt key codes to key names understood by the client's
// key translator.
var qtKeyNames = map[qt.Key]string{
	qt.Key_Escape:    "escape",
	qt.Key_Return:    "return",
	qt.Key_Enter:     "return",
	qt.Key_Backspace: "backspace",
	qt.Key_Tab:       "tab",
	qt.Key_Backtab:   "tab",
	qt.Key_Space:     "space",
	qt.Key_Delete:    "delete",
	qt.Key_Insert:    "insert",
	qt.Key_Up:        "up",
	qt.Key_Down:      "down",
	qt.Key_Left:      "left",
	qt.Key_Right:     "right",
	qt.Key_Home:      "home",
	qt.Key_End:       "end",
	qt.Key_PageUp:    "pageup",
	qt.Key_PageDown:  "pagedown",
	qt.Key_F1:        "f1",
	qt.Key_F2:        "f2",
	qt.Key_F3:        "f3",
	qt.Key_F4:        "f4",
	qt.Key_F5:        "f5",
	qt.Key_F6:        "f6",
	qt.Key_F7:        "f7",
	qt.Key_F8:        "f8",
	qt.Key_F9:        "f9",
	qt.Key_F10:       "f10",
	qt.Key_F11:       "f11",
	qt.Key_F12:       "f12",
}

func isModifierKey(key qt.Key) bool {
	switch key {
	case qt.Key_Shift, qt.Key_Control, qt.Key_Alt, qt.Key_AltGr,
		qt.Key_Meta, qt.Key_Super, qt.Key_Hyper,
		qt.Key_CapsLock, qt.Key_NumLock, qt.Key_ScrollLock:
		return true
	}
	return false
}

func (w *Widget) keyPressEvent(event *qt.QKeyEvent) {
	event.Accept()

	key := qt.Key(event.Key())
	if isModifierKey(key) {
		return
	}

	modifiers := event.Modifiers()
	hasShift := modifiers&qt.ShiftModifier != 0
	hasCtrl := modifiers&qt.ControlModifier != 0
	hasAlt := modifiers&qt.AltModifier != 0

	// On macOS Qt reports the Command key as ControlModifier and the
	// physical Ctrl key as MetaModifier.
	if runtime.GOOS == "darwin" {
		hasCtrl = modifiers&qt.MetaModifier != 0
	}

	kev := opentuinvim.KeyEvent{
		Ctrl:  hasCtrl,
		Alt:   hasAlt,
		Shift: hasShift,
	}

	if name, ok := qtKeyNames[key]; ok {
		kev.Key = name
	} else if text := event.Text(); text != "" {
		for _, r := range text {
			kev.Ch = r
			break
		}
		if kev.Ch == 0 || kev.Ch < 0x20 {
			// Control characters arrive as the folded rune; recover
			// the letter from the key code instead.
			if key >= qt.Key_A && key <= qt.Key_Z {
				kev.Ch = rune('a' + int(key-qt.Key_A))
			} else {
				return
			}
		}
	} else if key >= qt.Key_A && key <= qt.Key_Z {
		kev.Ch = rune('a' + int(key-qt.Key_A))
	} else {
		return
	}

	w.client.SendKey(kev)
}
