package cli

import (
	"github.com/gdamore/tcell/v2"

	opentuinvim "github.com/Adictya/opentui-nvim"
)

// paint draws the current snapshot onto the tcell screen.
func (t *Terminal) paint() {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.client.Snapshot()
	fill := tcell.StyleDefault.Background(toTcellColor(snap.Background))

	width, height := t.screen.Size()
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if row >= snap.Height || col >= snap.Width {
				t.screen.SetContent(col, row, ' ', nil, fill)
				continue
			}
			cell := snap.Cells[row*snap.Width+col]
			if cell.Text == "" {
				// Trailing half of a wide glyph: the previous
				// SetContent already covers this column.
				continue
			}
			main, comb := splitGrapheme(cell.Text)
			t.screen.SetContent(col, row, main, comb, toTcellStyle(cell.Style))
		}
	}

	cur := snap.Cursor
	if cur.ScreenRow >= 0 && cur.ScreenRow < snap.Height && cur.ScreenCol >= 0 && cur.ScreenCol < snap.Width {
		t.screen.ShowCursor(cur.ScreenCol, cur.ScreenRow)
		t.screen.SetCursorStyle(toTcellCursorStyle(snap.CursorShape))
	} else {
		t.screen.HideCursor()
	}

	t.screen.Show()
}

// splitGrapheme splits a grapheme cluster into tcell's main rune plus
// combining runes.
func splitGrapheme(text string) (rune, []rune) {
	runes := []rune(text)
	if len(runes) == 0 {
		return ' ', nil
	}
	if len(runes) == 1 {
		return runes[0], nil
	}
	return runes[0], runes[1:]
}

// toTcellStyle converts a resolved style. The reverse swap already
// happened during highlight resolution, so only the typographic attributes
// are mapped here.
func toTcellStyle(s opentuinvim.Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(toTcellColor(s.Foreground)).
		Background(toTcellColor(s.Background))
	if s.Attr.Has(opentuinvim.AttrBold) {
		style = style.Bold(true)
	}
	if s.Attr.Has(opentuinvim.AttrItalic) {
		style = style.Italic(true)
	}
	if s.Attr.Has(opentuinvim.AttrUnderline) {
		style = style.Underline(true)
	}
	if s.Attr.Has(opentuinvim.AttrStrikethrough) {
		style = style.StrikeThrough(true)
	}
	return style
}

func toTcellColor(c opentuinvim.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func toTcellCursorStyle(shape opentuinvim.CursorShape) tcell.CursorStyle {
	switch shape {
	case opentuinvim.ShapeVertical:
		return tcell.CursorStyleSteadyBar
	case opentuinvim.ShapeHorizontal:
		return tcell.CursorStyleSteadyUnderline
	default:
		return tcell.CursorStyleSteadyBlock
	}
}
