package opentuinvim

// Attr is a bitset of text rendering attributes attached to a highlight.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrItalic
	AttrUnderline // all underline variants collapse into this bit
	AttrStrikethrough
	AttrReverse
)

// Has reports whether all bits of mask are set.
func (a Attr) Has(mask Attr) bool {
	return a&mask == mask
}

// Cell is a single character cell in the grid.
//
// Text is one grapheme cluster as delivered by grid_line. An empty Text
// marks the trailing column of a double-width glyph occupying the previous
// cell; renderers paint only its background.
type Cell struct {
	Text string
	HlID int // highlight table key; 0 is the default style
}

// IsContinuation reports whether the cell is the trailing half of a
// double-width glyph.
func (c Cell) IsContinuation() bool {
	return c.Text == ""
}

// blankCell is the value cleared and newly exposed cells take.
var blankCell = Cell{Text: " ", HlID: 0}

// HighlightAttrs is one entry of the highlight table, as defined by
// hl_attr_define. Nil colors fall back to the current defaults at
// resolution time.
type HighlightAttrs struct {
	Foreground *Color
	Background *Color
	Special    *Color
	Attr       Attr
}

// Style is a fully resolved cell style: concrete colors with defaults
// applied and the reverse swap already performed.
type Style struct {
	Foreground Color
	Background Color
	Attr       Attr
}
