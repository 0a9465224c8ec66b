package opentuinvim

// HighlightTable maps highlight ids from the redraw stream to their
// attribute entries and owns the default color pair used as fallback.
//
// The table is mutated only from the redraw dispatch loop; concurrent
// readers (grid snapshots) are synchronized by the owning Client.
type HighlightTable struct {
	entries map[int]HighlightAttrs

	defaultFg Color
	defaultBg Color
	defaultSp Color
}

// NewHighlightTable creates a table with the built-in default colors.
func NewHighlightTable() *HighlightTable {
	return &HighlightTable{
		entries:   make(map[int]HighlightAttrs),
		defaultFg: DefaultForeground,
		defaultBg: DefaultBackground,
		defaultSp: DefaultForeground,
	}
}

// SetDefaults updates the fallback colors (default_colors_set). Negative
// packed values leave the corresponding color unchanged, matching the
// protocol's "not specified" convention.
func (t *HighlightTable) SetDefaults(fg, bg, sp int) {
	if fg >= 0 {
		t.defaultFg = ColorFromRGB(fg)
	}
	if bg >= 0 {
		t.defaultBg = ColorFromRGB(bg)
	}
	if sp >= 0 {
		t.defaultSp = ColorFromRGB(sp)
	}
}

// Defaults returns the current default foreground/background pair.
func (t *HighlightTable) Defaults() (fg, bg Color) {
	return t.defaultFg, t.defaultBg
}

// Define installs or replaces the entry for id (hl_attr_define).
func (t *HighlightTable) Define(id int, attrs HighlightAttrs) {
	t.entries[id] = attrs
}

// Resolve returns the concrete style for a highlight id. Ids missing from
// the table (including id 0) resolve to the current defaults with no
// attribute bits. Reverse is applied by swapping the resolved colors; the
// AttrReverse bit stays set so renderers can still tell.
func (t *HighlightTable) Resolve(id int) Style {
	entry, ok := t.entries[id]
	if !ok {
		return Style{Foreground: t.defaultFg, Background: t.defaultBg}
	}

	fg := t.defaultFg
	if entry.Foreground != nil {
		fg = *entry.Foreground
	}
	bg := t.defaultBg
	if entry.Background != nil {
		bg = *entry.Background
	}
	if entry.Attr.Has(AttrReverse) {
		fg, bg = bg, fg
	}
	return Style{Foreground: fg, Background: bg, Attr: entry.Attr}
}
