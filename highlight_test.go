package opentuinvim

import "testing"

func TestHighlightTable_MissingIDFallsBackToDefaults(t *testing.T) {
	tbl := NewHighlightTable()
	tbl.SetDefaults(0x112233, 0x445566, -1)

	style := tbl.Resolve(42)

	if style.Foreground != ColorFromRGB(0x112233) {
		t.Fatalf("fg: %+v", style.Foreground)
	}
	if style.Background != ColorFromRGB(0x445566) {
		t.Fatalf("bg: %+v", style.Background)
	}
	if style.Attr != 0 {
		t.Fatalf("attr bits should be zero, got %b", style.Attr)
	}
}

func TestHighlightTable_ReverseSwapsResolvedColors(t *testing.T) {
	tbl := NewHighlightTable()
	fg := ColorFromRGB(0xaa0000)
	bg := ColorFromRGB(0x0000bb)
	tbl.Define(7, HighlightAttrs{Foreground: &fg, Background: &bg, Attr: AttrReverse})

	style := tbl.Resolve(7)

	if style.Foreground != bg || style.Background != fg {
		t.Fatalf("reverse did not swap: %+v", style)
	}
	if !style.Attr.Has(AttrReverse) {
		t.Fatalf("inverse bit lost")
	}
}

func TestHighlightTable_ReverseUsesCurrentDefaults(t *testing.T) {
	tbl := NewHighlightTable()
	tbl.Define(3, HighlightAttrs{Attr: AttrReverse})
	tbl.SetDefaults(0x010203, 0x040506, -1)

	style := tbl.Resolve(3)

	// Entry has no explicit colors, so the swap applies to the defaults
	// in force at resolution time.
	if style.Foreground != ColorFromRGB(0x040506) || style.Background != ColorFromRGB(0x010203) {
		t.Fatalf("reverse over defaults: %+v", style)
	}
}

func TestHighlightTable_PartialEntryMixesWithDefaults(t *testing.T) {
	tbl := NewHighlightTable()
	tbl.SetDefaults(0x111111, 0x222222, -1)
	fg := ColorFromRGB(0x333333)
	tbl.Define(9, HighlightAttrs{Foreground: &fg, Attr: AttrBold | AttrUnderline})

	style := tbl.Resolve(9)

	if style.Foreground != fg {
		t.Fatalf("explicit fg lost: %+v", style.Foreground)
	}
	if style.Background != ColorFromRGB(0x222222) {
		t.Fatalf("bg should fall back: %+v", style.Background)
	}
	if !style.Attr.Has(AttrBold | AttrUnderline) {
		t.Fatalf("attrs: %b", style.Attr)
	}
}

func TestHighlightTable_NegativeDefaultLeavesColorUnchanged(t *testing.T) {
	tbl := NewHighlightTable()
	tbl.SetDefaults(0x111111, 0x222222, -1)
	tbl.SetDefaults(-1, 0x333333, -1)

	fg, bg := tbl.Defaults()
	if fg != ColorFromRGB(0x111111) {
		t.Fatalf("fg should be unchanged: %+v", fg)
	}
	if bg != ColorFromRGB(0x333333) {
		t.Fatalf("bg: %+v", bg)
	}
}
