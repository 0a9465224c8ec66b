package opentuinvim

import (
	"reflect"
	"testing"
)

func TestParseRedrawBatch_WireOrderAndMultipleArgSets(t *testing.T) {
	updates := [][]interface{}{
		{"grid_resize", []interface{}{int64(1), int64(80), int64(24)}},
		{"grid_line",
			[]interface{}{int64(1), int64(0), int64(0), []interface{}{[]interface{}{"a", int64(5)}}},
			[]interface{}{int64(1), int64(1), int64(0), []interface{}{[]interface{}{"b"}}},
		},
		{"flush", []interface{}{}},
	}

	events := parseRedrawBatch(updates)

	if len(events) != 4 {
		t.Fatalf("event count: got %d want 4", len(events))
	}
	if _, ok := events[0].(eventGridResize); !ok {
		t.Fatalf("events[0]: %T", events[0])
	}
	line1, ok := events[1].(eventGridLine)
	if !ok {
		t.Fatalf("events[1]: %T", events[1])
	}
	if line1.Row != 0 || len(line1.Runs) != 1 || line1.Runs[0].HlID != 5 {
		t.Fatalf("first grid_line: %+v", line1)
	}
	line2 := events[2].(eventGridLine)
	if line2.Row != 1 || line2.Runs[0].HlID != -1 {
		t.Fatalf("second grid_line should have omitted hl: %+v", line2)
	}
	if _, ok := events[3].(eventFlush); !ok {
		t.Fatalf("events[3]: %T", events[3])
	}
}

func TestParseRedrawBatch_ToleratesMalformedTuples(t *testing.T) {
	updates := [][]interface{}{
		{},                                    // empty update
		{int64(99), []interface{}{}},          // non-string name
		{"grid_resize", []interface{}{int64(1)}}, // too few args
		{"no_such_event", []interface{}{int64(1), int64(2)}},
		{"grid_clear", "not-a-tuple"},
		{"grid_clear", []interface{}{int64(1)}},
	}

	events := parseRedrawBatch(updates)

	if len(events) != 1 {
		t.Fatalf("only the well-formed grid_clear should survive, got %d", len(events))
	}
	if _, ok := events[0].(eventGridClear); !ok {
		t.Fatalf("survivor: %T", events[0])
	}
}

func TestParseRedrawEvent_HlAttrDefine(t *testing.T) {
	ev := parseRedrawEvent("hl_attr_define", []interface{}{
		int64(11),
		map[string]interface{}{
			"foreground": int64(0xff0000),
			"reverse":    true,
			"bold":       true,
			"undercurl":  true,
		},
		map[string]interface{}{},
		[]interface{}{},
	})

	def, ok := ev.(eventHlAttrDefine)
	if !ok {
		t.Fatalf("wrong variant: %T", ev)
	}
	if def.ID != 11 {
		t.Fatalf("id: %d", def.ID)
	}
	if def.Attrs.Foreground == nil || *def.Attrs.Foreground != ColorFromRGB(0xff0000) {
		t.Fatalf("fg: %+v", def.Attrs.Foreground)
	}
	if def.Attrs.Background != nil {
		t.Fatalf("bg should be unset")
	}
	want := AttrReverse | AttrBold | AttrUnderline
	if def.Attrs.Attr != want {
		t.Fatalf("attrs: got %b want %b", def.Attrs.Attr, want)
	}
}

func TestParseRedrawEvent_UnderlineVariantsCollapse(t *testing.T) {
	for _, variant := range []string{"underline", "undercurl", "underdouble", "underdotted", "underdashed"} {
		ev := parseRedrawEvent("hl_attr_define", []interface{}{
			int64(1),
			map[string]interface{}{variant: true},
		})
		def := ev.(eventHlAttrDefine)
		if !def.Attrs.Attr.Has(AttrUnderline) {
			t.Fatalf("%s should set the underline bit", variant)
		}
	}
}

func TestParseRedrawEvent_GridScroll(t *testing.T) {
	ev := parseRedrawEvent("grid_scroll", []interface{}{
		int64(1), int64(0), int64(5), int64(0), int64(10), int64(1), int64(0),
	})
	want := eventGridScroll{Grid: 1, Top: 0, Bot: 5, Left: 0, Right: 10, Rows: 1, Cols: 0}
	if !reflect.DeepEqual(ev, want) {
		t.Fatalf("got %+v want %+v", ev, want)
	}
}

func TestParseRedrawEvent_ModeInfoSet(t *testing.T) {
	ev := parseRedrawEvent("mode_info_set", []interface{}{
		true,
		[]interface{}{
			map[string]interface{}{
				"name":            "normal",
				"short_name":      "n",
				"cursor_shape":    "block",
				"cell_percentage": int64(0),
			},
			map[string]interface{}{
				"name":         "insert",
				"cursor_shape": "vertical",
				"blinkon":      int64(250),
			},
			"garbage entry",
		},
	})

	set, ok := ev.(eventModeInfoSet)
	if !ok {
		t.Fatalf("wrong variant: %T", ev)
	}
	if len(set.Modes) != 2 {
		t.Fatalf("modes: %d", len(set.Modes))
	}
	if set.Modes[1].Name != "insert" || set.Modes[1].CursorShape != "vertical" || set.Modes[1].BlinkOn != 250 {
		t.Fatalf("insert mode info: %+v", set.Modes[1])
	}
}

func TestParseRedrawEvent_PopupmenuShow(t *testing.T) {
	ev := parseRedrawEvent("popupmenu_show", []interface{}{
		[]interface{}{
			[]interface{}{"word1", "v", "menu1", "info1"},
			[]interface{}{"word2"},
		},
		int64(-1), int64(3), int64(7), int64(1),
	})

	show, ok := ev.(eventPopupmenuShow)
	if !ok {
		t.Fatalf("wrong variant: %T", ev)
	}
	if show.Selected != -1 || show.Row != 3 || show.Col != 7 {
		t.Fatalf("anchor fields: %+v", show)
	}
	if len(show.Items) != 2 || show.Items[0].Kind != "v" || show.Items[1].Word != "word2" {
		t.Fatalf("items: %+v", show.Items)
	}
}

func TestAsInt_NumericShapes(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int
	}{
		{int64(5), 5},
		{uint64(6), 6},
		{int(7), 7},
		{float64(8), 8},
		{"nope", -1},
		{nil, -1},
	}
	for _, tc := range cases {
		if got := asInt(tc.in, -1); got != tc.want {
			t.Fatalf("asInt(%v): got %d want %d", tc.in, got, tc.want)
		}
	}
}
