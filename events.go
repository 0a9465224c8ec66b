package opentuinvim

// The redraw notification carries loosely-typed arrays of event tuples.
// This file is the protocol boundary: each tuple is decoded into one of a
// closed set of event variants. Unknown event names and malformed tuples
// decode to nil and are skipped, so a bad event never derails the rest of
// its batch.

type redrawEvent interface {
	redrawEvent()
}

type eventDefaultColorsSet struct {
	Fg, Bg, Special int
}

type eventHlAttrDefine struct {
	ID    int
	Attrs HighlightAttrs
}

type eventGridResize struct {
	Grid, Width, Height int
}

type eventGridClear struct {
	Grid int
}

type eventGridCursorGoto struct {
	Grid, Row, Col int
}

type eventGridScroll struct {
	Grid, Top, Bot, Left, Right, Rows, Cols int
}

type eventGridLine struct {
	Grid, Row, ColStart int
	Runs                []CellRun
}

type eventModeInfoSet struct {
	CursorStyleEnabled bool
	Modes              []ModeInfo
}

type eventModeChange struct {
	Mode string
	Idx  int
}

type eventPopupmenuShow struct {
	Items          []CompletionItem
	Selected       int
	Row, Col, Grid int
}

type eventPopupmenuSelect struct {
	Selected int
}

type eventPopupmenuHide struct{}

type eventFlush struct{}

func (eventDefaultColorsSet) redrawEvent() {}
func (eventHlAttrDefine) redrawEvent()     {}
func (eventGridResize) redrawEvent()       {}
func (eventGridClear) redrawEvent()        {}
func (eventGridCursorGoto) redrawEvent()   {}
func (eventGridScroll) redrawEvent()       {}
func (eventGridLine) redrawEvent()         {}
func (eventModeInfoSet) redrawEvent()      {}
func (eventModeChange) redrawEvent()       {}
func (eventPopupmenuShow) redrawEvent()    {}
func (eventPopupmenuSelect) redrawEvent()  {}
func (eventPopupmenuHide) redrawEvent()    {}
func (eventFlush) redrawEvent()            {}

// parseRedrawBatch decodes one redraw notification payload. Each update is
// [name, args, args, ...]: a single event name can carry several argument
// tuples. Events come back in wire order; undecodable entries are dropped.
func parseRedrawBatch(updates [][]interface{}) []redrawEvent {
	var events []redrawEvent
	for _, update := range updates {
		if len(update) < 1 {
			continue
		}
		name, ok := update[0].(string)
		if !ok {
			continue
		}
		for _, raw := range update[1:] {
			args, ok := raw.([]interface{})
			if !ok {
				continue
			}
			if ev := parseRedrawEvent(name, args); ev != nil {
				events = append(events, ev)
			}
		}
	}
	return events
}

func parseRedrawEvent(name string, args []interface{}) redrawEvent {
	switch name {
	case "default_colors_set":
		if len(args) < 3 {
			return nil
		}
		return eventDefaultColorsSet{
			Fg:      asInt(args[0], -1),
			Bg:      asInt(args[1], -1),
			Special: asInt(args[2], -1),
		}

	case "hl_attr_define":
		if len(args) < 2 {
			return nil
		}
		rgb, ok := args[1].(map[string]interface{})
		if !ok {
			return nil
		}
		return eventHlAttrDefine{
			ID:    asInt(args[0], 0),
			Attrs: parseHlAttrs(rgb),
		}

	case "grid_resize":
		if len(args) < 3 {
			return nil
		}
		return eventGridResize{
			Grid:   asInt(args[0], 0),
			Width:  asInt(args[1], 0),
			Height: asInt(args[2], 0),
		}

	case "grid_clear":
		if len(args) < 1 {
			return nil
		}
		return eventGridClear{Grid: asInt(args[0], 0)}

	case "grid_cursor_goto":
		if len(args) < 3 {
			return nil
		}
		return eventGridCursorGoto{
			Grid: asInt(args[0], 0),
			Row:  asInt(args[1], 0),
			Col:  asInt(args[2], 0),
		}

	case "grid_scroll":
		if len(args) < 7 {
			return nil
		}
		return eventGridScroll{
			Grid:  asInt(args[0], 0),
			Top:   asInt(args[1], 0),
			Bot:   asInt(args[2], 0),
			Left:  asInt(args[3], 0),
			Right: asInt(args[4], 0),
			Rows:  asInt(args[5], 0),
			Cols:  asInt(args[6], 0),
		}

	case "grid_line":
		if len(args) < 4 {
			return nil
		}
		cells, ok := args[3].([]interface{})
		if !ok {
			return nil
		}
		return eventGridLine{
			Grid:     asInt(args[0], 0),
			Row:      asInt(args[1], 0),
			ColStart: asInt(args[2], 0),
			Runs:     parseCellRuns(cells),
		}

	case "mode_info_set":
		if len(args) < 2 {
			return nil
		}
		infos, ok := args[1].([]interface{})
		if !ok {
			return nil
		}
		return eventModeInfoSet{
			CursorStyleEnabled: asBool(args[0]),
			Modes:              parseModeInfos(infos),
		}

	case "mode_change":
		if len(args) < 2 {
			return nil
		}
		mode, ok := args[0].(string)
		if !ok {
			return nil
		}
		return eventModeChange{Mode: mode, Idx: asInt(args[1], 0)}

	case "popupmenu_show":
		if len(args) < 5 {
			return nil
		}
		items, ok := args[0].([]interface{})
		if !ok {
			return nil
		}
		return eventPopupmenuShow{
			Items:    parsePopupItems(items),
			Selected: asInt(args[1], -1),
			Row:      asInt(args[2], 0),
			Col:      asInt(args[3], 0),
			Grid:     asInt(args[4], 0),
		}

	case "popupmenu_select":
		if len(args) < 1 {
			return nil
		}
		return eventPopupmenuSelect{Selected: asInt(args[0], -1)}

	case "popupmenu_hide":
		return eventPopupmenuHide{}

	case "flush":
		return eventFlush{}
	}
	return nil
}

// parseHlAttrs decodes the rgb_attrs map of hl_attr_define. All underline
// variants collapse into the single underline bit.
func parseHlAttrs(rgb map[string]interface{}) HighlightAttrs {
	var attrs HighlightAttrs
	if fg, ok := rgb["foreground"]; ok {
		c := ColorFromRGB(asInt(fg, 0))
		attrs.Foreground = &c
	}
	if bg, ok := rgb["background"]; ok {
		c := ColorFromRGB(asInt(bg, 0))
		attrs.Background = &c
	}
	if sp, ok := rgb["special"]; ok {
		c := ColorFromRGB(asInt(sp, 0))
		attrs.Special = &c
	}
	if asBool(rgb["bold"]) {
		attrs.Attr |= AttrBold
	}
	if asBool(rgb["italic"]) {
		attrs.Attr |= AttrItalic
	}
	if asBool(rgb["underline"]) || asBool(rgb["undercurl"]) ||
		asBool(rgb["underdouble"]) || asBool(rgb["underdotted"]) ||
		asBool(rgb["underdashed"]) {
		attrs.Attr |= AttrUnderline
	}
	if asBool(rgb["strikethrough"]) {
		attrs.Attr |= AttrStrikethrough
	}
	if asBool(rgb["reverse"]) {
		attrs.Attr |= AttrReverse
	}
	return attrs
}

// parseCellRuns decodes the cells array of grid_line. A missing highlight
// id becomes -1 ("continue previous").
func parseCellRuns(cells []interface{}) []CellRun {
	runs := make([]CellRun, 0, len(cells))
	for _, raw := range cells {
		tuple, ok := raw.([]interface{})
		if !ok || len(tuple) < 1 {
			continue
		}
		text, ok := tuple[0].(string)
		if !ok {
			continue
		}
		run := CellRun{Text: text, HlID: -1, Repeat: 1}
		if len(tuple) >= 2 {
			run.HlID = asInt(tuple[1], -1)
		}
		if len(tuple) >= 3 {
			run.Repeat = asInt(tuple[2], 1)
		}
		runs = append(runs, run)
	}
	return runs
}

func parseModeInfos(infos []interface{}) []ModeInfo {
	modes := make([]ModeInfo, 0, len(infos))
	for _, raw := range infos {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		info := ModeInfo{CellPercentage: 100}
		if v, ok := m["name"].(string); ok {
			info.Name = v
		}
		if v, ok := m["short_name"].(string); ok {
			info.ShortName = v
		}
		if v, ok := m["cursor_shape"].(string); ok {
			info.CursorShape = v
		}
		if v, ok := m["cell_percentage"]; ok {
			info.CellPercentage = asInt(v, 100)
		}
		info.BlinkWait = asInt(m["blinkwait"], 0)
		info.BlinkOn = asInt(m["blinkon"], 0)
		info.BlinkOff = asInt(m["blinkoff"], 0)
		modes = append(modes, info)
	}
	return modes
}

// parsePopupItems decodes popupmenu_show items: [word, kind, menu, info].
func parsePopupItems(items []interface{}) []CompletionItem {
	out := make([]CompletionItem, 0, len(items))
	for _, raw := range items {
		tuple, ok := raw.([]interface{})
		if !ok || len(tuple) < 1 {
			continue
		}
		word, ok := tuple[0].(string)
		if !ok {
			continue
		}
		item := CompletionItem{Word: word}
		if len(tuple) >= 2 {
			item.Kind, _ = tuple[1].(string)
		}
		if len(tuple) >= 3 {
			item.Menu, _ = tuple[2].(string)
		}
		if len(tuple) >= 4 {
			item.Info, _ = tuple[3].(string)
		}
		out = append(out, item)
	}
	return out
}

// asInt converts the numeric types msgpack decoding can produce.
func asInt(v interface{}, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	}
	return fallback
}

func asBool(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}
