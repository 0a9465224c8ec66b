package opentuinvim

import (
	"testing"
)

// newTestClient builds a client around fakes, skipping process spawn.
func newTestClient(t *testing.T) (*Client, *fakeCompletionRemote) {
	t.Helper()
	log := NewStdLogger(nil)
	remote := &fakeCompletionRemote{}
	c := &Client{
		grid:       NewGrid(10, 4),
		highlights: NewHighlightTable(),
		log:        log,
	}
	c.cursor = newCursorTracker(func() (int, int, error) { return 1, 0, nil }, log)
	c.completion = newCompletionEngine(remote, true, c.cursor.State, c, log)
	return c, remote
}

func TestClient_BatchAppliedInOrderAndPresentedOnFlush(t *testing.T) {
	c, _ := newTestClient(t)

	dirty := 0
	c.SetDirtyCallback(func() { dirty++ })

	c.applyBatch([]redrawEvent{
		eventGridResize{Grid: 1, Width: 6, Height: 3},
		eventGridLine{Grid: 1, Row: 0, ColStart: 0, Runs: []CellRun{{Text: "h", HlID: 2}, {Text: "i", HlID: -1}}},
		eventGridCursorGoto{Grid: 1, Row: 0, Col: 2},
	})

	// No flush yet: the screen must not be presented.
	if dirty != 0 {
		t.Fatalf("presented before flush")
	}

	c.applyBatch([]redrawEvent{eventFlush{}})
	if dirty != 1 {
		t.Fatalf("dirty count after flush: %d", dirty)
	}

	snap := c.Snapshot()
	if snap.Width != 6 || snap.Height != 3 {
		t.Fatalf("snapshot size: %dx%d", snap.Width, snap.Height)
	}
	if snap.Cells[0].Text != "h" || snap.Cells[1].Text != "i" {
		t.Fatalf("cells: %+v", snap.Cells[:2])
	}
	if snap.Cursor.ScreenCol != 2 {
		t.Fatalf("cursor: %+v", snap.Cursor)
	}
}

func TestClient_SnapshotResolvesHighlights(t *testing.T) {
	c, _ := newTestClient(t)

	fg := 0x00ff00
	c.applyBatch([]redrawEvent{
		eventDefaultColorsSet{Fg: 0x111111, Bg: 0x222222, Special: -1},
		eventHlAttrDefine{ID: 2, Attrs: HighlightAttrs{Foreground: colorPtr(fg), Attr: AttrBold}},
		eventGridLine{Grid: 1, Row: 0, ColStart: 0, Runs: []CellRun{{Text: "x", HlID: 2}, {Text: "y", HlID: 0}}},
		eventFlush{},
	})

	snap := c.Snapshot()
	styled := snap.Cells[0]
	if styled.Style.Foreground != ColorFromRGB(fg) || !styled.Style.Attr.Has(AttrBold) {
		t.Fatalf("styled cell: %+v", styled)
	}
	plain := snap.Cells[1]
	if plain.Style.Foreground != ColorFromRGB(0x111111) || plain.Style.Background != ColorFromRGB(0x222222) {
		t.Fatalf("default-styled cell: %+v", plain)
	}
	if snap.Background != ColorFromRGB(0x222222) {
		t.Fatalf("snapshot background: %+v", snap.Background)
	}
}

func TestClient_ModeEventsRouted(t *testing.T) {
	c, _ := newTestClient(t)

	var modes []string
	c.RegisterModeObserver(modeFunc(func(prev, next string) {
		modes = append(modes, next)
	}))
	c.cursor.onMode = c.notifyMode

	c.applyBatch([]redrawEvent{
		eventModeInfoSet{Modes: []ModeInfo{{Name: "insert", CursorShape: "vertical"}}},
		eventModeChange{Mode: "insert"},
		eventModeChange{Mode: "insert"}, // repeat must not re-fire
		eventFlush{},
	})

	if len(modes) != 1 || modes[0] != "insert" {
		t.Fatalf("mode callbacks: %v", modes)
	}
	if c.Mode() != "insert" {
		t.Fatalf("mode: %q", c.Mode())
	}
	if c.Snapshot().CursorShape != ShapeVertical {
		t.Fatalf("shape: %v", c.Snapshot().CursorShape)
	}
}

func TestClient_PopupEventsRouted(t *testing.T) {
	c, _ := newTestClient(t)

	rec := &clientCompletionRecorder{}
	c.RegisterCompletionObserver(rec)

	c.applyBatch([]redrawEvent{
		eventPopupmenuShow{Items: []CompletionItem{{Word: "w"}}, Selected: 0, Row: 1, Col: 2, Grid: 1},
		eventPopupmenuSelect{Selected: 0},
		eventPopupmenuHide{},
		eventFlush{},
	})

	want := []string{"shown", "selected", "confirmed", "hidden"}
	if len(rec.order) != len(want) {
		t.Fatalf("callbacks: %v", rec.order)
	}
	for i := range want {
		if rec.order[i] != want[i] {
			t.Fatalf("callback order: %v", rec.order)
		}
	}
}

func TestClient_ReadyFiresOncePerLifetime(t *testing.T) {
	c, _ := newTestClient(t)

	ready := 0
	c.OnReady(func() { ready++ })

	c.applyBatch([]redrawEvent{eventFlush{}})
	c.applyBatch([]redrawEvent{eventFlush{}})

	if ready != 1 {
		t.Fatalf("ready count: %d", ready)
	}

	// Late registration fires immediately.
	late := 0
	c.OnReady(func() { late++ })
	if late != 1 {
		t.Fatalf("late ready count: %d", late)
	}
}

func colorPtr(rgb int) *Color {
	c := ColorFromRGB(rgb)
	return &c
}

type modeFunc func(prev, next string)

func (f modeFunc) ModeChanged(prev, next string) { f(prev, next) }

type clientCompletionRecorder struct {
	order []string
}

func (r *clientCompletionRecorder) CompletionShown([]CompletionItem, int, CompletionAnchor) {
	r.order = append(r.order, "shown")
}

func (r *clientCompletionRecorder) CompletionSelected(int) {
	r.order = append(r.order, "selected")
}

func (r *clientCompletionRecorder) CompletionConfirmed(int, CompletionItem) {
	r.order = append(r.order, "confirmed")
}

func (r *clientCompletionRecorder) CompletionHidden() {
	r.order = append(r.order, "hidden")
}
