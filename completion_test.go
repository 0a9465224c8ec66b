package opentuinvim

import (
	"fmt"
	"testing"
)

type fakeCompletionRemote struct {
	calls []string
	err   error
}

func (f *fakeCompletionRemote) Call(fname string, result interface{}, args ...interface{}) error {
	f.calls = append(f.calls, fmt.Sprintf("call:%s(%v)", fname, args[0]))
	return f.err
}

func (f *fakeCompletionRemote) SelectPopupmenuItem(item int, insert, finish bool, opts map[string]interface{}) error {
	f.calls = append(f.calls, fmt.Sprintf("select:%d,%v,%v", item, insert, finish))
	return f.err
}

type completionRecorder struct {
	events []string
}

func (r *completionRecorder) completionShown(items []CompletionItem, selected int, anchor CompletionAnchor) {
	r.events = append(r.events, fmt.Sprintf("show:%d,%d", len(items), selected))
}

func (r *completionRecorder) completionSelected(index int) {
	r.events = append(r.events, fmt.Sprintf("select:%d", index))
}

func (r *completionRecorder) completionConfirmed(index int, item CompletionItem) {
	r.events = append(r.events, fmt.Sprintf("confirm:%d,%s", index, item.Word))
}

func (r *completionRecorder) completionHidden() {
	r.events = append(r.events, "hide")
}

func testCursor() CursorState {
	return CursorState{Line: 1, Col: 4, ScreenRow: 2, ScreenCol: 5, Grid: 1}
}

func newTestEngine(ext bool) (*completionEngine, *fakeCompletionRemote, *completionRecorder) {
	remote := &fakeCompletionRemote{}
	rec := &completionRecorder{}
	engine := newCompletionEngine(remote, ext, testCursor, rec, NewStdLogger(nil))
	return engine, remote, rec
}

func twoItems() []CompletionItem {
	return []CompletionItem{{Word: "alpha"}, {Word: "beta"}}
}

func assertEvents(t *testing.T, rec *completionRecorder, want ...string) {
	t.Helper()
	if len(rec.events) != len(want) {
		t.Fatalf("events: got %v want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("event %d: got %v want %v", i, rec.events, want)
		}
	}
}

func TestCompletion_ShowThenHideNeverConfirms(t *testing.T) {
	engine, _, rec := newTestEngine(false)

	if err := engine.Show(twoItems(), ShowOptions{Selected: -1}); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if err := engine.Hide(); err != nil {
		t.Fatalf("Hide: %v", err)
	}

	assertEvents(t, rec, "show:2,-1", "hide")
	if engine.Visible() {
		t.Fatalf("engine still visible after hide")
	}
}

func TestCompletion_SelectFinishConfirmsBeforeHide(t *testing.T) {
	engine, _, rec := newTestEngine(false)

	if err := engine.Show(twoItems(), ShowOptions{Selected: -1}); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if err := engine.Select(1, false, true); err != nil {
		t.Fatalf("Select: %v", err)
	}

	assertEvents(t, rec, "show:2,-1", "select:1", "confirm:1,beta", "hide")
}

func TestCompletion_FinishImpliesInsert(t *testing.T) {
	engine, remote, _ := newTestEngine(false)

	_ = engine.Show(twoItems(), ShowOptions{Selected: -1})
	_ = engine.Select(0, false, true)

	last := remote.calls[len(remote.calls)-1]
	if last != "select:0,true,true" {
		t.Fatalf("finish should imply insert: %s", last)
	}
}

func TestCompletion_ShowResolvesCursorColumn(t *testing.T) {
	engine, remote, _ := newTestEngine(false)

	_ = engine.Show(twoItems(), ShowOptions{Selected: -1})

	// Cursor col 4 (0-based) becomes complete() column 5 (1-based).
	if remote.calls[0] != "call:complete(5)" {
		t.Fatalf("start column: %s", remote.calls[0])
	}
}

func TestCompletion_ShowWithInitialSelectionIssuesSelect(t *testing.T) {
	engine, remote, rec := newTestEngine(false)

	_ = engine.Show(twoItems(), ShowOptions{Selected: 1})

	if len(remote.calls) != 2 || remote.calls[1] != "select:1,false,false" {
		t.Fatalf("calls: %v", remote.calls)
	}
	assertEvents(t, rec, "show:2,1")
}

func TestCompletion_UpdateKeepsAnchorColumn(t *testing.T) {
	engine, remote, _ := newTestEngine(false)

	_ = engine.Show(twoItems(), ShowOptions{StartCol: 9, Selected: -1})
	_ = engine.Update([]CompletionItem{{Word: "gamma"}})

	if remote.calls[len(remote.calls)-1] != "call:complete(9)" {
		t.Fatalf("update should reuse start column: %v", remote.calls)
	}
}

func TestCompletion_HideIssuesDeselectAndClose(t *testing.T) {
	engine, remote, _ := newTestEngine(false)

	_ = engine.Show(twoItems(), ShowOptions{Selected: -1})
	_ = engine.Hide()

	if remote.calls[len(remote.calls)-1] != "select:-1,false,true" {
		t.Fatalf("hide call: %v", remote.calls)
	}
}

func TestCompletion_RemoteEventsAreAuthoritative(t *testing.T) {
	engine, _, rec := newTestEngine(true)

	// With the extension active, local calls emit nothing; the mirrored
	// state follows remote events.
	_ = engine.Show(twoItems(), ShowOptions{Selected: -1})
	assertEvents(t, rec)

	engine.handlePopupShow(eventPopupmenuShow{
		Items:    []CompletionItem{{Word: "x"}, {Word: "y"}, {Word: "z"}},
		Selected: -1,
		Row:      4, Col: 2, Grid: 1,
	})
	engine.handlePopupSelect(2)
	engine.handlePopupHide()

	assertEvents(t, rec, "show:3,-1", "select:2", "confirm:2,z", "hide")
}

func TestCompletion_ClientHideSuppressesRemoteConfirm(t *testing.T) {
	engine, _, rec := newTestEngine(true)

	engine.handlePopupShow(eventPopupmenuShow{Items: twoItems(), Selected: 0})
	_ = engine.Hide() // sets the hide-requested flag
	engine.handlePopupHide()

	assertEvents(t, rec, "show:2,0", "hide")
}

func TestCompletion_RemoteShowClearsStaleHideRequest(t *testing.T) {
	engine, remote, rec := newTestEngine(true)

	// A failed client hide never produces a popupmenu_hide, so nothing
	// resets the hide-requested flag before the next transaction.
	remote.err = fmt.Errorf("popup not open")
	if err := engine.Hide(); err == nil {
		t.Fatalf("expected error from Hide")
	}
	remote.err = nil

	engine.handlePopupShow(eventPopupmenuShow{Items: twoItems(), Selected: -1})
	engine.handlePopupSelect(1)
	engine.handlePopupHide()

	assertEvents(t, rec, "show:2,-1", "select:1", "confirm:1,beta", "hide")
}

func TestCompletion_RemoteHideWithoutSelectionDoesNotConfirm(t *testing.T) {
	engine, _, rec := newTestEngine(true)

	engine.handlePopupShow(eventPopupmenuShow{Items: twoItems(), Selected: -1})
	engine.handlePopupHide()

	assertEvents(t, rec, "show:2,-1", "hide")
}

func TestCompletion_RemoteCallFailureSurfacesFromShow(t *testing.T) {
	engine, remote, _ := newTestEngine(false)
	remote.err = fmt.Errorf("channel closed")

	if err := engine.Show(twoItems(), ShowOptions{Selected: -1}); err == nil {
		t.Fatalf("expected error from Show")
	}
}

func TestEncodeItems_OmitsEmptyFields(t *testing.T) {
	items := encodeItems([]CompletionItem{{Word: "w", Kind: "k"}})
	if len(items) != 1 {
		t.Fatalf("items: %v", items)
	}
	if items[0]["word"] != "w" || items[0]["kind"] != "k" {
		t.Fatalf("fields: %v", items[0])
	}
	if _, ok := items[0]["menu"]; ok {
		t.Fatalf("empty menu should be omitted")
	}
}
