package opentuinvim

import "sync"

// CompletionItem is one candidate in the popup menu. Word is the text that
// gets inserted; the rest is presentation metadata passed straight through
// to the remote popup (and mirrored back from popupmenu_show events).
type CompletionItem struct {
	Word     string
	Abbr     string
	Kind     string
	Menu     string
	Info     string
	UserData interface{}
}

// CompletionAnchor is the screen position the popup is anchored to.
type CompletionAnchor struct {
	Row, Col, Grid int
}

// ShowOptions configures Show.
type ShowOptions struct {
	// StartCol is the 1-based byte column completion begins at. Zero
	// resolves to the current authoritative cursor column.
	StartCol int
	// Selected is the initially selected index; negative for none.
	Selected int
}

// completionRemote is the slice of the RPC surface the popup machine
// drives, satisfied by *nvim.Nvim. Begin-completion goes through the
// complete() vim function; selection through nvim_select_popupmenu_item.
type completionRemote interface {
	Call(fname string, result interface{}, args ...interface{}) error
	SelectPopupmenuItem(item int, insert, finish bool, opts map[string]interface{}) error
}

// completionEmitter receives popup lifecycle callbacks. A confirm, when it
// fires, always precedes the hide that ends the same transaction.
type completionEmitter interface {
	completionShown(items []CompletionItem, selected int, anchor CompletionAnchor)
	completionSelected(index int)
	completionConfirmed(index int, item CompletionItem)
	completionHidden()
}

// completionEngine manages the popup lifecycle
// (hidden → showing → selecting* → confirmed|hidden).
//
// When the popupmenu UI extension is active the remote process is
// authoritative: API calls only issue RPCs, and the mirrored state plus all
// callbacks are driven by popupmenu_* events. Without the extension the
// engine drives the callbacks itself.
type completionEngine struct {
	mu     sync.Mutex
	remote completionRemote
	ext    bool

	visible        bool
	items          []CompletionItem
	selected       int
	startCol       int
	anchor         CompletionAnchor
	pendingConfirm int
	hideRequested  bool

	// cursor supplies the anchor and default start column.
	cursor func() CursorState
	emit   completionEmitter
	log    Logger
}

func newCompletionEngine(remote completionRemote, ext bool, cursor func() CursorState, emit completionEmitter, log Logger) *completionEngine {
	return &completionEngine{
		remote:         remote,
		ext:            ext,
		selected:       -1,
		pendingConfirm: -1,
		cursor:         cursor,
		emit:           emit,
		log:            log,
	}
}

// Visible reports whether the popup is currently showing.
func (e *completionEngine) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

// Show begins a completion transaction at the resolved start column.
func (e *completionEngine) Show(items []CompletionItem, opts ShowOptions) error {
	cur := e.cursor()
	startCol := opts.StartCol
	if startCol <= 0 {
		startCol = cur.Col + 1
	}
	selected := opts.Selected
	if selected < 0 {
		selected = -1
	}

	e.mu.Lock()
	e.items = append([]CompletionItem(nil), items...)
	e.selected = selected
	e.startCol = startCol
	e.anchor = CompletionAnchor{Row: cur.ScreenRow, Col: cur.ScreenCol, Grid: cur.Grid}
	e.pendingConfirm = -1
	e.hideRequested = false
	e.visible = true
	anchor := e.anchor
	e.mu.Unlock()

	if err := e.remote.Call("complete", nil, startCol, encodeItems(items)); err != nil {
		return err
	}
	if selected >= 0 {
		if err := e.remote.SelectPopupmenuItem(selected, false, false, emptyOpts()); err != nil {
			e.log.Warnf("popup select failed: %v", err)
		}
	}

	if !e.ext {
		e.emit.completionShown(append([]CompletionItem(nil), items...), selected, anchor)
	}
	return nil
}

// Update replaces the item list without losing the anchor position: it
// re-runs Show with the previous start column and selection.
func (e *completionEngine) Update(items []CompletionItem) error {
	e.mu.Lock()
	opts := ShowOptions{StartCol: e.startCol, Selected: e.selected}
	e.mu.Unlock()
	return e.Show(items, opts)
}

// Hide closes the popup from the client side. The hide-requested flag
// keeps the coming popupmenu_hide from being mistaken for a selection
// commit.
func (e *completionEngine) Hide() error {
	e.mu.Lock()
	e.hideRequested = true
	e.mu.Unlock()

	err := e.remote.SelectPopupmenuItem(-1, false, true, emptyOpts())

	if !e.ext {
		e.mu.Lock()
		e.reset()
		e.mu.Unlock()
		e.emit.completionHidden()
	}
	return err
}

// Select moves the popup selection. finish implies insert and commits the
// transaction; the index is remembered so the confirm can be attributed
// when the remote closes the popup.
func (e *completionEngine) Select(index int, insert, finish bool) error {
	if finish {
		insert = true
	}

	e.mu.Lock()
	if finish {
		e.pendingConfirm = index
	} else {
		e.pendingConfirm = -1
	}
	e.selected = index
	var item CompletionItem
	if index >= 0 && index < len(e.items) {
		item = e.items[index]
	}
	e.mu.Unlock()

	err := e.remote.SelectPopupmenuItem(index, insert, finish, emptyOpts())

	if !e.ext {
		e.emit.completionSelected(index)
		if finish {
			e.mu.Lock()
			e.reset()
			e.mu.Unlock()
			e.emit.completionConfirmed(index, item)
			e.emit.completionHidden()
		}
	}
	return err
}

// handlePopupShow mirrors an authoritative popupmenu_show: the remote's
// item list, anchor and selection replace the local mirror. A remote show
// begins a new transaction, so any hide-request or pending confirm left
// over from an earlier one (e.g. a Hide whose remote call failed and never
// produced a popupmenu_hide) is discarded.
func (e *completionEngine) handlePopupShow(ev eventPopupmenuShow) {
	e.mu.Lock()
	e.visible = true
	e.items = ev.Items
	e.selected = ev.Selected
	e.anchor = CompletionAnchor{Row: ev.Row, Col: ev.Col, Grid: ev.Grid}
	e.pendingConfirm = -1
	e.hideRequested = false
	items := append([]CompletionItem(nil), ev.Items...)
	selected := ev.Selected
	anchor := e.anchor
	e.mu.Unlock()

	e.emit.completionShown(items, selected, anchor)
}

// handlePopupSelect mirrors an authoritative popupmenu_select.
func (e *completionEngine) handlePopupSelect(index int) {
	e.mu.Lock()
	e.selected = index
	e.mu.Unlock()
	e.emit.completionSelected(index)
}

// handlePopupHide ends the transaction. Confirm fires only when a
// selection exists and the hide was not requested by the client; it always
// precedes the terminal hide callback.
func (e *completionEngine) handlePopupHide() {
	e.mu.Lock()
	index := e.selected
	if index < 0 {
		index = e.pendingConfirm
	}
	confirm := index >= 0 && !e.hideRequested
	var item CompletionItem
	if confirm && index < len(e.items) {
		item = e.items[index]
	}
	e.reset()
	e.mu.Unlock()

	if confirm {
		e.emit.completionConfirmed(index, item)
	}
	e.emit.completionHidden()
}

// reset returns the machine to the hidden state. Caller holds the lock.
func (e *completionEngine) reset() {
	e.visible = false
	e.items = nil
	e.selected = -1
	e.pendingConfirm = -1
	e.hideRequested = false
}

func encodeItems(items []CompletionItem) []map[string]interface{} {
	out := make([]map[string]interface{}, len(items))
	for i, item := range items {
		m := map[string]interface{}{"word": item.Word}
		if item.Abbr != "" {
			m["abbr"] = item.Abbr
		}
		if item.Kind != "" {
			m["kind"] = item.Kind
		}
		if item.Menu != "" {
			m["menu"] = item.Menu
		}
		if item.Info != "" {
			m["info"] = item.Info
		}
		if item.UserData != nil {
			m["user_data"] = item.UserData
		}
		out[i] = m
	}
	return out
}

func emptyOpts() map[string]interface{} {
	return map[string]interface{}{}
}
