package cli

import (
	"github.com/gdamore/tcell/v2"

	opentuinvim "github.com/Adictya/opentui-nvim"
)

// tcellKeyNames maps tcell's special keys to the host-neutral key names
// the translator understands.
var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEscape:     "escape",
	tcell.KeyEnter:      "return",
	tcell.KeyBackspace:  "backspace",
	tcell.KeyBackspace2: "backspace",
	tcell.KeyTab:        "tab",
	tcell.KeyUp:         "up",
	tcell.KeyDown:       "down",
	tcell.KeyLeft:       "left",
	tcell.KeyRight:      "right",
	tcell.KeyHome:       "home",
	tcell.KeyEnd:        "end",
	tcell.KeyPgUp:       "pageup",
	tcell.KeyPgDn:       "pagedown",
	tcell.KeyInsert:     "insert",
	tcell.KeyDelete:     "delete",
	tcell.KeyF1:         "f1",
	tcell.KeyF2:         "f2",
	tcell.KeyF3:         "f3",
	tcell.KeyF4:         "f4",
	tcell.KeyF5:         "f5",
	tcell.KeyF6:         "f6",
	tcell.KeyF7:         "f7",
	tcell.KeyF8:         "f8",
	tcell.KeyF9:         "f9",
	tcell.KeyF10:        "f10",
	tcell.KeyF11:        "f11",
	tcell.KeyF12:        "f12",
}

// translateEventKey converts a tcell key event into the host-neutral form.
// tcell folds ctrl-letter chords into dedicated key codes; those are
// unfolded back into a letter plus the control modifier.
func translateEventKey(ev *tcell.EventKey) opentuinvim.KeyEvent {
	mods := ev.Modifiers()
	out := opentuinvim.KeyEvent{
		Ctrl:  mods&tcell.ModCtrl != 0,
		Alt:   mods&tcell.ModAlt != 0,
		Shift: mods&tcell.ModShift != 0,
	}

	key := ev.Key()
	if name, ok := tcellKeyNames[key]; ok {
		out.Key = name
		return out
	}

	switch {
	case key == tcell.KeyRune:
		out.Ch = ev.Rune()
	case key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ:
		out.Ctrl = true
		out.Ch = rune('a' + (key - tcell.KeyCtrlA))
	case key == tcell.KeyCtrlSpace:
		out.Ctrl = true
		out.Key = "space"
	default:
		// Unknown special key: nothing sensible to forward.
	}
	return out
}
