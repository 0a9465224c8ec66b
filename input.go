package opentuinvim

import "strings"

// KeyEvent is a host-neutral key press. Frontends convert their native
// events (tcell, GDK, Qt) into this form before translation.
type KeyEvent struct {
	// Key names a non-printable key ("escape", "up", "f5", ...), empty
	// for printable input.
	Key string
	// Ch is the printable character, 0 when Key is set.
	Ch rune
	// Raw is the raw captured input sequence, used as a last resort.
	Raw string

	Ctrl, Alt, Shift bool
}

// namedKeys maps host key names to nvim bracket notation bodies.
var namedKeys = map[string]string{
	"escape":    "esc",
	"esc":       "esc",
	"return":    "cr",
	"enter":     "cr",
	"backspace": "bs",
	"tab":       "tab",
	"space":     "space",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
	"home":      "home",
	"end":       "end",
	"pageup":    "pageup",
	"pagedown":  "pagedown",
	"insert":    "insert",
	"delete":    "del",
	"f1":        "f1",
	"f2":        "f2",
	"f3":        "f3",
	"f4":        "f4",
	"f5":        "f5",
	"f6":        "f6",
	"f7":        "f7",
	"f8":        "f8",
	"f9":        "f9",
	"f10":       "f10",
	"f11":       "f11",
	"f12":       "f12",
}

// TranslateKey maps a host key event to nvim key notation. It reports
// false when the event cannot be represented and no raw sequence exists.
//
// Modifiers compose in a fixed order inside the brackets: control, then
// meta, then shift, joined with hyphens. Printable characters without
// control or alt pass through as their literal sequence (shift is already
// baked into the character).
func TranslateKey(ev KeyEvent) (string, bool) {
	if body, ok := namedKeys[strings.ToLower(ev.Key)]; ok {
		return bracketed(body, ev.Ctrl, ev.Alt, ev.Shift), true
	}

	if ev.Ch != 0 {
		if !ev.Ctrl && !ev.Alt {
			if ev.Ch == '<' {
				return "<lt>", true
			}
			return string(ev.Ch), true
		}
		// Shift is dropped for modified printables: the character
		// itself already carries it.
		return bracketed(string(ev.Ch), ev.Ctrl, ev.Alt, false), true
	}

	if ev.Raw != "" {
		return ev.Raw, true
	}
	return "", false
}

func bracketed(body string, ctrl, alt, shift bool) string {
	var sb strings.Builder
	sb.WriteByte('<')
	if ctrl {
		sb.WriteString("c-")
	}
	if alt {
		sb.WriteString("m-")
	}
	if shift {
		sb.WriteString("s-")
	}
	sb.WriteString(body)
	sb.WriteByte('>')
	return sb.String()
}
