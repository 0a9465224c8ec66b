package opentuinvimgtk

import (
	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"

	opentuinvim "github.com/Adictya/opentui-nvim"
)

// gdkKeyNames maps GDK keyvals to key names understood by the client's
// key translator.
var gdkKeyNames = map[uint]string{
	gdk.KEY_Escape:       "escape",
	gdk.KEY_Return:       "return",
	gdk.KEY_KP_Enter:     "return",
	gdk.KEY_BackSpace:    "backspace",
	gdk.KEY_Tab:          "tab",
	gdk.KEY_ISO_Left_Tab: "tab",
	gdk.KEY_space:        "space",
	gdk.KEY_Delete:       "delete",
	gdk.KEY_KP_Delete:    "delete",
	gdk.KEY_Insert:       "insert",
	gdk.KEY_KP_Insert:    "insert",
	gdk.KEY_Up:           "up",
	gdk.KEY_KP_Up:        "up",
	gdk.KEY_Down:         "down",
	gdk.KEY_KP_Down:      "down",
	gdk.KEY_Left:         "left",
	gdk.KEY_KP_Left:      "left",
	gdk.KEY_Right:        "right",
	gdk.KEY_KP_Right:     "right",
	gdk.KEY_Home:         "home",
	gdk.KEY_KP_Home:      "home",
	gdk.KEY_End:          "end",
	gdk.KEY_KP_End:       "end",
	gdk.KEY_Page_Up:      "pageup",
	gdk.KEY_KP_Page_Up:   "pageup",
	gdk.KEY_Page_Down:    "pagedown",
	gdk.KEY_KP_Page_Down: "pagedown",
	gdk.KEY_F1:           "f1",
	gdk.KEY_F2:           "f2",
	gdk.KEY_F3:           "f3",
	gdk.KEY_F4:           "f4",
	gdk.KEY_F5:           "f5",
	gdk.KEY_F6:           "f6",
	gdk.KEY_F7:           "f7",
	gdk.KEY_F8:           "f8",
	gdk.KEY_F9:           "f9",
	gdk.KEY_F10:          "f10",
	gdk.KEY_F11:          "f11",
	gdk.KEY_F12:          "f12",
}

// modifierKeyvals are keyvals for modifier keys themselves; pressing one
// alone produces no editor input.
var modifierKeyvals = map[uint]bool{
	gdk.KEY_Shift_L:     true,
	gdk.KEY_Shift_R:     true,
	gdk.KEY_Control_L:   true,
	gdk.KEY_Control_R:   true,
	gdk.KEY_Alt_L:       true,
	gdk.KEY_Alt_R:       true,
	gdk.KEY_Meta_L:      true,
	gdk.KEY_Meta_R:      true,
	gdk.KEY_Super_L:     true,
	gdk.KEY_Super_R:     true,
	gdk.KEY_Hyper_L:     true,
	gdk.KEY_Hyper_R:     true,
	gdk.KEY_Caps_Lock:   true,
	gdk.KEY_Num_Lock:    true,
	gdk.KEY_Scroll_Lock: true,
}

func (w *Widget) onKeyPress(da *gtk.DrawingArea, ev *gdk.Event) bool {
	key := gdk.EventKeyNewFromEvent(ev)
	keyval := key.KeyVal()
	state := key.State()

	if modifierKeyvals[keyval] {
		return false
	}

	kev := opentuinvim.KeyEvent{
		Ctrl:  state&uint(gdk.CONTROL_MASK) != 0,
		Alt:   state&uint(gdk.MOD1_MASK) != 0,
		Shift: state&uint(gdk.SHIFT_MASK) != 0,
	}

	if name, ok := gdkKeyNames[keyval]; ok {
		kev.Key = name
	} else if r := gdk.KeyvalToUnicode(keyval); r > 0 {
		kev.Ch = r
	} else {
		return false
	}

	w.client.SendKey(kev)
	return true
}
