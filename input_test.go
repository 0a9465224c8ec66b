package opentuinvim

import "testing"

func TestTranslateKey(t *testing.T) {
	cases := []struct {
		name string
		ev   KeyEvent
		want string
		ok   bool
	}{
		{"literal char", KeyEvent{Ch: 'a'}, "a", true},
		{"shifted char passes through", KeyEvent{Ch: 'A', Shift: true}, "A", true},
		{"ctrl letter", KeyEvent{Ch: 'a', Ctrl: true}, "<c-a>", true},
		{"alt letter", KeyEvent{Ch: 'x', Alt: true}, "<m-x>", true},
		{"ctrl alt letter", KeyEvent{Ch: 'a', Ctrl: true, Alt: true}, "<c-m-a>", true},
		{"escape", KeyEvent{Key: "escape"}, "<esc>", true},
		{"return", KeyEvent{Key: "return"}, "<cr>", true},
		{"backspace", KeyEvent{Key: "backspace"}, "<bs>", true},
		{"tab", KeyEvent{Key: "tab"}, "<tab>", true},
		{"up arrow", KeyEvent{Key: "up"}, "<up>", true},
		{"delete", KeyEvent{Key: "delete"}, "<del>", true},
		{"function key", KeyEvent{Key: "f5"}, "<f5>", true},
		{"modified named key order", KeyEvent{Key: "up", Ctrl: true, Alt: true, Shift: true}, "<c-m-s-up>", true},
		{"shift named key", KeyEvent{Key: "tab", Shift: true}, "<s-tab>", true},
		{"less-than escaped", KeyEvent{Ch: '<'}, "<lt>", true},
		{"raw fallback", KeyEvent{Raw: "\x1b[Z"}, "\x1b[Z", true},
		{"unresolvable dropped", KeyEvent{}, "", false},
		{"unknown name with raw", KeyEvent{Key: "hyper", Raw: "seq"}, "seq", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := TranslateKey(tc.ev)
			if ok != tc.ok {
				t.Fatalf("handled: got %v want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("notation: got %q want %q", got, tc.want)
			}
		})
	}
}
