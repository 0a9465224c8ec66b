package opentuinvim

import (
	"errors"
	"strings"
	"sync"

	"github.com/neovim/go-client/nvim"
)

// ErrNotReady is returned by text read/write operations before the buffer
// binding has been established.
var ErrNotReady = errors.New("opentui-nvim: buffer binding not ready")

// TextChange is delivered to text observers after every accepted mutation
// of the bound buffer.
type TextChange struct {
	Value       string
	ChangedTick int64
	Cursor      CursorState
	Mode        string
}

// bufferRemote is the slice of the RPC surface the text sync needs,
// satisfied by *nvim.Nvim.
type bufferRemote interface {
	Buffers() ([]nvim.Buffer, error)
	BufferLines(buffer nvim.Buffer, start, end int, strict bool) ([][]byte, error)
	SetBufferLines(buffer nvim.Buffer, start, end int, strict bool, replacement [][]byte) error
	AttachBuffer(buffer nvim.Buffer, sendBuffer bool, opts map[string]interface{}) (bool, error)
}

// textSync pins the client to one remote buffer and mirrors its contents.
// The binding is created once at bootstrap against the first available
// buffer and kept for the component's lifetime; mutation events for any
// other buffer id are ignored, even after the bound buffer detaches.
type textSync struct {
	mu     sync.Mutex
	remote bufferRemote
	buf    nvim.Buffer
	ready  bool
	tick   int64

	// snapshot supplies the cursor/mode pair included in change events.
	snapshot func() (CursorState, string)
	onChange func(TextChange)

	log Logger
}

func newTextSync(remote bufferRemote, snapshot func() (CursorState, string), log Logger) *textSync {
	return &textSync{
		remote:   remote,
		snapshot: snapshot,
		log:      log,
	}
}

// Bind attaches to the first buffer the remote exposes. Called once during
// bootstrap.
func (s *textSync) Bind() error {
	bufs, err := s.remote.Buffers()
	if err != nil {
		return err
	}
	if len(bufs) == 0 {
		return errors.New("opentui-nvim: remote exposes no buffers")
	}

	buf := bufs[0]
	if _, err := s.remote.AttachBuffer(buf, false, map[string]interface{}{}); err != nil {
		return err
	}

	s.mu.Lock()
	s.buf = buf
	s.ready = true
	s.mu.Unlock()
	return nil
}

// Buffer returns the bound buffer id and whether the binding is ready.
func (s *textSync) Buffer() (nvim.Buffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf, s.ready
}

// ChangedTick returns the last mirrored changedtick.
func (s *textSync) ChangedTick() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Value reads the whole bound buffer, lines joined with a single newline.
func (s *textSync) Value() (string, error) {
	s.mu.Lock()
	buf, ready := s.buf, s.ready
	s.mu.Unlock()
	if !ready {
		return "", ErrNotReady
	}

	lines, err := s.remote.BufferLines(buf, 0, -1, true)
	if err != nil {
		return "", err
	}
	return joinLines(lines), nil
}

// SetValue replaces the entire buffer contents. CRLF line endings are
// normalized to LF before splitting.
func (s *textSync) SetValue(text string) error {
	s.mu.Lock()
	buf, ready := s.buf, s.ready
	s.mu.Unlock()
	if !ready {
		return ErrNotReady
	}
	return s.remote.SetBufferLines(buf, 0, -1, false, splitLines(text))
}

// handleLines processes an nvim_buf_lines_event. Events for other buffers
// are dropped to keep the binding's identity stable. Accepted events
// trigger a full read-back so observers always see consistent text.
func (s *textSync) handleLines(buf nvim.Buffer, tick int64) {
	s.mu.Lock()
	if !s.ready || buf != s.buf {
		s.mu.Unlock()
		return
	}
	s.tick = tick
	cb := s.onChange
	s.mu.Unlock()

	if cb == nil {
		return
	}
	value, err := s.Value()
	if err != nil {
		s.log.Warnf("text read-back failed: %v", err)
		return
	}
	cursor, mode := s.snapshot()
	cb(TextChange{Value: value, ChangedTick: tick, Cursor: cursor, Mode: mode})
}

// handleChangedTick mirrors an nvim_buf_changedtick_event.
func (s *textSync) handleChangedTick(buf nvim.Buffer, tick int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready || buf != s.buf {
		return
	}
	s.tick = tick
}

// handleDetach records a detach of the bound buffer. The binding stays
// pinned; there is no automatic rebinding.
func (s *textSync) handleDetach(buf nvim.Buffer) {
	s.mu.Lock()
	bound := s.ready && buf == s.buf
	s.mu.Unlock()
	if bound {
		s.log.Warnf("bound buffer %v detached; binding stays pinned", buf)
	}
}

func joinLines(lines [][]byte) string {
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = string(line)
	}
	return strings.Join(parts, "\n")
}

func splitLines(text string) [][]byte {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	lines := make([][]byte, len(parts))
	for i, part := range parts {
		lines[i] = []byte(part)
	}
	return lines
}
