package opentuinvim

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/neovim/go-client/nvim"
)

// ErrNoBinary is returned by NewSession when no nvim binary can be found.
var ErrNoBinary = errors.New("opentui-nvim: no nvim binary found")

// killGracePeriod is how long each shutdown stage waits for the remote
// before escalating. Variable so tests can shorten it.
var killGracePeriod = 2 * time.Second

// SessionOptions configures session creation.
type SessionOptions struct {
	Command          string   // nvim binary path (default: "nvim" from $PATH)
	Args             []string // extra argv appended after --embed --headless
	EnableCompletion bool     // request the popupmenu extension on attach
	Logger           Logger   // logging capability (default: discard)
}

// Session owns the spawned nvim process and the RPC channel to it: spawn,
// UI attach handshake, resize requests and shutdown sequencing.
type Session struct {
	mu       sync.Mutex
	v        *nvim.Nvim
	cmd      *exec.Cmd
	attached bool
	closed   bool
	popupExt bool
	log      Logger

	serveDone chan struct{}
}

// NewSession locates and spawns the editor process and opens the RPC
// channel over its standard streams. Failure to find or start a binary is
// fatal and reported synchronously.
func NewSession(opts SessionOptions) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = NewStdLogger(nil)
	}

	bin := opts.Command
	if bin == "" {
		found, err := exec.LookPath("nvim")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoBinary, err)
		}
		bin = found
	}

	argv := append([]string{"--embed", "--headless"}, opts.Args...)
	cmd := exec.Command(bin, argv...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opentui-nvim: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opentui-nvim: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("opentui-nvim: spawn %s: %w", bin, err)
	}

	v, err := nvim.New(stdout, stdin, stdin, log.Debugf)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("opentui-nvim: rpc channel: %w", err)
	}

	s := &Session{
		v:         v,
		cmd:       cmd,
		popupExt:  opts.EnableCompletion,
		log:       log,
		serveDone: make(chan struct{}),
	}
	go func() {
		if err := v.Serve(); err != nil {
			log.Debugf("rpc serve ended: %v", err)
		}
		close(s.serveDone)
	}()
	return s, nil
}

// Nvim exposes the underlying RPC handle.
func (s *Session) Nvim() *nvim.Nvim {
	return s.v
}

// PopupExtension reports whether the popupmenu extension will be (or was)
// requested during attach.
func (s *Session) PopupExtension() bool {
	return s.popupExt
}

// Attach performs the UI handshake. The line-grid extension is always
// requested; the popup-menu extension only when completion support is
// enabled.
func (s *Session) Attach(cols, rows int) error {
	if err := s.v.AttachUI(cols, rows, attachOptions(s.popupExt)); err != nil {
		return fmt.Errorf("opentui-nvim: ui attach: %w", err)
	}
	s.mu.Lock()
	s.attached = true
	s.mu.Unlock()
	return nil
}

// attachOptions builds the uiAttach option set. Unknown options are
// rejected by the remote side, so only the negotiated set is sent.
func attachOptions(popup bool) map[string]interface{} {
	opts := map[string]interface{}{
		"rgb":          true,
		"ext_linegrid": true,
	}
	if popup {
		opts["ext_popupmenu"] = true
	}
	return opts
}

// TryResize issues a best-effort resize request. Failures are expected
// during startup and shutdown races and are logged, never raised.
func (s *Session) TryResize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	if err := s.v.TryResizeUI(cols, rows); err != nil {
		s.log.Warnf("resize to %dx%d failed: %v", cols, rows, err)
	}
}

// Close shuts the session down: detach the UI, ask the remote to quit,
// close the RPC channel, then force-terminate the process if it is still
// alive. Every step is independently best-effort so termination is
// guaranteed even when earlier steps fail. A second Close is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	attached := s.attached
	s.mu.Unlock()

	// The polite RPC steps block on remote responses, so a wedged process
	// (alive but unresponsive) would stall Close before the kill fallback.
	// Bound them with the same grace period; killing the process unblocks
	// the goroutine by tearing down the pipes.
	rpcDone := make(chan struct{})
	go func() {
		defer close(rpcDone)
		if attached {
			if err := s.v.DetachUI(); err != nil {
				s.log.Debugf("ui detach: %v", err)
			}
		}
		if err := s.v.Command("qall!"); err != nil {
			s.log.Debugf("remote quit: %v", err)
		}
		if err := s.v.Close(); err != nil {
			s.log.Debugf("rpc close: %v", err)
		}
	}()
	select {
	case <-rpcDone:
	case <-time.After(killGracePeriod):
		s.log.Warnf("remote unresponsive during shutdown; skipping to terminate")
	}

	done := make(chan struct{})
	go func() {
		_ = s.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(killGracePeriod):
		s.log.Warnf("nvim did not exit; killing pid %d", s.cmd.Process.Pid)
		_ = s.cmd.Process.Kill()
		<-done
	}
}
