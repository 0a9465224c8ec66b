// Package cli renders an embedded nvim session inside a real terminal.
// The terminal is driven entirely by screen snapshots from the core client:
// tcell owns the physical screen and input, the remote process owns every
// piece of editor state.
package cli

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	opentuinvim "github.com/Adictya/opentui-nvim"
)

// Options configures terminal creation.
type Options struct {
	Command          string   // nvim binary path (default: "nvim" from $PATH)
	Args             []string // extra nvim argv
	EnableCompletion bool     // request the popupmenu extension
	Logger           opentuinvim.Logger
}

// Terminal hosts the embedded editor in the controlling terminal.
type Terminal struct {
	mu      sync.Mutex
	screen  tcell.Screen
	client  *opentuinvim.Client
	options Options

	repaint chan struct{}
	quit    chan struct{}
	once    sync.Once
}

// New initializes the tcell screen and spawns the editor sized to it.
func New(opts Options) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("cli: create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("cli: init screen: %w", err)
	}

	cols, rows := screen.Size()
	client, err := opentuinvim.New(opentuinvim.Options{
		Cols:             cols,
		Rows:             rows,
		Command:          opts.Command,
		Args:             opts.Args,
		EnableCompletion: opts.EnableCompletion,
		Logger:           opts.Logger,
	})
	if err != nil {
		screen.Fini()
		return nil, err
	}

	t := &Terminal{
		screen:  screen,
		client:  client,
		options: opts,
		repaint: make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
	client.SetDirtyCallback(t.requestRepaint)
	return t, nil
}

// Client exposes the underlying editor client, e.g. for registering
// observers or reading buffer text.
func (t *Terminal) Client() *opentuinvim.Client {
	return t.client
}

// Run blocks until the terminal is closed with ctrl-q or the screen dies.
func (t *Terminal) Run() error {
	events := make(chan tcell.Event, 16)
	go t.screen.ChannelEvents(events, t.quit)

	for {
		select {
		case <-t.quit:
			return nil
		case <-t.repaint:
			t.paint()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			t.handleEvent(ev)
		}
	}
}

func (t *Terminal) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		cols, rows := ev.Size()
		t.screen.Sync()
		t.client.Resize(cols, rows)
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlQ {
			t.Close()
			return
		}
		if _, err := t.client.SendKey(translateEventKey(ev)); err != nil {
			// The channel is gone; nothing left to host.
			t.Close()
		}
	}
}

func (t *Terminal) requestRepaint() {
	select {
	case t.repaint <- struct{}{}:
	default:
	}
}

// Close tears down the editor and restores the terminal. Idempotent.
func (t *Terminal) Close() {
	t.once.Do(func() {
		close(t.quit)
		t.client.Close()
		t.screen.Fini()
	})
}
