package opentuinvimgtk

import (
	"github.com/gotk3/gotk3/gtk"

	opentuinvim "github.com/Adictya/opentui-nvim"
)

// Options configures editor creation
type Options struct {
	Cols             int                // Grid width in columns (default: 80)
	Rows             int                // Grid height in rows (default: 24)
	FontFamily       string             // Font family (default: "Monospace")
	FontSize         int                // Font size in points (default: 14)
	Command          string             // Neovim binary (default: "nvim" from PATH)
	Args             []string           // Extra arguments appended after --embed --headless
	EnableCompletion bool               // Attach with the externalized completion popup
	Logger           opentuinvim.Logger // Diagnostic sink (default: discard)
}

// Editor is a complete GTK editor widget with an embedded Neovim behind it.
type Editor struct {
	widget *Widget
	client *opentuinvim.Client
}

// New spawns Neovim and creates a widget bound to it.
func New(opts Options) (*Editor, error) {
	if opts.Cols <= 0 {
		opts.Cols = 80
	}
	if opts.Rows <= 0 {
		opts.Rows = 24
	}
	if opts.FontFamily == "" {
		opts.FontFamily = "Monospace"
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 14
	}

	client, err := opentuinvim.New(opentuinvim.Options{
		Cols:             opts.Cols,
		Rows:             opts.Rows,
		Command:          opts.Command,
		Args:             opts.Args,
		EnableCompletion: opts.EnableCompletion,
		Logger:           opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	widget, err := NewWidget(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	widget.SetFont(opts.FontFamily, opts.FontSize)

	return &Editor{widget: widget, client: client}, nil
}

// Widget returns the GTK drawing area for packing into a container.
func (e *Editor) Widget() *gtk.DrawingArea {
	return e.widget.DrawingArea()
}

// Client returns the underlying Neovim client.
func (e *Editor) Client() *opentuinvim.Client {
	return e.client
}

// Close shuts down the embedded Neovim process.
func (e *Editor) Close() {
	e.client.Close()
}
