// Package opentuinvimgtk provides a GTK3 editor widget backed by an
// embedded Neovim process. The widget paints the client's grid snapshot
// with Pango/Cairo and forwards GDK key events to Neovim.
package opentuinvimgtk

/*
#cgo pkg-config: gtk+-3.0 pangocairo
#include <stdlib.h>
#include <gtk/gtk.h>
#include <pango/pangocairo.h>

// Render text using Pango for proper Unicode combining character support.
// This handles complex text shaping that Cairo's ShowText cannot do.
static void pango_render_text(cairo_t *cr, const char *text, const char *font_family,
                              int font_size, int bold, int italic, double r, double g, double b) {
    PangoLayout *layout = pango_cairo_create_layout(cr);

    PangoFontDescription *desc = pango_font_description_new();
    pango_font_description_set_family(desc, font_family);
    pango_font_description_set_size(desc, font_size * PANGO_SCALE);
    if (bold) {
        pango_font_description_set_weight(desc, PANGO_WEIGHT_BOLD);
    }
    if (italic) {
        pango_font_description_set_style(desc, PANGO_STYLE_ITALIC);
    }

    pango_layout_set_font_description(layout, desc);
    pango_layout_set_text(layout, text, -1);

    cairo_set_source_rgb(cr, r, g, b);
    pango_cairo_show_layout(cr, layout);

    pango_font_description_free(desc);
    g_object_unref(layout);
}

// Get font metrics without an existing cairo context (creates a temp surface).
static void pango_get_font_metrics_standalone(const char *font_family, int font_size,
                                              int *out_ascent, int *out_descent, int *out_height) {
    cairo_surface_t *surface = cairo_image_surface_create(CAIRO_FORMAT_ARGB32, 1, 1);
    cairo_t *cr = cairo_create(surface);

    PangoLayout *layout = pango_cairo_create_layout(cr);

    PangoFontDescription *desc = pango_font_description_new();
    pango_font_description_set_family(desc, font_family);
    pango_font_description_set_size(desc, font_size * PANGO_SCALE);

    pango_layout_set_font_description(layout, desc);
    pango_layout_set_text(layout, "M", -1);

    PangoContext *context = pango_layout_get_context(layout);
    PangoFontMetrics *metrics = pango_context_get_metrics(context, desc, NULL);

    *out_ascent = pango_font_metrics_get_ascent(metrics) / PANGO_SCALE;
    *out_descent = pango_font_metrics_get_descent(metrics) / PANGO_SCALE;
    *out_height = (*out_ascent) + (*out_descent);

    pango_font_metrics_unref(metrics);
    pango_font_description_free(desc);
    g_object_unref(layout);

    cairo_destroy(cr);
    cairo_surface_destroy(surface);
}

// Get text width without an existing cairo context.
static int pango_text_width_standalone(const char *text, const char *font_family,
                                       int font_size, int bold, int italic) {
    cairo_surface_t *surface = cairo_image_surface_create(CAIRO_FORMAT_ARGB32, 1, 1);
    cairo_t *cr = cairo_create(surface);

    PangoLayout *layout = pango_cairo_create_layout(cr);

    PangoFontDescription *desc = pango_font_description_new();
    pango_font_description_set_family(desc, font_family);
    pango_font_description_set_size(desc, font_size * PANGO_SCALE);
    if (bold) {
        pango_font_description_set_weight(desc, PANGO_WEIGHT_BOLD);
    }
    if (italic) {
        pango_font_description_set_style(desc, PANGO_STYLE_ITALIC);
    }

    pango_layout_set_font_description(layout, desc);
    pango_layout_set_text(layout, text, -1);

    int width, height;
    pango_layout_get_pixel_size(layout, &width, &height);

    pango_font_description_free(desc);
    g_object_unref(layout);

    cairo_destroy(cr);
    cairo_surface_destroy(surface);

    return width;
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/gotk3/gotk3/cairo"
	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/mattn/go-runewidth"

	opentuinvim "github.com/Adictya/opentui-nvim"
)

// Widget is a GTK drawing area that renders an embedded Neovim grid.
type Widget struct {
	mu sync.Mutex

	drawingArea *gtk.DrawingArea

	client *opentuinvim.Client

	fontFamily string
	fontSize   int
	charWidth  int
	charHeight int
	charAscent int

	// Callback when the grid size changes (cols, rows)
	onResize func(cols, rows int)
}

// NewWidget creates a drawing area bound to an existing client.
func NewWidget(client *opentuinvim.Client) (*Widget, error) {
	w := &Widget{
		client:     client,
		fontFamily: "Monospace",
		fontSize:   14,
		charWidth:  10, // Will be calculated properly
		charHeight: 20,
		charAscent: 16,
	}
	w.updateFontMetrics()

	da, err := gtk.DrawingAreaNew()
	if err != nil {
		return nil, err
	}
	w.drawingArea = da

	da.AddEvents(int(gdk.KEY_PRESS_MASK | gdk.BUTTON_PRESS_MASK))
	da.SetCanFocus(true)

	da.Connect("draw", w.onDraw)
	da.Connect("key-press-event", w.onKeyPress)
	da.Connect("configure-event", w.onConfigure)
	da.Connect("button-press-event", func(da *gtk.DrawingArea, ev *gdk.Event) bool {
		da.GrabFocus()
		return true
	})

	// Repaint from the GTK main loop whenever the grid changes. The
	// dirty callback fires on the client's dispatch goroutine.
	client.SetDirtyCallback(func() {
		glib.IdleAdd(func() {
			if w.drawingArea != nil {
				w.drawingArea.QueueDraw()
			}
		})
	})

	return w, nil
}

// DrawingArea returns the underlying GTK drawing area for embedding.
func (w *Widget) DrawingArea() *gtk.DrawingArea {
	return w.drawingArea
}

// Client returns the Neovim client driving this widget.
func (w *Widget) Client() *opentuinvim.Client {
	return w.client
}

// SetFont changes the rendering font and recalculates cell metrics.
func (w *Widget) SetFont(family string, size int) {
	w.mu.Lock()
	w.fontFamily = family
	w.fontSize = size
	w.mu.Unlock()

	w.updateFontMetrics()
	if w.drawingArea != nil {
		w.drawingArea.QueueDraw()
	}
}

// SetResizeCallback registers a callback invoked when the widget
// allocation maps to a new grid size.
func (w *Widget) SetResizeCallback(fn func(cols, rows int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onResize = fn
}

func (w *Widget) updateFontMetrics() {
	w.mu.Lock()
	family, size := w.fontFamily, w.fontSize
	w.mu.Unlock()

	ascent, _, height := pangoFontMetrics(family, size)
	charWidth := pangoTextWidthStandalone("M", family, size, false, false)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.charWidth = charWidth
	w.charHeight = height
	w.charAscent = ascent

	// Ensure minimum values
	if w.charWidth < 1 {
		w.charWidth = w.fontSize * 6 / 10
		if w.charWidth < 1 {
			w.charWidth = 10
		}
	}
	if w.charHeight < 1 {
		w.charHeight = w.fontSize * 12 / 10
		if w.charHeight < 1 {
			w.charHeight = 20
		}
	}
}

func (w *Widget) onConfigure(da *gtk.DrawingArea, ev *gdk.Event) bool {
	w.updateFontMetrics()

	w.mu.Lock()
	charWidth, charHeight := w.charWidth, w.charHeight
	onResize := w.onResize
	w.mu.Unlock()

	alloc := da.GetAllocation()
	newCols := alloc.GetWidth() / charWidth
	newRows := alloc.GetHeight() / charHeight
	if newCols < 1 {
		newCols = 1
	}
	if newRows < 1 {
		newRows = 1
	}

	snap := w.client.Snapshot()
	if newCols != snap.Width || newRows != snap.Height {
		w.client.Resize(newCols, newRows)
		if onResize != nil {
			onResize(newCols, newRows)
		}
	}
	return false
}

func (w *Widget) onDraw(da *gtk.DrawingArea, cr *cairo.Context) bool {
	w.mu.Lock()
	family, size := w.fontFamily, w.fontSize
	charWidth, charHeight := w.charWidth, w.charHeight
	w.mu.Unlock()

	snap := w.client.Snapshot()

	alloc := da.GetAllocation()
	bg := snap.Background
	cr.SetSourceRGB(float64(bg.R)/255.0, float64(bg.G)/255.0, float64(bg.B)/255.0)
	cr.Rectangle(0, 0, float64(alloc.GetWidth()), float64(alloc.GetHeight()))
	cr.Fill()

	for row := 0; row < snap.Height; row++ {
		for col := 0; col < snap.Width; col++ {
			cell := snap.Cells[row*snap.Width+col]
			if cell.Text == "" {
				continue // trailing half of a wide glyph
			}

			cellX := float64(col * charWidth)
			cellY := float64(row * charHeight)
			cellW := float64(charWidth)
			if runewidth.StringWidth(cell.Text) > 1 {
				cellW = float64(charWidth * 2)
			}

			st := cell.Style
			if st.Background != snap.Background {
				cr.SetSourceRGB(
					float64(st.Background.R)/255.0,
					float64(st.Background.G)/255.0,
					float64(st.Background.B)/255.0)
				cr.Rectangle(cellX, cellY, cellW, float64(charHeight))
				cr.Fill()
			}

			if cell.Text != " " {
				cr.Save()
				cr.MoveTo(cellX, cellY)
				pangoRenderText(cr, cell.Text, family, size,
					st.Attr.Has(opentuinvim.AttrBold),
					st.Attr.Has(opentuinvim.AttrItalic),
					float64(st.Foreground.R)/255.0,
					float64(st.Foreground.G)/255.0,
					float64(st.Foreground.B)/255.0)
				cr.Restore()
			}

			if st.Attr.Has(opentuinvim.AttrUnderline) {
				cr.SetSourceRGB(
					float64(st.Foreground.R)/255.0,
					float64(st.Foreground.G)/255.0,
					float64(st.Foreground.B)/255.0)
				cr.Rectangle(cellX, cellY+float64(charHeight)-2, cellW, 1)
				cr.Fill()
			}
			if st.Attr.Has(opentuinvim.AttrStrikethrough) {
				cr.SetSourceRGB(
					float64(st.Foreground.R)/255.0,
					float64(st.Foreground.G)/255.0,
					float64(st.Foreground.B)/255.0)
				cr.Rectangle(cellX, cellY+float64(charHeight)/2, cellW, 1)
				cr.Fill()
			}
		}
	}

	w.drawCursor(cr, snap, family, size, charWidth, charHeight)
	return true
}

// drawCursor paints the cursor for the current mode: a filled block in
// normal mode (with the glyph repainted in the background color), a
// vertical bar in insert mode, an underline in replace mode.
func (w *Widget) drawCursor(cr *cairo.Context, snap opentuinvim.Snapshot, family string, size, charWidth, charHeight int) {
	row, col := snap.Cursor.ScreenRow, snap.Cursor.ScreenCol
	if row < 0 || row >= snap.Height || col < 0 || col >= snap.Width {
		return
	}
	cell := snap.Cells[row*snap.Width+col]

	cellX := float64(col * charWidth)
	cellY := float64(row * charHeight)

	fg := cell.Style.Foreground
	cr.SetSourceRGB(float64(fg.R)/255.0, float64(fg.G)/255.0, float64(fg.B)/255.0)

	switch snap.CursorShape {
	case opentuinvim.ShapeVertical:
		cr.Rectangle(cellX, cellY, 2, float64(charHeight))
		cr.Fill()
	case opentuinvim.ShapeHorizontal:
		cr.Rectangle(cellX, cellY+float64(charHeight)-3, float64(charWidth), 3)
		cr.Fill()
	default:
		cr.Rectangle(cellX, cellY, float64(charWidth), float64(charHeight))
		cr.Fill()
		if cell.Text != "" && cell.Text != " " {
			bg := cell.Style.Background
			cr.Save()
			cr.MoveTo(cellX, cellY)
			pangoRenderText(cr, cell.Text, family, size,
				cell.Style.Attr.Has(opentuinvim.AttrBold),
				cell.Style.Attr.Has(opentuinvim.AttrItalic),
				float64(bg.R)/255.0, float64(bg.G)/255.0, float64(bg.B)/255.0)
			cr.Restore()
		}
	}
}

// pangoRenderText renders text using Pango for proper combining character support.
func pangoRenderText(cr *cairo.Context, text, fontFamily string, fontSize int, bold, italic bool, r, g, b float64) {
	cText := C.CString(text)
	cFont := C.CString(fontFamily)
	defer C.free(unsafe.Pointer(cText))
	defer C.free(unsafe.Pointer(cFont))

	boldInt := 0
	if bold {
		boldInt = 1
	}
	italicInt := 0
	if italic {
		italicInt = 1
	}

	crNative := (*C.cairo_t)(unsafe.Pointer(cr.Native()))
	C.pango_render_text(crNative, cText, cFont, C.int(fontSize), C.int(boldInt), C.int(italicInt), C.double(r), C.double(g), C.double(b))
}

// pangoFontMetrics returns the ascent, descent, and total height for a font.
func pangoFontMetrics(fontFamily string, fontSize int) (ascent, descent, height int) {
	cFont := C.CString(fontFamily)
	defer C.free(unsafe.Pointer(cFont))

	var cAscent, cDescent, cHeight C.int
	C.pango_get_font_metrics_standalone(cFont, C.int(fontSize), &cAscent, &cDescent, &cHeight)

	return int(cAscent), int(cDescent), int(cHeight)
}

// pangoTextWidthStandalone returns the pixel width of text using a temporary surface.
func pangoTextWidthStandalone(text, fontFamily string, fontSize int, bold, italic bool) int {
	cText := C.CString(text)
	defer C.free(unsafe.Pointer(cText))

	cFont := C.CString(fontFamily)
	defer C.free(unsafe.Pointer(cFont))

	boldInt := 0
	if bold {
		boldInt = 1
	}
	italicInt := 0
	if italic {
		italicInt = 1
	}

	return int(C.pango_text_width_standalone(cText, cFont, C.int(fontSize), C.int(boldInt), C.int(italicInt)))
}
