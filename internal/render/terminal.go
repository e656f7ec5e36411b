package render

import (
	"context"
	"fmt"
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/banshee-data/radarsim/internal/cluster"
	"github.com/banshee-data/radarsim/internal/radar"
	"github.com/banshee-data/radarsim/internal/sim"
)

// TerminalRenderer draws frames and windows on a tcell screen. The top row
// holds a status line; the rest of the screen is the plot area.
type TerminalRenderer struct {
	screen   tcell.Screen
	rangeMax float64
}

// NewTerminalRenderer draws on an initialised screen. rangeMax fixes the
// extent of frame plots.
func NewTerminalRenderer(screen tcell.Screen, rangeMax float64) *TerminalRenderer {
	return &TerminalRenderer{screen: screen, rangeMax: rangeMax}
}

// OpenTerminal initialises the controlling terminal.
func OpenTerminal(rangeMax float64) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to init screen: %w", err)
	}
	screen.Clear()
	return NewTerminalRenderer(screen, rangeMax), nil
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// extent maps plot coordinates onto the screen area below the status row.
type extent struct {
	minX, maxX, minY, maxY float64
	w, h                   int
}

func (e extent) cell(x, y float64) (int, int, bool) {
	if e.w <= 0 || e.h <= 0 || e.maxX <= e.minX || e.maxY <= e.minY {
		return 0, 0, false
	}
	cx := int(math.Floor((x - e.minX) / (e.maxX - e.minX) * float64(e.w)))
	cy := int(math.Floor((e.maxY - y) / (e.maxY - e.minY) * float64(e.h)))
	if cx == e.w {
		cx--
	}
	if cy == e.h {
		cy--
	}
	if cx < 0 || cx >= e.w || cy < 0 || cy >= e.h {
		return 0, 0, false
	}
	return cx, cy + 1, true
}

func (r *TerminalRenderer) plotExtent(minX, maxX, minY, maxY float64) extent {
	w, h := r.screen.Size()
	return extent{minX: minX, maxX: maxX, minY: minY, maxY: maxY, w: w, h: h - 1}
}

func (r *TerminalRenderer) put(e extent, x, y float64, ch rune, style tcell.Style) {
	if cx, cy, ok := e.cell(x, y); ok {
		r.screen.SetContent(cx, cy, ch, nil, style)
	}
}

func (r *TerminalRenderer) status(text string) {
	w, _ := r.screen.Size()
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	col := 0
	for _, ch := range text {
		if col >= w {
			break
		}
		r.screen.SetContent(col, 0, ch, nil, style)
		col++
	}
}

// WriteFrame draws clutter, noise and targets of one tick.
func (r *TerminalRenderer) WriteFrame(f *sim.Frame) error {
	r.screen.Clear()
	e := r.plotExtent(-r.rangeMax, r.rangeMax, -r.rangeMax, r.rangeMax)

	clutter := tcell.StyleDefault.Foreground(rgb(clutterColor))
	for i := range f.Clutter.X {
		r.put(e, f.Clutter.X[i], f.Clutter.Y[i], '.', clutter)
	}
	noise := tcell.StyleDefault.Foreground(rgb(noiseColor))
	for i := range f.Noise.X {
		r.put(e, f.Noise.X[i], f.Noise.Y[i], '*', noise)
	}
	target := tcell.StyleDefault.Foreground(rgb(targetColor)).Bold(true)
	for _, t := range f.Targets {
		r.put(e, t.X, t.Y, '@', target)
	}

	r.status(fmt.Sprintf("frame %d  targets %d  noise %d  clutter %d  (q to quit)",
		f.Index, len(f.Targets), f.Noise.Len(), f.Clutter.Len()))
	r.screen.Show()
	return nil
}

// RenderWindow draws a clustered window scaled to its own bounds. Cluster
// members are drawn with a per-label glyph and colour, noise as '.'.
func (r *TerminalRenderer) RenderWindow(w *cluster.Window) error {
	r.screen.Clear()
	minX, maxX, minY, maxY := bounds(w.Points)
	e := r.plotExtent(minX, maxX, minY, maxY)

	colors := labelColors(w.Summary.Clusters)
	noise := tcell.StyleDefault.Foreground(rgb(clutterColor))
	for i, p := range w.Points {
		l := w.Labels[i]
		if l < 0 || l >= len(colors) {
			r.put(e, p.X, p.Y, '.', noise)
			continue
		}
		r.put(e, p.X, p.Y, labelGlyph(l), tcell.StyleDefault.Foreground(rgb(colors[l])))
	}

	r.status(fmt.Sprintf("window %d [%d, %d)  clusters %d  noise %d  %s",
		w.Index, w.Bounds.Start, w.Bounds.End, w.Summary.Clusters, w.Summary.Noise, w.Elapsed))
	r.screen.Show()
	return nil
}

const glyphs = "0123456789abcdefghijklmnopqrstuvwxyz"

func labelGlyph(label int) rune {
	return rune(glyphs[label%len(glyphs)])
}

// bounds returns a padded bounding box of pts; degenerate axes get a unit
// span around their value.
func bounds(pts []radar.Point) (minX, maxX, minY, maxY float64) {
	if len(pts) == 0 {
		return -1, 1, -1, 1
	}
	minX, maxX = pts[0].X, pts[0].X
	minY, maxY = pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	padX, padY := (maxX-minX)*0.05, (maxY-minY)*0.05
	if padX == 0 {
		padX = 1
	}
	if padY == 0 {
		padY = 1
	}
	return minX - padX, maxX + padX, minY - padY, maxY + padY
}

// WatchQuit polls terminal events until q, Escape or Ctrl-C is pressed and
// then calls cancel. It returns when ctx is done or the screen is finalised.
func (r *TerminalRenderer) WatchQuit(ctx context.Context, cancel context.CancelFunc) {
	for ctx.Err() == nil {
		ev := r.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				cancel()
				return
			}
		case *tcell.EventResize:
			r.screen.Sync()
		}
	}
}

// Close restores the terminal.
func (r *TerminalRenderer) Close() error {
	r.screen.Fini()
	return nil
}

var (
	_ sim.Sink               = (*TerminalRenderer)(nil)
	_ cluster.WindowRenderer = (*TerminalRenderer)(nil)
)
