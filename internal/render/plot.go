package render

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/radarsim/internal/cluster"
	"github.com/banshee-data/radarsim/internal/fsutil"
	"github.com/banshee-data/radarsim/internal/radar"
	"github.com/banshee-data/radarsim/internal/sim"
)

// PlotRenderer writes one PNG scatter plot per frame or window into a
// directory.
type PlotRenderer struct {
	fs       fsutil.FileSystem
	dir      string
	rangeMax float64
	size     vg.Length
	written  []string
}

// NewPlotRenderer creates dir if needed. rangeMax fixes the axes of frame
// plots; window plots scale to their data.
func NewPlotRenderer(fsys fsutil.FileSystem, dir string, rangeMax float64) (*PlotRenderer, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &PlotRenderer{fs: fsys, dir: dir, rangeMax: rangeMax, size: 6 * vg.Inch}, nil
}

// Written lists the files produced so far.
func (r *PlotRenderer) Written() []string {
	return append([]string(nil), r.written...)
}

// WriteFrame plots targets, noise and clutter of one tick.
func (r *PlotRenderer) WriteFrame(f *sim.Frame) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Simulated radar, frame %d", f.Index)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	if r.rangeMax > 0 {
		p.X.Min, p.X.Max = -r.rangeMax, r.rangeMax
		p.Y.Min, p.Y.Max = -r.rangeMax, r.rangeMax
	}

	if err := addScatter(p, "clutter", cloudXYs(f.Clutter), clutterColor, 1); err != nil {
		return err
	}
	if err := addScatter(p, "noise", cloudXYs(f.Noise), noiseColor, 1); err != nil {
		return err
	}
	if err := addScatter(p, "targets", pointXYs(f.Targets), targetColor, 3); err != nil {
		return err
	}
	return r.save(p, fmt.Sprintf("tick-%05d.png", f.Index))
}

// RenderWindow plots one scatter per cluster label with noise in grey.
func (r *PlotRenderer) RenderWindow(w *cluster.Window) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("DBSCAN window %d [%d, %d): %d clusters", w.Index, w.Bounds.Start, w.Bounds.End, w.Summary.Clusters)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	groups := groupByLabel(w.Points, w.Labels, w.Summary.Clusters)
	if err := addScatter(p, "noise", groups.noise, clutterColor, 2); err != nil {
		return err
	}
	colors := labelColors(len(groups.clusters))
	for i, xys := range groups.clusters {
		if err := addScatter(p, fmt.Sprintf("cluster %d", i), xys, colors[i], 2); err != nil {
			return err
		}
	}
	return r.save(p, fmt.Sprintf("window-%05d.png", w.Index))
}

func (r *PlotRenderer) save(p *plot.Plot, name string) error {
	wt, err := p.WriterTo(r.size, r.size, "png")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path := filepath.Join(r.dir, name)
	out, err := r.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(out); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	r.written = append(r.written, path)
	return nil
}

func addScatter(p *plot.Plot, name string, xys plotter.XYs, c color.Color, radius float64) error {
	if len(xys) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("failed to build %s scatter: %w", name, err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(radius)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s)
	p.Legend.Add(name, s)
	return nil
}

func cloudXYs(c radar.Cloud) plotter.XYs {
	xys := make(plotter.XYs, c.Len())
	for i := range c.X {
		xys[i] = plotter.XY{X: c.X[i], Y: c.Y[i]}
	}
	return xys
}

func pointXYs(pts []radar.Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i] = plotter.XY{X: p.X, Y: p.Y}
	}
	return xys
}

type labelGroups struct {
	noise    plotter.XYs
	clusters []plotter.XYs
}

func groupByLabel(pts []radar.Point, labels []int, clusters int) labelGroups {
	g := labelGroups{clusters: make([]plotter.XYs, clusters)}
	for i, p := range pts {
		xy := plotter.XY{X: p.X, Y: p.Y}
		l := labels[i]
		if l < 0 || l >= clusters {
			g.noise = append(g.noise, xy)
			continue
		}
		g.clusters[l] = append(g.clusters[l], xy)
	}
	return g
}

var (
	_ sim.Sink               = (*PlotRenderer)(nil)
	_ cluster.WindowRenderer = (*PlotRenderer)(nil)
)
