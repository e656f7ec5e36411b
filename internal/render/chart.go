package render

import (
	"fmt"
	"image/color"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/radarsim/internal/cluster"
	"github.com/banshee-data/radarsim/internal/fsutil"
	"github.com/banshee-data/radarsim/internal/radar"
	"github.com/banshee-data/radarsim/internal/sim"
)

// DefaultMaxCharts caps how many scatter charts one HTML page holds.
const DefaultMaxCharts = 50

// ChartRenderer collects scatter charts and writes them as a single HTML
// page on Close.
type ChartRenderer struct {
	fs       fsutil.FileSystem
	path     string
	runID    string
	rangeMax float64

	// MaxCharts bounds the page size; later frames and windows are counted
	// in Dropped but not drawn.
	MaxCharts int
	Dropped   int

	page   *components.Page
	charts int
}

// NewChartRenderer prepares a page that will be written to path. runID is
// shown in every chart subtitle.
func NewChartRenderer(fsys fsutil.FileSystem, path, runID string, rangeMax float64) *ChartRenderer {
	page := components.NewPage()
	page.PageTitle = "radarsim"
	return &ChartRenderer{
		fs:        fsys,
		path:      path,
		runID:     runID,
		rangeMax:  rangeMax,
		MaxCharts: DefaultMaxCharts,
		page:      page,
	}
}

// Charts returns the number of charts added to the page.
func (r *ChartRenderer) Charts() int { return r.charts }

// WriteFrame adds a chart of one tick.
func (r *ChartRenderer) WriteFrame(f *sim.Frame) error {
	if !r.reserve() {
		return nil
	}
	scatter := r.newScatter(fmt.Sprintf("Frame %d", f.Index), r.rangeMax)
	addSeries(scatter, "clutter", cloudData(f.Clutter), clutterColor, 3)
	addSeries(scatter, "noise", cloudData(f.Noise), noiseColor, 3)
	addSeries(scatter, "targets", pointData(f.Targets), targetColor, 8)
	r.page.AddCharts(scatter)
	return nil
}

// RenderWindow adds a chart of one clustered window, a series per label.
func (r *ChartRenderer) RenderWindow(w *cluster.Window) error {
	if !r.reserve() {
		return nil
	}
	scatter := r.newScatter(fmt.Sprintf("Window %d [%d, %d): %d clusters, %d noise",
		w.Index, w.Bounds.Start, w.Bounds.End, w.Summary.Clusters, w.Summary.Noise), 0)

	noise := make([]opts.ScatterData, 0, w.Summary.Noise)
	byLabel := make([][]opts.ScatterData, w.Summary.Clusters)
	for i, p := range w.Points {
		d := opts.ScatterData{Value: []interface{}{p.X, p.Y}}
		if l := w.Labels[i]; l >= 0 && l < len(byLabel) {
			byLabel[l] = append(byLabel[l], d)
		} else {
			noise = append(noise, d)
		}
	}
	addSeries(scatter, "noise", noise, clutterColor, 4)
	for i, c := range labelColors(len(byLabel)) {
		addSeries(scatter, fmt.Sprintf("cluster %d", i), byLabel[i], c, 6)
	}
	r.page.AddCharts(scatter)
	return nil
}

func (r *ChartRenderer) reserve() bool {
	if r.MaxCharts > 0 && r.charts >= r.MaxCharts {
		r.Dropped++
		return false
	}
	r.charts++
	return true
}

func (r *ChartRenderer) newScatter(title string, pad float64) *charts.Scatter {
	xAxis := opts.XAxis{Name: "X", NameLocation: "middle", NameGap: 25}
	yAxis := opts.YAxis{Name: "Y", NameLocation: "middle", NameGap: 30}
	if pad > 0 {
		xAxis.Min, xAxis.Max = -pad, pad
		yAxis.Min, yAxis.Max = -pad, pad
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "700px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("run=%s", r.runID)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(yAxis),
	)
	return scatter
}

func addSeries(s *charts.Scatter, name string, data []opts.ScatterData, c color.RGBA, size int) {
	if len(data) == 0 {
		return
	}
	s.AddSeries(name, data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: size}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(c)}),
	)
}

func cloudData(c radar.Cloud) []opts.ScatterData {
	data := make([]opts.ScatterData, c.Len())
	for i := range c.X {
		data[i] = opts.ScatterData{Value: []interface{}{c.X[i], c.Y[i]}}
	}
	return data
}

func pointData(pts []radar.Point) []opts.ScatterData {
	data := make([]opts.ScatterData, len(pts))
	for i, p := range pts {
		data[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y, p.VX, p.VY}}
	}
	return data
}

// Close renders the page to the output path.
func (r *ChartRenderer) Close() error {
	out, err := r.fs.Create(r.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", r.path, err)
	}
	if err := r.page.Render(out); err != nil {
		out.Close()
		return fmt.Errorf("render error: %w", err)
	}
	return out.Close()
}

var (
	_ sim.Sink               = (*ChartRenderer)(nil)
	_ cluster.WindowRenderer = (*ChartRenderer)(nil)
)
