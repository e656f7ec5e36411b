package cluster

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/radarsim/internal/radar"
)

// Params configures one clustering pass.
type Params struct {
	Eps         float64
	MinSamples  int
	Standardize bool
}

// DefaultParams returns the whole-log parameters.
func DefaultParams() Params {
	return Params{Eps: 0.5, MinSamples: 5}
}

// DefaultWindowParams returns the parameters used per animation window.
func DefaultWindowParams() Params {
	return Params{Eps: 0.3, MinSamples: 2, Standardize: true}
}

// Clusterer assigns a label to every point of a cloud.
type Clusterer interface {
	// Prepare returns the coordinates the clusterer works on.
	Prepare(points []radar.Point) []radar.Point
	// Cluster labels the raw points, parallel to the input.
	Cluster(points []radar.Point) []int
	GetParams() Params
	SetParams(Params)
}

// Engine runs DBSCAN, optionally on standardized coordinates.
type Engine struct {
	params Params
}

// NewEngine creates an engine with the given parameters.
func NewEngine(p Params) *Engine {
	return &Engine{params: p}
}

// Prepare returns the standardized points when Standardize is set and the
// input unchanged otherwise.
func (e *Engine) Prepare(points []radar.Point) []radar.Point {
	if e.params.Standardize {
		return Standardize(points)
	}
	return points
}

// Cluster labels points; see DBSCAN for the label convention.
func (e *Engine) Cluster(points []radar.Point) []int {
	return DBSCAN(e.Prepare(points), e.params.Eps, e.params.MinSamples)
}

// GetParams returns the current parameters.
func (e *Engine) GetParams() Params {
	return e.params
}

// SetParams replaces the parameters.
func (e *Engine) SetParams(p Params) {
	e.params = p
}

var _ Clusterer = (*Engine)(nil)

// Standardize returns a copy of points with each axis shifted to zero mean
// and scaled to unit population standard deviation. An axis with no spread
// is only centred. Velocities are copied unchanged.
func Standardize(points []radar.Point) []radar.Point {
	if len(points) == 0 {
		return []radar.Point{}
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	mx, sx := stat.PopMeanStdDev(xs, nil)
	my, sy := stat.PopMeanStdDev(ys, nil)

	out := make([]radar.Point, len(points))
	for i, p := range points {
		out[i] = p
		out[i].X = scale(p.X, mx, sx)
		out[i].Y = scale(p.Y, my, sy)
	}
	return out
}

func scale(v, mean, std float64) float64 {
	if std == 0 {
		return v - mean
	}
	return (v - mean) / std
}

// Summary counts the outcome of a clustering pass.
type Summary struct {
	Clusters int
	Noise    int
	Sizes    []int // indexed by label
}

// Summarize counts cluster sizes and noise points in labels.
func Summarize(labels []int) Summary {
	var s Summary
	for _, l := range labels {
		if l < 0 {
			s.Noise++
			continue
		}
		for len(s.Sizes) <= l {
			s.Sizes = append(s.Sizes, 0)
		}
		s.Sizes[l]++
	}
	s.Clusters = len(s.Sizes)
	return s
}
