package cluster

import (
	"context"
	"time"

	"github.com/banshee-data/radarsim/internal/framelog"
	"github.com/banshee-data/radarsim/internal/monitoring"
	"github.com/banshee-data/radarsim/internal/radar"
	"github.com/banshee-data/radarsim/internal/timeutil"
)

// Bounds is a half-open [Start, End) range of point indices.
type Bounds struct {
	Start, End int
}

// Windows splits n points into consecutive full windows of step points.
// A trailing partial window is dropped; step <= 0 yields none.
func Windows(n, step int) []Bounds {
	if step <= 0 || n < step {
		return nil
	}
	out := make([]Bounds, 0, n/step)
	for start := 0; start+step <= n; start += step {
		out = append(out, Bounds{Start: start, End: start + step})
	}
	return out
}

// Window is one clustered slice of the point log, ready to draw.
type Window struct {
	Index   int
	Bounds  Bounds
	Points  []radar.Point // coordinates as clustered
	Raw     []radar.Point // coordinates as logged
	Frames  []int
	Labels  []int
	Summary Summary
	Elapsed time.Duration
}

// WindowRenderer draws a clustered window.
type WindowRenderer interface {
	RenderWindow(w *Window) error
}

// WindowRendererFunc adapts a function to WindowRenderer.
type WindowRendererFunc func(w *Window) error

// RenderWindow calls fn(w).
func (fn WindowRendererFunc) RenderWindow(w *Window) error { return fn(w) }

// ClusterRange clusters store points [b.Start, b.End) with c and times the
// pass on clock. Window.Points holds c.Prepare of the raw points.
func ClusterRange(store *framelog.Store, b Bounds, c Clusterer, clock timeutil.Clock) *Window {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	raw := store.Points[b.Start:b.End]

	start := clock.Now()
	labels := c.Cluster(raw)
	elapsed := clock.Since(start)
	pts := c.Prepare(raw)

	return &Window{
		Bounds:  b,
		Points:  pts,
		Raw:     raw,
		Frames:  store.Frames[b.Start:b.End],
		Labels:  labels,
		Summary: Summarize(labels),
		Elapsed: elapsed,
	}
}

// ClusterAll clusters the whole store as a single window.
func ClusterAll(store *framelog.Store, c Clusterer, clock timeutil.Clock) *Window {
	return ClusterRange(store, Bounds{Start: 0, End: store.Len()}, c, clock)
}

// Animator clusters a point log window by window and hands each result to a
// renderer.
type Animator struct {
	Step     int
	Engine   Clusterer
	Pause    time.Duration
	Clock    timeutil.Clock
	Renderer WindowRenderer
}

// NewAnimator returns an animator with the default window parameters.
func NewAnimator(step int, pause time.Duration, r WindowRenderer) *Animator {
	return &Animator{
		Step:     step,
		Engine:   NewEngine(DefaultWindowParams()),
		Pause:    pause,
		Clock:    timeutil.RealClock{},
		Renderer: r,
	}
}

// Run processes every full window of store in order and returns how many
// were processed. Renderer errors are logged and skipped; cancelling ctx
// stops the run and returns ctx.Err().
func (a *Animator) Run(ctx context.Context, store *framelog.Store) (int, error) {
	clock := a.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	engine := a.Engine
	if engine == nil {
		engine = NewEngine(DefaultWindowParams())
	}

	windows := Windows(store.Len(), a.Step)
	done := 0
	for i, b := range windows {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		w := ClusterRange(store, b, engine, clock)
		w.Index = i
		monitoring.Logf("cluster: window %d [%d,%d): %d clusters, %d noise, processed in %s",
			i, b.Start, b.End, w.Summary.Clusters, w.Summary.Noise, w.Elapsed)

		if a.Renderer != nil {
			if err := a.Renderer.RenderWindow(w); err != nil {
				monitoring.Diagf(monitoring.DiagRenderError, "cluster: window %d: render error: %v", i, err)
			}
		}
		done++

		if a.Pause > 0 && i < len(windows)-1 {
			clock.Sleep(a.Pause)
		}
	}
	return done, nil
}
