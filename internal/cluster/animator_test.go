package cluster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radarsim/internal/framelog"
	"github.com/banshee-data/radarsim/internal/monitoring"
	"github.com/banshee-data/radarsim/internal/radar"
	"github.com/banshee-data/radarsim/internal/timeutil"
)

func muteLogs(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	monitoring.ResetDiag()
	t.Cleanup(func() {
		monitoring.SetLogger(prev)
		monitoring.ResetDiag()
	})
}

func storeOf(n int) *framelog.Store {
	s := &framelog.Store{}
	for i := 0; i < n; i++ {
		s.Add(framelog.Record{
			Frame: i / 5,
			Kind:  radar.KindNoise,
			Point: radar.Point{X: float64(i % 5), Y: float64(i / 5)},
		})
	}
	return s
}

func TestWindows(t *testing.T) {
	tests := []struct {
		n, step int
		want    []Bounds
	}{
		{25, 10, []Bounds{{0, 10}, {10, 20}}},
		{20, 10, []Bounds{{0, 10}, {10, 20}}},
		{9, 10, nil},
		{0, 10, nil},
		{10, 0, nil},
		{10, -1, nil},
		{3, 1, []Bounds{{0, 1}, {1, 2}, {2, 3}}},
	}
	for _, tt := range tests {
		got := Windows(tt.n, tt.step)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Windows(%d, %d) mismatch (-want +got):\n%s", tt.n, tt.step, diff)
		}
	}
}

func TestAnimator_TwentyFivePointsTwoWindows(t *testing.T) {
	muteLogs(t)
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	var rendered []*Window
	a := NewAnimator(10, 500*time.Millisecond, WindowRendererFunc(func(w *Window) error {
		rendered = append(rendered, w)
		return nil
	}))
	a.Clock = clock

	n, err := a.Run(context.Background(), storeOf(25))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, rendered, 2)

	for i, w := range rendered {
		assert.Equal(t, i, w.Index)
		assert.Equal(t, Bounds{Start: i * 10, End: i*10 + 10}, w.Bounds)
		assert.Len(t, w.Points, 10)
		assert.Len(t, w.Raw, 10)
		assert.Len(t, w.Frames, 10)
		assert.Len(t, w.Labels, 10)
	}
	assert.Equal(t, 10.0, rendered[1].Raw[0].X+rendered[1].Raw[0].Y*5, "second window starts at point 10")
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, clock.Sleeps())
}

func TestAnimator_StandardizesWindow(t *testing.T) {
	muteLogs(t)
	var got *Window
	a := NewAnimator(10, 0, WindowRendererFunc(func(w *Window) error {
		got = w
		return nil
	}))
	a.Clock = timeutil.NewMockClock(time.Unix(0, 0))

	_, err := a.Run(context.Background(), storeOf(10))
	require.NoError(t, err)
	require.NotNil(t, got)

	var sum float64
	for _, p := range got.Points {
		sum += p.X
	}
	assert.InDelta(t, 0, sum, 1e-9)
	assert.NotEqual(t, got.Raw[1].X, got.Points[1].X)
}

func TestAnimator_RendererErrorContinues(t *testing.T) {
	muteLogs(t)
	calls := 0
	a := NewAnimator(5, 0, WindowRendererFunc(func(w *Window) error {
		calls++
		return errors.New("display closed")
	}))
	a.Clock = timeutil.NewMockClock(time.Unix(0, 0))

	n, err := a.Run(context.Background(), storeOf(15))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, monitoring.DiagCount(monitoring.DiagRenderError))
}

func TestAnimator_Cancelled(t *testing.T) {
	muteLogs(t)
	ctx, cancel := context.WithCancel(context.Background())
	a := NewAnimator(5, 0, WindowRendererFunc(func(w *Window) error {
		if w.Index == 1 {
			cancel()
		}
		return nil
	}))
	a.Clock = timeutil.NewMockClock(time.Unix(0, 0))

	n, err := a.Run(ctx, storeOf(25))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, n)
}

func TestAnimator_EmptyStore(t *testing.T) {
	muteLogs(t)
	a := NewAnimator(10, time.Second, nil)
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	a.Clock = clock

	n, err := a.Run(context.Background(), &framelog.Store{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, clock.Sleeps())
}

func TestClusterAll(t *testing.T) {
	store := &framelog.Store{}
	for _, p := range []radar.Point{{X: 0, Y: 0}, {X: 50, Y: 50}, {X: -50, Y: -50}} {
		store.Add(framelog.Record{Kind: radar.KindTarget, Point: p})
	}
	w := ClusterAll(store, NewEngine(Params{Eps: 10, MinSamples: 1}), timeutil.NewMockClock(time.Unix(0, 0)))
	assert.Equal(t, 3, w.Summary.Clusters)
	assert.Equal(t, 0, w.Summary.Noise)
	assert.Equal(t, Bounds{Start: 0, End: 3}, w.Bounds)
}

// fixedClusterer puts every point in cluster 0 and records its calls.
type fixedClusterer struct {
	params   Params
	clusters int
	prepares int
}

func (f *fixedClusterer) Prepare(points []radar.Point) []radar.Point {
	f.prepares++
	return points
}

func (f *fixedClusterer) Cluster(points []radar.Point) []int {
	f.clusters++
	return make([]int, len(points))
}

func (f *fixedClusterer) GetParams() Params  { return f.params }
func (f *fixedClusterer) SetParams(p Params) { f.params = p }

func TestAnimator_UsesClustererLabels(t *testing.T) {
	muteLogs(t)
	stub := &fixedClusterer{params: Params{Eps: 1e-9, MinSamples: 100}}

	var rendered []*Window
	a := NewAnimator(5, 0, WindowRendererFunc(func(w *Window) error {
		rendered = append(rendered, w)
		return nil
	}))
	a.Engine = stub
	a.Clock = timeutil.NewMockClock(time.Unix(0, 0))

	n, err := a.Run(context.Background(), storeOf(10))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, stub.clusters)
	require.Len(t, rendered, 2)
	for _, w := range rendered {
		assert.Equal(t, []int{0, 0, 0, 0, 0}, w.Labels)
		assert.Equal(t, 1, w.Summary.Clusters)
		assert.Equal(t, 0, w.Summary.Noise)
	}
}
