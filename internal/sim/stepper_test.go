package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radarsim/internal/monitoring"
	"github.com/banshee-data/radarsim/internal/radar"
	"github.com/banshee-data/radarsim/internal/timeutil"
)

func testConfig(seed uint64) Config {
	return Config{
		Params:       Params{TargetCount: 10, RangeMax: 100, MaxSpeed: 5},
		NoiseBudget:  500,
		NoiseSigma:   DefaultNoiseSigma,
		ClutterCount: 100,
		Seed:         seed,
	}
}

func TestStepper_TickProducesFrames(t *testing.T) {
	var frames []*Frame
	s := NewStepper(testConfig(1), SinkFunc(func(f *Frame) error {
		frames = append(frames, f)
		return nil
	}))

	for i := 0; i < 5; i++ {
		s.Tick()
	}

	require.Len(t, frames, 5)
	for i, f := range frames {
		assert.Equal(t, i, f.Index)
		assert.Len(t, f.Targets, 10)
		assert.Equal(t, 100, f.Clutter.Len())
		assert.Equal(t, f.Noise.Len(), len(f.Noise.Y))
		assert.Equal(t, len(f.Targets)+f.Noise.Len()+f.Clutter.Len(), f.PointCount())
	}

	st := s.Stats()
	assert.Equal(t, 5, st.Ticks)
	assert.Equal(t, 0, st.SinkErrors)
	assert.GreaterOrEqual(t, st.Spawned, 10)
	assert.Equal(t, st.Spawned-st.Culled, len(s.State().Targets))
}

func TestStepper_FrameTargetsAreCopies(t *testing.T) {
	s := NewStepper(testConfig(2))
	f := s.Tick()
	f.Targets[0].X = 1e9
	assert.NotEqual(t, 1e9, s.State().Targets[0].X)
}

func TestStepper_DeterministicWithSeed(t *testing.T) {
	run := func() []*Frame {
		var out []*Frame
		s := NewStepper(testConfig(99), SinkFunc(func(f *Frame) error {
			out = append(out, f)
			return nil
		}))
		for i := 0; i < 10; i++ {
			s.Tick()
		}
		return out
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("runs with the same seed differ (-first +second):\n%s", diff)
	}
}

func TestStepper_ZeroTargets(t *testing.T) {
	cfg := testConfig(3)
	cfg.TargetCount = 0
	s := NewStepper(cfg)
	f := s.Tick()
	assert.Empty(t, f.Targets)
	assert.Equal(t, 0, f.Noise.Len())
	assert.Equal(t, 100, f.Clutter.Len())
}

func TestStepper_SinkErrorDoesNotStopRun(t *testing.T) {
	origLog := monitoring.Logf
	monitoring.SetLogger(nil)
	defer func() { monitoring.Logf = origLog }()

	calls := 0
	failing := SinkFunc(func(f *Frame) error { return errors.New("disk full") })
	counting := SinkFunc(func(f *Frame) error {
		calls++
		return nil
	})
	s := NewStepper(testConfig(4), failing, counting)

	require.NoError(t, s.Run(context.Background(), 3))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, s.Stats().SinkErrors)
}

func TestStepper_RunPacesWithClock(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	cfg := testConfig(5)
	cfg.Interval = 50 * time.Millisecond
	cfg.Clock = clock
	s := NewStepper(cfg)

	require.NoError(t, s.Run(context.Background(), 4))
	assert.Equal(t, 4, s.Stats().Ticks)
	// No pause after the final tick.
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 50 * time.Millisecond, 50 * time.Millisecond}, clock.Sleeps())
}

func TestStepper_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := 0
	s := NewStepper(testConfig(6), SinkFunc(func(f *Frame) error {
		ticks++
		if ticks == 7 {
			cancel()
		}
		return nil
	}))

	err := s.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 7, ticks)
}

func TestStepper_SetState(t *testing.T) {
	cfg := testConfig(7)
	cfg.TargetCount = 3
	s := NewStepper(cfg)
	s.SetState(State{Targets: []radar.Point{
		{X: 0, Y: 0},
		{X: 50, Y: 50},
		{X: -50, Y: -50},
	}})

	f := s.Tick()
	assert.Equal(t, []radar.Point{{X: 0, Y: 0}, {X: 50, Y: 50}, {X: -50, Y: -50}}, f.Targets)
	assert.Equal(t, 0, f.Index)
}
