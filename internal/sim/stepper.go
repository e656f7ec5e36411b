package sim

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/banshee-data/radarsim/internal/monitoring"
	"github.com/banshee-data/radarsim/internal/radar"
	"github.com/banshee-data/radarsim/internal/timeutil"
)

// Frame is one tick's complete observable point set.
type Frame struct {
	Index   int // 0-based tick index
	Targets []radar.Point
	Noise   radar.Cloud
	Clutter radar.Cloud
}

// PointCount returns the number of points carried by the frame.
func (f *Frame) PointCount() int {
	return len(f.Targets) + f.Noise.Len() + f.Clutter.Len()
}

// Sink consumes frames as the stepper produces them: the frame log and the
// renderers all implement it.
type Sink interface {
	WriteFrame(f *Frame) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(f *Frame) error

// WriteFrame calls fn(f).
func (fn SinkFunc) WriteFrame(f *Frame) error { return fn(f) }

// Config describes a full simulation run.
type Config struct {
	Params
	NoiseBudget  int
	NoiseSigma   float64
	NoisePolicy  CountPolicy
	ClutterCount int
	Seed         uint64
	Interval     time.Duration  // pause between ticks in Run; 0 disables pacing
	Clock        timeutil.Clock // nil uses the real clock
}

// Stats accumulates counters over a run.
type Stats struct {
	Ticks       int
	Spawned     int
	Culled      int
	NoisePoints int
	SinkErrors  int
}

// Stepper owns the target pool and orchestrates one tick at a time. It is not
// safe for concurrent use.
type Stepper struct {
	cfg     Config
	rng     *rand.Rand
	noise   NoiseSynthesizer
	clutter ClutterSynthesizer
	clock   timeutil.Clock
	state   State
	sinks   []Sink
	stats   Stats
}

// NewStepper seeds the generator and spawns the initial population.
func NewStepper(cfg Config, sinks ...Sink) *Stepper {
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	rng := NewRand(cfg.Seed)
	s := &Stepper{
		cfg:   cfg,
		rng:   rng,
		noise: NoiseSynthesizer{Sigma: cfg.NoiseSigma, Policy: cfg.NoisePolicy},
		clock: clock,
		sinks: sinks,
	}
	s.state = NewState(cfg.Params, rng)
	s.stats.Spawned = len(s.state.Targets)
	return s
}

// State returns a copy of the current target pool.
func (s *Stepper) State() State {
	return s.state.Clone()
}

// SetState replaces the target pool, e.g. to replay a fixed scenario.
func (s *Stepper) SetState(st State) {
	s.state = st.Clone()
}

// Stats returns the counters accumulated so far.
func (s *Stepper) Stats() Stats {
	return s.stats
}

// AddSink attaches another frame consumer.
func (s *Stepper) AddSink(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

// Tick advances the pool, regenerates noise and clutter, and hands the frame
// to every sink. Sink failures are logged and counted; they never stop the
// simulation.
func (s *Stepper) Tick() *Frame {
	next, st := Step(s.state, s.cfg.Params, s.rng)
	s.state = next

	frame := &Frame{
		Index:   next.Tick - 1,
		Targets: next.Clone().Targets,
	}
	frame.Noise = s.noise.Generate(next.Targets, s.cfg.NoiseBudget, s.rng)
	frame.Clutter = s.clutter.Generate(s.cfg.ClutterCount, s.cfg.RangeMax, s.rng)

	s.stats.Ticks++
	s.stats.Spawned += st.Spawned
	s.stats.Culled += st.Culled
	s.stats.NoisePoints += frame.Noise.Len()

	for _, sink := range s.sinks {
		if err := sink.WriteFrame(frame); err != nil {
			s.stats.SinkErrors++
			monitoring.Diagf(monitoring.DiagSinkError, "sim: frame %d: sink error: %v", frame.Index, err)
		}
	}
	return frame
}

// Run ticks until ticks frames were produced (ticks <= 0 runs until ctx is
// cancelled), pausing cfg.Interval between ticks. It returns ctx.Err() when
// cancelled and nil when the tick limit is reached.
func (s *Stepper) Run(ctx context.Context, ticks int) error {
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Tick()
		last := ticks > 0 && i == ticks-1
		if s.cfg.Interval > 0 && !last {
			s.clock.Sleep(s.cfg.Interval)
		}
	}
	return nil
}
