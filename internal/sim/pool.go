package sim

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/radarsim/internal/radar"
)

// Params bounds the target population.
type Params struct {
	TargetCount int     // pool size restored after every step
	RangeMax    float64 // observation region is [-RangeMax, RangeMax] on both axes
	MaxSpeed    float64 // velocity components are drawn from [-MaxSpeed, MaxSpeed)
}

// State is the target pool after Tick completed steps.
type State struct {
	Tick    int
	Targets []radar.Point
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	out := State{Tick: s.Tick}
	if len(s.Targets) > 0 {
		out.Targets = make([]radar.Point, len(s.Targets))
		copy(out.Targets, s.Targets)
	}
	return out
}

// StepStats reports the pool churn of one step.
type StepStats struct {
	Culled  int
	Spawned int
}

// NewRand returns the seeded generator used throughout a run.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewState spawns the initial population at tick 0.
func NewState(p Params, rng *rand.Rand) State {
	s := State{}
	for len(s.Targets) < p.TargetCount {
		s.Targets = append(s.Targets, SpawnTarget(p, rng))
	}
	return s
}

// SpawnTarget draws a target with uniform position inside the region and
// uniform velocity inside the speed bound.
func SpawnTarget(p Params, rng *rand.Rand) radar.Point {
	pos := distuv.Uniform{Min: -p.RangeMax, Max: p.RangeMax, Src: rng}
	vel := distuv.Uniform{Min: -p.MaxSpeed, Max: p.MaxSpeed, Src: rng}
	return radar.Point{
		X:  pos.Rand(),
		Y:  pos.Rand(),
		VX: vel.Rand(),
		VY: vel.Rand(),
	}
}

// Step advances every target by its velocity, removes targets outside the
// region, and replenishes the pool to p.TargetCount. A target is removed if it
// was outside the region before or after moving; there is no reflection or
// clipping. The input state is not modified.
func Step(s State, p Params, rng *rand.Rand) (State, StepStats) {
	var stats StepStats
	next := State{Tick: s.Tick + 1}
	next.Targets = make([]radar.Point, 0, max(p.TargetCount, len(s.Targets)))

	for _, t := range s.Targets {
		wasIn := t.InRange(p.RangeMax)
		t.Move()
		if !wasIn || !t.InRange(p.RangeMax) {
			stats.Culled++
			continue
		}
		next.Targets = append(next.Targets, t)
	}

	for len(next.Targets) < p.TargetCount {
		next.Targets = append(next.Targets, SpawnTarget(p, rng))
		stats.Spawned++
	}

	return next, stats
}
