package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/radarsim/internal/radar"
)

// DefaultNoiseSigma is the per-axis standard deviation of target-local noise.
const DefaultNoiseSigma = 5.0

// CountPolicy converts a drawn noise total into a per-target sample count.
type CountPolicy int

const (
	// CountTruncate divides with integer truncation. Large target counts
	// systematically under-deliver noise.
	CountTruncate CountPolicy = iota
	// CountRound rounds the quotient half away from zero.
	CountRound
)

// ParseCountPolicy maps the config names "truncate" and "round".
func ParseCountPolicy(s string) (CountPolicy, error) {
	switch s {
	case "", "truncate":
		return CountTruncate, nil
	case "round":
		return CountRound, nil
	}
	return CountTruncate, fmt.Errorf("unknown noise count policy %q", s)
}

func (p CountPolicy) String() string {
	if p == CountRound {
		return "round"
	}
	return "truncate"
}

func (p CountPolicy) perTarget(total, targets int) int {
	if p == CountRound {
		return int(math.Round(float64(total) / float64(targets)))
	}
	return total / targets
}

// NoiseSynthesizer scatters Gaussian samples around target positions.
type NoiseSynthesizer struct {
	Sigma  float64
	Policy CountPolicy
}

// NewNoiseSynthesizer returns a synthesizer with the default sigma and the
// truncating count policy.
func NewNoiseSynthesizer() NoiseSynthesizer {
	return NoiseSynthesizer{Sigma: DefaultNoiseSigma, Policy: CountTruncate}
}

// Generate draws, for each target, a total k uniformly from [1, budget) and
// emits k/len(targets) samples (per Policy) from N(target, Sigma) on each
// axis independently. An empty target list or a budget below 2 yields an
// empty cloud.
func (n NoiseSynthesizer) Generate(targets []radar.Point, budget int, rng *rand.Rand) radar.Cloud {
	var cloud radar.Cloud
	if len(targets) == 0 || budget < 2 {
		return cloud
	}

	for _, t := range targets {
		k := rng.IntN(budget-1) + 1
		count := n.Policy.perTarget(k, len(targets))
		if count <= 0 {
			continue
		}
		nx := distuv.Normal{Mu: t.X, Sigma: n.Sigma, Src: rng}
		ny := distuv.Normal{Mu: t.Y, Sigma: n.Sigma, Src: rng}
		for i := 0; i < count; i++ {
			cloud.X = append(cloud.X, nx.Rand())
		}
		for i := 0; i < count; i++ {
			cloud.Y = append(cloud.Y, ny.Rand())
		}
	}
	return cloud
}

// ClutterSynthesizer emits background returns unrelated to any target.
type ClutterSynthesizer struct{}

// Generate returns count points with both coordinates uniform in
// [-rangeMax, rangeMax).
func (ClutterSynthesizer) Generate(count int, rangeMax float64, rng *rand.Rand) radar.Cloud {
	var cloud radar.Cloud
	if count <= 0 {
		return cloud
	}
	u := distuv.Uniform{Min: -rangeMax, Max: rangeMax, Src: rng}
	cloud.X = make([]float64, count)
	cloud.Y = make([]float64, count)
	for i := range cloud.X {
		cloud.X[i] = u.Rand()
	}
	for i := range cloud.Y {
		cloud.Y[i] = u.Rand()
	}
	return cloud
}
