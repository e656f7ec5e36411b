// Package radar holds the point types shared by the simulator, the frame log
// and the clustering pipeline.
package radar

import (
	"fmt"
	"math"
)

// Point is a single 2-D radar return. Targets carry the velocity they were
// last assigned (units per tick); noise and clutter samples carry zero velocity.
type Point struct {
	X, Y   float64
	VX, VY float64
}

// Move advances the point by one tick of its velocity.
func (p *Point) Move() {
	p.X += p.VX
	p.Y += p.VY
}

// InRange reports whether the point lies inside the square [-r, r] x [-r, r].
func (p Point) InRange(r float64) bool {
	return math.Abs(p.X) <= r && math.Abs(p.Y) <= r
}

func (p Point) String() string {
	return fmt.Sprintf("x: %g, y: %g, vx: %g, vy: %g", p.X, p.Y, p.VX, p.VY)
}

// Cloud is a set of rendering samples stored as parallel coordinate slices,
// the way the synthesizers produce them.
type Cloud struct {
	X []float64
	Y []float64
}

// Len returns the number of samples in the cloud.
func (c Cloud) Len() int {
	return len(c.X)
}

// Append adds one sample.
func (c *Cloud) Append(x, y float64) {
	c.X = append(c.X, x)
	c.Y = append(c.Y, y)
}

// Points converts the cloud to zero-velocity points.
func (c Cloud) Points() []Point {
	if len(c.X) == 0 {
		return nil
	}
	pts := make([]Point, len(c.X))
	for i := range c.X {
		pts[i] = Point{X: c.X[i], Y: c.Y[i]}
	}
	return pts
}

// Kind labels a logged record.
type Kind uint8

const (
	// KindNoise covers target-local noise and background clutter.
	KindNoise Kind = iota
	// KindTarget is a simulated moving reflector.
	KindTarget
)

func (k Kind) String() string {
	if k == KindTarget {
		return "Target"
	}
	return "Noise"
}

// ParseKind maps a record label back to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "Target":
		return KindTarget, nil
	case "Noise":
		return KindNoise, nil
	}
	return KindNoise, fmt.Errorf("unknown record kind %q", s)
}
