// Package framelog reads and writes the text frame log shared by the
// simulator and the reconstruction pass.
//
// One record per line:
//
//	Frame: <int>, Target: x: <float>, y: <float>[, vx: <float>, vy: <float>]
//	Frame: <int>, Noise: x: <float>, y: <float>
//
// Floats use the shortest representation that parses back to the same value.
// Lines starting with '#' are comments and blank lines are ignored.
package framelog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/banshee-data/radarsim/internal/radar"
)

// Record is one logged point.
type Record struct {
	Frame       int
	Kind        radar.Kind
	Point       radar.Point
	HasVelocity bool
}

var recordRe = regexp.MustCompile(
	`^Frame:\s*(\d+),\s*(Target|Noise):\s*x:\s*([^,\s]+),\s*y:\s*([^,\s]+)(?:,\s*vx:\s*([^,\s]+),\s*vy:\s*([^,\s]+))?\s*$`)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatRecord renders r in the canonical line format, without a newline.
// Velocity is written only when r.HasVelocity is set.
func FormatRecord(r Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frame: %d, %s: x: %s, y: %s", r.Frame, r.Kind, formatFloat(r.Point.X), formatFloat(r.Point.Y))
	if r.HasVelocity {
		fmt.Fprintf(&b, ", vx: %s, vy: %s", formatFloat(r.Point.VX), formatFloat(r.Point.VY))
	}
	return b.String()
}

// ParseRecord parses one canonical line.
func ParseRecord(line string) (Record, error) {
	m := recordRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Record{}, fmt.Errorf("line does not match record format")
	}

	var r Record
	frame, err := strconv.Atoi(m[1])
	if err != nil {
		return Record{}, fmt.Errorf("frame index: %w", err)
	}
	r.Frame = frame

	if r.Kind, err = radar.ParseKind(m[2]); err != nil {
		return Record{}, err
	}

	if r.Point.X, err = parseFinite("x", m[3]); err != nil {
		return Record{}, err
	}
	if r.Point.Y, err = parseFinite("y", m[4]); err != nil {
		return Record{}, err
	}

	if m[5] != "" {
		if r.Point.VX, err = parseFinite("vx", m[5]); err != nil {
			return Record{}, err
		}
		if r.Point.VY, err = parseFinite("vy", m[6]); err != nil {
			return Record{}, err
		}
		r.HasVelocity = true
	}
	return r, nil
}

func parseFinite(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: non-finite value %q", field, s)
	}
	return v, nil
}
