package cluster

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radarsim/internal/radar"
)

func TestDBSCAN_ThreeStationaryTargets(t *testing.T) {
	points := []radar.Point{{X: 0, Y: 0}, {X: 50, Y: 50}, {X: -50, Y: -50}}

	labels := DBSCAN(points, 10, 1)

	require.Len(t, labels, 3)
	seen := map[int]bool{}
	for i, l := range labels {
		assert.GreaterOrEqual(t, l, 0, "point %d labelled noise", i)
		seen[l] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 0, Summarize(labels).Noise)
}

func TestDBSCAN_Empty(t *testing.T) {
	labels := DBSCAN(nil, 0.5, 5)
	if labels == nil || len(labels) != 0 {
		t.Errorf("expected empty non-nil labels, got %v", labels)
	}
}

func TestDBSCAN_LabelsInDiscoveryOrder(t *testing.T) {
	points := []radar.Point{
		{X: 10, Y: 10}, {X: 10.1, Y: 10},
		{X: 500, Y: 500},
		{X: -10, Y: -10}, {X: -10.1, Y: -10},
	}
	got := DBSCAN(points, 0.5, 2)
	want := []int{0, 0, Noise, 1, 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestDBSCAN_BorderPointJoinsCluster(t *testing.T) {
	// Point 0 has only one neighbour besides itself, so it is visited first
	// as noise and later absorbed as a border point of the core at x=1.
	points := []radar.Point{{X: 0}, {X: 1}, {X: 1.5}, {X: 2}}
	got := DBSCAN(points, 1, 3)
	want := []int{0, 0, 0, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestDBSCAN_NonPositiveEps(t *testing.T) {
	points := []radar.Point{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1.01, Y: 1}}
	for _, eps := range []float64{0, -3} {
		got := DBSCAN(points, eps, 2)
		want := []int{0, 0, Noise}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("eps=%v labels mismatch (-want +got):\n%s", eps, diff)
		}
	}
}

func TestDBSCAN_NegativeCoordinatesAcrossCells(t *testing.T) {
	// Neighbours straddle the cell boundary at zero on both axes.
	points := []radar.Point{{X: -0.1, Y: -0.1}, {X: 0.1, Y: 0.1}, {X: -0.1, Y: 0.1}}
	got := DBSCAN(points, 0.5, 3)
	if diff := cmp.Diff([]int{0, 0, 0}, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

// blobs returns well separated square patches plus isolated points so the
// partition does not depend on visiting order.
func blobs() []radar.Point {
	var pts []radar.Point
	for _, c := range []radar.Point{{X: 0, Y: 0}, {X: 40, Y: -30}, {X: -60, Y: 25}} {
		for i := 0; i < 5; i++ {
			for j := 0; j < 5; j++ {
				pts = append(pts, radar.Point{X: c.X + 0.2*float64(i), Y: c.Y + 0.2*float64(j)})
			}
		}
	}
	pts = append(pts, radar.Point{X: 90, Y: 90}, radar.Point{X: -90, Y: 80})
	return pts
}

func TestDBSCAN_OrderInvariance(t *testing.T) {
	pts := blobs()
	base := DBSCAN(pts, 0.5, 4)

	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 5; trial++ {
		perm := rng.Perm(len(pts))
		shuffled := make([]radar.Point, len(pts))
		for newIdx, oldIdx := range perm {
			shuffled[newIdx] = pts[oldIdx]
		}
		got := DBSCAN(shuffled, 0.5, 4)

		// Same partition up to relabelling: pairwise co-membership matches.
		for a := range perm {
			for b := range perm {
				la, lb := got[a], got[b]
				oa, ob := base[perm[a]], base[perm[b]]
				if (la == Noise) != (oa == Noise) {
					t.Fatalf("trial %d: noise status differs for point %d", trial, perm[a])
				}
				if la != Noise && lb != Noise && (la == lb) != (oa == ob) {
					t.Fatalf("trial %d: co-membership differs for points %d and %d", trial, perm[a], perm[b])
				}
			}
		}
	}

	s := Summarize(base)
	assert.Equal(t, 3, s.Clusters)
	assert.Equal(t, 2, s.Noise)
	assert.Equal(t, []int{25, 25, 25}, s.Sizes)
}

func TestSpatialIndex_RegionQueryIncludesSelf(t *testing.T) {
	pts := []radar.Point{{X: 3, Y: 4}, {X: 3.2, Y: 4.2}, {X: 9, Y: 9}}
	si := NewSpatialIndex(0.5)
	si.Build(pts)
	got := si.RegionQuery(pts, 0, 0.5)
	assert.ElementsMatch(t, []int{0, 1}, got)
}

func TestCellID_Unique(t *testing.T) {
	seen := map[int64][2]int64{}
	for x := int64(-20); x <= 20; x++ {
		for y := int64(-20); y <= 20; y++ {
			id := cellID(x, y)
			if prev, ok := seen[id]; ok {
				t.Fatalf("cell (%d,%d) collides with %v", x, y, prev)
			}
			seen[id] = [2]int64{x, y}
		}
	}
}
