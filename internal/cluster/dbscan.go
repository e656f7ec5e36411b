// Package cluster re-derives target groupings from a logged point cloud with
// DBSCAN, either over the whole log or over consecutive fixed-size windows.
package cluster

import (
	"math"

	"github.com/banshee-data/radarsim/internal/radar"
)

const (
	// Noise is the label given to points that belong to no cluster.
	Noise = -1

	// estimatedPointsPerCell sizes the initial grid map.
	estimatedPointsPerCell = 4
)

// SpatialIndex answers radius queries using a regular grid.
// Cell size should match the DBSCAN eps parameter.
type SpatialIndex struct {
	CellSize float64
	Grid     map[int64][]int // cell ID -> point indices
}

// NewSpatialIndex creates a spatial index with the given cell size.
// A non-positive size falls back to 1.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if !(cellSize > 0) {
		cellSize = 1
	}
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[int64][]int),
	}
}

// Build populates the index from points.
func (si *SpatialIndex) Build(points []radar.Point) {
	si.Grid = make(map[int64][]int, len(points)/estimatedPointsPerCell)
	for i, p := range points {
		id := cellID(si.cellCoord(p.X), si.cellCoord(p.Y))
		si.Grid[id] = append(si.Grid[id], i)
	}
}

func (si *SpatialIndex) cellCoord(v float64) int64 {
	return int64(math.Floor(v / si.CellSize))
}

// cellID pairs two signed cell coordinates into one key: zigzag encoding
// to make them non-negative, then Szudzik's pairing function.
func cellID(cx, cy int64) int64 {
	a, b := zigzag(cx), zigzag(cy)
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func zigzag(v int64) int64 {
	if v >= 0 {
		return 2 * v
	}
	return -2*v - 1
}

// RegionQuery returns the indices of all points within eps of points[idx],
// idx itself included.
func (si *SpatialIndex) RegionQuery(points []radar.Point, idx int, eps float64) []int {
	p := points[idx]
	eps2 := eps * eps
	cx, cy := si.cellCoord(p.X), si.cellCoord(p.Y)

	var neighbors []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, j := range si.Grid[cellID(cx+dx, cy+dy)] {
				ddx := points[j].X - p.X
				ddy := points[j].Y - p.Y
				if ddx*ddx+ddy*ddy <= eps2 {
					neighbors = append(neighbors, j)
				}
			}
		}
	}
	return neighbors
}

// DBSCAN labels every point with a cluster number or Noise. A point is core
// when at least minSamples points, itself included, lie within eps of it.
// Cluster numbers start at 0 and follow the order in which each cluster's
// first core point appears in the input. The result is parallel to points.
//
// A non-positive eps groups only coincident points.
func DBSCAN(points []radar.Point, eps float64, minSamples int) []int {
	n := len(points)
	if n == 0 {
		return []int{}
	}
	if eps < 0 {
		eps = 0
	}

	// 0 = unvisited, -1 = noise, >0 = cluster ID
	labels := make([]int, n)
	clusterID := 0

	si := NewSpatialIndex(eps)
	si.Build(points)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbors := si.RegionQuery(points, i, eps)
		if len(neighbors) < minSamples {
			labels[i] = -1
			continue
		}
		clusterID++
		expandCluster(points, si, labels, i, neighbors, clusterID, eps, minSamples)
	}

	for i, l := range labels {
		if l > 0 {
			labels[i] = l - 1
		} else {
			labels[i] = Noise
		}
	}
	return labels
}

// expandCluster grows a cluster from a core point, breadth first.
func expandCluster(points []radar.Point, si *SpatialIndex, labels []int,
	seed int, neighbors []int, clusterID int, eps float64, minSamples int) {

	labels[seed] = clusterID

	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]

		if labels[idx] == -1 {
			// Border point previously rejected as a core candidate.
			labels[idx] = clusterID
		}
		if labels[idx] != 0 {
			continue
		}

		labels[idx] = clusterID
		more := si.RegionQuery(points, idx, eps)
		if len(more) >= minSamples {
			neighbors = append(neighbors, more...)
		}
	}
}
