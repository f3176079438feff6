package cloud

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Index answers nearest-neighbour queries against a fixed snapshot of a
// cloud. It keeps its own copy of the points, so later changes to the
// source slice do not affect it. An Index is never mutated after
// construction; rebuild it when the cloud changes.
type Index struct {
	points PointCloud
	tree   *kdtree.Tree
}

// NewIndex builds a k-d tree over a copy of the cloud
func NewIndex(c PointCloud) (*Index, error) {
	if len(c) == 0 {
		return nil, ErrEmptyCloud
	}

	owned := c.Clone()

	// kdtree.New reorders its input while partitioning
	pts := make(kdtree.Points, len(owned))
	for i, p := range owned {
		pts[i] = kdtree.Point{p[0], p[1]}
	}

	return &Index{
		points: owned,
		tree:   kdtree.New(pts, false),
	}, nil
}

// Len returns the number of indexed points
func (ix *Index) Len() int {
	return ix.tree.Len()
}

// Matches reports whether the index was built from exactly this cloud
func (ix *Index) Matches(c PointCloud) bool {
	return ix != nil && ix.points.Equal(c)
}

// Nearest returns the indexed point closest to p and its Euclidean distance
func (ix *Index) Nearest(p orb.Point) (orb.Point, float64) {
	got, sqDist := ix.tree.Nearest(kdtree.Point{p[0], p[1]})
	q := got.(kdtree.Point)
	// kdtree.Point distances are squared
	return orb.Point{q[0], q[1]}, math.Sqrt(sqDist)
}

// NearestDistances returns, for each query point in order, the distance to
// its nearest indexed point
func (ix *Index) NearestDistances(queries PointCloud) []float64 {
	dists := make([]float64, len(queries))
	for i, q := range queries {
		_, dists[i] = ix.Nearest(q)
	}
	return dists
}
