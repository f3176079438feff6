package cloud

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Chamfer returns the symmetric Chamfer distance between ref and moved:
// the mean nearest-neighbour distance from ref into moved plus the mean
// from moved into ref. refIndex must have been built from ref; the index
// over moved is rebuilt on every call.
func Chamfer(refIndex *Index, ref, moved PointCloud) (float64, error) {
	if len(ref) == 0 || len(moved) == 0 {
		return 0, ErrEmptyCloud
	}
	if !refIndex.Matches(ref) {
		return 0, ErrStaleIndex
	}

	movedIndex, err := NewIndex(moved)
	if err != nil {
		return 0, fmt.Errorf("indexing moved cloud: %w", err)
	}

	a := movedIndex.NearestDistances(ref)
	b := refIndex.NearestDistances(moved)

	return stat.Mean(a, nil) + stat.Mean(b, nil), nil
}

// Distance computes the Chamfer distance between two clouds, building both
// indices
func Distance(a, b PointCloud) (float64, error) {
	aIndex, err := NewIndex(a)
	if err != nil {
		return 0, fmt.Errorf("indexing first cloud: %w", err)
	}
	return Chamfer(aIndex, a, b)
}

// FormatTitle renders a distance the way the scene title shows it
func FormatTitle(distance float64) string {
	return fmt.Sprintf("Chamfer distance: %.2f", distance)
}
