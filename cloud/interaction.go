package cloud

import (
	"math"

	"github.com/paulmach/orb"
)

// PointerPoint is one hovered point reported by a front end. X and Y are
// pointers so that a missing coordinate can be told apart from zero.
type PointerPoint struct {
	Layer string   `json:"layer"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
}

// PointerEvent is a hover or drag report. Only the first point is used.
type PointerEvent struct {
	Points []PointerPoint `json:"points"`
}

// NewPointerEvent builds an event for a single point on the given layer
func NewPointerEvent(layer string, x, y float64) PointerEvent {
	return PointerEvent{Points: []PointerPoint{{Layer: layer, X: &x, Y: &y}}}
}

// InteractionLayer is the invisible lattice of anchor points laid over the
// plot. Pointer events are only honored when they land on it.
type InteractionLayer struct {
	Bound orb.Bound
	Delta float64
}

// NewInteractionLayer creates a layer covering [min, max] on both axes
func NewInteractionLayer(min, max, delta float64) InteractionLayer {
	return InteractionLayer{
		Bound: orb.Bound{Min: orb.Point{min, min}, Max: orb.Point{max, max}},
		Delta: delta,
	}
}

// steps returns how many anchors lie along an axis starting at lo, spaced
// by Delta, stopping before hi
func (l InteractionLayer) steps(lo, hi float64) int {
	if l.Delta <= 0 || hi <= lo {
		return 0
	}
	return int(math.Ceil((hi-lo)/l.Delta - 1e-9))
}

// Anchors returns every anchor point, x-major. The upper edge of the range
// is excluded.
func (l InteractionLayer) Anchors() PointCloud {
	nx := l.steps(l.Bound.Min[0], l.Bound.Max[0])
	ny := l.steps(l.Bound.Min[1], l.Bound.Max[1])

	anchors := make(PointCloud, 0, nx*ny)
	for i := 0; i < nx; i++ {
		x := l.Bound.Min[0] + float64(i)*l.Delta
		for j := 0; j < ny; j++ {
			anchors = append(anchors, orb.Point{x, l.Bound.Min[1] + float64(j)*l.Delta})
		}
	}
	return anchors
}

// Snap returns the anchor nearest to p. Points outside the layer's range
// are rejected.
func (l InteractionLayer) Snap(p orb.Point) (orb.Point, bool) {
	if !l.Bound.Contains(p) {
		return orb.Point{}, false
	}
	nx := l.steps(l.Bound.Min[0], l.Bound.Max[0])
	ny := l.steps(l.Bound.Min[1], l.Bound.Max[1])
	if nx == 0 || ny == 0 {
		return orb.Point{}, false
	}
	return orb.Point{
		l.Bound.Min[0] + float64(snapIndex(p[0]-l.Bound.Min[0], l.Delta, nx))*l.Delta,
		l.Bound.Min[1] + float64(snapIndex(p[1]-l.Bound.Min[1], l.Delta, ny))*l.Delta,
	}, true
}

func snapIndex(offset, delta float64, n int) int {
	i := int(math.Round(offset / delta))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Resolve extracts the snapped pointer position from an event. It reports
// false for events without points, events missing a coordinate, non-finite
// coordinates, events from any other layer, and positions off the layer.
func (l InteractionLayer) Resolve(ev PointerEvent) (orb.Point, bool) {
	if len(ev.Points) == 0 {
		return orb.Point{}, false
	}
	first := ev.Points[0]
	if first.Layer != LayerInteraction || first.X == nil || first.Y == nil {
		return orb.Point{}, false
	}
	x, y := *first.X, *first.Y
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return orb.Point{}, false
	}
	return l.Snap(orb.Point{x, y})
}

// PoseFor maps a pointer position to a pose. Translate places the cloud's
// origin under the pointer; Rotate turns the cloud so that its +x axis
// points at the pointer.
func PoseFor(mode EditMode, p orb.Point) (Pose, error) {
	switch mode {
	case Translate:
		return Pose{OffsetX: p[0], OffsetY: p[1], Angle: 0}, nil
	case Rotate:
		return Pose{Angle: -math.Atan2(p[1], p[0])}, nil
	default:
		return Pose{}, &ConfigurationError{Option: "editMode", Value: mode.String(), Reason: "unknown edit mode"}
	}
}
