package cloud

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultLayer() InteractionLayer {
	return NewInteractionLayer(-7, 7, 0.5)
}

func TestInteractionLayer_Anchors(t *testing.T) {
	anchors := defaultLayer().Anchors()

	// [-7, 7) in steps of 0.5 gives 28 values per axis
	require.Len(t, anchors, 28*28)
	assert.Equal(t, orb.Point{-7, -7}, anchors[0])
	assert.Equal(t, orb.Point{-7, -6.5}, anchors[1])
	assert.Equal(t, orb.Point{6.5, 6.5}, anchors[len(anchors)-1])
}

func TestInteractionLayer_Snap(t *testing.T) {
	l := defaultLayer()

	tests := []struct {
		name string
		in   orb.Point
		want orb.Point
		ok   bool
	}{
		{"on anchor", orb.Point{3, 0}, orb.Point{3, 0}, true},
		{"rounds to nearest", orb.Point{1.2, -0.3}, orb.Point{1, -0.5}, true},
		{"upper edge clamps to last anchor", orb.Point{7, 7}, orb.Point{6.5, 6.5}, true},
		{"lower corner", orb.Point{-7, -7}, orb.Point{-7, -7}, true},
		{"outside range", orb.Point{7.5, 0}, orb.Point{}, false},
		{"below range", orb.Point{0, -8}, orb.Point{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.Snap(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want[0], got[0], 1e-12)
				assert.InDelta(t, tt.want[1], got[1], 1e-12)
			}
		})
	}
}

func TestInteractionLayer_Resolve(t *testing.T) {
	l := defaultLayer()
	x, y := 2.0, -1.0

	tests := []struct {
		name string
		ev   PointerEvent
		ok   bool
	}{
		{"interaction layer", NewPointerEvent(LayerInteraction, 2, -1), true},
		{"no points", PointerEvent{}, false},
		{"reference layer", NewPointerEvent(LayerReference, 2, -1), false},
		{"movable layer", NewPointerEvent(LayerMovable, 2, -1), false},
		{"missing x", PointerEvent{Points: []PointerPoint{{Layer: LayerInteraction, Y: &y}}}, false},
		{"missing y", PointerEvent{Points: []PointerPoint{{Layer: LayerInteraction, X: &x}}}, false},
		{"nan", NewPointerEvent(LayerInteraction, math.NaN(), 0), false},
		{"inf", NewPointerEvent(LayerInteraction, 0, math.Inf(1)), false},
		{"off layer", NewPointerEvent(LayerInteraction, 20, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := l.Resolve(tt.ev)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestInteractionLayer_ResolveUsesFirstPoint(t *testing.T) {
	l := defaultLayer()
	first := NewPointerEvent(LayerReference, 1, 1).Points[0]
	second := NewPointerEvent(LayerInteraction, 2, 2).Points[0]

	_, ok := l.Resolve(PointerEvent{Points: []PointerPoint{first, second}})
	assert.False(t, ok)
}

func TestPoseFor(t *testing.T) {
	tests := []struct {
		name string
		mode EditMode
		p    orb.Point
		want Pose
	}{
		{"translate", Translate, orb.Point{1.5, -2}, Pose{OffsetX: 1.5, OffsetY: -2}},
		{"rotate on positive x axis", Rotate, orb.Point{3, 0}, Pose{Angle: 0}},
		{"rotate on positive y axis", Rotate, orb.Point{0, 3}, Pose{Angle: -math.Pi / 2}},
		{"rotate on negative x axis", Rotate, orb.Point{-3, 0}, Pose{Angle: -math.Pi}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PoseFor(tt.mode, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.OffsetX, got.OffsetX, 1e-12)
			assert.InDelta(t, tt.want.OffsetY, got.OffsetY, 1e-12)
			assert.InDelta(t, tt.want.Angle, got.Angle, 1e-12)
		})
	}
}

func TestPoseFor_UnknownMode(t *testing.T) {
	_, err := PoseFor(EditMode(7), orb.Point{1, 1})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestParseModes(t *testing.T) {
	for _, m := range DataModes() {
		got, err := ParseDataMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseDataMode(" clusters ")
	require.NoError(t, err)
	assert.Equal(t, Clusters, got)

	_, err = ParseDataMode("spiral")
	assert.ErrorIs(t, err, ErrConfiguration)

	em, err := ParseEditMode("ROTATE")
	require.NoError(t, err)
	assert.Equal(t, Rotate, em)

	_, err = ParseEditMode("scale")
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.Equal(t, "DataMode(9)", DataMode(9).String())
	assert.False(t, EditMode(-1).Valid())
}
