package cloud

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameFeatures(t *testing.T) {
	frame := testFrame(Translate)
	fc := FrameFeatures(frame)

	require.Len(t, fc.Features, 2)
	assert.Equal(t, LayerReference, fc.Features[0].Properties["layer"])
	assert.Equal(t, LayerMovable, fc.Features[1].Properties["layer"])
	assert.Equal(t, frame.Pose.OffsetX, fc.Features[1].Properties["offsetX"])
	assert.Equal(t, frame.Title, fc.ExtraMembers["title"])

	mp, ok := fc.Features[0].Geometry.(orb.MultiPoint)
	require.True(t, ok)
	assert.True(t, PointCloud(mp).Equal(frame.Reference))
}

func TestFrameFeatures_RotateHandle(t *testing.T) {
	frame := testFrame(Rotate)
	fc := FrameFeatures(frame)

	require.Len(t, fc.Features, 3)
	arm, ok := fc.Features[2].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, orb.Point{0, 0}, arm[0])
	assert.Equal(t, frame.Handle, arm[1])
}

func TestFrameFeatures_DoesNotAlias(t *testing.T) {
	frame := testFrame(Translate)
	fc := FrameFeatures(frame)

	mp := fc.Features[0].Geometry.(orb.MultiPoint)
	mp[0] = orb.Point{50, 50}
	assert.NotEqual(t, orb.Point{50, 50}, frame.Reference[0])
}

func TestFrameFeatures_JSONRoundTrip(t *testing.T) {
	frame := testFrame(Rotate)

	data, err := json.Marshal(FrameFeatures(frame))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"FeatureCollection"`)
	assert.Contains(t, string(data), `"title":"`+frame.Title+`"`)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)

	ref, mov, err := CloudsFromFeatures(fc)
	require.NoError(t, err)
	assertCloudNear(t, frame.Reference, ref, 1e-12)
	assertCloudNear(t, frame.Movable, mov, 1e-12)

	d, err := Distance(ref, mov)
	require.NoError(t, err)
	assert.InDelta(t, frame.Distance, d, 1e-9)
}

func TestCloudsFromFeatures_Errors(t *testing.T) {
	t.Run("missing movable", func(t *testing.T) {
		fc := geojson.NewFeatureCollection()
		f := geojson.NewFeature(orb.MultiPoint{{1, 1}})
		f.Properties["layer"] = LayerReference
		fc.Append(f)

		_, _, err := CloudsFromFeatures(fc)
		assert.ErrorIs(t, err, ErrEmptyCloud)
	})

	t.Run("wrong geometry", func(t *testing.T) {
		fc := geojson.NewFeatureCollection()
		f := geojson.NewFeature(orb.Point{1, 1})
		f.Properties["layer"] = LayerMovable
		fc.Append(f)

		_, _, err := CloudsFromFeatures(fc)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "expected MultiPoint")
	})
}
