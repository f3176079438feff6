package cloud

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LayerHandle names the rotate handle feature in GeoJSON exports
const LayerHandle = "handle"

// FrameFeatures exports a frame as a GeoJSON FeatureCollection: one
// MultiPoint feature per cloud and, in rotate mode, a LineString from the
// origin to the handle. Coordinates are plot units, not WGS84.
func FrameFeatures(frame Frame) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	ref := geojson.NewFeature(orb.MultiPoint(frame.Reference.Clone()))
	ref.ID = LayerReference
	ref.Properties["layer"] = LayerReference
	ref.Properties["points"] = len(frame.Reference)
	fc.Append(ref)

	mov := geojson.NewFeature(orb.MultiPoint(frame.Movable.Clone()))
	mov.ID = LayerMovable
	mov.Properties["layer"] = LayerMovable
	mov.Properties["points"] = len(frame.Movable)
	mov.Properties["offsetX"] = frame.Pose.OffsetX
	mov.Properties["offsetY"] = frame.Pose.OffsetY
	mov.Properties["angle"] = frame.Pose.Angle
	fc.Append(mov)

	if frame.EditMode == Rotate {
		arm := geojson.NewFeature(orb.LineString{{0, 0}, frame.Handle})
		arm.ID = LayerHandle
		arm.Properties["layer"] = LayerHandle
		fc.Append(arm)
	}

	fc.ExtraMembers = geojson.Properties{
		"sessionId":  frame.SessionID,
		"generation": frame.Generation,
		"dataMode":   frame.DataMode.String(),
		"editMode":   frame.EditMode.String(),
		"distance":   frame.Distance,
		"title":      frame.Title,
	}
	return fc
}

// CloudsFromFeatures reads the reference and movable clouds back out of a
// collection produced by FrameFeatures
func CloudsFromFeatures(fc *geojson.FeatureCollection) (reference, movable PointCloud, err error) {
	for _, f := range fc.Features {
		layer, _ := f.Properties["layer"].(string)
		if layer != LayerReference && layer != LayerMovable {
			continue
		}
		mp, ok := f.Geometry.(orb.MultiPoint)
		if !ok {
			return nil, nil, fmt.Errorf("%s feature: expected MultiPoint, got %T", layer, f.Geometry)
		}
		if layer == LayerReference {
			reference = PointCloud(mp)
		} else {
			movable = PointCloud(mp)
		}
	}
	if len(reference) == 0 || len(movable) == 0 {
		return nil, nil, ErrEmptyCloud
	}
	return reference, movable, nil
}
