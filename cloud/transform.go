package cloud

import (
	"math"

	"github.com/paulmach/orb"
)

// TransformPoint applies an affine transform to a point
// x' = a*x + b*y + tx
// y' = c*x + d*y + ty
func TransformPoint(p orb.Point, m AffineMatrix) orb.Point {
	return orb.Point{
		m.A*p[0] + m.B*p[1] + m.Tx,
		m.C*p[0] + m.D*p[1] + m.Ty,
	}
}

// TransformPoints applies an affine transform to every point, returning a new cloud
func TransformPoints(points PointCloud, m AffineMatrix) PointCloud {
	result := make(PointCloud, len(points))
	for i, p := range points {
		result[i] = TransformPoint(p, m)
	}
	return result
}

// MultiplyMatrices composes two affine transforms: result = m1 * m2
// Applying result is equivalent to applying m2 first, then m1
func MultiplyMatrices(m1, m2 AffineMatrix) AffineMatrix {
	return AffineMatrix{
		A:  m1.A*m2.A + m1.B*m2.C,
		B:  m1.A*m2.B + m1.B*m2.D,
		Tx: m1.A*m2.Tx + m1.B*m2.Ty + m1.Tx,
		C:  m1.C*m2.A + m1.D*m2.C,
		D:  m1.C*m2.B + m1.D*m2.D,
		Ty: m1.C*m2.Tx + m1.D*m2.Ty + m1.Ty,
	}
}

// Translation creates a translation-only transform
func Translation(tx, ty float64) AffineMatrix {
	return AffineMatrix{A: 1, B: 0, Tx: tx, C: 0, D: 1, Ty: ty}
}

// Rotation creates the transform that multiplies each point, taken as a row
// vector, by R = [[cos θ, -sin θ], [sin θ, cos θ]]. Seen on screen this turns
// points by -θ around the origin.
func Rotation(angle float64) AffineMatrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return AffineMatrix{A: cos, B: sin, Tx: 0, C: -sin, D: cos, Ty: 0}
}

// Matrix returns the affine form of the pose: translate, then rotate
func (p Pose) Matrix() AffineMatrix {
	m := Translation(p.OffsetX, p.OffsetY)
	if p.Angle == 0 {
		return m
	}
	return MultiplyMatrices(Rotation(p.Angle), m)
}

// Apply moves every point of the cloud by the pose
func (p Pose) Apply(c PointCloud) PointCloud {
	return Apply(c, p.OffsetX, p.OffsetY, p.Angle)
}

// Handle returns where a marker placed at (radius, 0) on the untransformed
// cloud ends up under the pose. In rotate mode it follows the pointer.
func (p Pose) Handle(radius float64) orb.Point {
	return TransformPoint(orb.Point{radius, 0}, p.Matrix())
}

// Apply translates every point by (offsetX, offsetY) and then rotates it
// about the origin by angle. The rotation step is skipped when angle is 0.
// The input cloud is never modified.
func Apply(c PointCloud, offsetX, offsetY, angle float64) PointCloud {
	moved := TransformPoints(c, Translation(offsetX, offsetY))
	if angle == 0 {
		return moved
	}
	return TransformPoints(moved, Rotation(angle))
}
