package cloud

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Layer names a drawable layer of the scene. Pointer events carry the layer
// they originated from.
const (
	LayerReference   = "reference"
	LayerMovable     = "movable"
	LayerInteraction = "interaction"
)

// DataMode selects the distribution used to generate a reference cloud
type DataMode int

const (
	Gaussian DataMode = iota
	Uniform
	Grid
	Clusters
)

var dataModeNames = [...]string{
	Gaussian: "Gaussian",
	Uniform:  "Uniform",
	Grid:     "Grid",
	Clusters: "Clusters",
}

// DataModes lists every data mode in display order
func DataModes() []DataMode {
	return []DataMode{Gaussian, Uniform, Grid, Clusters}
}

func (m DataMode) String() string {
	if m < 0 || int(m) >= len(dataModeNames) {
		return "DataMode(" + strconv.Itoa(int(m)) + ")"
	}
	return dataModeNames[m]
}

// Valid reports whether m is one of the declared data modes
func (m DataMode) Valid() bool {
	return m >= Gaussian && m <= Clusters
}

// ParseDataMode parses a data mode name, case-insensitively
func ParseDataMode(s string) (DataMode, error) {
	for _, m := range DataModes() {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}
	return 0, &ConfigurationError{Option: "dataMode", Value: s, Reason: "expected one of Gaussian, Uniform, Grid, Clusters"}
}

func (m DataMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *DataMode) UnmarshalText(text []byte) error {
	parsed, err := ParseDataMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// EditMode selects how pointer movement is interpreted
type EditMode int

const (
	Translate EditMode = iota
	Rotate
)

var editModeNames = [...]string{
	Translate: "Translate",
	Rotate:    "Rotate",
}

// EditModes lists every edit mode in display order
func EditModes() []EditMode {
	return []EditMode{Translate, Rotate}
}

func (m EditMode) String() string {
	if m < 0 || int(m) >= len(editModeNames) {
		return "EditMode(" + strconv.Itoa(int(m)) + ")"
	}
	return editModeNames[m]
}

// Valid reports whether m is one of the declared edit modes
func (m EditMode) Valid() bool {
	return m == Translate || m == Rotate
}

// ParseEditMode parses an edit mode name, case-insensitively
func ParseEditMode(s string) (EditMode, error) {
	for _, m := range EditModes() {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}
	return 0, &ConfigurationError{Option: "editMode", Value: s, Reason: "expected one of Translate, Rotate"}
}

func (m EditMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *EditMode) UnmarshalText(text []byte) error {
	parsed, err := ParseEditMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// PointCloud is an ordered set of 2-D points. Operations on a cloud never
// modify it in place; they return a new cloud.
type PointCloud orb.MultiPoint

// Clone returns a copy of the cloud backed by its own array
func (c PointCloud) Clone() PointCloud {
	if c == nil {
		return nil
	}
	out := make(PointCloud, len(c))
	copy(out, c)
	return out
}

// Bound returns the axis-aligned bounding box of the cloud
func (c PointCloud) Bound() orb.Bound {
	return orb.MultiPoint(c).Bound()
}

// Equal reports whether both clouds hold the same points in the same order
func (c PointCloud) Equal(other PointCloud) bool {
	return orb.MultiPoint(c).Equal(orb.MultiPoint(other))
}

// AffineMatrix represents a 2D affine transformation
// x' = A*x + B*y + Tx
// y' = C*x + D*y + Ty
type AffineMatrix struct {
	A  float64 `json:"a"`
	B  float64 `json:"b"`
	Tx float64 `json:"tx"`
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	Ty float64 `json:"ty"`
}

// Identity returns an identity transform
func Identity() AffineMatrix {
	return AffineMatrix{A: 1, B: 0, Tx: 0, C: 0, D: 1, Ty: 0}
}

// Pose is the rigid transform currently applied to the movable cloud.
// Angle is in radians.
type Pose struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Angle   float64 `json:"angle"`
}

// IsIdentity reports whether the pose leaves a cloud unchanged
func (p Pose) IsIdentity() bool {
	return p.OffsetX == 0 && p.OffsetY == 0 && p.Angle == 0
}

// Frame is a consistent snapshot of a session, ready for rendering or
// publishing. Clouds in a frame are copies owned by the receiver.
type Frame struct {
	SessionID  string     `json:"sessionId"`
	Generation uint64     `json:"generation"`
	DataMode   DataMode   `json:"dataMode"`
	EditMode   EditMode   `json:"editMode"`
	Reference  PointCloud `json:"reference"`
	Movable    PointCloud `json:"movable"`
	Pose       Pose       `json:"pose"`
	Handle     orb.Point  `json:"handle"`
	Distance   float64    `json:"distance"`
	Title      string     `json:"title"`
}
