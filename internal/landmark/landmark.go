// Package landmark defines facial landmark geometry shared between the
// matching engine, the gallery stores and the web handlers. A landmark set
// carries the sparse named key points every detector produces plus an
// optional dense mesh for detectors that support it.
package landmark

import "math"

// Canonical key point names. Left/right are as seen in the image, which is
// the convention used by the mobile detectors this service ingests from.
const (
	LeftEyeOuter  = "LEFT_EYE_OUTER"
	LeftEyeInner  = "LEFT_EYE_INNER"
	LeftEyeTop    = "LEFT_EYE_TOP"
	LeftEyeBottom = "LEFT_EYE_BOTTOM"
	LeftEye       = "LEFT_EYE"

	RightEyeOuter  = "RIGHT_EYE_OUTER"
	RightEyeInner  = "RIGHT_EYE_INNER"
	RightEyeTop    = "RIGHT_EYE_TOP"
	RightEyeBottom = "RIGHT_EYE_BOTTOM"
	RightEye       = "RIGHT_EYE"

	LeftBrowInner  = "LEFT_BROW_INNER"
	LeftBrowOuter  = "LEFT_BROW_OUTER"
	RightBrowInner = "RIGHT_BROW_INNER"
	RightBrowOuter = "RIGHT_BROW_OUTER"

	NoseTip    = "NOSE_TIP"
	NoseBridge = "NOSE_BRIDGE"
	NoseBase   = "NOSE_BASE"
	NoseLeft   = "NOSE_LEFT"
	NoseRight  = "NOSE_RIGHT"

	MouthLeft   = "MOUTH_LEFT"
	MouthRight  = "MOUTH_RIGHT"
	MouthTop    = "MOUTH_TOP"
	MouthBottom = "MOUTH_BOTTOM"
	UpperLip    = "UPPER_LIP"
	LowerLip    = "LOWER_LIP"

	Chin     = "CHIN"
	JawLeft  = "JAW_LEFT"
	JawRight = "JAW_RIGHT"

	LeftCheek  = "LEFT_CHEEK"
	RightCheek = "RIGHT_CHEEK"
	LeftEar    = "LEFT_EAR"
	RightEar   = "RIGHT_EAR"
	Forehead   = "FOREHEAD"
)

// ExpectedKeyPointCount is the size of the full canonical key point set.
// Detectors may deliver fewer points for partially visible faces.
const ExpectedKeyPointCount = 33

// CanonicalNames lists every canonical key point name.
var CanonicalNames = []string{
	LeftEyeOuter, LeftEyeInner, LeftEyeTop, LeftEyeBottom, LeftEye,
	RightEyeOuter, RightEyeInner, RightEyeTop, RightEyeBottom, RightEye,
	LeftBrowInner, LeftBrowOuter, RightBrowInner, RightBrowOuter,
	NoseTip, NoseBridge, NoseBase, NoseLeft, NoseRight,
	MouthLeft, MouthRight, MouthTop, MouthBottom, UpperLip, LowerLip,
	Chin, JawLeft, JawRight,
	LeftCheek, RightCheek, LeftEar, RightEar, Forehead,
}

// Point is a single landmark position. Name is empty for mesh points, whose
// identity is their index within the mesh. Coordinates are detector pixels
// for raw sets and dimensionless units for normalized sets; Z is depth
// relative to the face plane in the same units.
type Point struct {
	Name string  `json:"name,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

// Distance returns the 3D Euclidean distance to another point.
func (p Point) Distance(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Midpoint returns the point halfway between p and o. The name is dropped.
func (p Point) Midpoint(o Point) Point {
	return Point{
		X: (p.X + o.X) / 2,
		Y: (p.Y + o.Y) / 2,
		Z: (p.Z + o.Z) / 2,
	}
}

// Box is the face bounding box as axis-aligned extents [x1, y1, x2, y2].
// Detectors report four corner points; axis-aligned corners collapse to the
// min/max extents without losing information.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the vertical extent of the box.
func (b Box) Height() float64 {
	return b.MaxY - b.MinY
}

// Center returns the box midpoint with zero depth.
func (b Box) Center() Point {
	return Point{
		X: (b.MinX + b.MaxX) / 2,
		Y: (b.MinY + b.MaxY) / 2,
	}
}

// MaxDim returns the larger of width and height.
func (b Box) MaxDim() float64 {
	return max(b.Width(), b.Height())
}

// IsZero reports whether the box has no extent at all.
func (b Box) IsZero() bool {
	return b.MinX == 0 && b.MinY == 0 && b.MaxX == 0 && b.MaxY == 0
}

// Set is one face worth of landmarks as delivered by a detector.
//
// KeyPoints are the sparse named points (20-35 depending on detector and
// visibility). MeshPoints is the optional dense mesh (400+ points) whose
// indexes correspond across sets produced by the same detector model.
// Functions in this package treat sets as immutable values and return new
// sets instead of mutating.
type Set struct {
	KeyPoints  []Point
	MeshPoints []Point
	Box        Box
	SourceTag  string
	Quality    float64
}

// KeyPoint returns the named key point and whether it is present.
func (s Set) KeyPoint(name string) (Point, bool) {
	for _, p := range s.KeyPoints {
		if p.Name == name {
			return p, true
		}
	}
	return Point{}, false
}

// HasMesh reports whether the set carries any dense mesh points.
func (s Set) HasMesh() bool {
	return len(s.MeshPoints) > 0
}

// IsEmpty reports whether the set carries no points at all.
func (s Set) IsEmpty() bool {
	return len(s.KeyPoints) == 0 && len(s.MeshPoints) == 0
}

// InterOcularDistance returns the distance between the outer eye corners,
// or 0 when either corner is missing.
func (s Set) InterOcularDistance() float64 {
	left, okL := s.KeyPoint(LeftEyeOuter)
	right, okR := s.KeyPoint(RightEyeOuter)
	if !okL || !okR {
		return 0
	}
	return left.Distance(right)
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	out := s
	if s.KeyPoints != nil {
		out.KeyPoints = make([]Point, len(s.KeyPoints))
		copy(out.KeyPoints, s.KeyPoints)
	}
	if s.MeshPoints != nil {
		out.MeshPoints = make([]Point, len(s.MeshPoints))
		copy(out.MeshPoints, s.MeshPoints)
	}
	return out
}

// keyPointIndex builds a name lookup map for the set's key points.
func (s Set) keyPointIndex() map[string]Point {
	idx := make(map[string]Point, len(s.KeyPoints))
	for _, p := range s.KeyPoints {
		idx[p.Name] = p
	}
	return idx
}

// SharedKeyPointNames returns the number of key point names present in both sets.
func SharedKeyPointNames(a, b Set) int {
	idx := b.keyPointIndex()
	count := 0
	for _, p := range a.KeyPoints {
		if _, ok := idx[p.Name]; ok {
			count++
		}
	}
	return count
}
