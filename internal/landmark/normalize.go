package landmark

import "math"

// minUsableInterOcular is the minimum raw inter-ocular distance (detector
// units) accepted as a scale reference. Below this the detection is partial
// or degenerate and the bounding box is used instead.
const minUsableInterOcular = 10.0

// Normalized is a landmark set in canonical pose: centered on the nose tip,
// scaled so the outer eye corner distance equals 1.0 and rotated so the eye
// line is horizontal. Only Normalize produces values of this type.
type Normalized struct {
	Set
}

// Normalize transforms a raw detector set into canonical pose. It never
// fails: missing reference points degrade to bounding box fallbacks and a
// zero scale is substituted so the transform stays finite.
//
// The transform is derived from the raw coordinates in three steps:
//  1. Center: translate so the nose tip sits at the origin, falling back to
//     the bounding box midpoint when the nose tip is missing.
//  2. Scale: divide by the outer eye corner distance. Distances under
//     minUsableInterOcular fall back to the larger bounding box dimension,
//     and a scale of zero becomes 1.0.
//  3. Rotation: rotate in the x/y plane so the eye line is horizontal.
//     Z values are translated and scaled but not rotated, since detector
//     depth is already relative to the face plane.
func Normalize(s Set) Normalized {
	if s.IsEmpty() {
		return Normalized{s.Clone()}
	}

	// Step 1: pick the center.
	center, ok := s.KeyPoint(NoseTip)
	if !ok {
		center = s.Box.Center()
	}

	// Step 2: pick the scale.
	scale := s.InterOcularDistance()
	if scale < minUsableInterOcular {
		scale = s.Box.MaxDim()
	}
	if scale <= 0 {
		scale = 1.0
	}

	// Step 3: pick the rotation from the outer eye corner vector.
	sin, cos := 0.0, 1.0
	left, okL := s.KeyPoint(LeftEyeOuter)
	right, okR := s.KeyPoint(RightEyeOuter)
	if okL && okR {
		angle := math.Atan2(right.Y-left.Y, right.X-left.X)
		sin, cos = math.Sin(angle), math.Cos(angle)
	}

	out := s.Clone()
	transform := func(p Point) Point {
		x := (p.X - center.X) / scale
		y := (p.Y - center.Y) / scale
		return Point{
			Name: p.Name,
			X:    x*cos + y*sin,
			Y:    -x*sin + y*cos,
			Z:    (p.Z - center.Z) / scale,
		}
	}
	for i, p := range out.KeyPoints {
		out.KeyPoints[i] = transform(p)
	}
	for i, p := range out.MeshPoints {
		out.MeshPoints[i] = transform(p)
	}
	out.Box = pointExtents(out.KeyPoints, out.MeshPoints)

	return Normalized{out}
}

// pointExtents computes the axis-aligned bounding box of all given points.
func pointExtents(groups ...[]Point) Box {
	first := true
	var b Box
	for _, points := range groups {
		for _, p := range points {
			if first {
				b = Box{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
				first = false
				continue
			}
			b.MinX = min(b.MinX, p.X)
			b.MinY = min(b.MinY, p.Y)
			b.MaxX = max(b.MaxX, p.X)
			b.MaxY = max(b.MaxY, p.Y)
		}
	}
	return b
}
