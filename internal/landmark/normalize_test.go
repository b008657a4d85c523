package landmark

import (
	"math"
	"testing"
)

const tolerance = 1e-6

func TestNormalize_InterOcularDistanceIsOne(t *testing.T) {
	n := Normalize(baseFace())

	got := n.InterOcularDistance()
	if math.Abs(got-1.0) > tolerance {
		t.Errorf("expected inter-ocular distance 1.0, got %f", got)
	}
}

func TestNormalize_NoseTipAtOrigin(t *testing.T) {
	n := Normalize(baseFace())

	nose, ok := n.KeyPoint(NoseTip)
	if !ok {
		t.Fatal("nose tip missing after normalization")
	}
	if math.Abs(nose.X) > tolerance || math.Abs(nose.Y) > tolerance || math.Abs(nose.Z) > tolerance {
		t.Errorf("expected nose tip at origin, got (%f, %f, %f)", nose.X, nose.Y, nose.Z)
	}
}

func TestNormalize_EyeLineHorizontal(t *testing.T) {
	// Roll the head 25 degrees; after normalization the eye line must be flat.
	rolled := rotateSet(baseFace(), 25)
	n := Normalize(rolled)

	left, _ := n.KeyPoint(LeftEyeOuter)
	right, _ := n.KeyPoint(RightEyeOuter)
	if math.Abs(left.Y-right.Y) > tolerance {
		t.Errorf("eye line not horizontal: left.Y=%f right.Y=%f", left.Y, right.Y)
	}
}

func TestNormalize_PoseInvariance(t *testing.T) {
	base := Normalize(baseFace())

	tests := []struct {
		name string
		set  Set
	}{
		{"translated", translateSet(baseFace(), 150, -80)},
		{"scaled", scaleSet(baseFace(), 2.5)},
		{"rotated", rotateSet(baseFace(), 30)},
		{"rotated scaled translated", translateSet(rotateSet(scaleSet(baseFace(), 0.5), -15), 40, 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(tt.set)
			for _, want := range base.KeyPoints {
				got, ok := n.KeyPoint(want.Name)
				if !ok {
					t.Fatalf("key point %s missing", want.Name)
				}
				if dist := got.Distance(want); dist > 1e-6 {
					t.Errorf("%s moved by %f after normalization", want.Name, dist)
				}
			}
		})
	}
}

func TestNormalize_MissingNoseTip_UsesBoxCenter(t *testing.T) {
	s := removeKeyPoints(baseFace(), NoseTip)
	n := Normalize(s)

	// The box midpoint must land at the origin instead.
	cx, cy := s.Box.Center().X, s.Box.Center().Y
	forehead, _ := s.KeyPoint(Forehead)
	scale := s.InterOcularDistance()

	got, ok := n.KeyPoint(Forehead)
	if !ok {
		t.Fatal("forehead missing after normalization")
	}
	wantX := (forehead.X - cx) / scale
	wantY := (forehead.Y - cy) / scale
	if math.Abs(got.X-wantX) > tolerance || math.Abs(got.Y-wantY) > tolerance {
		t.Errorf("expected forehead at (%f, %f), got (%f, %f)", wantX, wantY, got.X, got.Y)
	}
}

func TestNormalize_MissingEyeCorners_UsesBoxScale(t *testing.T) {
	s := removeKeyPoints(baseFace(), LeftEyeOuter, RightEyeOuter)
	n := Normalize(s)

	// Scale falls back to the larger box dimension (280 for the test face).
	nose, _ := s.KeyPoint(MouthBottom)
	center, _ := s.KeyPoint(NoseTip)
	want := (nose.Y - center.Y) / s.Box.MaxDim()

	got, ok := n.KeyPoint(MouthBottom)
	if !ok {
		t.Fatal("mouth bottom missing after normalization")
	}
	if math.Abs(got.Y-want) > tolerance {
		t.Errorf("expected box-scaled Y %f, got %f", want, got.Y)
	}
	for _, p := range n.KeyPoints {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
			t.Fatalf("NaN coordinate in %s", p.Name)
		}
	}
}

func TestNormalize_TinyInterOcularFallsBackToBox(t *testing.T) {
	// Collapse the eye corners to under 10 units apart.
	s := baseFace()
	for i, p := range s.KeyPoints {
		switch p.Name {
		case LeftEyeOuter:
			s.KeyPoints[i].X = 318
			s.KeyPoints[i].Y = 200
			s.KeyPoints[i].Z = 0
		case RightEyeOuter:
			s.KeyPoints[i].X = 322
			s.KeyPoints[i].Y = 200
			s.KeyPoints[i].Z = 0
		}
	}

	n := Normalize(s)
	chin, _ := s.KeyPoint(Chin)
	nose, _ := s.KeyPoint(NoseTip)
	want := (chin.Y - nose.Y) / s.Box.MaxDim()

	got, _ := n.KeyPoint(Chin)
	if math.Abs(got.Y-want) > tolerance {
		t.Errorf("expected box-scaled chin Y %f, got %f", want, got.Y)
	}
}

func TestNormalize_DegenerateSets(t *testing.T) {
	tests := []struct {
		name string
		set  Set
	}{
		{"empty set", Set{}},
		{"single point no box", Set{KeyPoints: []Point{{Name: NoseTip, X: 5, Y: 5}}}},
		{"two identical points", Set{KeyPoints: []Point{
			{Name: LeftEyeOuter, X: 1, Y: 1},
			{Name: RightEyeOuter, X: 1, Y: 1},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(tt.set)
			for _, p := range n.KeyPoints {
				if math.IsNaN(p.X) || math.IsInf(p.X, 0) {
					t.Errorf("non-finite X in %s", p.Name)
				}
			}
		})
	}
}

func TestNormalize_MeshFollowsKeyPointTransform(t *testing.T) {
	s := baseFace()
	nose, _ := s.KeyPoint(NoseTip)
	s.MeshPoints = []Point{{X: nose.X, Y: nose.Y, Z: nose.Z}}

	n := Normalize(s)
	if math.Abs(n.MeshPoints[0].X) > tolerance || math.Abs(n.MeshPoints[0].Y) > tolerance {
		t.Errorf("mesh point at nose tip should map to origin, got (%f, %f)",
			n.MeshPoints[0].X, n.MeshPoints[0].Y)
	}
}

func TestNormalize_ZTranslatedAndScaledNotRotated(t *testing.T) {
	s := baseFace()
	n := Normalize(rotateSet(s, 40))

	// Z is unaffected by the roll, so it must match the unrotated result.
	plain := Normalize(s)
	for _, want := range plain.KeyPoints {
		got, _ := n.KeyPoint(want.Name)
		if math.Abs(got.Z-want.Z) > tolerance {
			t.Errorf("%s Z changed under rotation: want %f, got %f", want.Name, want.Z, got.Z)
		}
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	s := baseFace()
	nose, _ := s.KeyPoint(NoseTip)

	Normalize(s)

	after, _ := s.KeyPoint(NoseTip)
	if nose != after {
		t.Error("Normalize mutated its input set")
	}
}

// baseFace returns a frontal synthetic face in raw detector pixels with the
// full canonical key point set. Inter-ocular distance is 160.
func baseFace() Set {
	return Set{
		KeyPoints: []Point{
			{Name: LeftEyeOuter, X: 240, Y: 200, Z: 8},
			{Name: LeftEyeTop, X: 260, Y: 192, Z: 4},
			{Name: LeftEyeBottom, X: 262, Y: 208, Z: 4},
			{Name: LeftEyeInner, X: 284, Y: 202, Z: 3},
			{Name: LeftEye, X: 262, Y: 200, Z: 5},
			{Name: RightEyeOuter, X: 400, Y: 200, Z: 8},
			{Name: RightEyeTop, X: 380, Y: 192, Z: 4},
			{Name: RightEyeBottom, X: 378, Y: 208, Z: 4},
			{Name: RightEyeInner, X: 356, Y: 202, Z: 3},
			{Name: RightEye, X: 378, Y: 200, Z: 5},
			{Name: LeftBrowInner, X: 288, Y: 178, Z: 6},
			{Name: LeftBrowOuter, X: 236, Y: 182, Z: 10},
			{Name: RightBrowInner, X: 352, Y: 178, Z: 6},
			{Name: RightBrowOuter, X: 404, Y: 182, Z: 10},
			{Name: NoseBridge, X: 320, Y: 205, Z: 0},
			{Name: NoseTip, X: 320, Y: 260, Z: -12},
			{Name: NoseBase, X: 320, Y: 278, Z: -6},
			{Name: NoseLeft, X: 298, Y: 270, Z: -2},
			{Name: NoseRight, X: 342, Y: 270, Z: -2},
			{Name: MouthLeft, X: 276, Y: 316, Z: 2},
			{Name: MouthRight, X: 364, Y: 316, Z: 2},
			{Name: MouthTop, X: 320, Y: 306, Z: -4},
			{Name: MouthBottom, X: 320, Y: 330, Z: -2},
			{Name: UpperLip, X: 320, Y: 312, Z: -5},
			{Name: LowerLip, X: 320, Y: 324, Z: -4},
			{Name: Chin, X: 320, Y: 380, Z: 0},
			{Name: JawLeft, X: 230, Y: 330, Z: 25},
			{Name: JawRight, X: 410, Y: 330, Z: 25},
			{Name: LeftCheek, X: 258, Y: 270, Z: 12},
			{Name: RightCheek, X: 382, Y: 270, Z: 12},
			{Name: LeftEar, X: 212, Y: 240, Z: 40},
			{Name: RightEar, X: 428, Y: 240, Z: 40},
			{Name: Forehead, X: 320, Y: 140, Z: 2},
		},
		Box:       Box{MinX: 200, MinY: 120, MaxX: 440, MaxY: 400},
		SourceTag: "test-detector",
		Quality:   0.95,
	}
}

// translateSet shifts every point and the box by (dx, dy).
func translateSet(s Set, dx, dy float64) Set {
	out := s.Clone()
	for i := range out.KeyPoints {
		out.KeyPoints[i].X += dx
		out.KeyPoints[i].Y += dy
	}
	for i := range out.MeshPoints {
		out.MeshPoints[i].X += dx
		out.MeshPoints[i].Y += dy
	}
	out.Box = Box{MinX: s.Box.MinX + dx, MinY: s.Box.MinY + dy, MaxX: s.Box.MaxX + dx, MaxY: s.Box.MaxY + dy}
	return out
}

// scaleSet multiplies every coordinate and the box by factor.
func scaleSet(s Set, factor float64) Set {
	out := s.Clone()
	for i := range out.KeyPoints {
		out.KeyPoints[i].X *= factor
		out.KeyPoints[i].Y *= factor
		out.KeyPoints[i].Z *= factor
	}
	for i := range out.MeshPoints {
		out.MeshPoints[i].X *= factor
		out.MeshPoints[i].Y *= factor
		out.MeshPoints[i].Z *= factor
	}
	out.Box = Box{MinX: s.Box.MinX * factor, MinY: s.Box.MinY * factor, MaxX: s.Box.MaxX * factor, MaxY: s.Box.MaxY * factor}
	return out
}

// rotateSet rotates x/y about the nose tip by degrees, leaving Z alone.
func rotateSet(s Set, degrees float64) Set {
	pivot, ok := s.KeyPoint(NoseTip)
	if !ok {
		pivot = s.Box.Center()
	}
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)

	rotate := func(p Point) Point {
		x := p.X - pivot.X
		y := p.Y - pivot.Y
		p.X = pivot.X + x*cos - y*sin
		p.Y = pivot.Y + x*sin + y*cos
		return p
	}

	out := s.Clone()
	for i := range out.KeyPoints {
		out.KeyPoints[i] = rotate(out.KeyPoints[i])
	}
	for i := range out.MeshPoints {
		out.MeshPoints[i] = rotate(out.MeshPoints[i])
	}
	return out
}

// removeKeyPoints returns a copy of the set without the named points.
func removeKeyPoints(s Set, names ...string) Set {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := s.Clone()
	kept := out.KeyPoints[:0]
	for _, p := range out.KeyPoints {
		if !drop[p.Name] {
			kept = append(kept, p)
		}
	}
	out.KeyPoints = kept
	return out
}
