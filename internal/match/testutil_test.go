package match

import (
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/landmark"
)

const scoreTolerance = 1e-9

// testFace returns a frontal synthetic face with all 33 named key points,
// eyes level at y=200 and an outer-eye distance of exactly 160 units.
func testFace() landmark.Set {
	return landmark.Set{
		KeyPoints: []landmark.Point{
			{Name: landmark.LeftEyeOuter, X: 240, Y: 200, Z: 8},
			{Name: landmark.LeftEyeTop, X: 260, Y: 192, Z: 4},
			{Name: landmark.LeftEyeBottom, X: 262, Y: 208, Z: 4},
			{Name: landmark.LeftEyeInner, X: 284, Y: 202, Z: 3},
			{Name: landmark.LeftEye, X: 262, Y: 200, Z: 5},
			{Name: landmark.RightEyeOuter, X: 400, Y: 200, Z: 8},
			{Name: landmark.RightEyeTop, X: 380, Y: 192, Z: 4},
			{Name: landmark.RightEyeBottom, X: 378, Y: 208, Z: 4},
			{Name: landmark.RightEyeInner, X: 356, Y: 202, Z: 3},
			{Name: landmark.RightEye, X: 378, Y: 200, Z: 5},
			{Name: landmark.LeftBrowInner, X: 288, Y: 178, Z: 6},
			{Name: landmark.LeftBrowOuter, X: 236, Y: 182, Z: 10},
			{Name: landmark.RightBrowInner, X: 352, Y: 178, Z: 6},
			{Name: landmark.RightBrowOuter, X: 404, Y: 182, Z: 10},
			{Name: landmark.NoseBridge, X: 320, Y: 205, Z: 0},
			{Name: landmark.NoseTip, X: 320, Y: 260, Z: -12},
			{Name: landmark.NoseBase, X: 320, Y: 278, Z: -6},
			{Name: landmark.NoseLeft, X: 298, Y: 270, Z: -2},
			{Name: landmark.NoseRight, X: 342, Y: 270, Z: -2},
			{Name: landmark.MouthLeft, X: 276, Y: 316, Z: 2},
			{Name: landmark.MouthRight, X: 364, Y: 316, Z: 2},
			{Name: landmark.MouthTop, X: 320, Y: 306, Z: -4},
			{Name: landmark.MouthBottom, X: 320, Y: 330, Z: -2},
			{Name: landmark.UpperLip, X: 320, Y: 312, Z: -5},
			{Name: landmark.LowerLip, X: 320, Y: 324, Z: -4},
			{Name: landmark.Chin, X: 320, Y: 380, Z: 0},
			{Name: landmark.JawLeft, X: 230, Y: 330, Z: 25},
			{Name: landmark.JawRight, X: 410, Y: 330, Z: 25},
			{Name: landmark.LeftCheek, X: 258, Y: 270, Z: 12},
			{Name: landmark.RightCheek, X: 382, Y: 270, Z: 12},
			{Name: landmark.LeftEar, X: 212, Y: 240, Z: 40},
			{Name: landmark.RightEar, X: 428, Y: 240, Z: 40},
			{Name: landmark.Forehead, X: 320, Y: 140, Z: 2},
		},
		Box:       landmark.Box{MinX: 200, MinY: 120, MaxX: 440, MaxY: 400},
		SourceTag: "test-detector",
		Quality:   0.95,
	}
}

// meshFace returns testFace extended with a deterministic dense mesh of the
// requested size laid out on a grid inside the face box.
func meshFace(points int) landmark.Set {
	s := testFace()
	s.MeshPoints = make([]landmark.Point, points)
	for i := range s.MeshPoints {
		s.MeshPoints[i] = landmark.Point{
			X: 210 + float64(i%22)*10,
			Y: 130 + float64(i/22)*12,
			Z: float64(i%9) - 4,
		}
	}
	return s
}

// pointShifted moves one named key point, leaving the normalization anchors
// (eyes, nose tip) in place.
func pointShifted(s landmark.Set, name string, dx, dy float64) landmark.Set {
	out := s.Clone()
	for i := range out.KeyPoints {
		if out.KeyPoints[i].Name == name {
			out.KeyPoints[i].X += dx
			out.KeyPoints[i].Y += dy
		}
	}
	return out
}

func chinShifted(d float64) landmark.Set {
	return pointShifted(testFace(), landmark.Chin, 0, d)
}

// chinShiftFor inverts the sparse similarity formula for a chin-only
// displacement. With every other point identical, the mean weighted distance
// is chinWeight*(d/scale)/totalWeight, where the chin weighs 1.5, the 33
// default key point weights sum to 63 and the normalization scale is 160.
const chinShiftScale = 160.0 * 63.0 / (1.5 * SparseDecayRate)

func chinShiftFor(similarity float64) float64 {
	return -chinShiftScale * math.Log(similarity)
}

// entryScoring builds a single-sample entry whose sparse similarity against
// testFace comes out at the given value.
func entryScoring(person, sample string, similarity float64) gallery.Entry {
	return galleryEntry(person, sample, chinShifted(chinShiftFor(similarity)))
}

func galleryEntry(person, sample string, set landmark.Set) gallery.Entry {
	return gallery.Entry{
		PersonID:    person,
		SampleID:    sample,
		DisplayName: person,
		Landmarks:   set,
	}
}

// keepNames filters a set down to the named key points only.
func keepNames(s landmark.Set, names ...string) landmark.Set {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	out := s.Clone()
	out.KeyPoints = out.KeyPoints[:0]
	for _, p := range s.KeyPoints {
		if keep[p.Name] {
			out.KeyPoints = append(out.KeyPoints, p)
		}
	}
	return out
}

func quietMatcher(cfg Config) *Matcher {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewMatcher(cfg, nil, log)
}
