package landmark

import (
	"math"
	"testing"
)

func TestKeyPoint(t *testing.T) {
	s := baseFace()

	p, ok := s.KeyPoint(NoseTip)
	if !ok {
		t.Fatal("expected nose tip to be present")
	}
	if p.X != 320 || p.Y != 260 {
		t.Errorf("unexpected nose tip position (%f, %f)", p.X, p.Y)
	}

	if _, ok := s.KeyPoint("NO_SUCH_POINT"); ok {
		t.Error("expected lookup miss for unknown name")
	}
}

func TestInterOcularDistance(t *testing.T) {
	s := baseFace()
	if got := s.InterOcularDistance(); math.Abs(got-160) > tolerance {
		t.Errorf("expected inter-ocular distance 160, got %f", got)
	}

	missing := removeKeyPoints(s, RightEyeOuter)
	if got := missing.InterOcularDistance(); got != 0 {
		t.Errorf("expected 0 for missing eye corner, got %f", got)
	}
}

func TestSharedKeyPointNames(t *testing.T) {
	full := baseFace()

	tests := []struct {
		name string
		a, b Set
		want int
	}{
		{"identical sets", full, full, ExpectedKeyPointCount},
		{"partial overlap", full, removeKeyPoints(full, LeftEar, RightEar, Forehead), 30},
		{"no overlap", full, Set{KeyPoints: []Point{{Name: "CUSTOM"}}}, 0},
		{"empty side", full, Set{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SharedKeyPointNames(tt.a, tt.b); got != tt.want {
				t.Errorf("expected %d shared names, got %d", tt.want, got)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := baseFace()
	s.MeshPoints = []Point{{X: 1, Y: 2, Z: 3}}

	c := s.Clone()
	c.KeyPoints[0].X = -999
	c.MeshPoints[0].X = -999

	if s.KeyPoints[0].X == -999 || s.MeshPoints[0].X == -999 {
		t.Error("mutating clone changed the original set")
	}
}

func TestBoxGeometry(t *testing.T) {
	b := Box{MinX: 10, MinY: 20, MaxX: 110, MaxY: 240}

	if b.Width() != 100 {
		t.Errorf("expected width 100, got %f", b.Width())
	}
	if b.Height() != 220 {
		t.Errorf("expected height 220, got %f", b.Height())
	}
	if b.MaxDim() != 220 {
		t.Errorf("expected max dim 220, got %f", b.MaxDim())
	}
	if c := b.Center(); c.X != 60 || c.Y != 130 {
		t.Errorf("expected center (60, 130), got (%f, %f)", c.X, c.Y)
	}
	if b.IsZero() {
		t.Error("non-empty box reported as zero")
	}
	if !(Box{}).IsZero() {
		t.Error("zero box not reported as zero")
	}
}

func TestPointDistance(t *testing.T) {
	a := Point{X: 1, Y: 2, Z: 3}
	b := Point{X: 4, Y: 6, Z: 3}
	if got := a.Distance(b); math.Abs(got-5) > tolerance {
		t.Errorf("expected distance 5, got %f", got)
	}
}
