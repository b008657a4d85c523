package attendance

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/landmark"
)

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

// chinShifted moves the chin down by d, leaving every other point in place.
// Small shifts model enrollment variation; large ones a different face.
func chinShifted(d float64) landmark.Set {
	s := testFace()
	for i := range s.KeyPoints {
		if s.KeyPoints[i].Name == landmark.Chin {
			s.KeyPoints[i].Y += d
		}
	}
	return s
}

func testEntry(personID, sampleID string, chinShift float64) gallery.Entry {
	return gallery.Entry{
		PersonID:  personID,
		SampleID:  sampleID,
		Landmarks: chinShifted(chinShift),
		CreatedAt: time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC),
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// recordingNotifier captures published events and optionally fails.
type recordingNotifier struct {
	mu        sync.Mutex
	published []Event
	err       error
}

func (n *recordingNotifier) Publish(ctx context.Context, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.published = append(n.published, ev)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.published)
}

// flakyEvents injects a save failure in front of a working memory store.
type flakyEvents struct {
	*MemoryEvents
	saveErr error
}

func (f *flakyEvents) SaveEvent(ctx context.Context, ev Event) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryEvents.SaveEvent(ctx, ev)
}
