package gallery

import (
	"time"

	"github.com/vbartonek/face-attendance/internal/landmark"
)

// sampleFace returns a minimal valid landmark set. The chin offset varies
// the facial ratios so signature-space distances are controllable.
func sampleFace(chinOffset float64) landmark.Set {
	return landmark.Set{
		KeyPoints: []landmark.Point{
			{Name: landmark.LeftEyeOuter, X: 240, Y: 200, Z: 8},
			{Name: landmark.LeftEyeInner, X: 284, Y: 202, Z: 3},
			{Name: landmark.RightEyeOuter, X: 400, Y: 200, Z: 8},
			{Name: landmark.RightEyeInner, X: 356, Y: 202, Z: 3},
			{Name: landmark.NoseTip, X: 320, Y: 260, Z: -12},
			{Name: landmark.NoseBase, X: 320, Y: 278, Z: -6},
			{Name: landmark.MouthLeft, X: 276, Y: 316, Z: 2},
			{Name: landmark.MouthRight, X: 364, Y: 316, Z: 2},
			{Name: landmark.Chin, X: 320, Y: 380 + chinOffset, Z: 0},
			{Name: landmark.Forehead, X: 320, Y: 140, Z: 2},
		},
		Box:       landmark.Box{MinX: 200, MinY: 120, MaxX: 440, MaxY: 400 + chinOffset},
		SourceTag: "test-detector",
		Quality:   0.9,
	}
}

func testPerson(id, name string) Person {
	return Person{ID: id, DisplayName: name}
}

func testEntry(personID, sampleID string, chinOffset float64) Entry {
	return Entry{
		PersonID:  personID,
		SampleID:  sampleID,
		Landmarks: sampleFace(chinOffset),
		Metadata:  map[string]string{"camera": "lobby"},
		CreatedAt: time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC),
	}
}
