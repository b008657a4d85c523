package landmark

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSetJSONRoundTrip(t *testing.T) {
	s := baseFace()
	s.MeshPoints = []Point{{X: 1.5, Y: 2.5, Z: -0.5}, {X: 4, Y: 5, Z: 6}}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got Set
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(got.KeyPoints) != len(s.KeyPoints) {
		t.Fatalf("expected %d key points, got %d", len(s.KeyPoints), len(got.KeyPoints))
	}
	if got.MeshPoints[1] != (Point{X: 4, Y: 5, Z: 6}) {
		t.Errorf("mesh point mangled: %+v", got.MeshPoints[1])
	}
	if got.Box != s.Box {
		t.Errorf("box mangled: %+v vs %+v", got.Box, s.Box)
	}
	if got.SourceTag != s.SourceTag || got.Quality != s.Quality {
		t.Errorf("metadata mangled: %q %f", got.SourceTag, got.Quality)
	}
}

func TestSetJSONWireShape(t *testing.T) {
	s := Set{
		KeyPoints:  []Point{{Name: NoseTip, X: 10, Y: 20, Z: 3}},
		MeshPoints: []Point{{X: 1, Y: 2, Z: 3}},
		Box:        Box{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		SourceTag:  "mediapipe-facemesh",
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// Mesh points travel as bare triples, not named objects.
	if !strings.Contains(string(data), `"mesh_points":[[1,2,3]]`) {
		t.Errorf("mesh points not compact: %s", data)
	}
	if !strings.Contains(string(data), `"bbox":[0,0,100,100]`) {
		t.Errorf("bbox not in corner form: %s", data)
	}
}

func TestSetJSONDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"short bbox", `{"key_points":[],"bbox":[1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Set
			if err := json.Unmarshal([]byte(tt.body), &s); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestSetJSONEmptyOmitsBox(t *testing.T) {
	data, err := json.Marshal(Set{KeyPoints: []Point{{Name: NoseTip}}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), "bbox") {
		t.Errorf("zero box should be omitted: %s", data)
	}
}
