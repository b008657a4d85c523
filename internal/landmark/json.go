package landmark

import (
	"encoding/json"
	"fmt"
)

// setJSON is the wire format for landmark sets. Mesh points travel as bare
// [x, y, z] triples to keep dense payloads compact, and the bounding box as
// [x1, y1, x2, y2] corners.
type setJSON struct {
	KeyPoints  []Point      `json:"key_points"`
	MeshPoints [][3]float64 `json:"mesh_points,omitempty"`
	BBox       []float64    `json:"bbox,omitempty"`
	Source     string       `json:"source,omitempty"`
	Quality    float64      `json:"quality,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s Set) MarshalJSON() ([]byte, error) {
	out := setJSON{
		KeyPoints: s.KeyPoints,
		Source:    s.SourceTag,
		Quality:   s.Quality,
	}
	if len(s.MeshPoints) > 0 {
		out.MeshPoints = make([][3]float64, len(s.MeshPoints))
		for i, p := range s.MeshPoints {
			out.MeshPoints[i] = [3]float64{p.X, p.Y, p.Z}
		}
	}
	if !s.Box.IsZero() {
		out.BBox = []float64{s.Box.MinX, s.Box.MinY, s.Box.MaxX, s.Box.MaxY}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Set) UnmarshalJSON(data []byte) error {
	var in setJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decoding landmark set: %w", err)
	}
	if len(in.BBox) != 0 && len(in.BBox) != 4 {
		return fmt.Errorf("bbox must have 4 values, got %d", len(in.BBox))
	}

	out := Set{
		KeyPoints: in.KeyPoints,
		SourceTag: in.Source,
		Quality:   in.Quality,
	}
	if len(in.MeshPoints) > 0 {
		out.MeshPoints = make([]Point, len(in.MeshPoints))
		for i, t := range in.MeshPoints {
			out.MeshPoints[i] = Point{X: t[0], Y: t[1], Z: t[2]}
		}
	}
	if len(in.BBox) == 4 {
		out.Box = Box{MinX: in.BBox[0], MinY: in.BBox[1], MaxX: in.BBox[2], MaxY: in.BBox[3]}
	}

	*s = out
	return nil
}
