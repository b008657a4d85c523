package gallery

import (
	"path/filepath"
	"testing"

	"github.com/vbartonek/face-attendance/internal/landmark"
)

func TestSignatureIndex_NearestRanksByRatioDistance(t *testing.T) {
	idx := NewSignatureIndex()
	idx.Rebuild([]Entry{
		testEntry("anna", "a1", 0),
		testEntry("marek", "m1", 60),
		testEntry("petra", "p1", 150),
	})

	neighbors, err := idx.Nearest(sampleFace(0), 3)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(neighbors) != 3 {
		t.Fatalf("got %d neighbors, want 3", len(neighbors))
	}
	if neighbors[0].PersonID != "anna" {
		t.Errorf("closest = %s, want anna", neighbors[0].PersonID)
	}
	if neighbors[0].Distance > 1e-6 {
		t.Errorf("identical face at distance %v, want ~0", neighbors[0].Distance)
	}
	for i := 1; i < len(neighbors); i++ {
		if neighbors[i].Distance < neighbors[i-1].Distance {
			t.Errorf("neighbors out of order: %+v", neighbors)
		}
	}
}

func TestSignatureIndex_RemoveFiltersHits(t *testing.T) {
	idx := NewSignatureIndex()
	idx.Rebuild([]Entry{
		testEntry("anna", "a1", 0),
		testEntry("marek", "m1", 60),
	})

	idx.Remove("anna", "a1")
	if idx.Count() != 1 {
		t.Fatalf("count = %d after remove, want 1", idx.Count())
	}

	neighbors, err := idx.Nearest(sampleFace(0), 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range neighbors {
		if n.PersonID == "anna" {
			t.Errorf("removed sample still returned: %+v", n)
		}
	}
}

func TestSignatureIndex_SkipsUnusableSignatures(t *testing.T) {
	noEyes := testEntry("ghost", "g1", 0)
	kept := noEyes.Landmarks.KeyPoints[:0]
	for _, p := range noEyes.Landmarks.KeyPoints {
		if p.Name == landmark.LeftEyeOuter || p.Name == landmark.RightEyeOuter {
			continue
		}
		kept = append(kept, p)
	}
	noEyes.Landmarks.KeyPoints = kept

	idx := NewSignatureIndex()
	idx.Rebuild([]Entry{noEyes, testEntry("anna", "a1", 0)})

	if idx.Count() != 1 {
		t.Errorf("count = %d, want 1 (eyeless entry skipped)", idx.Count())
	}

	if _, err := idx.Nearest(noEyes.Landmarks, 1); err == nil {
		t.Error("expected an error for a probe without a usable signature")
	}
}

func TestSignatureIndex_EmptyIndexErrors(t *testing.T) {
	idx := NewSignatureIndex()
	if _, err := idx.Nearest(sampleFace(0), 1); err == nil {
		t.Error("expected an error from an unbuilt index")
	}
	if !idx.IsEmpty() {
		t.Error("fresh index not reported empty")
	}
}

func TestSignatureIndex_SaveLoadRoundTrip(t *testing.T) {
	entries := []Entry{
		testEntry("anna", "a1", 0),
		testEntry("marek", "m1", 80),
	}
	idx := NewSignatureIndex()
	idx.Rebuild(entries)

	path := filepath.Join(t.TempDir(), "signatures.idx")
	if err := idx.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := LoadIndexMeta(path)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.Version != indexMetaVersion || meta.Samples != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}

	restored := NewSignatureIndex()
	if err := restored.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	restored.RefreshKeys(entries)

	if restored.Count() != 2 {
		t.Fatalf("restored count = %d, want 2", restored.Count())
	}
	neighbors, err := restored.Nearest(sampleFace(80), 1)
	if err != nil {
		t.Fatalf("nearest after load: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].PersonID != "marek" {
		t.Errorf("expected marek closest after reload, got %+v", neighbors)
	}
}

func TestSignatureIndex_AddIncremental(t *testing.T) {
	idx := NewSignatureIndex()
	idx.Add(testEntry("anna", "a1", 0))
	idx.Add(testEntry("marek", "m1", 90))

	if idx.Count() != 2 {
		t.Fatalf("count = %d, want 2", idx.Count())
	}
	neighbors, err := idx.Nearest(sampleFace(90), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(neighbors) != 1 || neighbors[0].PersonID != "marek" {
		t.Errorf("expected marek closest, got %+v", neighbors)
	}
}
