package gallery

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestExport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewMemory()
	if err := src.UpsertPerson(ctx, testPerson("anna", "Anna")); err != nil {
		t.Fatal(err)
	}
	if err := src.UpsertPerson(ctx, testPerson("marek", "Marek")); err != nil {
		t.Fatal(err)
	}
	for _, e := range []Entry{
		testEntry("anna", "a1", 0),
		testEntry("anna", "a2", 30),
		testEntry("marek", "m1", 60),
	} {
		if err := src.SaveEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "gallery.json")
	export, err := WriteFile(ctx, src, path)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if export.Version != exportVersion || len(export.Persons) != 2 || len(export.Entries) != 3 {
		t.Fatalf("unexpected export %+v", export)
	}

	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	dst := NewMemory()
	if err := loaded.Apply(ctx, dst); err != nil {
		t.Fatalf("apply: %v", err)
	}

	stats, _ := dst.GetStats(ctx)
	if stats.Persons != 2 || stats.Samples != 3 {
		t.Errorf("imported stats = %+v, want 2/3", stats)
	}
	entries, _ := dst.EntriesByPerson(ctx, "anna")
	if len(entries) != 2 {
		t.Fatalf("anna has %d imported entries, want 2", len(entries))
	}
	if entries[0].Metadata["camera"] != "lobby" {
		t.Errorf("metadata lost in transit: %+v", entries[0].Metadata)
	}
	if len(entries[0].Landmarks.KeyPoints) != 10 {
		t.Errorf("landmarks lost in transit: %d points", len(entries[0].Landmarks.KeyPoints))
	}
}

func TestReadFile_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.json")
	data, _ := json.Marshal(map[string]any{"version": 99})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadFile(path); err == nil {
		t.Error("expected a version error")
	}
}

func TestReadFile_MissingFile(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
