package gallery

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/coder/hnsw"
	"github.com/vbartonek/face-attendance/internal/landmark"
)

// IndexMeta validates a persisted signature index against the gallery it
// was built from.
type IndexMeta struct {
	Version int       `json:"version"`
	Samples int       `json:"samples"`
	BuiltAt time.Time `json:"built_at"`
}

const (
	indexMetaVersion = 1

	// indexMaxNeighbors is the HNSW M parameter.
	indexMaxNeighbors = 16
)

// Neighbor is one signature-space search hit.
type Neighbor struct {
	PersonID string
	SampleID string
	Distance float64
}

// SignatureIndex is an approximate-nearest-neighbor index over the facial
// ratio signatures of gallery entries. It shortlists likely persons for
// large galleries before the full landmark scoring pass; it never decides a
// match by itself. Keys are "person/sample" pairs, so neither ID may
// contain a slash.
type SignatureIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	saved *hnsw.SavedGraph[string]
	keys  map[string]bool
}

// NewSignatureIndex creates an empty index.
func NewSignatureIndex() *SignatureIndex {
	return &SignatureIndex{keys: make(map[string]bool)}
}

func indexKey(personID, sampleID string) string {
	return personID + "/" + sampleID
}

func splitIndexKey(key string) (personID, sampleID string) {
	personID, sampleID, _ = strings.Cut(key, "/")
	return personID, sampleID
}

func usableSignature(sig []float32) bool {
	for _, v := range sig {
		if v != 0 {
			return true
		}
	}
	return false
}

func newSignatureGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Rebuild replaces the index contents from a full entry listing. Entries
// without a usable signature (no eye landmarks) are skipped; they stay
// reachable through the full-scan path.
func (x *SignatureIndex) Rebuild(entries []Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(entries) == 0 {
		x.graph = nil
		x.saved = nil
		x.keys = make(map[string]bool)
		return
	}

	g := newSignatureGraph()
	keys := make(map[string]bool, len(entries))
	for i := range entries {
		sig := landmark.Signature(entries[i].Landmarks)
		if !usableSignature(sig) {
			continue
		}
		key := indexKey(entries[i].PersonID, entries[i].SampleID)
		g.Add(hnsw.MakeNode(key, sig))
		keys[key] = true
	}

	x.graph = g
	x.saved = nil
	x.keys = keys
}

// Add indexes a single entry.
func (x *SignatureIndex) Add(e Entry) {
	sig := landmark.Signature(e.Landmarks)
	if !usableSignature(sig) {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.graph == nil {
		x.graph = newSignatureGraph()
	}
	key := indexKey(e.PersonID, e.SampleID)
	x.graph.Add(hnsw.MakeNode(key, sig))
	x.keys[key] = true
}

// Remove drops a sample from search results. The underlying graph keeps the
// node until the next Rebuild; hits are filtered by the live key set.
func (x *SignatureIndex) Remove(personID, sampleID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.keys, indexKey(personID, sampleID))
}

// Nearest returns up to k indexed samples closest to the probe in ratio
// space. It fails when the probe has no usable signature or the index holds
// no graph, so callers can fall back to a full scan.
func (x *SignatureIndex) Nearest(probe landmark.Set, k int) ([]Neighbor, error) {
	sig := landmark.Signature(probe)
	if !usableSignature(sig) {
		return nil, errors.New("probe has no usable ratio signature")
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil && x.saved == nil {
		return nil, errors.New("signature index not built")
	}

	var nodes []hnsw.Node[string]
	if x.saved != nil {
		nodes = x.saved.Search(sig, k)
	} else {
		nodes = x.graph.Search(sig, k)
	}

	neighbors := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		if !x.keys[n.Key] {
			continue
		}
		personID, sampleID := splitIndexKey(n.Key)
		neighbors = append(neighbors, Neighbor{
			PersonID: personID,
			SampleID: sampleID,
			Distance: float64(hnsw.EuclideanDistance(sig, n.Value)),
		})
	}
	return neighbors, nil
}

// Count returns the number of live indexed samples.
func (x *SignatureIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.keys)
}

// IsEmpty reports whether no graph data is loaded.
func (x *SignatureIndex) IsEmpty() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.graph == nil && x.saved == nil
}

// Save persists the graph to disk with a metadata sidecar. An empty index
// removes any previously saved files.
func (x *SignatureIndex) Save(path string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil && x.saved == nil {
		_ = os.Remove(path)
		_ = os.Remove(path + ".meta")
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating index file: %w", err)
	}
	defer f.Close()

	if x.saved != nil {
		err = x.saved.Export(f)
	} else {
		err = x.graph.Export(f)
	}
	if err != nil {
		return fmt.Errorf("exporting signature graph: %w", err)
	}

	meta := IndexMeta{
		Version: indexMetaVersion,
		Samples: len(x.keys),
		BuiltAt: time.Now().UTC(),
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling index metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", data, 0600); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}
	return nil
}

// Load reads a previously saved graph. Call RefreshKeys afterwards with the
// current gallery entries to mark which samples are live.
func (x *SignatureIndex) Load(path string) error {
	saved, err := hnsw.LoadSavedGraph[string](path)
	if err != nil {
		return fmt.Errorf("loading signature index: %w", err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.saved = saved
	x.graph = nil
	return nil
}

// RefreshKeys rebuilds the live key set after a Load.
func (x *SignatureIndex) RefreshKeys(entries []Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.keys = make(map[string]bool, len(entries))
	for i := range entries {
		if usableSignature(landmark.Signature(entries[i].Landmarks)) {
			x.keys[indexKey(entries[i].PersonID, entries[i].SampleID)] = true
		}
	}
}

// LoadIndexMeta reads the metadata sidecar written by Save.
func LoadIndexMeta(path string) (IndexMeta, error) {
	var meta IndexMeta
	data, err := os.ReadFile(path + ".meta")
	if err != nil {
		return meta, fmt.Errorf("reading index metadata: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("unmarshaling index metadata: %w", err)
	}
	return meta, nil
}
