package match

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed weights.yaml
var weightsYAML []byte

// weightsFile mirrors the weights.yaml structure.
type weightsFile struct {
	KeyPoints struct {
		Default float64            `yaml:"default"`
		Weights map[string]float64 `yaml:"weights"`
	} `yaml:"key_points"`
	Mesh struct {
		Default float64 `yaml:"default"`
		Tiers   []struct {
			Name    string  `yaml:"name"`
			Weight  float64 `yaml:"weight"`
			Indexes []int   `yaml:"indexes"`
		} `yaml:"tiers"`
	} `yaml:"mesh"`
}

// WeightTable resolves per-landmark weights for both scoring strategies.
// Key points resolve by name, mesh points by index.
type WeightTable struct {
	keyPoints       map[string]float64
	keyPointDefault float64
	mesh            []float64
	meshDefault     float64
}

// DefaultWeights returns the table from the embedded weights.yaml.
func DefaultWeights() *WeightTable {
	table, err := parseWeights(weightsYAML)
	if err != nil {
		// The file is embedded, so this only fires on a broken build.
		panic("failed to parse embedded weights.yaml: " + err.Error())
	}
	return table
}

// LoadWeights reads a weight table from a YAML file, allowing deployments
// to override the built-in tables.
func LoadWeights(path string) (*WeightTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading weights file: %w", err)
	}
	table, err := parseWeights(data)
	if err != nil {
		return nil, fmt.Errorf("parsing weights file %s: %w", path, err)
	}
	return table, nil
}

func parseWeights(data []byte) (*WeightTable, error) {
	var file weightsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshaling weights: %w", err)
	}

	table := &WeightTable{
		keyPoints:       file.KeyPoints.Weights,
		keyPointDefault: file.KeyPoints.Default,
		meshDefault:     file.Mesh.Default,
	}
	if table.keyPoints == nil {
		table.keyPoints = map[string]float64{}
	}
	if table.keyPointDefault <= 0 {
		table.keyPointDefault = 1.0
	}
	if table.meshDefault <= 0 {
		table.meshDefault = 1.0
	}

	// Expand tiers into a flat index table for O(1) lookup while scoring.
	maxIndex := -1
	for _, tier := range file.Mesh.Tiers {
		for _, idx := range tier.Indexes {
			if idx > maxIndex {
				maxIndex = idx
			}
		}
	}
	if maxIndex >= 0 {
		table.mesh = make([]float64, maxIndex+1)
		for i := range table.mesh {
			table.mesh[i] = table.meshDefault
		}
		for _, tier := range file.Mesh.Tiers {
			if tier.Weight <= 0 {
				return nil, fmt.Errorf("mesh tier %q has non-positive weight", tier.Name)
			}
			for _, idx := range tier.Indexes {
				if idx < 0 {
					return nil, fmt.Errorf("mesh tier %q has negative index %d", tier.Name, idx)
				}
				table.mesh[idx] = tier.Weight
			}
		}
	}

	return table, nil
}

// KeyPointWeight returns the weight for a named key point.
func (w *WeightTable) KeyPointWeight(name string) float64 {
	if weight, ok := w.keyPoints[name]; ok {
		return weight
	}
	return w.keyPointDefault
}

// MeshWeight returns the weight for a mesh point index.
func (w *WeightTable) MeshWeight(index int) float64 {
	if index >= 0 && index < len(w.mesh) {
		return w.mesh[index]
	}
	return w.meshDefault
}
