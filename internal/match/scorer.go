package match

import (
	"math"

	"github.com/vbartonek/face-attendance/internal/landmark"
)

// Strategy identifies which comparison path produced a score.
type Strategy uint8

const (
	// StrategyNone means the pair was not comparable and produced no score.
	StrategyNone Strategy = iota
	// StrategySparse compares named key points shared by both sets.
	StrategySparse
	// StrategyDense compares dense mesh points by index correspondence.
	StrategyDense
)

// String returns a short label for logging.
func (s Strategy) String() string {
	switch s {
	case StrategySparse:
		return "sparse"
	case StrategyDense:
		return "dense"
	default:
		return "none"
	}
}

// Score is the result of comparing two normalized landmark sets.
// Similarity is in [0, 1]; StrategyNone means the pair shared too few
// landmarks to compare and must be excluded rather than treated as zero.
type Score struct {
	Similarity float64
	Strategy   Strategy
}

// Scorer computes pairwise similarity between normalized landmark sets.
// It is stateless and safe for concurrent use.
type Scorer struct {
	cfg     Config
	weights *WeightTable
}

// NewScorer creates a scorer. A nil weight table falls back to the embedded
// defaults.
func NewScorer(cfg Config, weights *WeightTable) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Scorer{cfg: cfg.withDefaults(), weights: weights}
}

// Score compares a probe against a candidate. The dense strategy applies
// when both sides carry a full mesh; otherwise, or when the pair fails the
// dense preconditions, it falls back to the sparse named comparison.
func (s *Scorer) Score(probe, candidate landmark.Normalized) Score {
	if len(probe.MeshPoints) >= s.cfg.MinMeshPoints && len(candidate.MeshPoints) >= s.cfg.MinMeshPoints {
		return s.scoreDense(probe, candidate)
	}
	return s.scoreSparse(probe, candidate)
}

// scoreSparse compares the key points present in both sets by name.
// Pairs sharing fewer than MinSharedKeyPoints names are not comparable.
func (s *Scorer) scoreSparse(probe, candidate landmark.Normalized) Score {
	index := make(map[string]landmark.Point, len(candidate.KeyPoints))
	for _, p := range candidate.KeyPoints {
		index[p.Name] = p
	}

	var weightedSum, weightTotal float64
	matched := 0
	for _, p := range probe.KeyPoints {
		q, ok := index[p.Name]
		if !ok {
			continue
		}
		w := s.weights.KeyPointWeight(p.Name)
		weightedSum += p.Distance(q) * w
		weightTotal += w
		matched++
	}

	if matched < s.cfg.MinSharedKeyPoints || weightTotal == 0 {
		return Score{Strategy: StrategyNone}
	}

	avg := weightedSum / weightTotal
	return Score{
		Similarity: math.Exp(-avg * SparseDecayRate),
		Strategy:   StrategySparse,
	}
}

// scoreDense compares mesh points by index and blends in the pose-invariant
// ratio similarity. Mesh indexes correspond across sets from the same
// detector model; the shorter mesh bounds the comparison.
func (s *Scorer) scoreDense(probe, candidate landmark.Normalized) Score {
	n := min(len(probe.MeshPoints), len(candidate.MeshPoints))

	var weightedSum, weightTotal float64
	for i := 0; i < n; i++ {
		w := s.weights.MeshWeight(i)
		weightedSum += probe.MeshPoints[i].Distance(candidate.MeshPoints[i]) * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return s.scoreSparse(probe, candidate)
	}

	positional := math.Exp(-(weightedSum / weightTotal) * DenseDecayRate)

	similarity := positional
	if ratio, ok := ratioSimilarity(probe.Set, candidate.Set); ok {
		similarity = DenseLandmarkWeight*positional + DenseRatioWeight*ratio
	}
	return Score{Similarity: similarity, Strategy: StrategyDense}
}

// ratioSimilarity compares the facial ratio vectors of two sets over the
// slots populated on both sides. It reports false when too few slots are
// comparable for the term to be meaningful.
func ratioSimilarity(a, b landmark.Set) (float64, bool) {
	ra := landmark.Ratios(a)
	rb := landmark.Ratios(b)

	var totalDiff float64
	comparable := 0
	for i := range ra {
		if ra[i] <= 0 || rb[i] <= 0 {
			continue
		}
		totalDiff += math.Abs(ra[i] - rb[i])
		comparable++
	}
	if comparable < MinComparableRatios {
		return 0, false
	}

	mean := totalDiff / float64(comparable)
	return math.Exp(-mean * RatioDecayRate), true
}
