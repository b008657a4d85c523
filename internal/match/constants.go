// Package match implements landmark similarity scoring and multi-sample
// gallery voting. Scoring is geometric only: weighted point distances over
// normalized landmark sets, with no model inference involved.
package match

// Decision thresholds. All four are exposed through Config so deployments
// can tune them per camera setup.
const (
	// DefaultAcceptThreshold is the minimum final score for a positive match.
	DefaultAcceptThreshold = 0.65

	// DefaultVoteThreshold is the minimum per-sample similarity for that
	// sample to count as a supporting vote for its person.
	DefaultVoteThreshold = 0.60

	// DefaultMinSharedKeyPoints is the minimum number of key point names two
	// sets must share to be comparable at all. Pairs below it are discarded
	// rather than scored zero, so partial detections never dilute voting.
	DefaultMinSharedKeyPoints = 15

	// DefaultMinMeshPoints is the minimum dense mesh size on both sides
	// before the index-correspondent dense strategy applies.
	DefaultMinMeshPoints = 400
)

// Exponential decay rates mapping mean weighted distance to similarity.
// Dense mesh distances are far smaller than sparse ones after pose
// normalization, hence the steeper rates.
const (
	SparseDecayRate = 2.5
	DenseDecayRate  = 4.0
	RatioDecayRate  = 8.0
)

// Dense strategy blend of positional and ratio similarity.
const (
	DenseLandmarkWeight = 0.7
	DenseRatioWeight    = 0.3

	// MinComparableRatios is how many ratio slots must be populated on both
	// sides before the ratio term participates in the blend.
	MinComparableRatios = 4
)

// Multi-sample voting parameters. Votes blend the best sample score toward
// the top-3 average, trading a single lucky frame for enrollment-wide
// agreement.
const (
	// TripleVoteBlend and TripleVoteBonus apply when at least three samples
	// vote above the vote threshold.
	TripleVoteBlend = 0.30
	TripleVoteBonus = 0.02

	// DoubleVoteBlend and DoubleVoteBonus apply when exactly two samples vote.
	DoubleVoteBlend = 0.15
	DoubleVoteBonus = 0.01

	// VotedScoreCap bounds every boosted score so voting can never push a
	// mediocre match into looking certain.
	VotedScoreCap = 0.98

	// ConsistencySpread is the maximum 1st-to-3rd sample score spread that
	// earns the consistency bonus.
	ConsistencySpread = 0.05
	ConsistencyBonus  = 0.01
)

// Scoring concurrency.
const (
	// DefaultScoreConcurrency is the worker count for parallel entry scoring.
	DefaultScoreConcurrency = 8

	// parallelScoreMinEntries is the gallery size below which scoring stays
	// serial; goroutine setup costs more than it saves on small galleries.
	parallelScoreMinEntries = 64
)

// Config carries the tunable matching parameters. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	AcceptThreshold    float64
	VoteThreshold      float64
	MinSharedKeyPoints int
	MinMeshPoints      int
	Concurrency        int
}

// DefaultConfig returns the standard production parameters.
func DefaultConfig() Config {
	return Config{
		AcceptThreshold:    DefaultAcceptThreshold,
		VoteThreshold:      DefaultVoteThreshold,
		MinSharedKeyPoints: DefaultMinSharedKeyPoints,
		MinMeshPoints:      DefaultMinMeshPoints,
		Concurrency:        DefaultScoreConcurrency,
	}
}

// withDefaults fills unset fields so partially populated configs stay safe.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.AcceptThreshold <= 0 {
		c.AcceptThreshold = def.AcceptThreshold
	}
	if c.VoteThreshold <= 0 {
		c.VoteThreshold = def.VoteThreshold
	}
	if c.MinSharedKeyPoints <= 0 {
		c.MinSharedKeyPoints = def.MinSharedKeyPoints
	}
	if c.MinMeshPoints <= 0 {
		c.MinMeshPoints = def.MinMeshPoints
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	return c
}
