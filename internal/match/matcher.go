package match

import (
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/landmark"
)

// Candidate pairs a gallery entry with its similarity against the probe.
type Candidate struct {
	Entry      *gallery.Entry
	Similarity float64
	Strategy   Strategy
}

// IdentityScore aggregates all surviving samples of one person into a final
// score. Votes and TopAverage describe the group; boosts apply only when the
// person has at least three surviving samples.
type IdentityScore struct {
	PersonID    string
	DisplayName string
	Best        *Candidate
	FinalScore  float64
	Votes       int
	TopAverage  float64
	Samples     int
}

// Ranking is the full result of comparing a probe against a gallery.
// Groups is sorted by FinalScore descending; Best points at Groups[0] when
// any candidate survived. Evaluated counts candidates that were comparable,
// excluding those discarded for insufficient landmark overlap.
type Ranking struct {
	Best      *IdentityScore
	Groups    []IdentityScore
	Evaluated int
}

// Matcher ranks gallery entries against a probe and aggregates per-person
// scores through multi-sample voting. Entries hold raw landmark sets; the
// matcher normalizes both sides on every call.
type Matcher struct {
	scorer *Scorer
	cfg    Config
	log    *logrus.Logger
}

// NewMatcher creates a matcher. A nil weight table uses the embedded
// defaults, a nil logger uses the logrus standard logger.
func NewMatcher(cfg Config, weights *WeightTable, log *logrus.Logger) *Matcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg = cfg.withDefaults()
	return &Matcher{
		scorer: NewScorer(cfg, weights),
		cfg:    cfg,
		log:    log,
	}
}

// Identify ranks the gallery and applies the acceptance policy in one step.
func (m *Matcher) Identify(probe landmark.Set, entries []gallery.Entry) Outcome {
	return NewPolicy(m.cfg).Decide(m.Rank(probe, entries))
}

// Rank scores the probe against every gallery entry, discards pairs without
// enough landmark overlap, and aggregates the survivors per person.
func (m *Matcher) Rank(probe landmark.Set, entries []gallery.Entry) Ranking {
	if probe.IsEmpty() || len(entries) == 0 {
		return Ranking{}
	}

	normalized := landmark.Normalize(probe)
	candidates := m.scoreAll(normalized, entries)
	groups := m.groupByPerson(candidates)

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].FinalScore != groups[j].FinalScore {
			return groups[i].FinalScore > groups[j].FinalScore
		}
		if groups[i].Best.Similarity != groups[j].Best.Similarity {
			return groups[i].Best.Similarity > groups[j].Best.Similarity
		}
		return groups[i].PersonID < groups[j].PersonID
	})

	ranking := Ranking{Groups: groups, Evaluated: len(candidates)}
	if len(groups) > 0 {
		ranking.Best = &groups[0]
	}

	fields := logrus.Fields{
		"entries":   len(entries),
		"evaluated": ranking.Evaluated,
		"persons":   len(groups),
	}
	if ranking.Best != nil {
		fields["best_person"] = ranking.Best.PersonID
		fields["best_score"] = ranking.Best.FinalScore
	}
	m.log.WithFields(fields).Debug("ranked gallery candidates")

	return ranking
}

// scoreAll compares the probe to every entry and keeps the comparable ones.
// Larger galleries are scored concurrently; results land in an indexed slice
// so the candidate order stays deterministic.
func (m *Matcher) scoreAll(probe landmark.Normalized, entries []gallery.Entry) []Candidate {
	scores := make([]Score, len(entries))

	if len(entries) >= parallelScoreMinEntries && m.cfg.Concurrency > 1 {
		semaphore := make(chan struct{}, m.cfg.Concurrency)
		var wg sync.WaitGroup
		for i := range entries {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				semaphore <- struct{}{}
				defer func() { <-semaphore }()
				scores[idx] = m.scorer.Score(probe, landmark.Normalize(entries[idx].Landmarks))
			}(i)
		}
		wg.Wait()
	} else {
		for i := range entries {
			scores[i] = m.scorer.Score(probe, landmark.Normalize(entries[i].Landmarks))
		}
	}

	candidates := make([]Candidate, 0, len(entries))
	for i := range entries {
		if scores[i].Strategy == StrategyNone {
			continue
		}
		candidates = append(candidates, Candidate{
			Entry:      &entries[i],
			Similarity: scores[i].Similarity,
			Strategy:   scores[i].Strategy,
		})
	}
	return candidates
}

// groupByPerson buckets candidates by person id, preserving first-seen order,
// and runs the voting aggregation on each bucket.
func (m *Matcher) groupByPerson(candidates []Candidate) []IdentityScore {
	order := make([]string, 0)
	buckets := make(map[string][]Candidate)
	for _, c := range candidates {
		id := c.Entry.PersonID
		if _, ok := buckets[id]; !ok {
			order = append(order, id)
		}
		buckets[id] = append(buckets[id], c)
	}

	groups := make([]IdentityScore, 0, len(order))
	for _, id := range order {
		groups = append(groups, m.scoreIdentity(buckets[id]))
	}
	return groups
}

// scoreIdentity runs multi-sample voting over one person's candidates.
// Several enrollment samples agreeing on a borderline face nudge the score
// upward; a single strong sample never gets manufactured support.
func (m *Matcher) scoreIdentity(group []Candidate) IdentityScore {
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].Similarity != group[j].Similarity {
			return group[i].Similarity > group[j].Similarity
		}
		return group[i].Entry.SampleID < group[j].Entry.SampleID
	})

	best := group[0]
	score := IdentityScore{
		PersonID:    best.Entry.PersonID,
		DisplayName: best.Entry.DisplayName,
		Best:        &best,
		FinalScore:  best.Similarity,
		Samples:     len(group),
	}

	top := len(group)
	if top > 3 {
		top = 3
	}
	var sum float64
	for _, c := range group[:top] {
		sum += c.Similarity
	}
	score.TopAverage = sum / float64(top)
	for _, c := range group {
		if c.Similarity >= m.cfg.VoteThreshold {
			score.Votes++
		}
	}

	if len(group) < 3 {
		return score
	}

	switch {
	case score.Votes >= 3:
		boost := (score.TopAverage-best.Similarity)*TripleVoteBlend + TripleVoteBonus
		score.FinalScore = math.Min(best.Similarity+boost, VotedScoreCap)
	case score.Votes >= 2:
		boost := (score.TopAverage-best.Similarity)*DoubleVoteBlend + DoubleVoteBonus
		score.FinalScore = math.Min(best.Similarity+boost, VotedScoreCap)
	default:
		// Without at least two votes the score stays exactly bestScore.
		return score
	}

	if group[0].Similarity-group[2].Similarity < ConsistencySpread {
		score.FinalScore = math.Min(score.FinalScore+ConsistencyBonus, VotedScoreCap)
	}

	return score
}
