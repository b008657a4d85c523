package match

// Outcome is the final accept/reject decision for one identification call.
// Confidence carries the best final score found even when Matched is false,
// so callers can observe how close the nearest miss was. BestCandidate is a
// "person/sample" label intended for logs and diagnostics only.
type Outcome struct {
	Matched       bool    `json:"matched"`
	PersonID      string  `json:"person_id,omitempty"`
	DisplayName   string  `json:"display_name,omitempty"`
	Confidence    float64 `json:"confidence"`
	BestCandidate string  `json:"best_candidate,omitempty"`
	Evaluated     int     `json:"candidates_evaluated"`
}

// Policy turns a ranking into an outcome. It is a pure decision layer with
// no I/O; an empty gallery or a below-threshold best both produce a normal
// rejecting outcome, never an error.
type Policy struct {
	cfg Config
}

// NewPolicy creates a policy using the configured acceptance threshold.
func NewPolicy(cfg Config) *Policy {
	return &Policy{cfg: cfg.withDefaults()}
}

// Decide maps a ranking to the outcome returned to the caller. Matched is
// true exactly when the best final score reaches the acceptance threshold.
func (p *Policy) Decide(r Ranking) Outcome {
	out := Outcome{Evaluated: r.Evaluated}
	if r.Best == nil {
		return out
	}

	out.Confidence = r.Best.FinalScore
	if r.Best.Best != nil {
		out.BestCandidate = r.Best.Best.Entry.PersonID + "/" + r.Best.Best.Entry.SampleID
	}
	if out.Confidence < p.cfg.AcceptThreshold {
		return out
	}

	out.Matched = true
	out.PersonID = r.Best.PersonID
	out.DisplayName = r.Best.DisplayName
	return out
}
