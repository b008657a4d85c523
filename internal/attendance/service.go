package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/landmark"
	"github.com/vbartonek/face-attendance/internal/match"
)

// DefaultDedupWindow suppresses repeat check-ins of the same person for
// five minutes unless configured otherwise.
const DefaultDedupWindow = 5 * time.Minute

// Config holds the service tunables.
type Config struct {
	// DedupWindow is how long an accepted check-in suppresses further
	// events for the same person. Zero falls back to DefaultDedupWindow;
	// a negative value disables deduplication.
	DedupWindow time.Duration

	// ShortlistSize caps how many index neighbors seed the candidate set.
	// Zero scores the full gallery on every call.
	ShortlistSize int
}

// Deps are the collaborators the service composes. Snapshot, Matcher and
// Events are required. A nil Deduper falls back to the in-process window,
// a nil Notifier publishes nowhere, a nil Index disables shortlisting.
type Deps struct {
	Snapshot *gallery.Snapshot
	Matcher  *match.Matcher
	Events   EventStore
	Deduper  Deduper
	Notifier Notifier
	Index    *gallery.SignatureIndex
}

// CheckInResult reports one check-in attempt. Event is set only when a new
// event was recorded; Duplicate marks an accepted match that fell inside
// the dedup window of an earlier event.
type CheckInResult struct {
	Outcome   match.Outcome `json:"outcome"`
	Event     *Event        `json:"event,omitempty"`
	Duplicate bool          `json:"duplicate,omitempty"`
}

// Service runs identification against the gallery snapshot and records
// accepted check-ins as events.
type Service struct {
	snapshot *gallery.Snapshot
	matcher  *match.Matcher
	events   EventStore
	deduper  Deduper
	notifier Notifier
	index    *gallery.SignatureIndex
	cfg      Config
	log      *logrus.Logger
}

// NewService wires the service from its dependencies.
func NewService(deps Deps, cfg Config, log *logrus.Logger) (*Service, error) {
	if deps.Snapshot == nil {
		return nil, errors.New("attendance service requires a gallery snapshot")
	}
	if deps.Matcher == nil {
		return nil, errors.New("attendance service requires a matcher")
	}
	if deps.Events == nil {
		return nil, errors.New("attendance service requires an event store")
	}
	if deps.Deduper == nil {
		deps.Deduper = NewMemoryDeduper()
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.DedupWindow == 0 {
		cfg.DedupWindow = DefaultDedupWindow
	}

	return &Service{
		snapshot: deps.Snapshot,
		matcher:  deps.Matcher,
		events:   deps.Events,
		deduper:  deps.Deduper,
		notifier: deps.Notifier,
		index:    deps.Index,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Identify scores the probe against the gallery and returns the match
// decision without recording anything.
func (s *Service) Identify(ctx context.Context, probe landmark.Set) (match.Outcome, error) {
	entries, err := s.candidates(ctx, probe)
	if err != nil {
		return match.Outcome{}, err
	}
	return s.matcher.Identify(probe, entries), nil
}

// CheckIn identifies the probe and, on acceptance, records an event unless
// the person already checked in within the dedup window. A failed
// notification never fails the check-in; the event is already stored.
func (s *Service) CheckIn(ctx context.Context, probe landmark.Set, source string) (CheckInResult, error) {
	outcome, err := s.Identify(ctx, probe)
	if err != nil {
		return CheckInResult{}, err
	}

	result := CheckInResult{Outcome: outcome}
	if !outcome.Matched {
		return result, nil
	}

	first, err := s.deduper.Claim(ctx, outcome.PersonID, s.cfg.DedupWindow)
	if err != nil {
		return result, fmt.Errorf("claiming dedup window: %w", err)
	}
	if !first {
		result.Duplicate = true
		s.log.WithFields(logrus.Fields{
			"person": outcome.PersonID,
			"window": s.cfg.DedupWindow,
		}).Debug("suppressed duplicate check-in")
		return result, nil
	}

	now := time.Now().UTC()
	id, err := newEventID(now)
	if err != nil {
		return result, err
	}

	ev := Event{
		ID:          id,
		PersonID:    outcome.PersonID,
		DisplayName: outcome.DisplayName,
		Confidence:  outcome.Confidence,
		Source:      source,
		RecordedAt:  now,
	}
	if err := s.events.SaveEvent(ctx, ev); err != nil {
		return result, fmt.Errorf("saving check-in event: %w", err)
	}
	result.Event = &ev

	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithField("event", ev.ID).Warn("failed to publish check-in event")
	}

	s.log.WithFields(logrus.Fields{
		"event":      ev.ID,
		"person":     ev.PersonID,
		"confidence": ev.Confidence,
		"source":     source,
	}).Info("recorded check-in")

	return result, nil
}

// candidates returns the gallery slice to score. When an index and a
// shortlist size are configured and the gallery is larger than the
// shortlist, index hits are expanded to whole persons so multi-sample
// voting still sees every sample of each shortlisted person. Any shortlist
// failure falls back to the full gallery.
func (s *Service) candidates(ctx context.Context, probe landmark.Set) ([]gallery.Entry, error) {
	entries, err := s.snapshot.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading gallery: %w", err)
	}
	if s.index == nil || s.cfg.ShortlistSize <= 0 || len(entries) <= s.cfg.ShortlistSize {
		return entries, nil
	}

	neighbors, err := s.index.Nearest(probe, s.cfg.ShortlistSize)
	if err != nil {
		s.log.WithError(err).Debug("signature shortlist unavailable, scoring full gallery")
		return entries, nil
	}

	persons := make(map[string]bool, len(neighbors))
	for _, n := range neighbors {
		persons[n.PersonID] = true
	}

	shortlist := make([]gallery.Entry, 0, len(entries))
	for _, e := range entries {
		if persons[e.PersonID] {
			shortlist = append(shortlist, e)
		}
	}
	if len(shortlist) == 0 {
		return entries, nil
	}

	s.log.WithFields(logrus.Fields{
		"gallery":   len(entries),
		"shortlist": len(shortlist),
		"persons":   len(persons),
	}).Debug("scoring shortlisted candidates")
	return shortlist, nil
}
