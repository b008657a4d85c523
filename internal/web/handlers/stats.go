package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/attendance"
	"github.com/vbartonek/face-attendance/internal/gallery"
)

// StatsHandler reports gallery and attendance counts.
type StatsHandler struct {
	store  gallery.Reader
	events attendance.EventStore
	index  *gallery.SignatureIndex
	log    *logrus.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(store gallery.Reader, events attendance.EventStore, index *gallery.SignatureIndex, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		store:  store,
		events: events,
		index:  index,
		log:    log,
	}
}

// StatsResponse summarizes the gallery, the event log and the signature index.
type StatsResponse struct {
	Persons        int  `json:"persons"`
	Samples        int  `json:"samples"`
	Events         int  `json:"events"`
	IndexedSamples int  `json:"indexed_samples"`
	IndexReady     bool `json:"index_ready"`
}

// Get returns the current statistics.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to read gallery stats")
		respondError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	eventCount, err := h.events.CountEvents(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to count events")
		respondError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}

	resp := StatsResponse{
		Persons: stats.Persons,
		Samples: stats.Samples,
		Events:  eventCount,
	}
	if h.index != nil {
		resp.IndexedSamples = h.index.Count()
		resp.IndexReady = !h.index.IsEmpty()
	}

	respondJSON(w, http.StatusOK, resp)
}
