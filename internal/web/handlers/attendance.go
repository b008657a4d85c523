package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/attendance"
)

// defaultEventLimit bounds unfiltered event listings.
const defaultEventLimit = 100

// AttendanceHandler serves the recorded check-in events.
type AttendanceHandler struct {
	events attendance.EventStore
	log    *logrus.Logger
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(events attendance.EventStore, log *logrus.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		events: events,
		log:    log,
	}
}

// List returns check-in events, newest first. Supported query parameters are
// person, since, until (RFC 3339, until exclusive) and limit.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	f := attendance.EventFilter{
		PersonID: r.URL.Query().Get("person"),
		Limit:    defaultEventLimit,
	}

	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid since timestamp")
			return
		}
		f.Since = t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid until timestamp")
			return
		}
		f.Until = t
	}
	if limit, _ := strconv.Atoi(r.URL.Query().Get("limit")); limit > 0 {
		f.Limit = limit
	}

	events, err := h.events.ListEvents(r.Context(), f)
	if err != nil {
		h.log.WithError(err).Error("failed to list events")
		respondError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}
