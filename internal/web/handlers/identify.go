package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/attendance"
	"github.com/vbartonek/face-attendance/internal/landmark"
)

// IdentifyHandler handles probe matching and check-in endpoints.
type IdentifyHandler struct {
	service   *attendance.Service
	validator *validator.Validate
	log       *logrus.Logger
}

// NewIdentifyHandler creates a new identify handler.
func NewIdentifyHandler(service *attendance.Service, v *validator.Validate, log *logrus.Logger) *IdentifyHandler {
	return &IdentifyHandler{
		service:   service,
		validator: v,
		log:       log,
	}
}

// IdentifyRequest carries one probe landmark set.
type IdentifyRequest struct {
	Landmarks landmark.Set `json:"landmarks"`
}

// CheckInRequest carries a probe plus the capture source.
type CheckInRequest struct {
	Landmarks landmark.Set `json:"landmarks"`
	Source    string       `json:"source" validate:"omitempty,max=64"`
}

// Identify scores a probe against the gallery without recording an event.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req IdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Landmarks.IsEmpty() {
		respondError(w, http.StatusBadRequest, "missing landmarks")
		return
	}

	outcome, err := h.service.Identify(r.Context(), req.Landmarks)
	if err != nil {
		h.log.WithError(err).Error("identify request failed")
		respondError(w, http.StatusInternalServerError, "failed to score probe")
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}

// CheckIn scores a probe and records an attendance event when it is accepted.
func (h *IdentifyHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if req.Landmarks.IsEmpty() {
		respondError(w, http.StatusBadRequest, "missing landmarks")
		return
	}

	result, err := h.service.CheckIn(r.Context(), req.Landmarks, req.Source)
	if err != nil {
		h.log.WithError(err).Error("check-in request failed")
		respondError(w, http.StatusInternalServerError, "failed to record check-in")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
