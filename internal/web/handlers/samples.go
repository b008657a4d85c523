package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/landmark"
)

// SamplesHandler handles enrollment sample endpoints.
type SamplesHandler struct {
	store     gallery.Store
	snapshot  *gallery.Snapshot
	index     *gallery.SignatureIndex
	validator *validator.Validate
	log       *logrus.Logger
}

// NewSamplesHandler creates a new samples handler.
func NewSamplesHandler(store gallery.Store, snapshot *gallery.Snapshot, index *gallery.SignatureIndex, v *validator.Validate, log *logrus.Logger) *SamplesHandler {
	return &SamplesHandler{
		store:     store,
		snapshot:  snapshot,
		index:     index,
		validator: v,
		log:       log,
	}
}

// EnrollSampleRequest carries one landmark sample for an enrolled person.
// An empty SampleID gets a generated UUID.
type EnrollSampleRequest struct {
	SampleID  string            `json:"sample_id" validate:"omitempty,max=64,excludes=/"`
	Landmarks landmark.Set      `json:"landmarks"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (h *SamplesHandler) invalidate() {
	if h.snapshot != nil {
		h.snapshot.Invalidate()
	}
}

// Create stores a landmark sample under an existing person.
func (h *SamplesHandler) Create(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")

	var req EnrollSampleRequest
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
	if req.SampleID == "" {
		req.SampleID = uuid.NewString()
	}

	e := gallery.Entry{
		PersonID:  personID,
		SampleID:  req.SampleID,
		Landmarks: req.Landmarks,
		Metadata:  req.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.SaveEntry(r.Context(), e); err != nil {
		if errors.Is(err, gallery.ErrPersonNotFound) {
			respondError(w, http.StatusNotFound, "person not found")
			return
		}
		h.log.WithError(err).WithField("person", sanitizeForLog(personID)).Error("failed to save sample")
		respondError(w, http.StatusInternalServerError, "failed to save sample")
		return
	}

	if h.index != nil {
		h.index.Add(e)
	}
	h.invalidate()

	respondJSON(w, http.StatusCreated, sampleToSummary(e))
}

// Delete removes one sample.
func (h *SamplesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")
	sampleID := chi.URLParam(r, "sid")

	if err := h.store.DeleteEntry(r.Context(), personID, sampleID); err != nil {
		if errors.Is(err, gallery.ErrPersonNotFound) {
			respondError(w, http.StatusNotFound, "person not found")
			return
		}
		if errors.Is(err, gallery.ErrSampleNotFound) {
			respondError(w, http.StatusNotFound, "sample not found")
			return
		}
		h.log.WithError(err).Error("failed to delete sample")
		respondError(w, http.StatusInternalServerError, "failed to delete sample")
		return
	}

	if h.index != nil {
		h.index.Remove(personID, sampleID)
	}
	h.invalidate()

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
