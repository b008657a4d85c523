package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/gallery"
)

// PersonsHandler handles enrollment roster endpoints.
type PersonsHandler struct {
	store     gallery.Store
	snapshot  *gallery.Snapshot
	index     *gallery.SignatureIndex
	validator *validator.Validate
	log       *logrus.Logger
}

// NewPersonsHandler creates a new persons handler.
func NewPersonsHandler(store gallery.Store, snapshot *gallery.Snapshot, index *gallery.SignatureIndex, v *validator.Validate, log *logrus.Logger) *PersonsHandler {
	return &PersonsHandler{
		store:     store,
		snapshot:  snapshot,
		index:     index,
		validator: v,
		log:       log,
	}
}

// CreatePersonRequest represents an enrollment request for a new person.
// IDs appear in index keys and URL paths, so the separator is rejected here.
type CreatePersonRequest struct {
	ID          string `json:"id" validate:"required,max=64,excludes=/"`
	DisplayName string `json:"display_name" validate:"required,max=128"`
}

// SampleSummary describes one enrolled sample without the full landmark set.
type SampleSummary struct {
	SampleID   string            `json:"sample_id"`
	SourceTag  string            `json:"source_tag,omitempty"`
	Quality    float64           `json:"quality,omitempty"`
	KeyPoints  int               `json:"key_points"`
	MeshPoints int               `json:"mesh_points"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func sampleToSummary(e gallery.Entry) SampleSummary {
	return SampleSummary{
		SampleID:   e.SampleID,
		SourceTag:  e.Landmarks.SourceTag,
		Quality:    e.Landmarks.Quality,
		KeyPoints:  len(e.Landmarks.KeyPoints),
		MeshPoints: len(e.Landmarks.MeshPoints),
		Metadata:   e.Metadata,
		CreatedAt:  e.CreatedAt,
	}
}

// PersonDetail is a person record together with their enrolled samples.
type PersonDetail struct {
	gallery.Person
	Samples []SampleSummary `json:"samples"`
}

// invalidate drops the cached gallery view after a write.
func (h *PersonsHandler) invalidate() {
	if h.snapshot != nil {
		h.snapshot.Invalidate()
	}
}

// List returns all enrolled persons.
func (h *PersonsHandler) List(w http.ResponseWriter, r *http.Request) {
	persons, err := h.store.ListPersons(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to list persons")
		respondError(w, http.StatusInternalServerError, "failed to list persons")
		return
	}

	respondJSON(w, http.StatusOK, persons)
}

// Create enrolls a new person record.
func (h *PersonsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	now := time.Now().UTC()
	p := gallery.Person{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.UpsertPerson(r.Context(), p); err != nil {
		h.log.WithError(err).WithField("person", sanitizeForLog(req.ID)).Error("failed to save person")
		respondError(w, http.StatusInternalServerError, "failed to save person")
		return
	}
	h.invalidate()

	respondJSON(w, http.StatusCreated, p)
}

// Get returns a single person with their enrolled samples.
func (h *PersonsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	person, err := h.store.GetPerson(r.Context(), id)
	if errors.Is(err, gallery.ErrPersonNotFound) {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("failed to load person")
		respondError(w, http.StatusInternalServerError, "failed to load person")
		return
	}

	entries, err := h.store.EntriesByPerson(r.Context(), id)
	if err != nil && !errors.Is(err, gallery.ErrPersonNotFound) {
		h.log.WithError(err).Error("failed to load samples")
		respondError(w, http.StatusInternalServerError, "failed to load samples")
		return
	}

	detail := PersonDetail{
		Person:  *person,
		Samples: make([]SampleSummary, 0, len(entries)),
	}
	for _, e := range entries {
		detail.Samples = append(detail.Samples, sampleToSummary(e))
	}

	respondJSON(w, http.StatusOK, detail)
}

// Delete removes a person and all of their samples.
func (h *PersonsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Samples are listed first so the index entries can be dropped after the
	// store delete succeeds.
	entries, err := h.store.EntriesByPerson(r.Context(), id)
	if errors.Is(err, gallery.ErrPersonNotFound) {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("failed to load samples")
		respondError(w, http.StatusInternalServerError, "failed to delete person")
		return
	}

	if err := h.store.DeletePerson(r.Context(), id); err != nil {
		if errors.Is(err, gallery.ErrPersonNotFound) {
			respondError(w, http.StatusNotFound, "person not found")
			return
		}
		h.log.WithError(err).Error("failed to delete person")
		respondError(w, http.StatusInternalServerError, "failed to delete person")
		return
	}

	if h.index != nil {
		for _, e := range entries {
			h.index.Remove(e.PersonID, e.SampleID)
		}
	}
	h.invalidate()

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
