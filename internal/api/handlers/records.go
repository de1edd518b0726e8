package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// RecordStore reads catalog records and updates their counters
type RecordStore interface {
	FindRecord(id string) (models.Record, error)
	IncrementCounter(id string, counter models.Counter) error
	AddRating(id string, value int) error
}

// RecordsHandler serves catalog records to the public site
type RecordsHandler struct {
	db     RecordStore
	logger *logrus.Logger
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(db RecordStore, logger *logrus.Logger) *RecordsHandler {
	return &RecordsHandler{db: db, logger: logger}
}

// RecordResponse is the public view of a record
type RecordResponse struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Name          string   `json:"name"`
	Year          *int     `json:"year"`
	Language      *string  `json:"language"`
	IsDubbed      bool     `json:"is_dubbed"`
	Genre         []string `json:"genre"`
	Actors        []string `json:"actors"`
	MediaIDs      []string `json:"media_ids"`
	Views         int      `json:"views"`
	Downloads     int      `json:"downloads"`
	Ratings       int      `json:"ratings"`
	AverageRating float64  `json:"average_rating"`
	Published     bool     `json:"published"`
}

func newRecordResponse(rec models.Record) RecordResponse {
	base := rec.Base()
	resp := RecordResponse{
		ID:        base.ID,
		Type:      string(base.Type),
		Name:      base.Name,
		Year:      base.Year,
		Language:  base.Language,
		IsDubbed:  base.IsDubbed,
		Genre:     base.Genre,
		Actors:    base.Actors,
		Views:     base.Views,
		Downloads: base.Downloads,
		Ratings:   base.Ratings,
		Published: base.Published,
	}
	for _, f := range base.MediaFiles {
		resp.MediaIDs = append(resp.MediaIDs, f.ID)
	}
	if base.Ratings > 0 {
		resp.AverageRating = float64(base.RatingTotal) / float64(base.Ratings)
	}
	return resp
}

// Get handles GET /records/{id}. Every read counts as a view.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.db.IncrementCounter(id, models.CounterViews); err != nil {
		h.writeStoreError(w, err, id)
		return
	}

	rec, err := h.db.FindRecord(id)
	if err != nil {
		h.writeStoreError(w, err, id)
		return
	}

	writeJSON(w, http.StatusOK, newRecordResponse(rec))
}

// RatingRequest carries a single rating
type RatingRequest struct {
	Value int `json:"value"`
}

// Rate handles POST /records/{id}/ratings
func (h *RecordsHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.db.AddRating(id, req.Value); err != nil {
		if errors.Is(err, models.ErrInvalidRating) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeStoreError(w, err, id)
		return
	}

	rec, err := h.db.FindRecord(id)
	if err != nil {
		h.writeStoreError(w, err, id)
		return
	}

	writeJSON(w, http.StatusOK, newRecordResponse(rec))
}

func (h *RecordsHandler) writeStoreError(w http.ResponseWriter, err error, id string) {
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	h.logger.WithError(err).WithField("record_id", id).Error("Record store failure")
	writeError(w, http.StatusInternalServerError, "internal server error")
}
