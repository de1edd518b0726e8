package handlers

import (
	"errors"
	"net/http"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// MediaStore resolves issued media identifiers
type MediaStore interface {
	ResolveMediaLink(id string) (*models.MediaLink, error)
	IncrementCounter(id string, counter models.Counter) error
}

// MediaHandler resolves media-<id> deep links back to their source post
type MediaHandler struct {
	db     MediaStore
	logger *logrus.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(db MediaStore, logger *logrus.Logger) *MediaHandler {
	return &MediaHandler{db: db, logger: logger}
}

// MediaResponse locates the source post of a media file
type MediaResponse struct {
	MediaID    string `json:"media_id"`
	RecordID   string `json:"record_id"`
	ChannelID  int64  `json:"channel_id"`
	MessageID  int    `json:"message_id"`
	SourceLink string `json:"source_link"`
}

// ServeHTTP handles GET /media/{deepLink}. A resolved link counts as a download.
func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseDeepLink(chi.URLParam(r, "deepLink"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	link, err := h.db.ResolveMediaLink(id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "media not found")
			return
		}
		h.logger.WithError(err).WithField("media_id", id).Error("Failed to resolve media link")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.db.IncrementCounter(link.RecordID, models.CounterDownloads); err != nil {
		h.logger.WithError(err).WithField("record_id", link.RecordID).Warn("Failed to count download")
	}

	writeJSON(w, http.StatusOK, MediaResponse{
		MediaID:    link.ID,
		RecordID:   link.RecordID,
		ChannelID:  link.ChannelID,
		MessageID:  link.MessageID,
		SourceLink: models.ChannelLink(link.ChannelID, link.MessageID),
	})
}
