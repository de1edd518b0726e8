package handlers

import (
	"net/http"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/sirupsen/logrus"
)

// StatsSource reports catalog counts
type StatsSource interface {
	GetStats() (*models.Stats, error)
}

// StatusHandler handles status requests
type StatusHandler struct {
	db       StatsSource
	sessions func() int
	logger   *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db StatsSource, sessions func() int, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:       db,
		sessions: sessions,
		logger:   logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalRecords   int            `json:"total_records"`
	RecordsByType  map[string]int `json:"records_by_type"`
	Unpublished    int            `json:"unpublished"`
	IndexedPosts   int            `json:"indexed_posts"`
	ActiveSessions int            `json:"active_sessions"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get stats")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := StatusResponse{
		TotalRecords: stats.Movies + stats.Series + stats.Shows,
		RecordsByType: map[string]int{
			string(models.CollectionMovies): stats.Movies,
			string(models.CollectionSeries): stats.Series,
			string(models.CollectionShows):  stats.Shows,
		},
		Unpublished:    stats.Unpublished,
		IndexedPosts:   stats.ChannelMessages,
		ActiveSessions: h.sessions(),
	}

	writeJSON(w, http.StatusOK, response)
}
