package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amaumene/catalogarr/internal/metrics"
	"github.com/amaumene/catalogarr/internal/models"
	"github.com/amaumene/catalogarr/internal/services/channels"
	"github.com/sirupsen/logrus"
)

// ChannelIndex stores channel posts for later search
type ChannelIndex interface {
	IndexChannelMessage(msg *models.ChannelMessage) error
	DeleteChannelMessage(channelID int64, messageID int) error
}

// WebhookHandler handles Telegram channel post updates
type WebhookHandler struct {
	index    ChannelIndex
	secret   string
	channels map[int64]bool
	logger   *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler. Posts from channels
// outside channelIDs are ignored.
func NewWebhookHandler(index ChannelIndex, secret string, channelIDs []int64, logger *logrus.Logger) *WebhookHandler {
	allowed := make(map[int64]bool, len(channelIDs))
	for _, id := range channelIDs {
		allowed[id] = true
	}
	return &WebhookHandler{
		index:    index,
		secret:   secret,
		channels: allowed,
		logger:   logger,
	}
}

// ServeHTTP handles the webhook endpoint. Telegram retries any non-2xx
// answer, so updates that are not indexed still get 200.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(channels.SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.WithField("remote_addr", r.RemoteAddr).Warn("Rejected webhook with bad secret token")
			writeError(w, http.StatusUnauthorized, "invalid secret token")
			return
		}
	}

	var update channels.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.WithError(err).Error("Failed to decode webhook payload")
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	post := update.Post()
	if post == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	logger := h.logger.WithFields(logrus.Fields{
		"update_id":  update.UpdateID,
		"channel_id": post.Chat.ID,
		"message_id": post.MessageID,
	})

	if !h.channels[post.Chat.ID] {
		logger.Debug("Ignoring post from unconfigured channel")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	msg, err := post.ToChannelMessage()
	if err != nil {
		// An edit that dropped the file takes the post out of search
		if update.Edited() {
			err := h.index.DeleteChannelMessage(post.Chat.ID, post.MessageID)
			if errors.Is(err, models.ErrNotFound) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
				return
			}
			if err != nil {
				logger.WithError(err).Error("Failed to remove channel post from index")
				writeError(w, http.StatusInternalServerError, "failed to update index")
				return
			}
			logger.Info("Removed channel post from index")
			writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
			return
		}
		logger.Debug("Ignoring post without a file")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := h.index.IndexChannelMessage(msg); err != nil {
		logger.WithError(err).Error("Failed to index channel post")
		writeError(w, http.StatusInternalServerError, "failed to index post")
		return
	}
	metrics.IndexedPosts.Inc()

	logger.WithField("file_name", msg.FileName).Info("Indexed channel post")
	writeJSON(w, http.StatusOK, map[string]string{"status": "indexed"})
}
