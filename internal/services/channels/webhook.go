package channels

import (
	"fmt"
	"time"

	"github.com/amaumene/catalogarr/internal/models"
)

// SecretTokenHeader carries the secret set when registering the webhook
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Update represents the subset of a Telegram Bot API update the index needs
type Update struct {
	UpdateID          int      `json:"update_id"`
	ChannelPost       *Message `json:"channel_post"`
	EditedChannelPost *Message `json:"edited_channel_post"`
}

// Message is a channel post
type Message struct {
	MessageID int    `json:"message_id"`
	Date      int64  `json:"date"`
	Chat      Chat   `json:"chat"`
	Caption   string `json:"caption"`
	Video     *File  `json:"video"`
	Document  *File  `json:"document"`
}

// Chat identifies the channel a post belongs to
type Chat struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// File is a video or document attachment
type File struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// Post returns the channel post carried by the update, new or edited
func (u *Update) Post() *Message {
	if u.ChannelPost != nil {
		return u.ChannelPost
	}
	return u.EditedChannelPost
}

// Edited reports whether the update carries an edited post
func (u *Update) Edited() bool {
	return u.ChannelPost == nil && u.EditedChannelPost != nil
}

// ToChannelMessage converts a post carrying a file into an index entry.
// Posts without a video or document are rejected.
func (m *Message) ToChannelMessage() (*models.ChannelMessage, error) {
	var file *File
	var kind models.FileKind

	switch {
	case m.Video != nil:
		file, kind = m.Video, models.FileKindVideo
	case m.Document != nil:
		file, kind = m.Document, models.FileKindDocument
	default:
		return nil, fmt.Errorf("message %d in chat %d carries no file", m.MessageID, m.Chat.ID)
	}

	return &models.ChannelMessage{
		ChannelID: m.Chat.ID,
		MessageID: m.MessageID,
		FileName:  file.FileName,
		Caption:   m.Caption,
		Size:      file.FileSize,
		Kind:      kind,
		PostedAt:  time.Unix(m.Date, 0).UTC(),
	}, nil
}
