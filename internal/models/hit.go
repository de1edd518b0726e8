package models

import (
	"strconv"
	"strings"
	"time"
)

// SearchHit is a candidate media file found in a content channel.
// Hits are immutable once captured.
type SearchHit struct {
	MessageID int
	ChannelID int64
	FileName  string
	Caption   string
	Size      int64 // bytes
	SizeLabel string
	Quality   Quality
	Kind      FileKind
	Link      string
}

// ChannelMessage is an indexed channel post carrying a file
type ChannelMessage struct {
	Key       string `boltholdKey:"Key"`
	ChannelID int64  `boltholdIndex:"ChannelID"`
	MessageID int
	FileName  string
	Caption   string
	Size      int64
	Kind      FileKind

	// SearchText is FileName and Caption joined, used for coarse matching
	SearchText string

	PostedAt  time.Time
	IndexedAt time.Time
}

// ChannelMessageKey builds the index key for a channel post
func ChannelMessageKey(channelID int64, messageID int) string {
	return strconv.FormatInt(channelID, 10) + ":" + strconv.Itoa(messageID)
}

// ChannelLink builds the t.me link for a post in a private channel.
// Channel IDs carry a -100 prefix that is not part of the public link.
func ChannelLink(channelID int64, messageID int) string {
	id := strings.TrimPrefix(strconv.FormatInt(channelID, 10), "-100")
	return "https://t.me/c/" + id + "/" + strconv.Itoa(messageID)
}
