package models

import (
	"errors"
	"strings"
)

// DeepLinkPrefix marks an externally resolvable media identifier
const DeepLinkPrefix = "media-"

// MediaFile is one downloadable file attached to a catalog record
type MediaFile struct {
	// ID is minted at finalize and is what deep links carry.
	// It is deliberately unrelated to the source message ID.
	ID string

	// Source post, used to re-deliver the file
	ChannelID int64
	MessageID int

	FileName   string
	Caption    string
	Quality    Quality
	Size       string
	SourceLink string

	Season  int // 1 when unknown
	Episode int // 1 when unknown
}

// DeepLink returns the external identifier for the file
func (m MediaFile) DeepLink() string {
	return DeepLinkPrefix + m.ID
}

// MediaLink maps an issued media identifier back to its source post.
// Links are never deleted so that issued identifiers stay resolvable.
type MediaLink struct {
	ID        string `boltholdKey:"ID"`
	RecordID  string `boltholdIndex:"RecordID"`
	ChannelID int64
	MessageID int
}

// ErrInvalidDeepLink is returned for identifiers without the media- prefix
var ErrInvalidDeepLink = errors.New("invalid media deep link")

// ParseDeepLink extracts the media identifier from "media-<id>"
func ParseDeepLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if !strings.HasPrefix(link, DeepLinkPrefix) {
		return "", ErrInvalidDeepLink
	}
	id := strings.TrimPrefix(link, DeepLinkPrefix)
	if id == "" {
		return "", ErrInvalidDeepLink
	}
	return id, nil
}
