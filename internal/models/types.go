package models

import (
	"fmt"
	"strings"
)

// ContentType represents the kind of title being ingested
type ContentType string

const (
	ContentMovie     ContentType = "movies"
	ContentWebSeries ContentType = "webseries"
	ContentTVSeries  ContentType = "tvseries"
	ContentShow      ContentType = "shows"
)

// ParseContentType validates a content type string
func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(strings.ToLower(strings.TrimSpace(s))); ct {
	case ContentMovie, ContentWebSeries, ContentTVSeries, ContentShow:
		return ct, nil
	default:
		return "", fmt.Errorf("unknown content type %q", s)
	}
}

// IsSeries reports whether the type carries season/episode data
func (c ContentType) IsSeries() bool {
	return c != ContentMovie
}

// Collection returns the catalog collection the type is stored in
func (c ContentType) Collection() Collection {
	switch c {
	case ContentWebSeries, ContentTVSeries:
		return CollectionSeries
	case ContentShow:
		return CollectionShows
	default:
		return CollectionMovies
	}
}

// Label is the human form used in blog titles and labels
func (c ContentType) Label() string {
	switch c {
	case ContentWebSeries:
		return "web series"
	case ContentTVSeries:
		return "tv series"
	default:
		return string(c)
	}
}

// Collection identifies one of the three typed catalog collections
type Collection string

const (
	CollectionMovies Collection = "movies"
	CollectionSeries Collection = "series"
	CollectionShows  Collection = "shows"
)

// ParseCollection validates a collection name
func ParseCollection(s string) (Collection, error) {
	switch c := Collection(strings.ToLower(strings.TrimSpace(s))); c {
	case CollectionMovies, CollectionSeries, CollectionShows:
		return c, nil
	default:
		return "", fmt.Errorf("unknown collection %q", s)
	}
}

// Quality represents the resolution tier of a media file
type Quality string

const (
	Quality4K    Quality = "4K"
	Quality1080P Quality = "1080P"
	Quality720P  Quality = "720P"
	Quality480P  Quality = "480P"
	Quality360P  Quality = "360P"
	QualityHD    Quality = "HD" // fallback when nothing is detected
)

// FileKind tells whether a channel post carried a video or a document
type FileKind string

const (
	FileKindVideo    FileKind = "video"
	FileKindDocument FileKind = "document"
)

// Counter names a record counter that can be incremented
type Counter string

const (
	CounterViews     Counter = "views"
	CounterDownloads Counter = "downloads"
	CounterRatings   Counter = "ratings"
)
