package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is a persisted catalog entry of any content type
type Record interface {
	Base() *CatalogRecord
	Collection() Collection
}

// CatalogRecord holds the fields shared by every content type
type CatalogRecord struct {
	ID   string `boltholdKey:"ID"`
	Type ContentType

	Name               string
	OriginalSearchName string
	Year               *int
	Language           *string
	IsDubbed           bool
	Genre              []string
	Actors             []string
	PosterURL          *string
	Description        *string

	MediaFiles []MediaFile

	// Counters
	Views       int
	Downloads   int
	Ratings     int
	RatingTotal int

	// Publishing
	Published   bool
	PublishedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Base returns the shared part of the record
func (r *CatalogRecord) Base() *CatalogRecord { return r }

// YearLabel renders the year or "N/A"
func (r *CatalogRecord) YearLabel() string {
	if r.Year == nil {
		return "N/A"
	}
	return strconv.Itoa(*r.Year)
}

// MovieRecord is stored in the movies collection
type MovieRecord struct {
	CatalogRecord
	Director *string
}

// Collection implements Record
func (r *MovieRecord) Collection() Collection { return CollectionMovies }

// SeriesRecord is stored in the series collection (web and tv series)
type SeriesRecord struct {
	CatalogRecord
	TotalSeasons  int
	TotalEpisodes int
}

// Collection implements Record
func (r *SeriesRecord) Collection() Collection { return CollectionSeries }

// ShowRecord is stored in the shows collection
type ShowRecord struct {
	SeriesRecord
}

// Collection implements Record
func (r *ShowRecord) Collection() Collection { return CollectionShows }

// NewRecord returns an empty record of the variant for the content type
func NewRecord(ct ContentType) Record {
	switch ct.Collection() {
	case CollectionSeries:
		return &SeriesRecord{CatalogRecord: CatalogRecord{Type: ct}}
	case CollectionShows:
		return &ShowRecord{SeriesRecord{CatalogRecord: CatalogRecord{Type: ct}}}
	default:
		return &MovieRecord{CatalogRecord: CatalogRecord{Type: ct}}
	}
}

// RecordID builds the upsert key of a record: collection, exact name and year
func RecordID(c Collection, name string, year *int) string {
	y := 0
	if year != nil {
		y = *year
	}
	return fmt.Sprintf("%s:%s:%d", c, name, y)
}

// SplitRecordID returns the collection part of a record ID
func SplitRecordID(id string) (Collection, error) {
	prefix, _, ok := strings.Cut(id, ":")
	if !ok {
		return "", fmt.Errorf("malformed record id %q: %w", id, ErrNotFound)
	}
	c, err := ParseCollection(prefix)
	if err != nil {
		return "", fmt.Errorf("record id %q: %w", id, ErrNotFound)
	}
	return c, nil
}

// EpisodeGroup lists the files of one episode
type EpisodeGroup struct {
	Season  int
	Episode int
	Files   []MediaFile
}

// EpisodesBySeason groups media files by season and episode, in order
func (r *SeriesRecord) EpisodesBySeason() []EpisodeGroup {
	index := make(map[[2]int]int)
	var groups []EpisodeGroup
	for _, f := range r.MediaFiles {
		key := [2]int{f.Season, f.Episode}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, EpisodeGroup{Season: f.Season, Episode: f.Episode})
		}
		groups[i].Files = append(groups[i].Files, f)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Season != groups[j].Season {
			return groups[i].Season < groups[j].Season
		}
		return groups[i].Episode < groups[j].Episode
	})
	return groups
}
