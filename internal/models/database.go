package models

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when a record, link or message does not exist
var ErrNotFound = errors.New("not found")

// ErrInvalidRating is returned for ratings outside 1-5
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// NearDuplicateDistance is the largest edit distance reported as a near duplicate
const NearDuplicateDistance = 2

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

func notFound(err error, what string) error {
	if errors.Is(err, bolthold.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// emptyRecord returns a zero record of the variant stored in a collection
func emptyRecord(c Collection) Record {
	switch c {
	case CollectionSeries:
		return &SeriesRecord{}
	case CollectionShows:
		return &ShowRecord{}
	default:
		return &MovieRecord{}
	}
}

// Catalog operations

// UpsertRecord inserts or overwrites a record keyed by collection, name and year.
// The record and the links for its media files are written in one transaction.
// Counters, publish state and the creation time of an existing record are
// carried over.
func (db *Database) UpsertRecord(rec Record) (string, error) {
	base := rec.Base()
	base.ID = RecordID(rec.Collection(), base.Name, base.Year)
	now := time.Now()

	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		existing := emptyRecord(rec.Collection())
		err := db.store.TxGet(tx, base.ID, existing)
		switch {
		case err == nil:
			old := existing.Base()
			base.CreatedAt = old.CreatedAt
			base.Views = old.Views
			base.Downloads = old.Downloads
			base.Ratings = old.Ratings
			base.RatingTotal = old.RatingTotal
			base.Published = old.Published
			base.PublishedAt = old.PublishedAt
		case errors.Is(err, bolthold.ErrNotFound):
			base.CreatedAt = now
		default:
			return fmt.Errorf("failed to read existing record: %w", err)
		}
		base.UpdatedAt = now

		if err := db.store.TxUpsert(tx, base.ID, rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}

		for _, f := range base.MediaFiles {
			link := &MediaLink{
				ID:        f.ID,
				RecordID:  base.ID,
				ChannelID: f.ChannelID,
				MessageID: f.MessageID,
			}
			if err := db.store.TxUpsert(tx, f.ID, link); err != nil {
				return fmt.Errorf("failed to write media link: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return base.ID, nil
}

// FindRecord retrieves a record by ID
func (db *Database) FindRecord(id string) (Record, error) {
	c, err := SplitRecordID(id)
	if err != nil {
		return nil, err
	}

	rec := emptyRecord(c)
	if err := db.store.Get(id, rec); err != nil {
		return nil, notFound(err, "record "+id)
	}
	return rec, nil
}

// IncrementCounter adds one to a record counter
func (db *Database) IncrementCounter(id string, counter Counter) error {
	c, err := SplitRecordID(id)
	if err != nil {
		return err
	}

	return db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		rec := emptyRecord(c)
		if err := db.store.TxGet(tx, id, rec); err != nil {
			return notFound(err, "record "+id)
		}

		base := rec.Base()
		switch counter {
		case CounterViews:
			base.Views++
		case CounterDownloads:
			base.Downloads++
		case CounterRatings:
			base.Ratings++
		default:
			return fmt.Errorf("unknown counter %q", counter)
		}

		return db.store.TxUpdate(tx, id, rec)
	})
}

// AddRating records one rating value (1-5) on a record
func (db *Database) AddRating(id string, value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("rating %d: %w", value, ErrInvalidRating)
	}
	c, err := SplitRecordID(id)
	if err != nil {
		return err
	}

	return db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		rec := emptyRecord(c)
		if err := db.store.TxGet(tx, id, rec); err != nil {
			return notFound(err, "record "+id)
		}
		base := rec.Base()
		base.Ratings++
		base.RatingTotal += value
		return db.store.TxUpdate(tx, id, rec)
	})
}

// ListRecords retrieves all records of a collection, newest first
func (db *Database) ListRecords(c Collection) ([]Record, error) {
	var records []Record

	switch c {
	case CollectionMovies:
		var rows []*MovieRecord
		if err := db.store.Find(&rows, nil); err != nil {
			return nil, err
		}
		for _, r := range rows {
			records = append(records, r)
		}
	case CollectionSeries:
		var rows []*SeriesRecord
		if err := db.store.Find(&rows, nil); err != nil {
			return nil, err
		}
		for _, r := range rows {
			records = append(records, r)
		}
	case CollectionShows:
		var rows []*ShowRecord
		if err := db.store.Find(&rows, nil); err != nil {
			return nil, err
		}
		for _, r := range rows {
			records = append(records, r)
		}
	default:
		return nil, fmt.Errorf("unknown collection %q", c)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Base().UpdatedAt.After(records[j].Base().UpdatedAt)
	})
	return records, nil
}

// ListUnpublished retrieves records of every collection that were never published
func (db *Database) ListUnpublished() ([]Record, error) {
	var pending []Record
	for _, c := range []Collection{CollectionMovies, CollectionSeries, CollectionShows} {
		records, err := db.ListRecords(c)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", c, err)
		}
		for _, r := range records {
			if !r.Base().Published {
				pending = append(pending, r)
			}
		}
	}
	return pending, nil
}

// MarkPublished flags a record as published
func (db *Database) MarkPublished(id string) error {
	c, err := SplitRecordID(id)
	if err != nil {
		return err
	}

	return db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		rec := emptyRecord(c)
		if err := db.store.TxGet(tx, id, rec); err != nil {
			return notFound(err, "record "+id)
		}
		now := time.Now()
		rec.Base().Published = true
		rec.Base().PublishedAt = &now
		return db.store.TxUpdate(tx, id, rec)
	})
}

// FindNearDuplicates returns names in the collection that share the year and
// are within NearDuplicateDistance edits of name without being equal to it.
func (db *Database) FindNearDuplicates(c Collection, name string, year *int) ([]string, error) {
	records, err := db.ListRecords(c)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, r := range records {
		base := r.Base()
		if base.Name == name || !sameYear(base.Year, year) {
			continue
		}
		if levenshtein.ComputeDistance(base.Name, name) <= NearDuplicateDistance {
			names = append(names, base.Name)
		}
	}
	return names, nil
}

func sameYear(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Deep link operations

// ResolveMediaLink maps an issued media identifier to its source post
func (db *Database) ResolveMediaLink(id string) (*MediaLink, error) {
	var link MediaLink
	if err := db.store.Get(id, &link); err != nil {
		return nil, notFound(err, "media "+id)
	}
	return &link, nil
}

// Channel index operations

// IndexChannelMessage stores or refreshes a channel post
func (db *Database) IndexChannelMessage(msg *ChannelMessage) error {
	msg.Key = ChannelMessageKey(msg.ChannelID, msg.MessageID)
	msg.SearchText = msg.FileName + " " + msg.Caption
	msg.IndexedAt = time.Now()
	return db.store.Upsert(msg.Key, msg)
}

// DeleteChannelMessage removes a post from the index
func (db *Database) DeleteChannelMessage(channelID int64, messageID int) error {
	key := ChannelMessageKey(channelID, messageID)
	if err := db.store.Delete(key, &ChannelMessage{}); err != nil {
		return notFound(err, "message "+key)
	}
	return nil
}

// SearchChannel returns up to limit posts of a channel whose filename or
// caption contains term case-insensitively, newest first.
func (db *Database) SearchChannel(channelID int64, term string, limit int) ([]*ChannelMessage, error) {
	pattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(term))
	if err != nil {
		return nil, fmt.Errorf("invalid search term: %w", err)
	}

	query := bolthold.Where("ChannelID").Eq(channelID).Index("ChannelID").
		And("SearchText").RegExp(pattern).
		SortBy("MessageID").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var msgs []*ChannelMessage
	if err := db.store.Find(&msgs, query); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Stats summarizes the catalog contents
type Stats struct {
	Movies          int
	Series          int
	Shows           int
	Unpublished     int
	ChannelMessages int
}

// GetStats counts records and indexed posts
func (db *Database) GetStats() (*Stats, error) {
	stats := &Stats{}
	for _, c := range []Collection{CollectionMovies, CollectionSeries, CollectionShows} {
		records, err := db.ListRecords(c)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if !r.Base().Published {
				stats.Unpublished++
			}
		}
		switch c {
		case CollectionMovies:
			stats.Movies = len(records)
		case CollectionSeries:
			stats.Series = len(records)
		case CollectionShows:
			stats.Shows = len(records)
		}
	}

	var msgs []*ChannelMessage
	if err := db.store.Find(&msgs, nil); err != nil {
		return nil, err
	}
	stats.ChannelMessages = len(msgs)

	return stats, nil
}
