package models

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func movie(name string, year *int, director string, files ...MediaFile) *MovieRecord {
	rec := NewRecord(ContentMovie).(*MovieRecord)
	rec.Name = name
	rec.Year = year
	rec.Director = strPtr(director)
	rec.MediaFiles = files
	return rec
}

func TestUpsertRecord_SameNameAndYearOverwrites(t *testing.T) {
	db := openTestDB(t)

	first := movie("KGF", intPtr(2018), "Prashanth Neel", MediaFile{ID: "a", ChannelID: -1001, MessageID: 10})
	id1, err := db.UpsertRecord(first)
	require.NoError(t, err)

	require.NoError(t, db.IncrementCounter(id1, CounterViews))

	second := movie("KGF", intPtr(2018), "P. Neel", MediaFile{ID: "b", ChannelID: -1001, MessageID: 11})
	id2, err := db.UpsertRecord(second)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	records, err := db.ListRecords(CollectionMovies)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0].(*MovieRecord)
	assert.Equal(t, "P. Neel", *got.Director)
	require.Len(t, got.MediaFiles, 1)
	assert.Equal(t, "b", got.MediaFiles[0].ID)
	assert.Equal(t, 1, got.Views, "counters survive an overwrite")
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUpsertRecord_DifferentYearIsDistinct(t *testing.T) {
	db := openTestDB(t)

	_, err := db.UpsertRecord(movie("Drishyam", intPtr(2013), "x"))
	require.NoError(t, err)
	_, err = db.UpsertRecord(movie("Drishyam", intPtr(2015), "y"))
	require.NoError(t, err)
	_, err = db.UpsertRecord(movie("Drishyam", nil, "z"))
	require.NoError(t, err)

	records, err := db.ListRecords(CollectionMovies)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestUpsertRecord_SeriesAndShowsUseOwnCollections(t *testing.T) {
	db := openTestDB(t)

	series := NewRecord(ContentWebSeries).(*SeriesRecord)
	series.Name = "Humble Politician Nograj"
	series.TotalSeasons = 1
	seriesID, err := db.UpsertRecord(series)
	require.NoError(t, err)

	show := NewRecord(ContentShow).(*ShowRecord)
	show.Name = "Bigg Boss"
	show.TotalSeasons = 10
	showID, err := db.UpsertRecord(show)
	require.NoError(t, err)

	got, err := db.FindRecord(seriesID)
	require.NoError(t, err)
	assert.Equal(t, CollectionSeries, got.Collection())

	got, err = db.FindRecord(showID)
	require.NoError(t, err)
	require.IsType(t, &ShowRecord{}, got)
	assert.Equal(t, 10, got.(*ShowRecord).TotalSeasons)

	movies, err := db.ListRecords(CollectionMovies)
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestFindRecord_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.FindRecord(RecordID(CollectionMovies, "Missing", nil))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.FindRecord("no-collection")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncrementCounter(t *testing.T) {
	db := openTestDB(t)

	id, err := db.UpsertRecord(movie("Kantara", intPtr(2022), "Rishab Shetty"))
	require.NoError(t, err)

	require.NoError(t, db.IncrementCounter(id, CounterDownloads))
	require.NoError(t, db.IncrementCounter(id, CounterDownloads))
	require.NoError(t, db.IncrementCounter(id, CounterViews))
	assert.Error(t, db.IncrementCounter(id, Counter("likes")))
	assert.ErrorIs(t, db.IncrementCounter(RecordID(CollectionMovies, "Nope", nil), CounterViews), ErrNotFound)

	rec, err := db.FindRecord(id)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Base().Downloads)
	assert.Equal(t, 1, rec.Base().Views)
}

func TestAddRating(t *testing.T) {
	db := openTestDB(t)

	id, err := db.UpsertRecord(movie("RRR", intPtr(2022), "Rajamouli"))
	require.NoError(t, err)

	require.NoError(t, db.AddRating(id, 3))
	require.NoError(t, db.AddRating(id, 5))
	assert.ErrorIs(t, db.AddRating(id, 0), ErrInvalidRating)
	assert.ErrorIs(t, db.AddRating(id, 6), ErrInvalidRating)
	assert.ErrorIs(t, db.AddRating(RecordID(CollectionMovies, "Nope", nil), 4), ErrNotFound)

	rec, err := db.FindRecord(id)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Base().Ratings)
	assert.Equal(t, 8, rec.Base().RatingTotal)
}

func TestResolveMediaLink_SurvivesOverwrite(t *testing.T) {
	db := openTestDB(t)

	_, err := db.UpsertRecord(movie("RRR", intPtr(2022), "Rajamouli", MediaFile{ID: "old", ChannelID: -1002, MessageID: 5}))
	require.NoError(t, err)
	_, err = db.UpsertRecord(movie("RRR", intPtr(2022), "Rajamouli", MediaFile{ID: "new", ChannelID: -1002, MessageID: 6}))
	require.NoError(t, err)

	link, err := db.ResolveMediaLink("old")
	require.NoError(t, err)
	assert.Equal(t, int64(-1002), link.ChannelID)
	assert.Equal(t, 5, link.MessageID)

	link, err = db.ResolveMediaLink("new")
	require.NoError(t, err)
	assert.Equal(t, 6, link.MessageID)

	_, err = db.ResolveMediaLink("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindNearDuplicates(t *testing.T) {
	db := openTestDB(t)

	_, err := db.UpsertRecord(movie("Kantara", intPtr(2022), ""))
	require.NoError(t, err)
	_, err = db.UpsertRecord(movie("Kanthara", intPtr(2021), ""))
	require.NoError(t, err)

	names, err := db.FindNearDuplicates(CollectionMovies, "Kanthara", intPtr(2022))
	require.NoError(t, err)
	assert.Equal(t, []string{"Kantara"}, names)

	names, err = db.FindNearDuplicates(CollectionMovies, "Kantara", intPtr(2022))
	require.NoError(t, err)
	assert.Empty(t, names, "exact match is the upsert key, not a near duplicate")
}

func TestMarkPublished(t *testing.T) {
	db := openTestDB(t)

	id, err := db.UpsertRecord(movie("Bell Bottom", intPtr(2019), ""))
	require.NoError(t, err)

	pending, err := db.ListUnpublished()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, db.MarkPublished(id))

	pending, err = db.ListUnpublished()
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Overwriting a published record keeps it published
	_, err = db.UpsertRecord(movie("Bell Bottom", intPtr(2019), "Ranjit Tiwari"))
	require.NoError(t, err)

	rec, err := db.FindRecord(id)
	require.NoError(t, err)
	assert.True(t, rec.Base().Published)
	assert.NotNil(t, rec.Base().PublishedAt)
	assert.Equal(t, "Ranjit Tiwari", *rec.(*MovieRecord).Director)

	pending, err = db.ListUnpublished()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSearchChannel(t *testing.T) {
	db := openTestDB(t)

	for i := 1; i <= 60; i++ {
		require.NoError(t, db.IndexChannelMessage(&ChannelMessage{
			ChannelID: -1001,
			MessageID: i,
			FileName:  fmt.Sprintf("KGF.Chapter.%d.720p.mkv", i),
			Kind:      FileKindVideo,
		}))
	}
	require.NoError(t, db.IndexChannelMessage(&ChannelMessage{
		ChannelID: -1001, MessageID: 100, FileName: "other.mkv", Caption: "Kantara 1080p",
	}))
	require.NoError(t, db.IndexChannelMessage(&ChannelMessage{
		ChannelID: -1002, MessageID: 1, FileName: "kgf.mkv",
	}))

	msgs, err := db.SearchChannel(-1001, "kgf", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 50)
	assert.Equal(t, 60, msgs[0].MessageID, "newest first")

	msgs, err = db.SearchChannel(-1001, "KANTARA", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, 100, msgs[0].MessageID)

	msgs, err = db.SearchChannel(-1003, "kgf", 50)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, db.DeleteChannelMessage(-1002, 1))
	msgs, err = db.SearchChannel(-1002, "kgf", 50)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)

	_, err := db.UpsertRecord(movie("A", nil, ""))
	require.NoError(t, err)
	require.NoError(t, db.IndexChannelMessage(&ChannelMessage{ChannelID: 1, MessageID: 1, FileName: "a"}))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Movies)
	assert.Equal(t, 0, stats.Series)
	assert.Equal(t, 1, stats.Unpublished)
	assert.Equal(t, 1, stats.ChannelMessages)
}
