package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "resolve", "records"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestResolveAndPrintRecords(t *testing.T) {
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	rec := models.NewRecord(models.ContentMovie)
	rec.Base().Name = "Kantara"
	rec.Base().MediaFiles = []models.MediaFile{{ID: "xyz", ChannelID: -1005, MessageID: 3}}
	id, err := db.UpsertRecord(rec)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, resolve(&out, db, "media-xyz", true))
	assert.Contains(t, out.String(), "Kantara")
	assert.Contains(t, out.String(), "https://t.me/c/5/3")

	stored, err := db.FindRecord(id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Base().Downloads)

	assert.Error(t, resolve(&out, db, "xyz", false))
	assert.ErrorIs(t, resolve(&out, db, "media-nope", false), models.ErrNotFound)

	records, err := db.ListRecords(models.CollectionMovies)
	require.NoError(t, err)

	out.Reset()
	printRecords(&out, records)
	assert.Contains(t, out.String(), id)

	out.Reset()
	printRecords(&out, filterUnpublished(nil))
	assert.Contains(t, out.String(), "No records")
}
