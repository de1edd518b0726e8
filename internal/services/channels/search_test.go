package channels

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/amaumene/catalogarr/internal/config"
	"github.com/amaumene/catalogarr/internal/models"
	"github.com/amaumene/catalogarr/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	byChannel map[int64][]*models.ChannelMessage
	failing   map[int64]error
	slow      map[int64]time.Duration
	limits    []int
}

func (f *fakeSource) SearchChannel(channelID int64, term string, limit int) ([]*models.ChannelMessage, error) {
	f.limits = append(f.limits, limit)
	if d, ok := f.slow[channelID]; ok {
		time.Sleep(d)
	}
	if err, ok := f.failing[channelID]; ok {
		return nil, err
	}
	return f.byChannel[channelID], nil
}

func newTestSearcher(t *testing.T, src Source, channels ...int64) *Searcher {
	t.Helper()
	cfg := &config.Config{ChannelIDs: channels, SearchLimit: 50, SearchTimeoutSeconds: 1}
	s, err := NewSearcher(cfg, src, utils.NewBlacklist("sample"), utils.NewDiscardLogger())
	require.NoError(t, err)
	return s
}

func TestSearch_FiltersAndConverts(t *testing.T) {
	src := &fakeSource{byChannel: map[int64][]*models.ChannelMessage{
		-1001: {
			{MessageID: 3, FileName: "KGF.Chapter.2.2160p.mkv", Size: 4 << 30, Kind: models.FileKindVideo},
			{MessageID: 2, FileName: "random.mkv", Caption: "kgf 720p", Kind: models.FileKindDocument},
			{MessageID: 1, FileName: "other.mkv", Caption: "unrelated", Kind: models.FileKindVideo},
			{MessageID: 4, FileName: "KGF.sample.mkv", Kind: models.FileKindVideo},
		},
	}}
	s := newTestSearcher(t, src, -1001)

	hits := s.Search(context.Background(), "KGF")
	require.Len(t, hits, 2)

	assert.Equal(t, 3, hits[0].MessageID)
	assert.Equal(t, int64(-1001), hits[0].ChannelID)
	assert.Equal(t, models.Quality4K, hits[0].Quality)
	assert.Equal(t, "4.0 GiB", hits[0].SizeLabel)
	assert.Equal(t, "https://t.me/c/1001/3", hits[0].Link)

	assert.Equal(t, models.Quality720P, hits[1].Quality)
	assert.Equal(t, models.FileKindDocument, hits[1].Kind)

	assert.Equal(t, []int{50}, src.limits)
}

func TestSearch_ChannelFailureIsIsolated(t *testing.T) {
	src := &fakeSource{
		byChannel: map[int64][]*models.ChannelMessage{
			-1002: {{MessageID: 9, FileName: "Kantara.mkv", Kind: models.FileKindVideo}},
		},
		failing: map[int64]error{-1001: errors.New("CHANNEL_PRIVATE")},
	}
	s := newTestSearcher(t, src, -1001, -1002)

	hits := s.Search(context.Background(), "kantara")
	require.Len(t, hits, 1)
	assert.Equal(t, int64(-1002), hits[0].ChannelID)
}

func TestSearch_ChannelTimeoutIsIsolated(t *testing.T) {
	src := &fakeSource{
		byChannel: map[int64][]*models.ChannelMessage{
			-1001: {{MessageID: 1, FileName: "RRR.mkv", Kind: models.FileKindVideo}},
			-1002: {{MessageID: 2, FileName: "RRR.1080p.mkv", Kind: models.FileKindVideo}},
		},
		slow: map[int64]time.Duration{-1001: 1500 * time.Millisecond},
	}
	s := newTestSearcher(t, src, -1001, -1002)

	hits := s.Search(context.Background(), "rrr")
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].MessageID)
}

func TestSearch_NoHitsIsNotAnError(t *testing.T) {
	s := newTestSearcher(t, &fakeSource{}, -1001, -1002)
	assert.Empty(t, s.Search(context.Background(), "nothing"))
}

func TestNewSearcher_RequiresChannels(t *testing.T) {
	_, err := NewSearcher(&config.Config{}, &fakeSource{}, nil, utils.NewDiscardLogger())
	assert.Error(t, err)
}

func TestUpdateParsing(t *testing.T) {
	payload := `{
		"update_id": 1,
		"channel_post": {
			"message_id": 77,
			"date": 1700000000,
			"chat": {"id": -1001234, "title": "Movies", "type": "channel"},
			"caption": "KGF 2 1080p",
			"video": {"file_id": "x", "file_name": "KGF2.mkv", "file_size": 1024}
		}
	}`

	var update Update
	require.NoError(t, json.Unmarshal([]byte(payload), &update))

	post := update.Post()
	require.NotNil(t, post)

	msg, err := post.ToChannelMessage()
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234), msg.ChannelID)
	assert.Equal(t, 77, msg.MessageID)
	assert.Equal(t, "KGF2.mkv", msg.FileName)
	assert.Equal(t, models.FileKindVideo, msg.Kind)
	assert.Equal(t, int64(1024), msg.Size)

	textOnly := &Message{MessageID: 1, Chat: Chat{ID: -1}}
	_, err = textOnly.ToChannelMessage()
	assert.Error(t, err)

	assert.Nil(t, (&Update{}).Post())
}
