package blogger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/amaumene/catalogarr/internal/config"
	"github.com/amaumene/catalogarr/internal/models"
	"github.com/amaumene/catalogarr/internal/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func intPtr(i int) *int { return &i }
func strPtr(s string) *string { return &s }

func testRecord() *models.MovieRecord {
	return &models.MovieRecord{
		CatalogRecord: models.CatalogRecord{
			ID:       "movies:KGF:2022",
			Type:     models.ContentMovie,
			Name:     "KGF",
			Year:     intPtr(2022),
			Language: strPtr("Kannada Dubbed"),
			IsDubbed: true,
			Genre:    []string{"Action", "Drama", "Action"},
			Actors:   []string{"Yash", "Srinidhi", "Sanjay"},
			MediaFiles: []models.MediaFile{
				{ID: "abc", Quality: models.Quality1080P, Size: "2.0 GiB", Season: 1, Episode: 1},
			},
		},
		Director: strPtr("Prashanth Neel"),
	}
}

type postedBody struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Labels  []string `json:"labels"`
}

func newTestPublisher(t *testing.T, handler http.HandlerFunc) *Publisher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{BloggerBlogID: "123", BloggerAPIKey: "key", BotUsername: "catalog_bot"}
	p, err := NewPublisher(context.Background(), cfg, utils.NewDiscardLogger(),
		option.WithEndpoint(srv.URL+"/blogger/v3/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	p.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return p
}

func TestPublish_Success(t *testing.T) {
	var got postedBody
	p := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/blogs/123/posts"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","url":"https://blog.example/kgf"}`))
	})

	assert.True(t, p.Enabled())
	assert.True(t, p.Publish(context.Background(), testRecord()))

	assert.Equal(t, "KGF (2022) Dubbed Movies Download", got.Title)
	assert.Equal(t, []string{"Movies", "2022", "Dubbed", "Action", "Drama", "Yash", "Srinidhi"}, got.Labels)
	assert.Contains(t, got.Content, "https://t.me/catalog_bot?start=media-abc")
	assert.Contains(t, got.Content, "Prashanth Neel")
}

func TestPublish_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	p := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":{"code":503,"message":"unavailable"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1"}`))
	})

	assert.True(t, p.Publish(context.Background(), testRecord()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestPublish_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	p := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})

	assert.False(t, p.Publish(context.Background(), testRecord()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestPublish_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	p := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	assert.False(t, p.Publish(context.Background(), testRecord()))
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestPublisher_DisabledWithoutBlog(t *testing.T) {
	p, err := NewPublisher(context.Background(), &config.Config{BotUsername: "b"}, utils.NewDiscardLogger())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.False(t, p.Publish(context.Background(), testRecord()))
}

func TestTitleAndLabels(t *testing.T) {
	series := &models.CatalogRecord{Name: "Dark", Type: models.ContentWebSeries}
	assert.Equal(t, "Dark (N/A) Web Series Download", Title(series))
	assert.Equal(t, []string{"Web Series"}, Labels(series))

	withBlanks := &models.CatalogRecord{
		Name:   "X",
		Type:   models.ContentShow,
		Year:   intPtr(2020),
		Genre:  []string{"", "Shows"},
		Actors: []string{" "},
	}
	assert.Equal(t, []string{"Shows", "2020"}, Labels(withBlanks))
}

func TestRenderContent_SeriesButtonsInEpisodeOrder(t *testing.T) {
	p := &Publisher{botUsername: "catalog_bot"}
	rec := &models.ShowRecord{SeriesRecord: models.SeriesRecord{
		CatalogRecord: models.CatalogRecord{
			Name: "Bigg Boss",
			Type: models.ContentShow,
			MediaFiles: []models.MediaFile{
				{ID: "e2", Season: 1, Episode: 2, Quality: models.Quality720P},
				{ID: "e1", Season: 1, Episode: 1, Quality: models.Quality720P},
			},
		},
		TotalSeasons:  1,
		TotalEpisodes: 2,
	}}

	content, err := p.renderContent(rec)
	require.NoError(t, err)

	first := strings.Index(content, "S01E01")
	second := strings.Index(content, "S01E02")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.Less(t, strings.Index(content, "media-e1"), strings.Index(content, "media-e2"))
	assert.Contains(t, content, "1 (2 episodes)")
}
