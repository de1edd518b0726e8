package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineQuality(t *testing.T) {
	tests := []struct {
		fileName string
		caption  string
		want     models.Quality
	}{
		{"Movie.2160p.1080p.mkv", "", models.Quality4K},
		{"Movie.1080p.2160p.mkv", "", models.Quality4K},
		{"KGF.Chapter.2.720p.mkv", "", models.Quality720P},
		{"Kantara.mkv", "Kantara FHD print", models.Quality1080P},
		{"Kantara_Full_HD.mp4", "", models.Quality1080P},
		{"Movie UHD.mkv", "", models.Quality4K},
		{"old.movie.480p.avi", "", models.Quality480P},
		{"tiny.360p.mp4", "", models.Quality360P},
		{"Movie.HD.mkv", "", models.Quality720P},
		{"Movie.HDRip.mkv", "", models.Quality720P},
		{"Show.S01.HD-TV.mkv", "", models.Quality720P},
		{"Movie.2160p.HDR.mkv", "", models.Quality4K},
		{"Movie.HDCAM.mkv", "", models.QualityHD},
		{"no_quality_here.mkv", "just a caption", models.QualityHD},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineQuality(tt.fileName, tt.caption))
		})
	}
}

func TestExtractSeasonEpisode(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		caption     string
		wantSeason  int
		wantEpisode int
	}{
		{"no markers", "Kantara.2022.1080p.mkv", "Kantara full movie", 1, 1},
		{"combined", "", "S02E05", 2, 5},
		{"combined lower with dots", "show.s03.e10.720p.mkv", "", 3, 10},
		{"combined words", "", "Season 4 Episode 12", 4, 12},
		{"episode only", "", "Episode 7", 1, 7},
		{"ep only", "show.ep_09.mkv", "", 1, 9},
		{"season only", "Show.S02.Complete.mkv", "", 2, 1},
		{"season word only", "", "Season 3", 3, 1},
		{"series word", "", "Series 2 pack", 2, 1},
		{"codec is not an episode", "show.x265.hevc.mkv", "", 1, 1},
		{"combined in caption", "show.mkv", "Watch S1E2 now", 1, 2},
		{"year after series is not a season", "Kannada Web Series 2023 E05.mkv", "", 1, 5},
		{"year after dotted series", "Show.Series.2023.mkv", "", 1, 1},
		{"year after season", "", "Season 2021 special", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			season, episode := ExtractSeasonEpisode(tt.fileName, tt.caption)
			assert.Equal(t, tt.wantSeason, season)
			assert.Equal(t, tt.wantEpisode, episode)
		})
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "1.0 KiB", FormatSize(1024))
	assert.Equal(t, "1.5 GiB", FormatSize(1610612736))
}

func TestBlacklist(t *testing.T) {
	b := NewBlacklist("Sample", "  ", "# comment", "trailer")
	assert.Equal(t, 2, b.Len())

	hit := models.SearchHit{FileName: "KGF.SAMPLE.mkv"}
	blocked, term := b.Match(hit)
	assert.True(t, blocked)
	assert.Equal(t, "sample", term)

	blocked, _ = b.Match(models.SearchHit{FileName: "KGF.mkv", Caption: "Official Trailer"})
	assert.True(t, blocked)

	blocked, _ = b.Match(models.SearchHit{FileName: "KGF.mkv"})
	assert.False(t, blocked)

	var empty *Blacklist
	blocked, _ = empty.Match(hit)
	assert.False(t, blocked)
}

func TestLoadBlacklist(t *testing.T) {
	dir := t.TempDir()

	b, err := LoadBlacklist(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())

	path := filepath.Join(dir, "blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("sample\n# skip\n\nteaser\n"), 0600))

	b, err = LoadBlacklist(path)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
}
