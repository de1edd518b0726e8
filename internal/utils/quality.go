package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/dustin/go-humanize"
)

// qualityTier pairs a tier with the pattern that detects it
type qualityTier struct {
	quality models.Quality
	pattern *regexp.Regexp
}

// tierPattern matches any keyword as a whole token: neighbours must not be
// letters or digits, so "1080p" matches in "Movie.1080p.mkv" but "hd" does not
// match inside "hdcam". A space in a keyword also matches ".", "_", "-" or nothing.
func tierPattern(keywords ...string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(k), " ", `[\s._-]?`)
	}
	return regexp.MustCompile(`(?:^|[^a-z0-9])(?:` + strings.Join(quoted, "|") + `)(?:$|[^a-z0-9])`)
}

// qualityTiers is ordered by precedence; the first tier that matches wins
var qualityTiers = []qualityTier{
	{models.Quality4K, tierPattern("4k", "2160p", "2160", "4320p", "uhd", "ultra hd")},
	{models.Quality1080P, tierPattern("1080p", "1080", "fhd", "full hd", "fullhd")},
	{models.Quality720P, tierPattern("720p", "720", "hd", "hd rip", "hd tv")},
	{models.Quality480P, tierPattern("480p", "480")},
	{models.Quality360P, tierPattern("360p", "360")},
}

// DetermineQuality detects the quality tier from a filename and caption.
// Nothing detected yields QualityHD rather than an error.
func DetermineQuality(fileName, caption string) models.Quality {
	text := strings.ToLower(fileName + " " + caption)

	for _, tier := range qualityTiers {
		if tier.pattern.MatchString(text) {
			return tier.quality
		}
	}

	return models.QualityHD
}

// Season/episode patterns. Markers must not follow a letter so that words
// like "bus1" or "hevc" cannot pose as s1/e1.
var (
	combinedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:^|[^a-z])s(\d{1,3})[\s._-]?e(\d{1,4})`),
		regexp.MustCompile(`season[\s._-]*(\d{1,3})[\s._-]*episode[\s._-]*(\d{1,4})`),
	}
	seasonPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:^|[^a-z])s(\d{1,3})(?:$|[^0-9])`),
		regexp.MustCompile(`season[\s._-]*(\d{1,3})(?:$|[^0-9])`),
		regexp.MustCompile(`series[\s._-]*(\d{1,3})(?:$|[^0-9])`),
	}
	episodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:^|[^a-z])e(\d{1,4})(?:$|[^0-9])`),
		regexp.MustCompile(`(?:^|[^a-z])ep[\s._-]*(\d{1,4})`),
		regexp.MustCompile(`episode[\s._-]*(\d{1,4})`),
	}
)

// ExtractSeasonEpisode derives season and episode numbers from a filename
// and caption. A combined marker (S02E05, "season 2 episode 5") wins; otherwise
// season and episode are looked up independently. Unresolved values are 1.
func ExtractSeasonEpisode(fileName, caption string) (season, episode int) {
	text := strings.ToLower(fileName + " " + caption)

	for _, re := range combinedPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return atoiOr(m[1], 1), atoiOr(m[2], 1)
		}
	}

	return firstNumber(seasonPatterns, text), firstNumber(episodePatterns, text)
}

func firstNumber(patterns []*regexp.Regexp, text string) int {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return atoiOr(m[1], 1)
		}
	}
	return 1
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// FormatSize renders a byte count the way channel files are usually labelled
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}
