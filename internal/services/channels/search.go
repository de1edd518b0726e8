package channels

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amaumene/catalogarr/internal/config"
	"github.com/amaumene/catalogarr/internal/metrics"
	"github.com/amaumene/catalogarr/internal/models"
	"github.com/amaumene/catalogarr/internal/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

const (
	defaultLimit   = 50
	defaultTimeout = 20 * time.Second
)

// Source queries one content channel for posts matching a term
type Source interface {
	SearchChannel(channelID int64, term string, limit int) ([]*models.ChannelMessage, error)
}

// Searcher wraps the configured channel set
type Searcher struct {
	source    Source
	channels  []int64
	limit     int
	timeout   time.Duration
	blacklist *utils.Blacklist
	logger    *logrus.Logger
}

// NewSearcher creates a new channel searcher
func NewSearcher(cfg *config.Config, source Source, blacklist *utils.Blacklist, logger *logrus.Logger) (*Searcher, error) {
	if len(cfg.ChannelIDs) == 0 {
		return nil, fmt.Errorf("at least one channel is required")
	}

	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = defaultLimit
	}
	timeout := time.Duration(cfg.SearchTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Searcher{
		source:    source,
		channels:  cfg.ChannelIDs,
		limit:     limit,
		timeout:   timeout,
		blacklist: blacklist,
		logger:    logger,
	}, nil
}

// Search looks up term in every configured channel and returns the matching
// files, in channel order. A channel that fails or times out is logged and
// contributes no hits; it never fails the whole search.
func (s *Searcher) Search(ctx context.Context, term string) []models.SearchHit {
	ctx, span := otel.Tracer("catalogarr/channels").Start(ctx, "channels.Search")
	defer span.End()
	span.SetAttributes(attribute.String("term", term), attribute.Int("channels", len(s.channels)))

	perChannel := make([][]models.SearchHit, len(s.channels))

	// Each goroutine owns its slot, so the group never returns an error
	var g errgroup.Group
	for i, channelID := range s.channels {
		i, channelID := i, channelID
		g.Go(func() error {
			hits, err := s.searchChannel(ctx, channelID, term)
			if err != nil {
				metrics.ChannelErrors.Inc()
				s.logger.WithError(err).WithFields(logrus.Fields{
					"channel_id": channelID,
					"term":       term,
				}).Warn("Channel search failed")
				return nil
			}
			perChannel[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	var hits []models.SearchHit
	for _, h := range perChannel {
		hits = append(hits, h...)
	}

	metrics.Searches.Inc()
	metrics.SearchHits.Observe(float64(len(hits)))
	span.SetAttributes(attribute.Int("hits", len(hits)))

	s.logger.WithFields(logrus.Fields{
		"term": term,
		"hits": len(hits),
	}).Info("Search completed")

	return hits
}

type channelResult struct {
	msgs []*models.ChannelMessage
	err  error
}

// searchChannel runs one bounded channel query under the per-channel timeout
func (s *Searcher) searchChannel(ctx context.Context, channelID int64, term string) ([]models.SearchHit, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan channelResult, 1)
	go func() {
		msgs, err := s.source.SearchChannel(channelID, term, s.limit)
		done <- channelResult{msgs: msgs, err: err}
	}()

	var res channelResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("channel %d: %w", channelID, ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("channel %d: %w", channelID, res.err)
	}

	return s.convertResults(channelID, term, res.msgs), nil
}

// convertResults filters channel posts down to file hits containing term
func (s *Searcher) convertResults(channelID int64, term string, msgs []*models.ChannelMessage) []models.SearchHit {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(term))

	hits := make([]models.SearchHit, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Kind != models.FileKindVideo && msg.Kind != models.FileKindDocument {
			continue
		}
		if !strings.Contains(fold.String(msg.FileName), needle) && !strings.Contains(fold.String(msg.Caption), needle) {
			continue
		}

		hit := models.SearchHit{
			MessageID: msg.MessageID,
			ChannelID: channelID,
			FileName:  msg.FileName,
			Caption:   msg.Caption,
			Size:      msg.Size,
			SizeLabel: utils.FormatSize(msg.Size),
			Quality:   utils.DetermineQuality(msg.FileName, msg.Caption),
			Kind:      msg.Kind,
			Link:      models.ChannelLink(channelID, msg.MessageID),
		}

		if blocked, matched := s.blacklist.Match(hit); blocked {
			s.logger.WithFields(logrus.Fields{
				"file_name": hit.FileName,
				"term":      matched,
			}).Debug("Hit blacklisted")
			continue
		}

		hits = append(hits, hit)
	}

	return hits
}
