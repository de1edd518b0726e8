package controllers

import (
	"context"
	"fmt"

	"github.com/amaumene/catalogarr/internal/metrics"
	"github.com/amaumene/catalogarr/internal/models"
	"github.com/amaumene/catalogarr/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ItemResult is the outcome of one finalized name
type ItemResult struct {
	Name      string   `json:"name"`
	RecordID  string   `json:"record_id,omitempty"`
	Saved     bool     `json:"saved"`
	Published bool     `json:"published"`
	Error     string   `json:"error,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// FinalizeSummary aggregates the outcome of a batch
type FinalizeSummary struct {
	Saved          int `json:"saved"`
	Failed         int `json:"failed"`
	Unavailable    int `json:"unavailable"`
	Published      int `json:"published"`
	PublishFailed  int `json:"publish_failed"`
	PublishSkipped int `json:"publish_skipped"`

	Items              []ItemResult      `json:"items"`
	UnavailableNames   []string          `json:"unavailable_names"`
	UnavailableReasons map[string]string `json:"unavailable_reasons"`

	// Cancelled is set when the operator cancelled while items were still
	// being saved; items after that point were not attempted.
	Cancelled bool `json:"cancelled,omitempty"`
}

type finalizeItem struct {
	name    string
	hits    []models.SearchHit
	details ItemDetails
}

// finalize persists and publishes every collected item, one at a time. A
// failure only affects its own item. Callers move the session to Finalizing
// and pass the generation they saw; the session returns to Idle afterwards
// unless it was cancelled in the meantime.
func (e *Engine) finalize(ctx context.Context, s *Session, gen uint64) (*Reply, error) {
	s.mu.Lock()
	if s.generation != gen || s.Step != StepFinalizing {
		s.mu.Unlock()
		return &Reply{Step: StepIdle, Stale: true}, nil
	}
	ct := s.ContentType
	operatorID := s.OperatorID

	items := make([]finalizeItem, 0, len(s.DetailNames))
	for _, name := range s.DetailNames {
		items = append(items, finalizeItem{
			name:    name,
			hits:    s.Selections[name],
			details: *s.Details[name],
		})
	}

	summary := &FinalizeSummary{
		Unavailable:        len(s.Unavailable),
		UnavailableNames:   append([]string(nil), s.Unavailable...),
		UnavailableReasons: make(map[string]string, len(s.Unavailable)),
	}
	for _, name := range s.Unavailable {
		summary.UnavailableReasons[name] = s.unavailableReasons[name]
	}
	s.mu.Unlock()

	ctx, span := otel.Tracer("catalogarr/controllers").Start(ctx, "controllers.finalize")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("operator_id", operatorID),
		attribute.Int("items", len(items)),
	)

	metrics.FinalizedItems.WithLabelValues("unavailable").Add(float64(summary.Unavailable))

	for _, item := range items {
		if e.cancelled(s, gen) {
			summary.Cancelled = true
			break
		}
		summary.Items = append(summary.Items, e.finalizeItem(ctx, ct, item, summary))
	}

	s.mu.Lock()
	if s.generation == gen {
		s.reset()
	}
	s.mu.Unlock()

	span.SetAttributes(
		attribute.Int("saved", summary.Saved),
		attribute.Int("failed", summary.Failed),
	)
	e.logger.WithFields(logrus.Fields{
		"operator_id":     operatorID,
		"saved":           summary.Saved,
		"failed":          summary.Failed,
		"unavailable":     summary.Unavailable,
		"published":       summary.Published,
		"publish_failed":  summary.PublishFailed,
		"publish_skipped": summary.PublishSkipped,
		"cancelled":       summary.Cancelled,
	}).Info("Batch finalized")

	return &Reply{Step: StepIdle, Summary: summary}, nil
}

func (e *Engine) cancelled(s *Session, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation != gen
}

// finalizeItem saves and publishes one item and updates the summary counts
func (e *Engine) finalizeItem(ctx context.Context, ct models.ContentType, item finalizeItem, summary *FinalizeSummary) ItemResult {
	rec := BuildRecord(ct, item.name, item.details, item.hits)
	base := rec.Base()
	result := ItemResult{Name: item.name}

	logger := e.logger.WithFields(logrus.Fields{
		"name":  item.name,
		"title": base.Name,
	})

	dupes, err := e.store.FindNearDuplicates(rec.Collection(), base.Name, base.Year)
	if err != nil {
		logger.WithError(err).Warn("Near-duplicate check failed")
	}
	for _, d := range dupes {
		result.Warnings = append(result.Warnings, fmt.Sprintf("similar title already in catalog: %q", d))
	}

	id, err := e.store.UpsertRecord(rec)
	if err != nil {
		summary.Failed++
		metrics.FinalizedItems.WithLabelValues("failed").Inc()
		result.Error = err.Error()
		logger.WithError(err).Error("Failed to save record")
		return result
	}
	summary.Saved++
	metrics.FinalizedItems.WithLabelValues("saved").Inc()
	result.Saved = true
	result.RecordID = id
	logger.WithField("record_id", id).Info("Record saved")

	if !e.publisher.Enabled() {
		summary.PublishSkipped++
		return result
	}
	if !e.publisher.Publish(ctx, rec) {
		summary.PublishFailed++
		result.Warnings = append(result.Warnings, "publish failed, will be retried")
		return result
	}

	summary.Published++
	result.Published = true
	if err := e.store.MarkPublished(id); err != nil {
		logger.WithError(err).WithField("record_id", id).Warn("Failed to mark record published")
	}
	return result
}

// BuildRecord assembles the catalog record for one name from its collected
// details and selected hits. Every media file gets a fresh identifier.
func BuildRecord(ct models.ContentType, searchName string, d ItemDetails, hits []models.SearchHit) models.Record {
	rec := models.NewRecord(ct)
	base := rec.Base()

	base.Name = searchName
	if d.Name != nil {
		base.Name = *d.Name
	}
	base.OriginalSearchName = searchName
	base.Year = d.Year
	base.Language = d.Language
	base.IsDubbed = d.IsDubbed
	base.Genre = d.Genre
	base.Actors = d.Actors
	base.PosterURL = d.PosterURL
	base.Description = d.Description

	for _, hit := range hits {
		season, episode := 1, 1
		if ct.IsSeries() {
			season, episode = utils.ExtractSeasonEpisode(hit.FileName, hit.Caption)
		}
		base.MediaFiles = append(base.MediaFiles, models.MediaFile{
			ID:         uuid.NewString(),
			ChannelID:  hit.ChannelID,
			MessageID:  hit.MessageID,
			FileName:   hit.FileName,
			Caption:    hit.Caption,
			Quality:    hit.Quality,
			Size:       hit.SizeLabel,
			SourceLink: hit.Link,
			Season:     season,
			Episode:    episode,
		})
	}

	switch r := rec.(type) {
	case *models.MovieRecord:
		r.Director = d.Director
	case *models.SeriesRecord:
		r.TotalSeasons, r.TotalEpisodes = atLeastOne(d.Seasons), atLeastOne(d.Episodes)
	case *models.ShowRecord:
		r.TotalSeasons, r.TotalEpisodes = atLeastOne(d.Seasons), atLeastOne(d.Episodes)
	}

	return rec
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
