package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultPublishRetrySchedule runs the publish retry every 30 minutes
const DefaultPublishRetrySchedule = "*/30 * * * *"

// DefaultSettleTime is how long a record must stay untouched before the retry
// job publishes it. A finalize run publishes its own records in that window.
const DefaultSettleTime = 10 * time.Minute

// RecordStore lists and flags records awaiting publication
type RecordStore interface {
	ListUnpublished() ([]models.Record, error)
	FindRecord(id string) (models.Record, error)
	MarkPublished(id string) error
}

// Publisher announces persisted records
type Publisher interface {
	Enabled() bool
	Publish(ctx context.Context, rec models.Record) bool
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	store     RecordStore
	publisher Publisher
	logger    *logrus.Logger

	settle time.Duration
	now    func() time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(schedule string, store RecordStore, publisher Publisher, logger *logrus.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultPublishRetrySchedule
	}
	return &Scheduler{
		cron:      cron.New(),
		schedule:  schedule,
		store:     store,
		publisher: publisher,
		logger:    logger,
		settle:    DefaultSettleTime,
		now:       time.Now,
	}
}

// Start starts the scheduler. Nothing is scheduled when publishing is disabled.
func (s *Scheduler) Start() error {
	if !s.publisher.Enabled() {
		s.logger.Info("Publishing disabled, scheduler not started")
		return nil
	}

	s.logger.Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunPublishRetry(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to add publish retry job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("schedule", s.schedule).Info("Scheduler started")

	// Catch up on anything left over from the previous run
	go s.RunPublishRetry(context.Background())

	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunPublishRetry publishes every saved record whose publication failed.
// It returns how many were attempted and how many succeeded.
func (s *Scheduler) RunPublishRetry(ctx context.Context) (attempted, published int) {
	records, err := s.store.ListUnpublished()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list unpublished records")
		return 0, 0
	}

	if len(records) == 0 {
		s.logger.Debug("No unpublished records")
		return 0, 0
	}

	s.logger.WithField("count", len(records)).Info("Retrying publication")

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		id := rec.Base().ID
		current, ok := s.due(id)
		if !ok {
			continue
		}
		attempted++

		if !s.publisher.Publish(ctx, current) {
			s.logger.WithField("record_id", id).Warn("Publish retry failed")
			continue
		}
		if err := s.store.MarkPublished(id); err != nil {
			s.logger.WithError(err).WithField("record_id", id).Error("Failed to mark record published")
			continue
		}
		published++
	}

	s.logger.WithFields(logrus.Fields{
		"attempted": attempted,
		"published": published,
	}).Info("Publish retry completed")

	return attempted, published
}

// due re-reads a record right before publishing. Records published since the
// listing, or written too recently, are left to the finalize run that owns them.
func (s *Scheduler) due(id string) (models.Record, bool) {
	rec, err := s.store.FindRecord(id)
	if err != nil {
		s.logger.WithError(err).WithField("record_id", id).Warn("Skipping record that cannot be read")
		return nil, false
	}
	base := rec.Base()
	if base.Published {
		return nil, false
	}
	if s.now().Sub(base.UpdatedAt) < s.settle {
		s.logger.WithField("record_id", id).Debug("Record updated recently, leaving it for the next run")
		return nil, false
	}
	return rec, true
}
