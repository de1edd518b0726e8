package controllers

import (
	"context"
	"strings"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ParseNames splits operator input on commas, trims each name and drops
// empties and repeats, keeping first-seen order
func ParseNames(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, part := range strings.Split(text, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// SelectType starts a new ingestion for the given content type
func (e *Engine) SelectType(operatorID int64, ct models.ContentType) (*Reply, error) {
	ct, err := models.ParseContentType(string(ct))
	if err != nil {
		return nil, &ValidationError{Field: "content type", Reason: err.Error()}
	}

	s := e.sessions.Get(operatorID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepIdle {
		return nil, unexpected(s.Step, ActionSelectType)
	}
	s.ContentType = ct
	s.Step = StepAwaitingNames

	e.logger.WithFields(logrus.Fields{
		"operator_id":  operatorID,
		"content_type": ct,
	}).Info("Ingestion started")

	return &Reply{Step: s.Step}, nil
}

// SubmitNames parses the name list and searches for the first name. Names
// without hits are marked unavailable and skipped until one has hits or the
// queue is exhausted.
func (e *Engine) SubmitNames(ctx context.Context, operatorID int64, text string) (*Reply, error) {
	s := e.sessions.Get(operatorID)
	s.mu.Lock()
	if s.Step != StepAwaitingNames {
		step := s.Step
		s.mu.Unlock()
		return nil, unexpected(step, ActionSubmitNames)
	}

	names := ParseNames(text)
	if len(names) == 0 {
		s.mu.Unlock()
		return nil, ErrNoNames
	}
	s.NamesQueue = names
	s.NameCursor = 0
	s.Step = StepSearching
	gen := s.generation
	s.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"operator_id": operatorID,
		"count":       len(names),
	}).Info("Names queued")

	reply, err := e.advanceQueue(ctx, s, gen)
	if err != nil {
		return nil, err
	}
	reply.Accepted = &NamesAccepted{Count: len(names), Names: names}
	return reply, nil
}

// advanceQueue searches names from the cursor onward until one has hits or
// the queue runs out. Past the end of the queue it hands off to detail
// collection; calling it again in any other step only reports the current
// state. gen is the session generation the caller queued the work under; once
// it changes the loop stops without touching the session.
func (e *Engine) advanceQueue(ctx context.Context, s *Session, gen uint64) (*Reply, error) {
	for {
		s.mu.Lock()
		if s.generation != gen {
			s.mu.Unlock()
			return &Reply{Step: StepIdle, Stale: true}, nil
		}
		if s.Step != StepSearching {
			reply := s.replyLocked()
			s.mu.Unlock()
			return reply, nil
		}

		name, ok := s.currentName()
		if !ok {
			if s.beginDetailsLocked() {
				reply := s.replyLocked()
				s.mu.Unlock()
				return reply, nil
			}
			s.Step = StepFinalizing
			s.mu.Unlock()
			return e.finalize(ctx, s, gen)
		}

		searchCtx, cancel := context.WithCancel(ctx)
		s.inflight = cancel
		s.mu.Unlock()

		hits := e.search(searchCtx, name)
		cancel()

		s.mu.Lock()
		if s.generation != gen {
			s.mu.Unlock()
			e.logger.WithFields(logrus.Fields{
				"operator_id": s.OperatorID,
				"name":        name,
			}).Debug("Discarding search result for cancelled session")
			return &Reply{Step: StepIdle, Stale: true}, nil
		}
		s.inflight = nil

		if len(hits) == 0 {
			s.markUnavailable(name, ReasonNoHits)
			s.NameCursor++
			s.mu.Unlock()
			e.logger.WithFields(logrus.Fields{
				"operator_id": s.OperatorID,
				"name":        name,
			}).Info("No files found, marking unavailable")
			continue
		}

		s.SearchResults[name] = &ResultSet{Hits: hits, Removed: make(map[int]bool)}
		s.Step = StepVerifying
		s.TotalPages = totalPages(len(hits))
		s.Page = 0
		reply := s.replyLocked()
		s.mu.Unlock()
		return reply, nil
	}
}

func (e *Engine) search(ctx context.Context, name string) []models.SearchHit {
	ctx, span := otel.Tracer("catalogarr/controllers").Start(ctx, "controllers.search")
	defer span.End()
	span.SetAttributes(attribute.String("name", name))

	return e.searcher.Search(ctx, name)
}

// beginDetailsLocked moves to detail collection for every name with a
// non-empty selection. It reports false when there is nothing to collect.
func (s *Session) beginDetailsLocked() bool {
	s.DetailNames = nil
	for _, name := range s.NamesQueue {
		if len(s.Selections[name]) > 0 {
			s.DetailNames = append(s.DetailNames, name)
			s.Details[name] = &ItemDetails{}
		}
	}
	s.DetailCursor = 0
	s.FieldCursor = 0
	s.Page = 0
	s.TotalPages = 0
	s.Step = StepCollectingDetails
	return len(s.DetailNames) > 0
}

// replyLocked renders the view for the current step
func (s *Session) replyLocked() *Reply {
	reply := &Reply{Step: s.Step}
	switch s.Step {
	case StepVerifying:
		reply.Verification = s.verificationViewLocked()
	case StepRemoving:
		reply.Removal = s.removalViewLocked()
	case StepCollectingDetails:
		reply.Prompt = s.promptLocked()
	}
	return reply
}
