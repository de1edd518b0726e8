package controllers

import (
	"context"
	"fmt"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/sirupsen/logrus"
)

// HitView is one hit on a verification page
type HitView struct {
	Index   int              `json:"index"` // position in the full hit list
	Hit     models.SearchHit `json:"hit"`
	Removed bool             `json:"removed"`
}

// VerificationView is the page of hits shown for confirmation
type VerificationView struct {
	Name       string    `json:"name"`
	NameIndex  int       `json:"name_index"`
	NameCount  int       `json:"name_count"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	TotalHits  int       `json:"total_hits"`
	Selected   int       `json:"selected"`
	Hits       []HitView `json:"hits"`
}

// RemovalView is the page of hits shown while pruning the selection
type RemovalView struct {
	VerificationView
	RemovedCount int `json:"removed_count"`
}

func (s *Session) verificationViewLocked() *VerificationView {
	name, _ := s.currentName()
	rs, ok := s.currentResults()
	if !ok {
		return &VerificationView{Name: name}
	}

	view := &VerificationView{
		Name:       name,
		NameIndex:  s.NameCursor,
		NameCount:  len(s.NamesQueue),
		Page:       s.Page,
		TotalPages: s.TotalPages,
		TotalHits:  len(rs.Hits),
		Selected:   len(rs.Hits) - len(rs.Removed),
	}

	start := s.Page * PageSize
	end := start + PageSize
	if end > len(rs.Hits) {
		end = len(rs.Hits)
	}
	for i := start; i < end; i++ {
		view.Hits = append(view.Hits, HitView{Index: i, Hit: rs.Hits[i], Removed: rs.Removed[i]})
	}
	return view
}

func (s *Session) removalViewLocked() *RemovalView {
	view := &RemovalView{VerificationView: *s.verificationViewLocked()}
	view.RemovedCount = view.TotalHits - view.Selected
	return view
}

// Correct commits the hits not removed as the selection for the current
// name and moves on to the next name
func (e *Engine) Correct(ctx context.Context, operatorID int64) (*Reply, error) {
	s := e.sessions.Get(operatorID)
	s.mu.Lock()
	if s.Step != StepVerifying {
		step := s.Step
		s.mu.Unlock()
		return nil, unexpected(step, ActionCorrect)
	}

	name, _ := s.currentName()
	rs, ok := s.currentResults()
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("no results held for %q", name)
	}

	selection := rs.Selection()
	if len(selection) == 0 {
		s.markUnavailable(name, ReasonAllRemoved)
	} else {
		s.Selections[name] = selection
	}
	s.NameCursor++
	s.Page = 0
	s.TotalPages = 0
	s.Step = StepSearching
	gen := s.generation
	s.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"operator_id": operatorID,
		"name":        name,
		"selected":    len(selection),
	}).Info("Selection confirmed")

	return e.advanceQueue(ctx, s, gen)
}

// Wrong opens the removal view for the current name
func (e *Engine) Wrong(operatorID int64) (*Reply, error) {
	s := e.sessions.Get(operatorID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepVerifying {
		return nil, unexpected(s.Step, ActionWrong)
	}
	s.Step = StepRemoving
	s.setPage(s.Page)

	return s.replyLocked(), nil
}

// Toggle flips whether the hit at index is excluded from the selection
func (e *Engine) Toggle(operatorID int64, index int) (*Reply, error) {
	s := e.sessions.Get(operatorID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepRemoving {
		return nil, unexpected(s.Step, ActionToggle)
	}
	rs, ok := s.currentResults()
	if !ok || index < 0 || index >= len(rs.Hits) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	if rs.Removed[index] {
		delete(rs.Removed, index)
	} else {
		rs.Removed[index] = true
	}

	return s.replyLocked(), nil
}

// Done closes the removal view and returns to verification
func (e *Engine) Done(operatorID int64) (*Reply, error) {
	s := e.sessions.Get(operatorID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepRemoving {
		return nil, unexpected(s.Step, ActionDone)
	}
	s.Step = StepVerifying
	s.setPage(s.Page)

	return s.replyLocked(), nil
}

// NavigatePage moves the page cursor of the verification or removal view.
// The resulting page is always clamped into range.
func (e *Engine) NavigatePage(operatorID int64, move func(page int) int) (*Reply, error) {
	s := e.sessions.Get(operatorID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepVerifying && s.Step != StepRemoving {
		return nil, unexpected(s.Step, ActionGoToPage)
	}
	s.setPage(move(s.Page))

	return s.replyLocked(), nil
}
