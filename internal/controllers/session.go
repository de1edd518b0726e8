package controllers

import (
	"context"
	"sync"

	"github.com/amaumene/catalogarr/internal/models"
)

// Step is the position of an operator in the ingestion workflow
type Step string

const (
	StepIdle              Step = "idle"
	StepAwaitingNames     Step = "awaiting_names"
	StepSearching         Step = "searching"
	StepVerifying         Step = "verifying"
	StepRemoving          Step = "removing"
	StepCollectingDetails Step = "collecting_details"
	StepFinalizing        Step = "finalizing"
)

// PageSize is the number of hits shown per verification page
const PageSize = 10

// Unavailability reasons reported in the finalize summary
const (
	ReasonNoHits     = "no matching files found"
	ReasonAllRemoved = "all files were removed during verification"
)

// ResultSet holds the hits found for one name and the indices the operator
// removed from the selection
type ResultSet struct {
	Hits    []models.SearchHit
	Removed map[int]bool
}

// Selection returns the hits that were not removed, in order
func (r *ResultSet) Selection() []models.SearchHit {
	selected := make([]models.SearchHit, 0, len(r.Hits))
	for i, hit := range r.Hits {
		if !r.Removed[i] {
			selected = append(selected, hit)
		}
	}
	return selected
}

// Session is the in-memory workflow state of one operator. All fields are
// guarded by mu, which is never held across search, store or publish calls.
type Session struct {
	mu sync.Mutex

	OperatorID  int64
	Step        Step
	ContentType models.ContentType

	NamesQueue []string
	NameCursor int

	SearchResults map[string]*ResultSet
	Selections    map[string][]models.SearchHit
	Details       map[string]*ItemDetails
	Unavailable   []string

	unavailableReasons map[string]string

	Page       int
	TotalPages int

	// DetailNames lists the names with a non-empty selection, in queue order
	DetailNames  []string
	DetailCursor int
	FieldCursor  int

	// generation changes on every reset so that results of calls started
	// before a cancel can be recognised and dropped
	generation uint64
	inflight   context.CancelFunc
}

func newSession(operatorID int64) *Session {
	s := &Session{OperatorID: operatorID}
	s.reset()
	return s
}

// reset clears everything and returns the session to Idle. Callers hold mu.
func (s *Session) reset() {
	if s.inflight != nil {
		s.inflight()
		s.inflight = nil
	}
	s.generation++
	s.Step = StepIdle
	s.ContentType = ""
	s.NamesQueue = nil
	s.NameCursor = 0
	s.SearchResults = make(map[string]*ResultSet)
	s.Selections = make(map[string][]models.SearchHit)
	s.Details = make(map[string]*ItemDetails)
	s.Unavailable = nil
	s.unavailableReasons = make(map[string]string)
	s.Page = 0
	s.TotalPages = 0
	s.DetailNames = nil
	s.DetailCursor = 0
	s.FieldCursor = 0
}

func (s *Session) markUnavailable(name, reason string) {
	s.Unavailable = append(s.Unavailable, name)
	s.unavailableReasons[name] = reason
}

// currentName returns the name under the name cursor
func (s *Session) currentName() (string, bool) {
	if s.NameCursor < 0 || s.NameCursor >= len(s.NamesQueue) {
		return "", false
	}
	return s.NamesQueue[s.NameCursor], true
}

// currentResults returns the result set of the name under the cursor
func (s *Session) currentResults() (*ResultSet, bool) {
	name, ok := s.currentName()
	if !ok {
		return nil, false
	}
	rs, ok := s.SearchResults[name]
	return rs, ok
}

// setPage moves to page p, clamped to [0, TotalPages-1]
func (s *Session) setPage(p int) {
	if p > s.TotalPages-1 {
		p = s.TotalPages - 1
	}
	if p < 0 {
		p = 0
	}
	s.Page = p
}

func totalPages(hits int) int {
	return (hits + PageSize - 1) / PageSize
}

// Snapshot is a read-only copy of a session for status reporting
type Snapshot struct {
	OperatorID  int64              `json:"operator_id"`
	Step        Step               `json:"step"`
	ContentType models.ContentType `json:"content_type,omitempty"`
	Names       []string           `json:"names,omitempty"`
	NameCursor  int                `json:"name_cursor"`
	Unavailable []string           `json:"unavailable,omitempty"`
	Page        int                `json:"page"`
	TotalPages  int                `json:"total_pages"`
}

func (s *Session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		OperatorID:  s.OperatorID,
		Step:        s.Step,
		ContentType: s.ContentType,
		Names:       append([]string(nil), s.NamesQueue...),
		NameCursor:  s.NameCursor,
		Unavailable: append([]string(nil), s.Unavailable...),
		Page:        s.Page,
		TotalPages:  s.TotalPages,
	}
}
