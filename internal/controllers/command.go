package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnexpectedAction is returned for an action the current step does not accept
	ErrUnexpectedAction = errors.New("action not valid in current step")

	// ErrIndexOutOfRange is returned when a toggle names a hit that does not exist
	ErrIndexOutOfRange = errors.New("hit index out of range")

	// ErrNoNames is returned when the submitted text holds no usable name
	ErrNoNames = &ValidationError{Field: "names", Reason: "no names found, separate names with commas"}
)

// ValidationError reports operator input that cannot be used as given
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ActionKind names an operator action
type ActionKind string

const (
	ActionSelectType  ActionKind = "select_type"
	ActionSubmitNames ActionKind = "submit_names"
	ActionCorrect     ActionKind = "correct"
	ActionWrong       ActionKind = "wrong"
	ActionToggle      ActionKind = "toggle"
	ActionDone        ActionKind = "done"
	ActionNextPage    ActionKind = "next_page"
	ActionPrevPage    ActionKind = "prev_page"
	ActionGoToPage    ActionKind = "goto_page"
	ActionSubmitField ActionKind = "submit_field"
	ActionCancel      ActionKind = "cancel"
)

// Action is one operator input. Only the fields relevant to Kind are read:
// ContentType for select_type, Text for submit_names and submit_field,
// Index for toggle and goto_page.
type Action struct {
	Kind        ActionKind         `json:"kind"`
	ContentType models.ContentType `json:"content_type,omitempty"`
	Text        string             `json:"text,omitempty"`
	Index       int                `json:"index,omitempty"`
}

// Reply describes where the workflow stands after an action. At most one of
// the view fields is set.
type Reply struct {
	Step         Step              `json:"step"`
	Accepted     *NamesAccepted    `json:"accepted,omitempty"`
	Verification *VerificationView `json:"verification,omitempty"`
	Removal      *RemovalView      `json:"removal,omitempty"`
	Prompt       *Prompt           `json:"prompt,omitempty"`
	Summary      *FinalizeSummary  `json:"summary,omitempty"`

	// Stale is set when the session was cancelled while this action was
	// waiting on a search; its result was dropped.
	Stale bool `json:"stale,omitempty"`
}

// NamesAccepted echoes the parsed name queue
type NamesAccepted struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

// Searcher finds files matching a name in the configured channels
type Searcher interface {
	Search(ctx context.Context, term string) []models.SearchHit
}

// CatalogStore persists finalized records
type CatalogStore interface {
	UpsertRecord(rec models.Record) (string, error)
	FindNearDuplicates(c models.Collection, name string, year *int) ([]string, error)
	MarkPublished(id string) error
}

// Publisher announces persisted records
type Publisher interface {
	Enabled() bool
	Publish(ctx context.Context, rec models.Record) bool
}

// Engine drives the per-operator ingestion workflow
type Engine struct {
	sessions  *SessionStore
	searcher  Searcher
	store     CatalogStore
	publisher Publisher
	logger    *logrus.Logger
}

// NewEngine creates a new workflow engine
func NewEngine(sessions *SessionStore, searcher Searcher, store CatalogStore, publisher Publisher, logger *logrus.Logger) *Engine {
	return &Engine{
		sessions:  sessions,
		searcher:  searcher,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Dispatch applies one operator action
func (e *Engine) Dispatch(ctx context.Context, operatorID int64, action Action) (*Reply, error) {
	e.logger.WithFields(logrus.Fields{
		"operator_id": operatorID,
		"action":      action.Kind,
	}).Debug("Dispatching action")

	switch action.Kind {
	case ActionSelectType:
		return e.SelectType(operatorID, action.ContentType)
	case ActionSubmitNames:
		return e.SubmitNames(ctx, operatorID, action.Text)
	case ActionCorrect:
		return e.Correct(ctx, operatorID)
	case ActionWrong:
		return e.Wrong(operatorID)
	case ActionToggle:
		return e.Toggle(operatorID, action.Index)
	case ActionDone:
		return e.Done(operatorID)
	case ActionNextPage:
		return e.NavigatePage(operatorID, func(p int) int { return p + 1 })
	case ActionPrevPage:
		return e.NavigatePage(operatorID, func(p int) int { return p - 1 })
	case ActionGoToPage:
		return e.NavigatePage(operatorID, func(int) int { return action.Index })
	case ActionSubmitField:
		return e.SubmitField(ctx, operatorID, action.Text)
	case ActionCancel:
		return e.Cancel(operatorID), nil
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrUnexpectedAction, action.Kind)
	}
}

// Cancel discards the operator's workflow and returns it to Idle. It is
// valid in every step, including while a search is in flight.
func (e *Engine) Cancel(operatorID int64) *Reply {
	s := e.sessions.Get(operatorID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepIdle {
		e.logger.WithFields(logrus.Fields{
			"operator_id": operatorID,
			"step":        s.Step,
		}).Info("Workflow cancelled")
	}
	s.reset()

	return &Reply{Step: StepIdle}
}

// Status returns a copy of the operator's session, if one exists
func (e *Engine) Status(operatorID int64) (Snapshot, bool) {
	s, ok := e.sessions.Lookup(operatorID)
	if !ok {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

// ActiveSessions returns the number of sessions held in memory
func (e *Engine) ActiveSessions() int {
	return e.sessions.Count()
}

func unexpected(step Step, kind ActionKind) error {
	return fmt.Errorf("%w: %s during %s", ErrUnexpectedAction, kind, step)
}
