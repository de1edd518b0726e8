package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/amaumene/catalogarr/internal/controllers"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Workflow is the ingestion engine as seen by the HTTP layer
type Workflow interface {
	Dispatch(ctx context.Context, operatorID int64, action controllers.Action) (*controllers.Reply, error)
	Status(operatorID int64) (controllers.Snapshot, bool)
}

// OperatorHandler exposes the ingestion workflow to admins
type OperatorHandler struct {
	workflow Workflow
	isAdmin  func(operatorID int64) bool
	logger   *logrus.Logger
}

// NewOperatorHandler creates a new operator handler
func NewOperatorHandler(workflow Workflow, isAdmin func(int64) bool, logger *logrus.Logger) *OperatorHandler {
	return &OperatorHandler{
		workflow: workflow,
		isAdmin:  isAdmin,
		logger:   logger,
	}
}

// operatorID reads and authorizes the {id} path parameter
func (h *OperatorHandler) operatorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid operator id")
		return 0, false
	}
	if !h.isAdmin(id) {
		h.logger.WithField("operator_id", id).Warn("Rejected action from non-admin")
		writeError(w, http.StatusForbidden, "operator is not an admin")
		return 0, false
	}
	return id, true
}

// Act handles POST /api/operators/{id}/actions
func (h *OperatorHandler) Act(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := h.operatorID(w, r)
	if !ok {
		return
	}

	var action controllers.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid action")
		return
	}

	reply, err := h.workflow.Dispatch(r.Context(), operatorID, action)
	if err != nil {
		var verr *controllers.ValidationError
		switch {
		case errors.Is(err, controllers.ErrUnexpectedAction):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, controllers.ErrIndexOutOfRange), errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.WithError(err).WithFields(logrus.Fields{
				"operator_id": operatorID,
				"action":      action.Kind,
			}).Error("Action failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// Session handles GET /api/operators/{id}/session
func (h *OperatorHandler) Session(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := h.operatorID(w, r)
	if !ok {
		return
	}

	snapshot, found := h.workflow.Status(operatorID)
	if !found {
		writeError(w, http.StatusNotFound, "no session")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
