package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"surveyflow/internal/model"
	"surveyflow/internal/service"
)

// FlowHandler handles the response-flow endpoints: session start, answer
// submission, and completion.
type FlowHandler struct {
	flowSvc *service.FlowService
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(flowSvc *service.FlowService) *FlowHandler {
	return &FlowHandler{flowSvc: flowSvc}
}

// SubmitAnswerRequest is the request body for submitting one answer
type SubmitAnswerRequest struct {
	QuestionID string            `json:"questionId"`
	Value      model.AnswerValue `json:"value"`
}

// StartSession handles POST /v1/surveys/{surveyId}/sessions
func (h *FlowHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	session, err := h.flowSvc.StartSession(r.Context(), surveyID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSurveyNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSurveyClosed):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// SubmitAnswer handles POST /v1/sessions/{sessionId}/answers
func (h *FlowHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "questionId is required")
		return
	}

	decision, err := h.flowSvc.OnAnswer(r.Context(), sessionID, req.QuestionID, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSessionTerminal):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

// Complete handles POST /v1/sessions/{sessionId}/complete
func (h *FlowHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	result, err := h.flowSvc.OnComplete(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCompletionInProgress):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrSessionTerminal):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
