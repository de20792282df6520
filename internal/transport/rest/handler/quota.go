package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"surveyflow/internal/model"
	"surveyflow/internal/service"
)

// QuotaHandler handles quota administration endpoints
type QuotaHandler struct {
	quotaSvc *service.QuotaService
}

// NewQuotaHandler creates a new quota handler
func NewQuotaHandler(quotaSvc *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{quotaSvc: quotaSvc}
}

// Create handles POST /v1/surveys/{surveyId}/quotas
func (h *QuotaHandler) Create(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	var quota model.Quota
	if err := json.NewDecoder(r.Body).Decode(&quota); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quota.SurveyID = surveyID

	if err := h.quotaSvc.Create(r.Context(), &quota); err != nil {
		if errors.Is(err, service.ErrInvalidQuota) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, quota)
}

// CreateInterlocked handles POST /v1/surveys/{surveyId}/quotas/interlocked
func (h *QuotaHandler) CreateInterlocked(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	var iq model.InterlockedQuota
	if err := json.NewDecoder(r.Body).Decode(&iq); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	iq.SurveyID = surveyID

	cells, err := h.quotaSvc.CreateInterlocked(r.Context(), &iq)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuota) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"quotas": cells})
}

// List handles GET /v1/surveys/{surveyId}/quotas
func (h *QuotaHandler) List(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	quotas, err := h.quotaSvc.Status(r.Context(), surveyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"quotas": quotas})
}

// Reset handles POST /v1/quotas/{quotaId}/reset
func (h *QuotaHandler) Reset(w http.ResponseWriter, r *http.Request) {
	quotaID := mux.Vars(r)["quotaId"]

	if err := h.quotaSvc.Reset(r.Context(), quotaID); err != nil {
		if errors.Is(err, service.ErrQuotaNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
