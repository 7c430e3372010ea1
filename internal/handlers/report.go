package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mentorlog-backend/internal/middleware"
	"mentorlog-backend/internal/models"
)

type reportService interface {
	ListByPairing(ctx context.Context, pairingID, actingUserID uuid.UUID) ([]*models.SessionReport, error)
	Get(ctx context.Context, id, actingUserID uuid.UUID) (*models.SessionReport, error)
	AddMentorFeedback(ctx context.Context, id, mentorID uuid.UUID, comment string) (*models.SessionReport, error)
	AddSelfFeedback(ctx context.Context, id uuid.UUID, index int, menteeID uuid.UUID, comment string) (*models.SessionReport, error)
}

type ReportHandler struct {
	reports reportService
}

func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) ListByPairing(w http.ResponseWriter, r *http.Request) {
	pairingID, ok := uuidParam(w, r, "pairingId", "pairing ID")
	if !ok {
		return
	}
	reports, err := h.reports.ListByPairing(r.Context(), pairingID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": nonNil(reports)})
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	reportID, ok := uuidParam(w, r, "id", "report ID")
	if !ok {
		return
	}
	report, err := h.reports.Get(r.Context(), reportID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

func (h *ReportHandler) AddMentorFeedback(w http.ResponseWriter, r *http.Request) {
	reportID, ok := uuidParam(w, r, "id", "report ID")
	if !ok {
		return
	}
	var req struct {
		Comment string `json:"comment"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := h.reports.AddMentorFeedback(r.Context(), reportID, middleware.GetUserID(r.Context()), req.Comment)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

func (h *ReportHandler) AddSelfFeedback(w http.ResponseWriter, r *http.Request) {
	reportID, ok := uuidParam(w, r, "id", "report ID")
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid distraction index", r))
		return
	}
	var req struct {
		Comment string `json:"comment"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := h.reports.AddSelfFeedback(r.Context(), reportID, index, middleware.GetUserID(r.Context()), req.Comment)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}
