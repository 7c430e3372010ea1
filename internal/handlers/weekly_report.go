package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mentorlog-backend/internal/middleware"
	"mentorlog-backend/internal/models"
)

type weeklyReportService interface {
	List(ctx context.Context, pairingID, actingUserID uuid.UUID) ([]*models.WeeklyReport, error)
	Latest(ctx context.Context, pairingID, actingUserID uuid.UUID) (*models.WeeklyReport, error)
	GenerateForWeek(ctx context.Context, date time.Time, overwrite bool) (*models.GenerationResult, error)
	GenerateForPreviousWeek(ctx context.Context, overwrite bool) (*models.GenerationResult, error)
	Location() *time.Location
}

type WeeklyReportHandler struct {
	weekly weeklyReportService
}

func NewWeeklyReportHandler(weekly weeklyReportService) *WeeklyReportHandler {
	return &WeeklyReportHandler{weekly: weekly}
}

func (h *WeeklyReportHandler) List(w http.ResponseWriter, r *http.Request) {
	pairingID, ok := uuidParam(w, r, "pairingId", "pairing ID")
	if !ok {
		return
	}
	reports, err := h.weekly.List(r.Context(), pairingID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"weekly_reports": nonNil(reports)})
}

// Latest responds with a null weekly_report when the pairing has none yet.
func (h *WeeklyReportHandler) Latest(w http.ResponseWriter, r *http.Request) {
	pairingID, ok := uuidParam(w, r, "pairingId", "pairing ID")
	if !ok {
		return
	}
	report, err := h.weekly.Latest(r.Context(), pairingID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"weekly_report": report})
}

// Generate runs aggregation for ?week_start=YYYY-MM-DD, or for the previous
// week when it is absent. ?overwrite=true replaces existing reports.
func (h *WeeklyReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	overwrite := false
	if raw := q.Get("overwrite"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "overwrite must be true or false", r))
			return
		}
		overwrite = v
	}

	var (
		result *models.GenerationResult
		err    error
	)
	if raw := q.Get("week_start"); raw != "" {
		date, perr := time.ParseInLocation("2006-01-02", raw, h.weekly.Location())
		if perr != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "week_start must be YYYY-MM-DD", r))
			return
		}
		result, err = h.weekly.GenerateForWeek(r.Context(), date, overwrite)
	} else {
		result, err = h.weekly.GenerateForPreviousWeek(r.Context(), overwrite)
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
