package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"mentorlog-backend/internal/middleware"
	"mentorlog-backend/internal/models"
)

type sessionService interface {
	Start(ctx context.Context, pairingID, menteeID, mentorID uuid.UUID) (*models.StudySession, error)
	Get(ctx context.Context, id, actingUserID uuid.UUID) (*models.StudySession, error)
	ListByMentee(ctx context.Context, menteeID uuid.UUID) ([]*models.StudySession, error)
	ListByPairing(ctx context.Context, pairingID, actingUserID uuid.UUID) ([]*models.StudySession, error)
	AddStudyNote(ctx context.Context, id uuid.UUID, content string) (*models.StudySession, error)
	AddQuestion(ctx context.Context, id uuid.UUID, text string) (*models.StudySession, error)
	AddSelfFeedback(ctx context.Context, id uuid.UUID, comment string) (*models.StudySession, error)
	Resume(ctx context.Context, id uuid.UUID) (*models.StudySession, error)
	End(ctx context.Context, id uuid.UUID) (*models.StudySession, error)
}

type distractionTracker interface {
	Report(ctx context.Context, sessionID uuid.UUID, activity, source string) (*models.StudySession, error)
	AnalyzeFrame(ctx context.Context, sessionID uuid.UUID, frame []byte, filename string) (*models.StudySession, bool, error)
}

type StudySessionHandler struct {
	sessions      sessionService
	distractions  distractionTracker
	maxFrameBytes int64
}

func NewStudySessionHandler(sessions sessionService, distractions distractionTracker, maxFrameBytes int64) *StudySessionHandler {
	return &StudySessionHandler{sessions: sessions, distractions: distractions, maxFrameBytes: maxFrameBytes}
}

func (h *StudySessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		PairingID string `json:"pairing_id"`
		MentorID  string `json:"mentor_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	pairingID, err := uuid.Parse(req.PairingID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid pairing_id", r))
		return
	}
	mentorID, err := uuid.Parse(req.MentorID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid mentor_id", r))
		return
	}

	session, err := h.sessions.Start(r.Context(), pairingID, userID, mentorID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"session": session})
}

func (h *StudySessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := uuidParam(w, r, "id", "session ID")
	if !ok {
		return
	}
	session, err := h.sessions.Get(r.Context(), sessionID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

func (h *StudySessionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListByMentee(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": nonNil(sessions)})
}

func (h *StudySessionHandler) ListByPairing(w http.ResponseWriter, r *http.Request) {
	pairingID, ok := uuidParam(w, r, "pairingId", "pairing ID")
	if !ok {
		return
	}
	sessions, err := h.sessions.ListByPairing(r.Context(), pairingID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": nonNil(sessions)})
}

func (h *StudySessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.sessions.End(r.Context(), sessionID))
}

func (h *StudySessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.sessions.Resume(r.Context(), sessionID))
}

func (h *StudySessionHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, r)(h.sessions.AddStudyNote(r.Context(), sessionID, req.Content))
}

func (h *StudySessionHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, r)(h.sessions.AddQuestion(r.Context(), sessionID, req.Question))
}

func (h *StudySessionHandler) AddSelfFeedback(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req struct {
		Comment string `json:"comment"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, r)(h.sessions.AddSelfFeedback(r.Context(), sessionID, req.Comment))
}

func (h *StudySessionHandler) AddDistraction(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req struct {
		Activity string `json:"activity"`
		Source   string `json:"source"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, r)(h.distractions.Report(r.Context(), sessionID, req.Activity, req.Source))
}

// AnalyzeFrame accepts a multipart "file" field holding one camera frame.
func (h *StudySessionHandler) AnalyzeFrame(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFrameBytes)
	if err := r.ParseMultipartForm(h.maxFrameBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Frame exceeds the upload limit", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart form", r))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing file field", r))
		return
	}
	defer file.Close()

	frame, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read frame", r))
		return
	}

	session, detected, err := h.distractions.AnalyzeFrame(r.Context(), sessionID, frame, header.Filename)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":  session,
		"detected": detected,
	})
}

// authorize parses the session id and checks the caller belongs to it.
func (h *StudySessionHandler) authorize(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, ok := uuidParam(w, r, "id", "session ID")
	if !ok {
		return uuid.Nil, false
	}
	if _, err := h.sessions.Get(r.Context(), sessionID, middleware.GetUserID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return uuid.Nil, false
	}
	return sessionID, true
}

func (h *StudySessionHandler) respond(w http.ResponseWriter, r *http.Request) func(*models.StudySession, error) {
	return func(session *models.StudySession, err error) {
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
