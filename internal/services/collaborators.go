package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"mentorlog-backend/internal/models"
)

// SessionStore persists study sessions. Update must reject a stale Version
// with repository.ErrVersionConflict.
type SessionStore interface {
	Create(ctx context.Context, s *models.StudySession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error)
	Update(ctx context.Context, s *models.StudySession) error
	ListByMentee(ctx context.Context, menteeID uuid.UUID) ([]*models.StudySession, error)
	ListByPairing(ctx context.Context, pairingID uuid.UUID) ([]*models.StudySession, error)
	ListEndedBetween(ctx context.Context, pairingID uuid.UUID, from, to time.Time) ([]*models.StudySession, error)
}

type ReportStore interface {
	Create(ctx context.Context, rep *models.SessionReport) error
	CountByPairing(ctx context.Context, pairingID uuid.UUID) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.SessionReport, error)
	ListByPairing(ctx context.Context, pairingID uuid.UUID) ([]*models.SessionReport, error)
	SetMentorFeedback(ctx context.Context, id uuid.UUID, fb *models.MentorFeedback) error
	ReplaceDistractions(ctx context.Context, id uuid.UUID, prev, next []models.DistractionEvent) error
}

// WeeklyReportStore keeps at most one report per (pairing, week start).
// Insert reports false when another writer got there first.
type WeeklyReportStore interface {
	Exists(ctx context.Context, pairingID uuid.UUID, weekStart time.Time) (bool, error)
	Insert(ctx context.Context, w *models.WeeklyReport) (bool, error)
	Replace(ctx context.Context, w *models.WeeklyReport) error
	ListByPairing(ctx context.Context, pairingID uuid.UUID) ([]*models.WeeklyReport, error)
	Latest(ctx context.Context, pairingID uuid.UUID) (*models.WeeklyReport, error)
}

type PairingRegistry interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Pairing, error)
	ListConfirmed(ctx context.Context) ([]*models.Pairing, error)
}

type BoardPublisher interface {
	FindByPairing(ctx context.Context, pairingID uuid.UUID) (*models.Board, error)
	CreateEntry(ctx context.Context, boardID, authorID uuid.UUID, title, body string) (*models.BoardEntry, error)
}

// EntryRetryQueue takes board entries whose first write failed.
type EntryRetryQueue interface {
	Enqueue(ctx context.Context, job models.BoardEntryJob) error
}

// TextSummarizer condenses the study notes of one session.
type TextSummarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// WeeklyDigest is the input of a weekly narrative.
type WeeklyDigest struct {
	StudyHours map[string]float64
	TotalHours float64
	FocusMe    int
	FocusAvg   int
}

type NarrativeSummarizer interface {
	SummarizeWeek(ctx context.Context, d WeeklyDigest) (string, error)
}

// VisionVerdict is the outcome of analyzing one frame.
type VisionVerdict struct {
	Phone    bool
	Drowsy   bool
	LeftSeat bool
	Activity string
}

// Detected reports whether any attention loss was observed.
func (v *VisionVerdict) Detected() bool {
	return v != nil && v.Label() != ""
}

// Label names the detected activity. An explicit activity wins over flags.
func (v *VisionVerdict) Label() string {
	switch {
	case strings.TrimSpace(v.Activity) != "":
		return strings.TrimSpace(v.Activity)
	case v.Phone:
		return "phone usage"
	case v.Drowsy:
		return "drowsiness"
	case v.LeftSeat:
		return "left seat"
	}
	return ""
}

type VisionAnalyzer interface {
	Enabled() bool
	AnalyzeFrame(ctx context.Context, sessionID uuid.UUID, frame []byte, filename string) (*VisionVerdict, error)
}

// SessionNotifier pushes a session snapshot to live clients. Delivery is best
// effort.
type SessionNotifier interface {
	SessionUpdated(ctx context.Context, s *models.StudySession)
}
