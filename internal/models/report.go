package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionReport is the permanent snapshot produced when a session ends.
type SessionReport struct {
	ID             uuid.UUID          `json:"id"`
	SessionID      uuid.UUID          `json:"session_id"`
	PairingID      uuid.UUID          `json:"pairing_id"`
	MenteeID       uuid.UUID          `json:"mentee_id"`
	Summary        string             `json:"summary"`
	Distractions   []DistractionEvent `json:"distractions"`
	MentorFeedback *MentorFeedback    `json:"mentor_feedback,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

type MentorFeedback struct {
	AuthorID  uuid.UUID `json:"author_id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type WeeklyReport struct {
	ID          uuid.UUID          `json:"id"`
	PairingID   uuid.UUID          `json:"pairing_id"`
	MentorID    uuid.UUID          `json:"mentor_id"`
	MenteeID    uuid.UUID          `json:"mentee_id"`
	WeekStart   time.Time          `json:"week_start"`
	WeekEnd     time.Time          `json:"week_end"` // exclusive
	StudyHours  map[string]float64 `json:"study_hours"`
	TotalHours  float64            `json:"total_hours"`
	FocusMe     int                `json:"focus_me"`
	FocusAvg    int                `json:"focus_avg"`
	Summary     string             `json:"summary"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// GenerationResult summarizes one weekly aggregation run.
type GenerationResult struct {
	WeekStart      string `json:"week_start"` // YYYY-MM-DD in the report time zone
	GeneratedCount int    `json:"generated_count"`
	SkippedCount   int    `json:"skipped_count"`
	TotalPairings  int    `json:"total_matches"`
}
