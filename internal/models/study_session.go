package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a study session. The zero value is
// not a valid status.
type SessionStatus string

const (
	SessionActive SessionStatus = "ACTIVE"
	SessionPaused SessionStatus = "PAUSED"
	SessionEnded  SessionStatus = "ENDED"
)

// sessionTransitions lists every legal status change. Self transitions for
// ACTIVE and PAUSED are allowed so that distraction and resume stay
// idempotent. ENDED has no outgoing edges.
var sessionTransitions = map[SessionStatus]map[SessionStatus]bool{
	SessionActive: {SessionActive: true, SessionPaused: true, SessionEnded: true},
	SessionPaused: {SessionPaused: true, SessionActive: true, SessionEnded: true},
	SessionEnded:  {},
}

func (s SessionStatus) Valid() bool {
	_, ok := sessionTransitions[s]
	return ok
}

// CanTransition reports whether a session in status s may move to next.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	return sessionTransitions[s][next]
}

func (s SessionStatus) Terminal() bool {
	return s == SessionEnded
}

type StudySession struct {
	ID           uuid.UUID          `json:"id"`
	PairingID    uuid.UUID          `json:"pairing_id"`
	MenteeID     uuid.UUID          `json:"mentee_id"`
	MentorID     uuid.UUID          `json:"mentor_id"`
	StartedAt    time.Time          `json:"started_at"`
	EndedAt      *time.Time         `json:"ended_at,omitempty"`
	Status       SessionStatus      `json:"status"`
	StudyNotes   []StudyNote        `json:"study_notes"`
	Distractions []DistractionEvent `json:"distractions"`
	Questions    []Question         `json:"questions"`
	Version      int                `json:"version"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type StudyNote struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Question struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type DistractionEvent struct {
	Activity     string        `json:"activity"`
	Source       string        `json:"source"` // "VISION_AI" | "MANUAL" | "UNKNOWN" | client supplied
	DetectedAt   time.Time     `json:"detected_at"`
	SelfFeedback *SelfFeedback `json:"self_feedback,omitempty"`
}

type SelfFeedback struct {
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingDistraction returns the most recently appended event if it still
// lacks self feedback.
func (s *StudySession) PendingDistraction() (*DistractionEvent, bool) {
	if len(s.Distractions) == 0 {
		return nil, false
	}
	last := &s.Distractions[len(s.Distractions)-1]
	if last.SelfFeedback != nil {
		return nil, false
	}
	return last, true
}

// IsMember reports whether userID is the mentee or the mentor of the session.
func (s *StudySession) IsMember(userID uuid.UUID) bool {
	return s.MenteeID == userID || s.MentorID == userID
}

// CopyDistractions returns a deep copy of the session's distraction events,
// feedback included.
func (s *StudySession) CopyDistractions() []DistractionEvent {
	out := make([]DistractionEvent, len(s.Distractions))
	for i, d := range s.Distractions {
		out[i] = d
		if d.SelfFeedback != nil {
			fb := *d.SelfFeedback
			out[i].SelfFeedback = &fb
		}
	}
	return out
}
