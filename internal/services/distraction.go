package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"mentorlog-backend/internal/models"
)

// DistractionTracker records attention loss, either reported directly or
// detected from a camera frame.
type DistractionTracker struct {
	sessions *SessionService
	vision   VisionAnalyzer
}

func NewDistractionTracker(sessions *SessionService, vision VisionAnalyzer) *DistractionTracker {
	return &DistractionTracker{sessions: sessions, vision: vision}
}

func (t *DistractionTracker) Report(ctx context.Context, sessionID uuid.UUID, activity, source string) (*models.StudySession, error) {
	return t.sessions.AddDistraction(ctx, sessionID, activity, source)
}

// AnalyzeFrame forwards frame to the vision analyzer. Only a positive verdict
// appends an event; otherwise the session is returned unchanged and detected
// is false.
func (t *DistractionTracker) AnalyzeFrame(ctx context.Context, sessionID uuid.UUID, frame []byte, filename string) (session *models.StudySession, detected bool, err error) {
	session, err = t.sessions.load(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if t.vision == nil || !t.vision.Enabled() {
		return session, false, nil
	}

	verdict, err := t.vision.AnalyzeFrame(ctx, sessionID, frame, filename)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Vision analysis failed")
		return session, false, nil
	}
	if !verdict.Detected() {
		return session, false, nil
	}

	session, err = t.sessions.AddDistraction(ctx, sessionID, verdict.Label(), SourceVision)
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}
