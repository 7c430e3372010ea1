package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"mentorlog-backend/internal/models"
)

const (
	SourceVision  = "VISION_AI"
	SourceManual  = "MANUAL"
	SourceUnknown = "UNKNOWN"
)

// SessionService owns study sessions and every transition on them.
type SessionService struct {
	sessions SessionStore
	pairings PairingRegistry
	pipeline *ReportPipeline
	notifier SessionNotifier
	now      func() time.Time
}

func NewSessionService(sessions SessionStore, pairings PairingRegistry, pipeline *ReportPipeline, notifier SessionNotifier) *SessionService {
	return &SessionService{
		sessions: sessions,
		pairings: pairings,
		pipeline: pipeline,
		notifier: notifier,
		now:      time.Now,
	}
}

// Start opens an ACTIVE session for a confirmed pairing. menteeID is the
// acting user and must be the pairing's mentee.
func (s *SessionService) Start(ctx context.Context, pairingID, menteeID, mentorID uuid.UUID) (*models.StudySession, error) {
	if pairingID == uuid.Nil || mentorID == uuid.Nil {
		fields := map[string]string{}
		if pairingID == uuid.Nil {
			fields["pairing_id"] = "Pairing ID is required"
		}
		if mentorID == uuid.Nil {
			fields["mentor_id"] = "Mentor ID is required"
		}
		return nil, &ValidationError{Fields: fields}
	}

	pairing, err := s.pairings.GetByID(ctx, pairingID)
	if err != nil {
		return nil, storeError(err, "Pairing")
	}
	if !pairing.Confirmed() {
		return nil, &NotFoundError{Message: "Pairing not found"}
	}
	if pairing.MenteeID != menteeID || pairing.MentorID != mentorID {
		return nil, &ForbiddenError{Message: "You are not the mentee of this pairing"}
	}

	session := &models.StudySession{
		ID:           uuid.New(),
		PairingID:    pairingID,
		MenteeID:     menteeID,
		MentorID:     mentorID,
		StartedAt:    s.now().UTC(),
		Status:       models.SessionActive,
		StudyNotes:   []models.StudyNote{},
		Distractions: []models.DistractionEvent{},
		Questions:    []models.Question{},
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	log.Info().Str("session_id", session.ID.String()).Str("pairing_id", pairingID.String()).Msg("Study session started")
	s.notify(ctx, session)
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id, actingUserID uuid.UUID) (*models.StudySession, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.IsMember(actingUserID) {
		return nil, &ForbiddenError{Message: "You are not a member of this session"}
	}
	return session, nil
}

func (s *SessionService) ListByMentee(ctx context.Context, menteeID uuid.UUID) ([]*models.StudySession, error) {
	return s.sessions.ListByMentee(ctx, menteeID)
}

func (s *SessionService) ListByPairing(ctx context.Context, pairingID, actingUserID uuid.UUID) ([]*models.StudySession, error) {
	pairing, err := s.pairings.GetByID(ctx, pairingID)
	if err != nil {
		return nil, storeError(err, "Pairing")
	}
	if !pairing.IsMember(actingUserID) {
		return nil, &ForbiddenError{Message: "You are not a member of this pairing"}
	}
	return s.sessions.ListByPairing(ctx, pairingID)
}

func (s *SessionService) AddStudyNote(ctx context.Context, id uuid.UUID, content string) (*models.StudySession, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "Content is required"}}
	}
	return s.mutate(ctx, id, func(session *models.StudySession, now time.Time) error {
		session.StudyNotes = append(session.StudyNotes, models.StudyNote{Content: content, CreatedAt: now})
		return nil
	})
}

func (s *SessionService) AddQuestion(ctx context.Context, id uuid.UUID, text string) (*models.StudySession, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Fields: map[string]string{"question": "Question is required"}}
	}
	return s.mutate(ctx, id, func(session *models.StudySession, now time.Time) error {
		session.Questions = append(session.Questions, models.Question{Text: text, CreatedAt: now})
		return nil
	})
}

// AddDistraction appends an event and pauses the session. A session that is
// already paused stays paused.
func (s *SessionService) AddDistraction(ctx context.Context, id uuid.UUID, activity, source string) (*models.StudySession, error) {
	return s.mutate(ctx, id, func(session *models.StudySession, now time.Time) error {
		return appendDistraction(session, activity, source, now)
	})
}

// AddSelfFeedback resolves the most recent distraction. It fails when there
// is no event or the latest one already has feedback.
func (s *SessionService) AddSelfFeedback(ctx context.Context, id uuid.UUID, comment string) (*models.StudySession, error) {
	return s.mutate(ctx, id, func(session *models.StudySession, now time.Time) error {
		if len(session.Distractions) == 0 {
			return &InvalidStateError{Message: "No distraction to attach feedback to"}
		}
		pending, ok := session.PendingDistraction()
		if !ok {
			return &InvalidStateError{Message: "Latest distraction already has feedback"}
		}
		pending.SelfFeedback = &models.SelfFeedback{Comment: comment, CreatedAt: now}
		return nil
	})
}

// Resume returns the session to ACTIVE. Whether the triggering distraction
// received feedback is not checked.
func (s *SessionService) Resume(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	return s.mutate(ctx, id, func(session *models.StudySession, _ time.Time) error {
		return transition(session, models.SessionActive)
	})
}

// End closes the session and runs the report pipeline before returning. The
// ENDED status is committed first so a concurrent End loses the version race
// and no second report is produced.
func (s *SessionService) End(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionEnded {
		return nil, &InvalidStateError{Message: "Session has already ended"}
	}

	endedAt := s.now().UTC()
	session.EndedAt = &endedAt
	if err := transition(session, models.SessionEnded); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, storeError(err, "Session")
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Float64("net_minutes", NetMinutes(session)).
		Msg("Study session ended")
	s.notify(ctx, session)

	if s.pipeline != nil {
		if _, err := s.pipeline.Run(ctx, session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (s *SessionService) load(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Session not found"}
		}
		return nil, err
	}
	return session, nil
}

// mutate loads, applies fn and writes back with a version check. Any change
// to an ENDED session is rejected.
func (s *SessionService) mutate(ctx context.Context, id uuid.UUID, fn func(*models.StudySession, time.Time) error) (*models.StudySession, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, &InvalidStateError{Message: "Session has already ended"}
	}
	if err := fn(session, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, storeError(err, "Session")
	}
	s.notify(ctx, session)
	return session, nil
}

func (s *SessionService) notify(ctx context.Context, session *models.StudySession) {
	if s.notifier != nil {
		s.notifier.SessionUpdated(ctx, session)
	}
}

func appendDistraction(session *models.StudySession, activity, source string, now time.Time) error {
	if strings.TrimSpace(source) == "" {
		source = SourceUnknown
	}
	session.Distractions = append(session.Distractions, models.DistractionEvent{
		Activity:   activity,
		Source:     source,
		DetectedAt: now,
	})
	return transition(session, models.SessionPaused)
}

func transition(session *models.StudySession, next models.SessionStatus) error {
	if !session.Status.CanTransition(next) {
		return &InvalidStateError{Message: "Cannot move session from " + string(session.Status) + " to " + string(next)}
	}
	session.Status = next
	return nil
}
