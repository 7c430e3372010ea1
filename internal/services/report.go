package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"mentorlog-backend/internal/models"
	"mentorlog-backend/internal/repository"
)

// ReportService serves session reports and their two feedback attach points.
type ReportService struct {
	reports  ReportStore
	pairings PairingRegistry
	now      func() time.Time
}

func NewReportService(reports ReportStore, pairings PairingRegistry) *ReportService {
	return &ReportService{reports: reports, pairings: pairings, now: time.Now}
}

func (s *ReportService) ListByPairing(ctx context.Context, pairingID, actingUserID uuid.UUID) ([]*models.SessionReport, error) {
	if _, err := s.membership(ctx, pairingID, actingUserID); err != nil {
		return nil, err
	}
	return s.reports.ListByPairing(ctx, pairingID)
}

func (s *ReportService) Get(ctx context.Context, id, actingUserID uuid.UUID) (*models.SessionReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Report")
	}
	if _, err := s.membership(ctx, report.PairingID, actingUserID); err != nil {
		return nil, err
	}
	return report, nil
}

// AddMentorFeedback fills the report's single mentor feedback slot. Only the
// pairing's mentor may write it, once.
func (s *ReportService) AddMentorFeedback(ctx context.Context, id, mentorID uuid.UUID, comment string) (*models.SessionReport, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, &ValidationError{Fields: map[string]string{"comment": "Comment is required"}}
	}
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Report")
	}
	pairing, err := s.membership(ctx, report.PairingID, mentorID)
	if err != nil {
		return nil, err
	}
	if pairing.MentorID != mentorID {
		return nil, &ForbiddenError{Message: "Only the mentor of this pairing can add feedback"}
	}
	if report.MentorFeedback != nil {
		return nil, &InvalidStateError{Message: "Mentor feedback already exists on this report"}
	}

	fb := &models.MentorFeedback{AuthorID: mentorID, Comment: comment, CreatedAt: s.now().UTC()}
	if err := s.reports.SetMentorFeedback(ctx, id, fb); err != nil {
		if errors.Is(err, repository.ErrAlreadySet) {
			return nil, &InvalidStateError{Message: "Mentor feedback already exists on this report"}
		}
		return nil, err
	}
	report.MentorFeedback = fb
	return report, nil
}

// AddSelfFeedback attaches mentee feedback to the distraction at index in a
// report's copied event list.
func (s *ReportService) AddSelfFeedback(ctx context.Context, id uuid.UUID, index int, menteeID uuid.UUID, comment string) (*models.SessionReport, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, &ValidationError{Fields: map[string]string{"comment": "Comment is required"}}
	}
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Report")
	}
	pairing, err := s.membership(ctx, report.PairingID, menteeID)
	if err != nil {
		return nil, err
	}
	if pairing.MenteeID != menteeID {
		return nil, &ForbiddenError{Message: "Only the mentee of this pairing can add self feedback"}
	}
	if index < 0 || index >= len(report.Distractions) {
		return nil, &InvalidStateError{Message: "Distraction index is out of bounds"}
	}
	if report.Distractions[index].SelfFeedback != nil {
		return nil, &InvalidStateError{Message: "Self feedback already exists on this distraction"}
	}

	prev := report.Distractions
	next := make([]models.DistractionEvent, len(prev))
	copy(next, prev)
	next[index].SelfFeedback = &models.SelfFeedback{Comment: comment, CreatedAt: s.now().UTC()}

	if err := s.reports.ReplaceDistractions(ctx, id, prev, next); err != nil {
		return nil, storeError(err, "Report")
	}
	report.Distractions = next
	return report, nil
}

func (s *ReportService) membership(ctx context.Context, pairingID, actingUserID uuid.UUID) (*models.Pairing, error) {
	pairing, err := s.pairings.GetByID(ctx, pairingID)
	if err != nil {
		return nil, storeError(err, "Pairing")
	}
	if !pairing.IsMember(actingUserID) {
		return nil, &ForbiddenError{Message: "You are not a member of this pairing"}
	}
	return pairing, nil
}
